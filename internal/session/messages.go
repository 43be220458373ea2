package session

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgConnectedTo  = "msg.connected_to"
	msgWriteFailed  = "msg.write_failed"
	msgWriteTimeout = "msg.write_timeout"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.German,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	message.SetString(language.English, msgConnectedTo, "Connected to %s : %s, %s, %s, %s, %s")
	message.SetString(language.English, msgWriteFailed, "Failed to write all data to port %s.\nError: %s")
	message.SetString(language.English, msgWriteTimeout, "Write operation timed out for port %s.\nError: %s")

	message.SetString(language.German, msgConnectedTo, "Verbunden mit %s : %s, %s, %s, %s, %s")
	message.SetString(language.German, msgWriteFailed, "Nicht alle Daten konnten auf Port %s geschrieben werden.\nFehler: %s")
	message.SetString(language.German, msgWriteTimeout, "Zeitüberschreitung beim Schreiben auf Port %s.\nFehler: %s")
}

// ParseLanguage resolves a BCP 47 tag to the closest supported language.
// Unsupported but well formed tags fall back to English.
func ParseLanguage(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.English, fmt.Errorf("invalid language %q: %w", s, err)
	}
	_, index, _ := languageMatcher.Match(tag)
	return supportedLanguages[index], nil
}

// Arguments are passed as strings; the printer would otherwise group
// digits of integers by locale.
func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}
