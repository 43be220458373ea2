// Package protocol implements the newline framed key:value telemetry
// protocol: line assembly, field lookup and number extraction.
package protocol

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// Record is one decoded telemetry line
type Record struct {
	Field Field
	Name  string
	Value decimal.Decimal
	Text  string // Value rendered for display
	Raw   []byte
}

// Decode turns a complete line into a Record. It returns false for lines
// without a ':' separator, unknown field names and lines that carry no
// number. None of these are errors.
//
// The number is searched for in the whole line, not only after the
// separator, so "Current 2:5" yields 2.
func Decode(line []byte) (Record, bool) {
	sep := bytes.IndexByte(line, ':')
	if sep < 0 {
		return Record{}, false
	}

	name := string(line[:sep])
	field, ok := LookupField(name)
	if !ok {
		return Record{}, false
	}

	match := numberPattern.Find(line)
	if match == nil {
		return Record{}, false
	}

	value, err := decimal.NewFromString(string(match))
	if err != nil {
		return Record{}, false
	}
	// decimal has no negative zero; the display text keeps the sign
	f, err := strconv.ParseFloat(string(match), 64)
	if err != nil {
		return Record{}, false
	}

	return Record{
		Field: field,
		Name:  name,
		Value: value,
		Text:  FormatValue(f),
		Raw:   line,
	}, true
}

// FormatValue renders v with at most 10 significant digits and no
// trailing zeros, switching to exponent form for very large or small
// magnitudes. Negative zero renders as "-0".
func FormatValue(f float64) string {
	return strconv.FormatFloat(f, 'g', 10, 64)
}
