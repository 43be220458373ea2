package protocol

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		line  string
		field Field
		text  string
	}{
		{"PowerStep:12.5\n", PowerStep, "12.5"},
		{"Current:-3\n", Current, "-3"},
		{"ErrorBuf:0\n", ErrorBuf, "0"},
		{"Mains input:230.10 V\n", MainsInput, "230.1"},
		{"AD Mains input: 1023\r\n", ADMainsInput, "1023"},
		{"ADC Mains input value:=-0.5\n", ADCMainsInputValue, "-0.5"},
		{"ADC Current:12.\n", ADCCurrent, "12"},
		{"Power:1.23456789012\n", Power, "1.23456789"},
		{"Power:12345678901\n", Power, "1.23456789e+10"},
		{"Power:007\n", Power, "7"},
		{"Power:1:2\n", Power, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec, ok := Decode([]byte(tt.line))
			require.True(t, ok)
			assert.Equal(t, tt.field, rec.Field)
			assert.Equal(t, tt.field.String(), rec.Name)
			assert.Equal(t, tt.text, rec.Text)
			assert.Equal(t, tt.line, string(rec.Raw))
		})
	}
}

func TestDecodeIgnoresLines(t *testing.T) {
	lines := []string{
		"Unknown:9\n",
		"Power9\n",
		"power:9\n",
		"PowerStep :9\n",
		"PowerStep:\n",
		"PowerStep:n/a\n",
		":12\n",
		"\n",
		"",
	}

	for _, line := range lines {
		_, ok := Decode([]byte(line))
		assert.False(t, ok, "Decode(%q)", line)
	}
}

func TestDecodeUnknownNamesNeverMatch(t *testing.T) {
	for _, name := range []string{"Volt", "Powerstep", "ADC", "Mains", "Current2", "ERRORBUF"} {
		_, ok := Decode([]byte(name + ":1\n"))
		assert.False(t, ok, name)
	}
}

// The number is taken from the first match anywhere in the line
func TestDecodeSearchesWholeLine(t *testing.T) {
	rec, ok := Decode([]byte("PowerStep:step 3 of 4\n"))
	require.True(t, ok)
	assert.Equal(t, "3", rec.Text)
	assert.True(t, rec.Value.Equal(decimal.NewFromInt(3)))
}

func TestFormatValue(t *testing.T) {
	tests := map[string]string{
		"12.5":         "12.5",
		"-3":           "-3",
		"0.000012":     "1.2e-05",
		"1234567890":   "1234567890",
		"0.1000000000": "0.1",
		"-0":           "-0",
		"-0.0":         "-0",
	}
	for in, want := range tests {
		f, err := strconv.ParseFloat(in, 64)
		require.NoError(t, err)
		assert.Equal(t, want, FormatValue(f), in)
	}
}

func TestDecodeKeepsNegativeZero(t *testing.T) {
	rec, ok := Decode([]byte("Current:-0.0\n"))
	require.True(t, ok)
	assert.Equal(t, "-0", rec.Text)
	assert.True(t, rec.Value.IsZero())
}
