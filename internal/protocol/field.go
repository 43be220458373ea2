package protocol

// Field identifies one of the fixed telemetry values a device reports
type Field int

const (
	PowerStep Field = iota
	ErrorBuf
	MainsInput
	ADMainsInput
	ADCMainsInputValue
	Current
	ADCCurrent
	Power
)

// fieldNames holds the exact wire spelling of every field, indexed by Field
var fieldNames = [...]string{
	PowerStep:          "PowerStep",
	ErrorBuf:           "ErrorBuf",
	MainsInput:         "Mains input",
	ADMainsInput:       "AD Mains input",
	ADCMainsInputValue: "ADC Mains input value",
	Current:            "Current",
	ADCCurrent:         "ADC Current",
	Power:              "Power",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldNames))
	for i, name := range fieldNames {
		m[name] = Field(i)
	}
	return m
}()

// Fields returns every known field in display order
func Fields() []Field {
	fields := make([]Field, len(fieldNames))
	for i := range fieldNames {
		fields[i] = Field(i)
	}
	return fields
}

// String returns the wire name of the field
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "Unknown"
	}
	return fieldNames[f]
}

// LookupField matches name case-sensitively against the known wire names
func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}
