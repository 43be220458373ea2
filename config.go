package serial

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone     FlowControl = iota
	FlowControlHardware             // RTS/CTS handled by the driver
	FlowControlSoftware             // XON/XOFF
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// StopBits represents the number of stop bits
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

// Config holds the line settings for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    StopBits
	Parity      Parity
	FlowControl FlowControl
	ReadTimeout time.Duration // VTIME granularity: multiples of 100ms up to 25.5s
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    StopBitsOne,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits StopBits) Option {
	return func(c *Config) error {
		if bits < StopBitsOne || bits > StopBitsTwo {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc < FlowControlNone || fc > FlowControlSoftware {
			return ErrInvalidConfig
		}
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout sets how long a read may wait for the first byte.
// The kernel counts in tenths of a second, so the duration must be a
// multiple of 100ms between 0 and 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > 25500*time.Millisecond {
			return ErrInvalidConfig
		}
		if timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// readTimeoutTenths converts ReadTimeout to the VTIME value
func (c Config) readTimeoutTenths() uint8 {
	return uint8(c.ReadTimeout / (100 * time.Millisecond))
}

// PortConfig names a device together with its line settings. It is built
// once per connection attempt.
type PortConfig struct {
	Name string
	Config
}

// NewPortConfig applies opts on top of DefaultConfig for the named device
func NewPortConfig(name string, opts ...Option) (PortConfig, error) {
	if strings.TrimSpace(name) == "" {
		return PortConfig{}, fmt.Errorf("%w: empty port name", ErrInvalidConfig)
	}
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return PortConfig{}, err
		}
	}
	return PortConfig{Name: name, Config: config}, nil
}

// SummaryFields returns the display strings for baud rate, data bits,
// parity, stop bits and flow control, in that order.
func (c Config) SummaryFields() []string {
	return []string{
		strconv.Itoa(c.BaudRate),
		strconv.Itoa(c.DataBits),
		c.Parity.String(),
		c.StopBits.String(),
		c.FlowControl.String(),
	}
}

// Short renders the compact "115200 8N1" notation used in status lines
func (c Config) Short() string {
	return fmt.Sprintf("%d %d%s%s", c.BaudRate, c.DataBits, c.Parity.Letter(), c.StopBits)
}

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "None"
	case ParityOdd:
		return "Odd"
	case ParityEven:
		return "Even"
	case ParityMark:
		return "Mark"
	case ParitySpace:
		return "Space"
	default:
		return "Unknown"
	}
}

// Letter returns the single-letter parity code (N, O, E, M, S)
func (p Parity) Letter() string {
	s := p.String()
	if s == "Unknown" {
		return "?"
	}
	return s[:1]
}

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	default:
		return "?"
	}
}

func (fc FlowControl) String() string {
	switch fc {
	case FlowControlNone:
		return "None"
	case FlowControlHardware:
		return "RTS/CTS"
	case FlowControlSoftware:
		return "XON/XOFF"
	default:
		return "Unknown"
	}
}

// ParseParity accepts none, odd, even, mark, space or their first letter
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	case "m", "mark":
		return ParityMark, nil
	case "s", "space":
		return ParitySpace, nil
	}
	return ParityNone, fmt.Errorf("%w: unknown parity %q", ErrInvalidConfig, s)
}

// ParseStopBits accepts 1, 1.5 or 2
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "", "1":
		return StopBitsOne, nil
	case "1.5":
		return StopBitsOnePointFive, nil
	case "2":
		return StopBitsTwo, nil
	}
	return StopBitsOne, fmt.Errorf("%w: unknown stop bits %q", ErrInvalidConfig, s)
}

// ParseFlowControl accepts none, hardware (rtscts) or software (xonxoff)
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlowControlNone, nil
	case "hardware", "rtscts", "rts/cts":
		return FlowControlHardware, nil
	case "software", "xonxoff", "xon/xoff":
		return FlowControlSoftware, nil
	}
	return FlowControlNone, fmt.Errorf("%w: unknown flow control %q", ErrInvalidConfig, s)
}
