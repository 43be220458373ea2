package transport

import (
	"errors"
	"fmt"
	"strings"

	bugst "go.bug.st/serial"
	"go.uber.org/zap"

	serial "github.com/allbin/serial-telemetry"
)

// NewBugst returns a handle backed by go.bug.st/serial
func NewBugst(logger *zap.Logger) Handle {
	return newHandle("bugst", openBugst, classifyBugst, logger)
}

// bugstMode maps a Config onto the driver's Mode. The driver has no flow
// control setting, so only FlowControlNone is accepted.
func bugstMode(c serial.Config) (*bugst.Mode, error) {
	mode := &bugst.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}

	switch c.Parity {
	case serial.ParityNone:
		mode.Parity = bugst.NoParity
	case serial.ParityOdd:
		mode.Parity = bugst.OddParity
	case serial.ParityEven:
		mode.Parity = bugst.EvenParity
	case serial.ParityMark:
		mode.Parity = bugst.MarkParity
	case serial.ParitySpace:
		mode.Parity = bugst.SpaceParity
	default:
		return nil, serial.ErrInvalidConfig
	}

	switch c.StopBits {
	case serial.StopBitsOne:
		mode.StopBits = bugst.OneStopBit
	case serial.StopBitsOnePointFive:
		mode.StopBits = bugst.OnePointFiveStopBits
	case serial.StopBitsTwo:
		mode.StopBits = bugst.TwoStopBits
	default:
		return nil, serial.ErrInvalidConfig
	}

	if c.FlowControl != serial.FlowControlNone {
		return nil, fmt.Errorf("%w: flow control %s", serial.ErrUnsupported, c.FlowControl)
	}
	return mode, nil
}

func openBugst(cfg serial.PortConfig) (rawPort, error) {
	mode, err := bugstMode(cfg.Config)
	if err != nil {
		return nil, err
	}

	p, err := bugst.Open(cfg.Name, mode)
	if err != nil {
		return nil, err
	}

	timeout := cfg.ReadTimeout
	if timeout == 0 {
		timeout = defaultReadWait
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func classifyBugst(err error) ErrorKind {
	if code, ok := portErrorCode(err); ok {
		switch code {
		case bugst.PortNotFound, bugst.PortClosed, bugst.InvalidSerialPort:
			return ResourceError
		default:
			return ReadError
		}
	}

	// OS errors are passed through unwrapped
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"input/output error",
		"no such device",
		"device not configured",
		"broken pipe",
	} {
		if strings.Contains(msg, s) {
			return ResourceError
		}
	}
	return classifyTermios(err)
}

// portErrorCode accepts both the pointer and value forms the driver uses
func portErrorCode(err error) (bugst.PortErrorCode, bool) {
	var ptr *bugst.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val bugst.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}
