package transport

import (
	"errors"

	"go.uber.org/zap"

	serial "github.com/allbin/serial-telemetry"
)

// NewTermios returns a handle backed by the package's own termios port
func NewTermios(logger *zap.Logger) Handle {
	return newHandle("termios", openTermios, classifyTermios, logger)
}

func openTermios(cfg serial.PortConfig) (rawPort, error) {
	c := cfg.Config
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadWait
	}

	p, err := serial.OpenConfig(cfg.Name, c)
	if err != nil {
		return nil, err
	}
	// Drop whatever the device sent before we were listening
	if err := p.FlushInput(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func classifyTermios(err error) ErrorKind {
	switch {
	case errors.Is(err, serial.ErrDeviceLost),
		errors.Is(err, serial.ErrDeviceNotFound),
		errors.Is(err, serial.ErrPortClosed):
		return ResourceError
	default:
		return ReadError
	}
}
