package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/transport"
)

func TestCaptureUntilDeviceLost(t *testing.T) {
	events := make(chan transport.Event, 4)
	events <- transport.Received{Data: []byte("Current:-3\nNoise\n")}
	events <- transport.Failure{Kind: transport.ReadError, Err: errors.New("glitch")}
	events <- transport.Received{Data: []byte("Power:2\n")}
	events <- transport.Failure{Kind: transport.ResourceError, Err: io.EOF}

	var file, console bytes.Buffer
	n, err := capture(context.Background(), events, &file, &console, protocol.NewAssembler(protocol.FramingLine))

	assert.ErrorIs(t, err, errDeviceLost)
	assert.Equal(t, int64(file.Len()), n)
	assert.Equal(t, "Current:-3\nNoise\nPower:2\n", file.String())
	assert.Equal(t, "Current=-3\nPower=2\n", console.String())
}

func TestCaptureStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var file bytes.Buffer
	n, err := capture(ctx, make(chan transport.Event), &file, nil, protocol.NewAssembler(protocol.FramingLine))

	assert.NoError(t, err)
	assert.Zero(t, n)
}
