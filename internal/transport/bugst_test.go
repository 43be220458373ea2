package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"

	serial "github.com/allbin/serial-telemetry"
)

func TestBugstMode(t *testing.T) {
	c := serial.DefaultConfig()
	c.BaudRate = 9600
	c.DataBits = 7
	c.Parity = serial.ParityMark
	c.StopBits = serial.StopBitsOnePointFive

	mode, err := bugstMode(c)
	require.NoError(t, err)
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, bugst.MarkParity, mode.Parity)
	assert.Equal(t, bugst.OnePointFiveStopBits, mode.StopBits)
}

func TestBugstModeRejectsFlowControl(t *testing.T) {
	c := serial.DefaultConfig()
	c.FlowControl = serial.FlowControlHardware

	_, err := bugstMode(c)
	assert.ErrorIs(t, err, serial.ErrUnsupported)
}

func TestClassifyBugst(t *testing.T) {
	assert.Equal(t, ResourceError, classifyBugst(errors.New("read /dev/ttyUSB0: input/output error")))
	assert.Equal(t, ResourceError, classifyBugst(errors.New("no such device")))
	assert.Equal(t, ResourceError, classifyBugst(serial.ErrDeviceLost))
	assert.Equal(t, ReadError, classifyBugst(errors.New("interrupted system call")))
}

func TestBugstOpenMissingDevice(t *testing.T) {
	h := NewBugst(nil)
	pc, err := serial.NewPortConfig("/dev/ttyUSB-does-not-exist")
	require.NoError(t, err)

	assert.Error(t, h.Open(pc))
	assert.NotEqual(t, "Unknown error", h.ErrorString())
}
