package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/protocol"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serialterm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 115200, cfg.Port.BaudRate)
	assert.Equal(t, "termios", cfg.Transport.Driver)
	assert.Equal(t, 5*time.Second, cfg.Session.WriteTimeout)
	assert.Equal(t, "buffer", cfg.Protocol.Framing)
	assert.Equal(t, "info", cfg.Logging.Level)

	_, err = cfg.PortConfig()
	assert.ErrorIs(t, err, ErrNoPort)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
port:
  name: /dev/ttyUSB3
  baud_rate: 9600
  data_bits: 7
  parity: even
  stop_bits: 2
  flow_control: hardware
transport:
  driver: bugst
  read_timeout: 200ms
session:
  write_timeout: 2s
  language: de
protocol:
  framing: line
logging:
  level: debug
  format: json
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	pc, err := cfg.PortConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", pc.Name)
	assert.Equal(t, 9600, pc.BaudRate)
	assert.Equal(t, 7, pc.DataBits)
	assert.Equal(t, serial.ParityEven, pc.Parity)
	assert.Equal(t, serial.StopBitsTwo, pc.StopBits)
	assert.Equal(t, serial.FlowControlHardware, pc.FlowControl)
	assert.Equal(t, 200*time.Millisecond, pc.ReadTimeout)

	framing, err := cfg.Framing()
	require.NoError(t, err)
	assert.Equal(t, protocol.FramingLine, framing)

	lang, err := cfg.Language()
	require.NoError(t, err)
	assert.Equal(t, language.German, lang)

	opts, err := cfg.SessionOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERIALTERM_PORT_NAME", "/dev/ttyACM0")
	t.Setenv("SERIALTERM_SESSION_WRITE_TIMEOUT", "750ms")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Port.Name)
	assert.Equal(t, 750*time.Millisecond, cfg.Session.WriteTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"parity":        "port:\n  parity: sometimes\n",
		"stop bits":     "port:\n  stop_bits: 3\n",
		"baud":          "port:\n  baud_rate: 1234\n",
		"driver":        "transport:\n  driver: winapi\n",
		"read timeout":  "transport:\n  read_timeout: 150ms\n",
		"write timeout": "session:\n  write_timeout: 0s\n",
		"framing":       "protocol:\n  framing: crlf\n",
		"level":         "logging:\n  level: trace\n",
		"format":        "logging:\n  format: xml\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
