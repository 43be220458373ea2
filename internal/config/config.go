// Package config loads serialterm settings from defaults, an optional
// YAML file, SERIALTERM_* environment variables and bound CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/session"
	"github.com/allbin/serial-telemetry/internal/transport"
)

const envPrefix = "SERIALTERM"

// ErrNoPort is returned when no device name was configured
var ErrNoPort = errors.New("no serial port configured")

// Config represents the application configuration
type Config struct {
	Port      PortConfig      `mapstructure:"port"`
	Transport TransportConfig `mapstructure:"transport"`
	Session   SessionConfig   `mapstructure:"session"`
	Protocol  ProtocolConfig  `mapstructure:"protocol"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PortConfig holds the line settings in their textual form
type PortConfig struct {
	Name        string `mapstructure:"name"`
	BaudRate    int    `mapstructure:"baud_rate"`
	DataBits    int    `mapstructure:"data_bits"`
	Parity      string `mapstructure:"parity"`
	StopBits    string `mapstructure:"stop_bits"`
	FlowControl string `mapstructure:"flow_control"`
}

// TransportConfig selects the port driver
type TransportConfig struct {
	Driver      string        `mapstructure:"driver"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// SessionConfig tunes the session controller
type SessionConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Language     string        `mapstructure:"language"`
}

// ProtocolConfig tunes line assembly
type ProtocolConfig struct {
	Framing string `mapstructure:"framing"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// New returns a viper instance with defaults and environment binding.
// Flags are bound onto it by the caller before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	def := serial.DefaultConfig()

	v.SetDefault("port.name", "")
	v.SetDefault("port.baud_rate", def.BaudRate)
	v.SetDefault("port.data_bits", def.DataBits)
	v.SetDefault("port.parity", "none")
	v.SetDefault("port.stop_bits", "1")
	v.SetDefault("port.flow_control", "none")

	v.SetDefault("transport.driver", "termios")
	v.SetDefault("transport.read_timeout", def.ReadTimeout)

	v.SetDefault("session.write_timeout", session.DefaultWriteTimeout)
	v.SetDefault("session.language", "en")

	v.SetDefault("protocol.framing", "buffer")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", false)
}

// Load reads the config file into v and decodes the result. An explicit
// path must exist; otherwise serialterm.yaml is looked up in the working
// directory and the user config directory and may be absent.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("serialterm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "serialterm"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"console", "json"}
)

// Validate checks every enumerated setting. The port name is not
// required here since most commands take it as an argument.
func (c *Config) Validate() error {
	if _, err := c.serialOptions(); err != nil {
		return err
	}
	if !slices.Contains(transport.Drivers(), strings.ToLower(c.Transport.Driver)) {
		return fmt.Errorf("transport.driver must be one of: %v", transport.Drivers())
	}
	if c.Session.WriteTimeout <= 0 {
		return fmt.Errorf("session.write_timeout must be positive, got %s", c.Session.WriteTimeout)
	}
	if _, err := c.Language(); err != nil {
		return fmt.Errorf("session.language: %w", err)
	}
	if _, err := c.Framing(); err != nil {
		return fmt.Errorf("protocol.framing: %w", err)
	}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	if !slices.Contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of: %v", validFormats)
	}
	return nil
}

func (c *Config) serialOptions() ([]serial.Option, error) {
	parity, err := serial.ParseParity(c.Port.Parity)
	if err != nil {
		return nil, fmt.Errorf("port.parity: %w", err)
	}
	stopBits, err := serial.ParseStopBits(c.Port.StopBits)
	if err != nil {
		return nil, fmt.Errorf("port.stop_bits: %w", err)
	}
	flow, err := serial.ParseFlowControl(c.Port.FlowControl)
	if err != nil {
		return nil, fmt.Errorf("port.flow_control: %w", err)
	}

	opts := []serial.Option{
		serial.WithBaudRate(c.Port.BaudRate),
		serial.WithDataBits(c.Port.DataBits),
		serial.WithParity(parity),
		serial.WithStopBits(stopBits),
		serial.WithFlowControl(flow),
		serial.WithReadTimeout(c.Transport.ReadTimeout),
	}

	probe := serial.DefaultConfig()
	for i, opt := range opts {
		if err := opt(&probe); err != nil {
			return nil, fmt.Errorf("%s: %w", optionKeys[i], err)
		}
	}
	return opts, nil
}

// optionKeys names the setting behind each entry of serialOptions
var optionKeys = []string{
	"port.baud_rate",
	"port.data_bits",
	"port.parity",
	"port.stop_bits",
	"port.flow_control",
	"transport.read_timeout",
}

// PortConfig builds the connection settings for the configured device
func (c *Config) PortConfig() (serial.PortConfig, error) {
	if strings.TrimSpace(c.Port.Name) == "" {
		return serial.PortConfig{}, ErrNoPort
	}
	opts, err := c.serialOptions()
	if err != nil {
		return serial.PortConfig{}, err
	}
	return serial.NewPortConfig(c.Port.Name, opts...)
}

// Framing returns the configured line framing
func (c *Config) Framing() (protocol.Framing, error) {
	return protocol.ParseFraming(c.Protocol.Framing)
}

// Language returns the configured message language
func (c *Config) Language() (language.Tag, error) {
	return session.ParseLanguage(c.Session.Language)
}

// SessionOptions converts the session and protocol settings
func (c *Config) SessionOptions() ([]session.Option, error) {
	framing, err := c.Framing()
	if err != nil {
		return nil, err
	}
	lang, err := c.Language()
	if err != nil {
		return nil, err
	}
	return []session.Option{
		session.WithWriteTimeout(c.Session.WriteTimeout),
		session.WithFraming(framing),
		session.WithLanguage(lang),
	}, nil
}
