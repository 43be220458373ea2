/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/config"
	"github.com/allbin/serial-telemetry/internal/logging"
	"github.com/allbin/serial-telemetry/internal/session"
	"github.com/allbin/serial-telemetry/internal/transport"
)

// annotationTUI marks commands that own the terminal; they log to a file
const annotationTUI = "tui"

var (
	cfgFile   string
	v         = config.New()
	appConfig *config.Config
	logger    = zap.NewNop()
)

// flagKeys maps CLI flags onto config keys. A flag only overrides the
// config file and environment when it was set explicitly.
var flagKeys = map[string]string{
	"log-level":     "logging.level",
	"baud":          "port.baud_rate",
	"data-bits":     "port.data_bits",
	"parity":        "port.parity",
	"stop-bits":     "port.stop_bits",
	"flow-control":  "port.flow_control",
	"driver":        "transport.driver",
	"read-timeout":  "transport.read_timeout",
	"write-timeout": "session.write_timeout",
	"language":      "session.language",
	"framing":       "protocol.framing",
}

var rootCmd = &cobra.Command{
	Use:   "serialterm",
	Short: "Serial terminal for line-based device telemetry",
	Long: `serialterm talks to devices that report telemetry as text lines such as
"PowerStep:12.5" or "Current:-3" over a serial port.

Settings come from flags, SERIALTERM_* environment variables and an
optional serialterm.yaml in the working directory or the user config
directory, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg

		logCfg := cfg.Logging
		if cmd.Annotations[annotationTUI] == "true" {
			logCfg = logging.ForTUI(logCfg)
		}
		l, err := logging.New(logCfg)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./serialterm.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
}

func bindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// addPortFlags registers the line settings shared by commands that open
// a port
func addPortFlags(cmd *cobra.Command) {
	def := serial.DefaultConfig()
	flags := cmd.Flags()
	flags.IntP("baud", "b", def.BaudRate, "Baud rate")
	flags.Int("data-bits", def.DataBits, "Data bits: 5, 6, 7, 8")
	flags.String("parity", "none", "Parity: none, odd, even, mark, space")
	flags.String("stop-bits", "1", "Stop bits: 1, 1.5, 2")
	flags.StringP("flow-control", "f", "none", "Flow control: none, rtscts, xonxoff")
	flags.String("driver", "termios", fmt.Sprintf("Port driver: %v", transport.Drivers()))
	flags.Duration("read-timeout", def.ReadTimeout, "Read poll interval, in 100ms steps")
	flags.Duration("write-timeout", session.DefaultWriteTimeout, "Time allowed for written bytes to be confirmed")
	flags.String("language", "en", "Message language: en, de")
	addFramingFlag(cmd)
}

func addFramingFlag(cmd *cobra.Command) {
	cmd.Flags().String("framing", "buffer", "Line framing: buffer (whole buffer per newline) or line")
}

// newSession builds a session for the configured port. A port given as
// the first argument takes precedence over the config.
func newSession(args []string) (*session.Session, serial.PortConfig, error) {
	if len(args) > 0 {
		appConfig.Port.Name = args[0]
	}

	pc, err := appConfig.PortConfig()
	if err != nil {
		return nil, serial.PortConfig{}, err
	}

	h, err := transport.New(appConfig.Transport.Driver, logger)
	if err != nil {
		return nil, serial.PortConfig{}, err
	}

	opts, err := appConfig.SessionOptions()
	if err != nil {
		return nil, serial.PortConfig{}, err
	}
	opts = append(opts, session.WithLogger(logger))

	logger.Debug("Session configured",
		zap.String("port", pc.Name),
		zap.String("mode", pc.Short()),
		zap.String("driver", appConfig.Transport.Driver),
		zap.Duration("write_timeout", appConfig.Session.WriteTimeout),
	)
	return session.New(h, opts...), pc, nil
}

func timestamp(t time.Time) string {
	return t.Format("15:04:05.000")
}
