/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/serial-telemetry/internal/session"
	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

// errDeviceLost is returned when a listening session loses its port
var errDeviceLost = errors.New("device lost")

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen [port]",
	Short: "Print decoded telemetry from a serial port",
	Long: `Connect to a serial port and print every decoded telemetry field as it
arrives. Lines with an unknown field name or without a number are skipped.

The command exits with an error when the port cannot be opened or is lost
while listening, and cleanly on Ctrl+C.

Example usage:
  serialterm listen /dev/ttyUSB0
  serialterm listen /dev/ttyUSB0 --baud 9600 --parity even
  serialterm listen --raw   # port from serialterm.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		sess, pc, err := newSession(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runErr := make(chan error, 1)
		go func() { runErr <- sess.Run(ctx) }()

		if err := sess.Connect(ctx, pc); err != nil {
			stop()
			<-runErr
			return err
		}

		lost := printTelemetry(cmd.OutOrStdout(), sess.Events(), raw, stop)

		if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		if lost != "" {
			return fmt.Errorf("%w: %s", errDeviceLost, lost)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	addPortFlags(listenCmd)

	listenCmd.Flags().Bool("raw", false, "Print name=value pairs without timestamps or styling")
}

// printTelemetry writes session events to w until the channel closes. It
// calls stop once the session disconnects and returns the critical error
// text, if any.
func printTelemetry(w io.Writer, events <-chan session.Event, raw bool, stop func()) string {
	var lost string
	for ev := range events {
		switch e := ev.(type) {
		case session.Connected:
			if !raw {
				fmt.Fprintln(w, styles.InfoStyle.Render("⚡ "+e.Summary))
			}
		case session.FieldUpdated:
			if raw {
				fmt.Fprintf(w, "%s=%s\n", e.Field, e.Value)
				continue
			}
			fmt.Fprintf(w, "%s %s = %s\n",
				styles.MutedStyle.Render("["+timestamp(time.Now())+"]"),
				e.Field,
				styles.ValueStyle.Render(e.Value))
		case session.CriticalError:
			lost = e.Text
			fmt.Fprintln(w, styles.ErrorStyle.Render("✗ "+e.Text))
		case session.Disconnected:
			stop()
		}
	}
	return lost
}
