/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/transport"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture raw serial data to a file",
	Long: `Capture incoming serial data to a file for later decoding with replay.

Bytes are written exactly as received. Runs until interrupted (Ctrl+C) or
until the device is lost.

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  serialterm capture /dev/ttyUSB0 data.log
  serialterm capture /dev/ttyUSB0 data.log --baud 9600 --console`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		showConsole, _ := cmd.Flags().GetBool("console")

		appConfig.Port.Name = args[0]
		pc, err := appConfig.PortConfig()
		if err != nil {
			return err
		}
		framing, err := appConfig.Framing()
		if err != nil {
			return err
		}

		h, err := transport.New(appConfig.Transport.Driver, logger)
		if err != nil {
			return err
		}

		file, err := os.OpenFile(args[1], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer file.Close()

		if err := h.Open(pc); err != nil {
			return fmt.Errorf("failed to open port: %s", h.ErrorString())
		}
		defer h.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Capturing data from %s (%s) to %s\n", pc.Name, pc.Short(), args[1])
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

		var console io.Writer
		if showConsole {
			console = cmd.OutOrStdout()
		}

		start := time.Now()
		n, err := capture(ctx, h.Events(), file, console, protocol.NewAssembler(framing))
		fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", n, time.Since(start).Round(time.Millisecond))
		return err
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
	addPortFlags(captureCmd)

	captureCmd.Flags().BoolP("console", "c", false, "Print decoded telemetry while capturing")
}

// capture copies received bytes to out until ctx is done or the device is
// lost. Decoded fields are printed to console when it is non-nil.
func capture(ctx context.Context, events <-chan transport.Event, out io.Writer, console io.Writer, asm *protocol.Assembler) (int64, error) {
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, nil

		case ev := <-events:
			switch e := ev.(type) {
			case transport.Received:
				n, err := out.Write(e.Data)
				written += int64(n)
				if err != nil {
					return written, fmt.Errorf("write error: %w", err)
				}
				if console == nil {
					continue
				}
				asm.Feed(e.Data)
				for {
					line, ok := asm.Next()
					if !ok {
						break
					}
					if rec, ok := protocol.Decode(line); ok {
						fmt.Fprintf(console, "%s=%s\n", rec.Field, rec.Text)
					}
				}

			case transport.Failure:
				if e.Kind == transport.ResourceError {
					return written, fmt.Errorf("%w: %w", errDeviceLost, e.Err)
				}
				logger.Warn("Capture read error", zap.Stringer("kind", e.Kind), zap.Error(e.Err))
			}
		}
	}
}
