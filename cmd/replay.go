/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Decode telemetry from a capture file or stdin",
	Long: `Feed captured serial data through the same line assembly and field
decoding used for a live port, and print every decoded field.

Data is read in chunks of --chunk bytes so the framing behaves as it would
for reads from a port. Use "-" or no argument to read stdin.

Example usage:
  serialterm replay capture.log
  serialterm replay capture.log --framing line
  cat capture.log | serialterm replay --raw`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		chunk, _ := cmd.Flags().GetInt("chunk")
		if chunk <= 0 {
			return fmt.Errorf("--chunk must be positive, got %d", chunk)
		}

		framing, err := appConfig.Framing()
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			in = f
		}

		out := cmd.OutOrStdout()
		stats, err := decodeStream(in, framing, chunk, func(rec protocol.Record) {
			if raw {
				fmt.Fprintf(out, "%s=%s\n", rec.Field, rec.Text)
				return
			}
			fmt.Fprintf(out, "%s = %s\n", rec.Field, styles.ValueStyle.Render(rec.Text))
		})
		if err != nil {
			return err
		}

		if !raw {
			fmt.Fprintln(cmd.ErrOrStderr(), styles.MutedStyle.Render(fmt.Sprintf(
				"%d bytes, %d lines, %d decoded, %d ignored, %d bytes unterminated (%s framing)",
				stats.Bytes, stats.Lines, stats.Decoded, stats.Lines-stats.Decoded, stats.Pending, framing)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addFramingFlag(replayCmd)

	replayCmd.Flags().Int("chunk", 4096, "Read size; mimics the size of port reads")
	replayCmd.Flags().Bool("raw", false, "Print name=value pairs without styling or summary")
}

type decodeStats struct {
	Bytes   int64
	Lines   int
	Decoded int
	Pending int // bytes left without a terminating newline
}

// decodeStream reads r in chunks of size chunk and calls emit for every
// decoded record
func decodeStream(r io.Reader, framing protocol.Framing, chunk int, emit func(protocol.Record)) (decodeStats, error) {
	var stats decodeStats
	asm := protocol.NewAssembler(framing)
	buf := make([]byte, chunk)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			stats.Bytes += int64(n)
			asm.Feed(buf[:n])
			for {
				line, ok := asm.Next()
				if !ok {
					break
				}
				stats.Lines++
				if rec, ok := protocol.Decode(line); ok {
					stats.Decoded++
					emit(rec)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			stats.Pending = asm.Len()
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read error: %w", err)
		}
	}
}
