/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/allbin/serial-telemetry/internal/session"
	"github.com/allbin/serial-telemetry/internal/tui/components"
	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

var (
	errWriteFailed   = errors.New("write failed")
	errWriteTimedOut = errors.New("write timed out")
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port and wait for it to be transmitted",
	Long: `Send data to a serial port and wait until the port reports every byte as
transmitted, or until the write timeout expires.

Data can be provided in several ways:
- As an argument: serialterm send "PowerStep?" /dev/ttyUSB0
- Via stdin: echo "PowerStep?" | serialterm send /dev/ttyUSB0
- Interactive mode: serialterm send /dev/ttyUSB0 (prompts for input)

Example usage:
  serialterm send "Reset" /dev/ttyUSB0 --newline
  serialterm send 0206000300000099 /dev/ttyUSB0 --hex
  serialterm send "Reset" /dev/ttyUSB0 --write-timeout 2s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		var text string
		portArgs := args
		if len(args) == 2 {
			text, portArgs = args[0], args[1:]
		} else {
			var err error
			if text, err = readData(os.Stdin, cmd.OutOrStdout()); err != nil {
				return err
			}
		}

		data, err := encodePayload(text, hexMode, addNewline)
		if err != nil {
			return err
		}

		sess, pc, err := newSession(portArgs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styles.InfoStyle.Render(fmt.Sprintf("⚡ Sending %d bytes to %s (%s)", len(data), pc.Name, pc.Short())))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runErr := make(chan error, 1)
		go func() { runErr <- sess.Run(ctx) }()

		if err := sess.Connect(ctx, pc); err != nil {
			stop()
			<-runErr
			return err
		}
		// a short write is reported as a WriteError event
		if err := sess.Write(ctx, data); err != nil && !errors.Is(err, session.ErrShortWrite) {
			stop()
			<-runErr
			return err
		}

		result := awaitFlush(sess.Events(), stop)
		<-runErr

		if result != nil {
			fmt.Fprintln(out, styles.ErrorStyle.Render("✗ "+result.Error()))
			return result
		}
		fmt.Fprintln(out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Successfully sent %d bytes", len(data))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addPortFlags(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
}

// readData takes the payload from piped stdin or prompts for it
func readData(in *os.File, prompt io.Writer) (string, error) {
	stat, err := in.Stat()
	if err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	fmt.Fprint(prompt, styles.InfoStyle.Render("Enter data to send: "))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func encodePayload(text string, hexMode, addNewline bool) ([]byte, error) {
	if hexMode {
		data, err := components.ParseHex(text)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return data, nil
	}
	if text == "" {
		return nil, fmt.Errorf("no data to send")
	}
	if addNewline {
		text += "\n"
	}
	return []byte(text), nil
}

// awaitFlush consumes session events until the write settles, then stops
// the session and drains the rest
func awaitFlush(events <-chan session.Event, stop func()) error {
	var result error
	settled := false
	for ev := range events {
		if settled {
			continue
		}
		switch e := ev.(type) {
		case session.WriteFlushed:
			settled = true
		case session.WriteError:
			result, settled = fmt.Errorf("%w: %s", errWriteFailed, e.Text), true
		case session.WriteTimeout:
			result, settled = fmt.Errorf("%w: %s", errWriteTimedOut, e.Text), true
		case session.CriticalError:
			result, settled = fmt.Errorf("%w: %s", errDeviceLost, e.Text), true
		}
		if settled {
			stop()
		}
	}
	if !settled && result == nil {
		result = context.Canceled
	}
	return result
}
