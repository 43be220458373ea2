/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/logging"
	"github.com/allbin/serial-telemetry/internal/session"
	"github.com/allbin/serial-telemetry/internal/tui/components"
	"github.com/allbin/serial-telemetry/internal/tui/keys"
	"github.com/allbin/serial-telemetry/internal/tui/models"
	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [port]",
	Short: "Interactive telemetry dashboard for a serial port",
	Long: `Open a full-screen dashboard showing the latest value of every telemetry
field, a log of decoded lines and transmitted data, and an input line for
sending commands to the device.

Keys (normal mode):
  o connect   d disconnect   c clear all   i insert mode   ? help   q quit

In insert mode, Enter sends the input and Tab switches between ASCII and
hex. ASCII input gets a trailing newline unless --no-newline is given.

Logs are written to ` + logging.TUIFile + ` unless logging.output names a file.

Example usage:
  serialterm connect /dev/ttyUSB0
  serialterm connect /dev/ttyUSB0 --baud 9600 --parity even --stop-bits 2
  serialterm connect --no-connect`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationTUI: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		noConnect, _ := cmd.Flags().GetBool("no-connect")
		noNewline, _ := cmd.Flags().GetBool("no-newline")

		sess, pc, err := newSession(args)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		m := newDashboardModel(ctx, cancel, sess, pc, appConfig.Transport.Driver)
		m.appendNewline = !noNewline
		m.autoConnect = !noConnect

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

		runDone := make(chan struct{})
		go func() {
			defer close(runDone)
			err := sess.Run(ctx)
			logger.Debug("Session stopped", zap.Error(err))
		}()
		go func() {
			for ev := range sess.Events() {
				p.Send(sessionEventMsg{ev})
			}
		}()

		_, err = p.Run()
		cancel()
		<-runDone
		return err
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	addPortFlags(connectCmd)

	connectCmd.Flags().Bool("no-connect", false, "Start disconnected; press 'o' to connect")
	connectCmd.Flags().Bool("no-newline", false, "Send ASCII input without a trailing newline")
}

// sessionEventMsg carries a session event into the Bubble Tea loop
type sessionEventMsg struct {
	event session.Event
}

// commandResultMsg reports the outcome of a session command
type commandResultMsg struct {
	op  string
	err error
	n   int // payload size for writes
}

type tickMsg time.Time

// dashboardModel is the Bubble Tea model for the connect command. Session
// commands run as tea.Cmds; session events arrive as sessionEventMsg.
type dashboardModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	sess   *session.Session
	port   serial.PortConfig

	sinks     *models.SinkTable
	fields    *components.FieldTable
	log       *components.EventLog
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.DashboardKeys

	mode          models.InputMode
	connected     bool
	pending       int64
	lostReason    string
	appendNewline bool
	autoConnect   bool
	ready         bool
	width         int
	now           time.Time
}

func newDashboardModel(ctx context.Context, cancel context.CancelFunc, sess *session.Session, pc serial.PortConfig, driver string) *dashboardModel {
	sinks := models.NewSinkTable()
	return &dashboardModel{
		ctx:           ctx,
		cancel:        cancel,
		sess:          sess,
		port:          pc,
		sinks:         sinks,
		fields:        components.NewFieldTable(sinks),
		log:           components.NewEventLog(0, 0),
		statusBar:     components.NewStatusBar(pc.Name, pc.Short(), driver),
		input:         components.NewInput(),
		help:          help.New(),
		keys:          keys.NewDashboardKeys(),
		appendNewline: true,
		now:           time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *dashboardModel) Init() tea.Cmd {
	if m.autoConnect {
		return tea.Batch(tick(), m.connect())
	}
	return tick()
}

func (m *dashboardModel) connect() tea.Cmd {
	m.statusBar.SetConnecting()
	return func() tea.Msg {
		return commandResultMsg{op: "connect", err: m.sess.Connect(m.ctx, m.port)}
	}
}

func (m *dashboardModel) disconnect() tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{op: "disconnect", err: m.sess.Disconnect(m.ctx)}
	}
}

func (m *dashboardModel) clearAll() tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{op: "clear", err: m.sess.ClearAll(m.ctx)}
	}
}

func (m *dashboardModel) write(data []byte) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{op: "write", err: m.sess.Write(m.ctx, data), n: len(data)}
	}
}

func (m *dashboardModel) addInfo(text string) {
	m.log.Add(components.LogEntry{Time: time.Now(), Kind: components.EntryInfo, Text: text})
}

func (m *dashboardModel) addError(text string) {
	m.log.Add(components.LogEntry{Time: time.Now(), Kind: components.EntryError, Text: text})
}

// handleEvent applies one session event to the dashboard state
func (m *dashboardModel) handleEvent(ev session.Event) {
	switch e := ev.(type) {
	case session.Connected:
		m.connected = true
		m.lostReason = ""
		m.statusBar.SetConnected()
		m.addInfo(e.Summary)

	case session.Disconnected:
		m.connected = false
		m.pending = 0
		m.log.MarkPendingTX(components.TXFailed)
		m.statusBar.SetDisconnected(m.lostReason)
		m.addInfo("Disconnected")

	case session.OpenError:
		m.statusBar.SetDisconnected(e.Text)
		m.addError(e.Text)

	case session.CriticalError:
		m.lostReason = e.Text
		m.addError(e.Text)

	case session.WriteError:
		m.log.MarkPendingTX(components.TXFailed)
		m.addError(e.Text)

	case session.WriteTimeout:
		m.log.MarkPendingTX(components.TXTimedOut)
		m.addError(e.Text)

	case session.WriteFlushed:
		m.pending = 0
		m.log.MarkPendingTX(components.TXFlushed)

	case session.FieldUpdated:
		m.sinks.Set(e.Field, e.Value, time.Now())
		m.log.Add(components.LogEntry{
			Time: time.Now(),
			Kind: components.EntryRX,
			Data: e.Record.Raw,
			Text: fmt.Sprintf("%s = %s", e.Field, e.Value),
		})

	case session.AllCleared:
		m.sinks.Reset()
	}
	m.statusBar.SetPending(m.pending)
}

func (m *dashboardModel) handleResult(msg commandResultMsg) {
	if msg.err == nil {
		return
	}
	if errors.Is(msg.err, context.Canceled) || errors.Is(msg.err, session.ErrClosed) {
		return
	}

	switch msg.op {
	case "write":
		m.pending -= int64(msg.n)
		if m.pending < 0 {
			m.pending = 0
		}
		m.statusBar.SetPending(m.pending)
		// short writes are already reported through WriteError
		if !errors.Is(msg.err, session.ErrShortWrite) {
			m.log.MarkPendingTX(components.TXFailed)
			m.addError(fmt.Sprintf("Write failed: %v", msg.err))
		}
	case "connect":
		// open failures are already reported through OpenError
		if errors.Is(msg.err, session.ErrAlreadyConnected) {
			m.statusBar.SetConnected()
			m.addInfo("Already connected")
		}
	default:
		m.addError(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
	}
}

// send queues the current input for transmission
func (m *dashboardModel) send() tea.Cmd {
	data, err := m.input.Payload(m.appendNewline)
	if err != nil {
		m.addError(fmt.Sprintf("Invalid input: %v", err))
		return nil
	}

	m.log.Add(components.LogEntry{
		Time:   time.Now(),
		Kind:   components.EntryTX,
		Data:   data,
		Status: components.TXPending,
	})
	m.pending += int64(len(data))
	m.statusBar.SetPending(m.pending)

	m.input.AddToHistory(m.input.Value())
	m.input.SetValue("")
	return m.write(data)
}

func (m *dashboardModel) resize(width, height int) {
	m.width = width
	m.ready = true

	// input(3) + status bar(1) + help(1) + log border(1)
	logHeight := height - lipgloss.Height(m.fields.View()) - 6
	if logHeight < 1 {
		logHeight = 1
	}

	m.fields.SetWidth(width)
	m.log.SetSize(width, logHeight)
	m.input.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.help.Width = width
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case sessionEventMsg:
		m.handleEvent(msg.event)
		return m, nil

	case commandResultMsg:
		m.handleResult(msg)
		return m, nil

	case tea.MouseMsg:
		return m, m.log.Update(msg)

	case tea.KeyMsg:
		if m.mode == models.InputModeInsert {
			return m, m.updateInsert(msg)
		}
		return m, m.updateNormal(msg)
	}

	return m, nil
}

func (m *dashboardModel) updateInsert(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = models.InputModeNormal
		m.input.Blur()
		return nil
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.HistoryUp):
		m.input.NavigateHistoryUp()
		return nil
	case key.Matches(msg, m.keys.HistoryDown):
		m.input.NavigateHistoryDown()
		return nil
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *dashboardModel) updateNormal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.InsertMode):
		m.mode = models.InputModeInsert
		return m.input.Focus()
	case key.Matches(msg, m.keys.Connect):
		return m.connect()
	case key.Matches(msg, m.keys.Disconnect):
		return m.disconnect()
	case key.Matches(msg, m.keys.Clear):
		return m.clearAll()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.ToggleHex):
		m.log.ToggleHex()
	case key.Matches(msg, m.keys.ToggleASCII):
		m.log.ToggleASCII()
	case key.Matches(msg, m.keys.Up):
		m.log.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.log.ScrollDown()
	}
	return nil
}

func (m *dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.fields.View(),
		styles.ContentBorderStyle.Render(m.log.View()),
		m.input.View(m.mode == models.InputModeInsert),
		m.statusBar.View(m.mode, m.input.GetSendingMode(), m.connected, m.now.Format("15:04:05")),
		m.help.View(m.keys),
	)
}
