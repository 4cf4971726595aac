package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasops/atlas/internal/capture"
	"github.com/atlasops/atlas/internal/session"
	"github.com/atlasops/atlas/pkg/client"
)

// redirectDelay holds the expiry notice on screen before the login form
// replaces the scanner.
const redirectDelay = 1200 * time.Millisecond

type captureStartedMsg struct{ err error }

type captureEventMsg struct{ event capture.Event }

type scanSubmitMsg struct {
	payload string
	result  *client.ScanResult
	err     error
}

// scanFeedback is a classified submission outcome shown in the feedback
// panel. Repeat scans come back as HTTP success with a cautionary message,
// so classification looks at the text, not the status. payload keeps the
// decoded badge text around so it can be copied.
type scanFeedback struct {
	name    string
	message string
	payload string
	alert   bool
	at      time.Time
}

// scannerModel drives the capture session and submits decoded badges.
type scannerModel struct {
	client      *client.Client
	keyring     *session.Keyring
	session     *capture.Session
	running     bool
	starting    bool
	submitting  bool
	redirecting bool
	startErr    string
	notice      string
	statusMsg   string
	last        *scanFeedback
	width       int
	height      int
}

func newScannerModel(c *client.Client, kr *session.Keyring, capSess *capture.Session) scannerModel {
	return scannerModel{client: c, keyring: kr, session: capSess}
}

func (m scannerModel) Init() tea.Cmd {
	return nil
}

// waitEvent blocks on the capture event stream; each delivery re-arms
// itself from Update. The run's done channel bounds the wait so a reader
// armed before teardown exits instead of blocking forever.
func (m scannerModel) waitEvent() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		select {
		case ev := <-s.Events():
			return captureEventMsg{event: ev}
		case <-s.Done():
			return nil
		}
	}
}

func (m scannerModel) start() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return captureStartedMsg{err: s.Start()}
	}
}

func (m scannerModel) restart() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return captureStartedMsg{err: s.Restart()}
	}
}

// unmount releases the camera; the app calls this whenever the view is
// left for any reason.
func (m scannerModel) unmount() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		s.Teardown()
		return nil
	}
}

func (m scannerModel) Update(msg tea.Msg) (scannerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case captureStartedMsg:
		m.starting = false
		if msg.err != nil {
			m.running = false
			if errors.Is(msg.err, capture.ErrNoCredential) {
				m.startErr = "sign in before scanning"
			} else {
				m.startErr = msg.err.Error()
			}
			return m, nil
		}
		m.running = true
		m.startErr = ""
		m.notice = ""
		return m, m.waitEvent()

	case captureEventMsg:
		switch msg.event.Kind {
		case capture.EventNotice:
			m.notice = msg.event.Notice
			return m, m.waitEvent()
		case capture.EventDecoded:
			m.submitting = true
			payload := msg.event.Payload
			c := m.client
			s := m.session
			return m, tea.Batch(m.waitEvent(), func() tea.Msg {
				result, err := c.SubmitScan(context.Background(), payload)
				s.Settle()
				return scanSubmitMsg{payload: payload, result: result, err: err}
			})
		}
		return m, m.waitEvent()

	case scanSubmitMsg:
		m.submitting = false
		m.running = false
		if msg.err != nil {
			if client.IsStatus(msg.err, 401) {
				// The stored credential is dead; drop it everywhere and
				// fall back to the login form after the notice.
				m.keyring.Purge()
				m.redirecting = true
				m.startErr = "session expired — signing out"
				return m, tea.Tick(redirectDelay, func(time.Time) tea.Msg {
					return sessionExpiredMsg{}
				})
			}
			m.last = &scanFeedback{message: msg.err.Error(), payload: msg.payload, alert: true, at: time.Now()}
			return m, nil
		}
		m.last = &scanFeedback{
			name:    msg.result.WorkerName,
			message: msg.result.Message,
			payload: msg.payload,
			alert:   classifyAlert(msg.result.Message),
			at:      time.Now(),
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied!"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.redirecting {
			return m, nil
		}
		m.statusMsg = ""
		switch msg.String() {
		case "s":
			if m.starting || m.submitting {
				return m, nil
			}
			m.starting = true
			m.startErr = ""
			m.notice = ""
			if m.running {
				return m, m.restart()
			}
			return m, m.start()
		case "x":
			m.running = false
			m.starting = false
			return m, m.unmount()
		case "c":
			if m.last != nil && m.last.payload != "" {
				payload := m.last.payload
				return m, func() tea.Msg {
					err := clipboard.WriteAll(payload)
					return copyResultMsg{err: err}
				}
			}
		}
	}
	return m, nil
}

// classifyAlert flags backend messages that acknowledge a scan without
// recording a fresh event (duplicates, out-of-window scans).
func classifyAlert(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range []string{"already", "duplicate", "not allowed", "denied", "invalid", "unknown"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (m scannerModel) View() string {
	var b strings.Builder

	b.WriteString(" " + titleStyle.Render("LIVE SCANNER") + "\n\n")

	// Status line
	switch {
	case m.redirecting:
		b.WriteString(" " + errStyle.Render(m.startErr) + "\n")
	case m.startErr != "":
		b.WriteString(" " + errStyle.Render(m.startErr) + "\n")
	case m.submitting:
		b.WriteString(" " + accentStyle.Render("● submitting scan...") + "\n")
	case m.starting:
		b.WriteString(" " + dimStyle.Render("starting camera...") + "\n")
	case m.running:
		b.WriteString(" " + okStyle.Render("● scanning") + "  " + dimStyle.Render("hold a badge up to the camera") + "\n")
	default:
		b.WriteString(" " + dimStyle.Render("camera off — press s to start") + "\n")
	}

	if m.notice != "" && m.running {
		b.WriteString(" " + alertStyle.Render(m.notice) + "\n")
	}

	// Last detection panel
	b.WriteString("\n " + sectionHeaderStyle.Render("LAST DETECTION") + "\n")
	if m.last == nil {
		b.WriteString(" " + dimStyle.Render("nothing scanned yet") + "\n")
	} else {
		style := okStyle
		if m.last.alert {
			style = alertStyle
		}
		if m.last.name != "" {
			b.WriteString(" " + selectedStyle.Render(m.last.name) + "\n")
		}
		b.WriteString(" " + style.Render(m.last.message) + "  " + metaStyle.Render(formatAgo(m.last.at)) + "\n")
		if m.last.payload != "" {
			b.WriteString(" " + codeStyle.Render(truncStr(m.last.payload, 48)) + "  " + dimStyle.Render("c to copy") + "\n")
		}
	}
	if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	}

	return b.String()
}
