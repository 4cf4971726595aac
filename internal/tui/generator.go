package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/atlasops/atlas/pkg/client"
	"github.com/atlasops/atlas/pkg/domain"
)

type workersLoadedMsg struct {
	page *client.WorkerPage
	err  error
}

type generateResultMsg struct {
	worker *domain.Worker
	err    error
}

type copyResultMsg struct{ err error }

// generatorModel issues QR badges and browses the worker roster.
// Freshly issued badges are shown immediately under a local history key;
// the next refresh reconciles them with the server's view.
type generatorModel struct {
	client     *client.Client
	pageSize   int
	page       int
	workers    []domain.Worker
	cursor     domain.Cursor
	sel        int
	editing    bool // name form open
	name       string
	generating bool
	loading    bool
	confirming bool // pending local remove for workers[sel]
	errMsg     string
	statusMsg  string
	width      int
	height     int
}

func newGeneratorModel(c *client.Client, pageSize int) generatorModel {
	return generatorModel{client: c, pageSize: pageSize, page: 1, loading: true}
}

func (m generatorModel) Init() tea.Cmd {
	return m.load()
}

func (m generatorModel) load() tea.Cmd {
	c := m.client
	page, size := m.page, m.pageSize
	return func() tea.Msg {
		wp, err := c.ListWorkers(context.Background(), page, size)
		return workersLoadedMsg{page: wp, err: err}
	}
}

func (m generatorModel) Update(msg tea.Msg) (generatorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case workersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.workers = msg.page.Workers
		m.cursor = msg.page.Cursor
		if m.sel >= len(m.workers) {
			m.sel = 0
		}
		return m, nil

	case generateResultMsg:
		m.generating = false
		if msg.err != nil {
			m.errMsg = "generate failed: " + msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.editing = false
		m.name = ""
		// Show the badge immediately; the key marks it as not yet
		// reconciled with the server listing.
		w := *msg.worker
		w.HistoryKey = "local-" + uuid.NewString()
		m.workers = append([]domain.Worker{w}, m.workers...)
		m.sel = 0
		m.statusMsg = fmt.Sprintf("badge issued for %s", w.FullName)
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
		m.statusMsg = ""
		if m.editing {
			return m.updateForm(msg)
		}
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m generatorModel) updateForm(msg tea.KeyMsg) (generatorModel, tea.Cmd) {
	if m.generating {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.editing = false
		m.name = ""
	case "enter":
		name := strings.TrimSpace(m.name)
		if name == "" {
			m.errMsg = "name is required"
			return m, nil
		}
		m.generating = true
		m.errMsg = ""
		c := m.client
		return m, func() tea.Msg {
			w, err := c.GenerateQR(context.Background(), name)
			return generateResultMsg{worker: w, err: err}
		}
	default:
		m.name = editRune(m.name, msg.String())
	}
	return m, nil
}

func (m generatorModel) updateConfirm(msg tea.KeyMsg) (generatorModel, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.confirming = false
		if m.sel < len(m.workers) {
			m.workers = append(m.workers[:m.sel], m.workers[m.sel+1:]...)
			if m.sel >= len(m.workers) && m.sel > 0 {
				m.sel--
			}
			m.statusMsg = "removed from view"
		}
	case "n", "esc":
		m.confirming = false
	}
	return m, nil
}

func (m generatorModel) updateList(msg tea.KeyMsg) (generatorModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.sel < len(m.workers)-1 {
			m.sel++
		}
	case "k", "up":
		if m.sel > 0 {
			m.sel--
		}
	case "g":
		m.editing = true
		m.name = ""
		m.errMsg = ""
	case "n":
		if m.cursor.HasNext {
			m.page++
			m.loading = true
			return m, m.load()
		}
	case "p":
		if m.cursor.HasPrev {
			m.page--
			m.loading = true
			return m, m.load()
		}
	case "r":
		m.loading = true
		return m, m.load()
	case "c":
		if m.sel < len(m.workers) {
			code := m.workers[m.sel].QRCode
			return m, func() tea.Msg {
				err := clipboard.WriteAll(code)
				return copyResultMsg{err: err}
			}
		}
	case "d":
		if m.sel < len(m.workers) {
			m.confirming = true
		}
	}
	return m, nil
}

func (m generatorModel) View() string {
	var b strings.Builder

	b.WriteString(" " + titleStyle.Render("BADGE GENERATOR") + "\n")

	// Issue form
	if m.editing {
		value := m.name
		if !m.generating {
			value += "█"
		}
		b.WriteString(" " + inputPromptStyle.Render("name> ") + value + "\n")
		if m.generating {
			b.WriteString(" " + dimStyle.Render("issuing badge...") + "\n")
		}
	} else {
		b.WriteString(" " + dimStyle.Render("g to issue a new badge") + "\n")
	}

	if m.errMsg != "" {
		b.WriteString(" " + errStyle.Render(m.errMsg) + "\n")
	} else if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString("\n")

	// Roster
	if m.loading && len(m.workers) == 0 {
		b.WriteString(" " + dimStyle.Render("loading roster..."))
		return b.String()
	}
	if len(m.workers) == 0 {
		b.WriteString(" " + dimStyle.Render("no workers yet"))
		return b.String()
	}

	header := " " + metaStyle.Render(padRight("NAME", 24)+padRight("QR REF", 20)+padRight("STATUS", 10)+"ISSUED")
	b.WriteString(header + "\n")

	for i, w := range m.workers {
		row := " " + padRight(w.FullName, 24)
		row += codeStyle.Render(padRight(w.QRCode, 20))
		row += statusStyle(w.Status).Render(padRight(w.Status, 10))
		row += dimStyle.Render(w.CreatedLabel())
		if strings.HasPrefix(w.HistoryKey, "local-") {
			row += " " + accentStyle.Render("·new")
		}
		if i == m.sel {
			if m.confirming {
				row += "  " + errStyle.Render("remove from view? y/n")
			}
			b.WriteString(selectedRowBg.Render(row) + "\n")
		} else {
			b.WriteString(row + "\n")
		}
	}

	// Pager line
	pager := fmt.Sprintf("page %d", m.cursor.Page)
	if m.cursor.Total > 0 {
		pager = fmt.Sprintf("page %d/%d · %d workers", m.cursor.Page, m.cursor.TotalPages(), m.cursor.Total)
	}
	if m.loading {
		pager += " · refreshing..."
	}
	b.WriteString("\n " + metaStyle.Render(pager) + "\n")

	return b.String()
}
