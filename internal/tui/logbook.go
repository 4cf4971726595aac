package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasops/atlas/internal/browser"
	"github.com/atlasops/atlas/pkg/client"
	"github.com/atlasops/atlas/pkg/domain"
)

type scansLoadedMsg struct {
	page *client.ScanPage
	err  error
}

type exportResultMsg struct {
	path string
	err  error
}

type deleteResultMsg struct {
	id  int64
	err error
}

// logbookModel lists attendance scans with paging, export and pruning.
type logbookModel struct {
	client    *client.Client
	pageSize  int
	page      int
	scans     []domain.ScanRecord
	cursor    domain.Cursor
	sel       int
	loading   bool
	exporting bool
	deleting  bool
	confirm   bool // pending delete for scans[sel]
	errMsg    string
	statusMsg string
	width     int
	height    int
}

func newLogbookModel(c *client.Client, pageSize int) logbookModel {
	return logbookModel{client: c, pageSize: pageSize, page: 1, loading: true}
}

func (m logbookModel) Init() tea.Cmd {
	return m.load()
}

func (m logbookModel) load() tea.Cmd {
	c := m.client
	page, size := m.page, m.pageSize
	return func() tea.Msg {
		sp, err := c.ListScans(context.Background(), page, size)
		return scansLoadedMsg{page: sp, err: err}
	}
}

func (m logbookModel) Update(msg tea.Msg) (logbookModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scansLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.scans = msg.page.Scans
		m.cursor = msg.page.Cursor
		if m.sel >= len(m.scans) {
			m.sel = 0
		}
		return m, nil

	case exportResultMsg:
		m.exporting = false
		if msg.err != nil {
			m.errMsg = "export failed: " + msg.err.Error()
		} else {
			m.statusMsg = "saved " + msg.path
		}
		return m, nil

	case deleteResultMsg:
		m.deleting = false
		if msg.err != nil {
			m.errMsg = "delete failed: " + msg.err.Error()
			return m, nil
		}
		// Drop the record locally whatever the response body said; the
		// next refresh is authoritative.
		for i, s := range m.scans {
			if s.ID == msg.id {
				m.scans = append(m.scans[:i], m.scans[i+1:]...)
				break
			}
		}
		if m.sel >= len(m.scans) && m.sel > 0 {
			m.sel--
		}
		m.statusMsg = "record deleted"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.confirm {
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m logbookModel) updateConfirm(msg tea.KeyMsg) (logbookModel, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.confirm = false
		if m.sel < len(m.scans) && !m.deleting {
			m.deleting = true
			id := m.scans[m.sel].ID
			c := m.client
			return m, func() tea.Msg {
				err := c.DeleteLogEntry(context.Background(), id)
				return deleteResultMsg{id: id, err: err}
			}
		}
	case "n", "esc":
		m.confirm = false
	}
	return m, nil
}

func (m logbookModel) updateList(msg tea.KeyMsg) (logbookModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.sel < len(m.scans)-1 {
			m.sel++
		}
	case "k", "up":
		if m.sel > 0 {
			m.sel--
		}
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
	case "e":
		if !m.exporting {
			m.exporting = true
			c := m.client
			page, size := m.page, m.pageSize
			return m, func() tea.Msg {
				data, err := c.ExportExcel(context.Background(), page, size)
				if err != nil {
					return exportResultMsg{err: err}
				}
				name := fmt.Sprintf("attendance-export-page-%d.xlsx", page)
				if err := os.WriteFile(name, data, 0o644); err != nil {
					return exportResultMsg{err: err}
				}
				browser.Open(name) //nolint:errcheck // best-effort reveal
				return exportResultMsg{path: name}
			}
		}
	case "d":
		if m.sel < len(m.scans) {
			m.confirm = true
		}
	}
	return m, nil
}

func (m logbookModel) View() string {
	var b strings.Builder

	b.WriteString(" " + titleStyle.Render("ATTENDANCE LOGBOOK") + "\n")

	if m.errMsg != "" {
		b.WriteString(" " + errStyle.Render(m.errMsg) + "\n")
	} else if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	} else if m.exporting {
		b.WriteString(" " + dimStyle.Render("exporting...") + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.loading && len(m.scans) == 0 {
		b.WriteString(" " + dimStyle.Render("loading logbook..."))
		return b.String()
	}
	if len(m.scans) == 0 {
		b.WriteString(" " + dimStyle.Render("no scans recorded"))
		return b.String()
	}

	header := " " + metaStyle.Render(padRight("NAME", 24)+padRight("TYPE", 8)+padRight("DATE", 14)+"TIME")
	b.WriteString(header + "\n")

	for i, s := range m.scans {
		row := " " + padRight(s.Name, 24)
		switch s.Type {
		case domain.ScanEntry:
			row += entryStyle.Render(padRight("entry", 8))
		case domain.ScanExit:
			row += exitStyle.Render(padRight("exit", 8))
		default:
			row += dimStyle.Render(padRight("—", 8))
		}
		row += normalStyle.Render(padRight(s.DateLabel(), 14))
		row += dimStyle.Render(s.TimeLabel())
		if i == m.sel {
			if m.confirm {
				row += "  " + errStyle.Render("delete record? y/n")
			} else if m.deleting {
				row += "  " + dimStyle.Render("deleting...")
			}
			b.WriteString(selectedRowBg.Render(row) + "\n")
		} else {
			b.WriteString(row + "\n")
		}
	}

	pager := fmt.Sprintf("page %d", m.cursor.Page)
	if m.cursor.Total > 0 {
		pager = fmt.Sprintf("page %d/%d · %d records", m.cursor.Page, m.cursor.TotalPages(), m.cursor.Total)
	}
	if m.loading {
		pager += " · refreshing..."
	}
	b.WriteString("\n " + metaStyle.Render(pager) + "\n")

	return b.String()
}
