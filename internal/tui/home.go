package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// homeModel renders the module menu. It holds no remote state.
type homeModel struct {
	cursor int
	width  int
	height int
}

type homeEntry struct {
	key    string
	name   string
	desc   string
	target view
}

var homeEntries = []homeEntry{
	{"1", "Badge Generator", "issue QR badges and browse the worker roster", viewGenerator},
	{"2", "Live Scanner", "capture badge scans from the camera feed", viewScanner},
	{"3", "Attendance Logbook", "review, export and prune scan records", viewLogbook},
}

func newHomeModel() homeModel {
	return homeModel{}
}

func (m homeModel) Init() tea.Cmd {
	return nil
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(homeEntries)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			target := homeEntries[m.cursor].target
			return m, func() tea.Msg { return navigateMsg{target: target} }
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	var b strings.Builder

	b.WriteString("\n " + sectionHeaderStyle.Render("MODULES") + "\n\n")

	for i, e := range homeEntries {
		cursor := "  "
		nameStyle := normalStyle
		if i == m.cursor {
			cursor = " >"
			nameStyle = selectedStyle
		}
		b.WriteString(cursor + " " + accentStyle.Render(e.key) + "  " + nameStyle.Render(e.name) + "\n")
		b.WriteString("       " + dimStyle.Render(e.desc) + "\n\n")
	}

	return b.String()
}
