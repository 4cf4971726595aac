package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasops/atlas/internal/session"
	"github.com/atlasops/atlas/pkg/client"
)

type loginField int

const (
	fieldUsername loginField = iota
	fieldPassword
	numLoginFields
)

type loginResultMsg struct {
	token string
	err   error
}

type loginModel struct {
	client     *client.Client
	keyring    *session.Keyring
	fields     [numLoginFields]string
	focus      loginField
	submitting bool
	errMsg     string
	width      int
	height     int
}

func newLoginModel(c *client.Client, kr *session.Keyring) loginModel {
	return loginModel{client: c, keyring: kr}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.fields[fieldPassword] = ""
			m.focus = fieldPassword
			return m, nil
		}
		m.keyring.Persist(msg.token)
		return m, func() tea.Msg { return navigateMsg{target: viewHome} }

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		m.errMsg = ""
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % numLoginFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
		case "enter":
			if m.focus == fieldUsername {
				m.focus = fieldPassword
				return m, nil
			}
			return m.submit()
		default:
			f := &m.fields[m.focus]
			*f = editRune(*f, msg.String())
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	username := strings.TrimSpace(m.fields[fieldUsername])
	password := m.fields[fieldPassword]

	if username == "" {
		m.errMsg = "username is required"
		m.focus = fieldUsername
		return m, nil
	}
	if password == "" {
		m.errMsg = "password is required"
		m.focus = fieldPassword
		return m, nil
	}

	m.submitting = true
	c := m.client
	return m, func() tea.Msg {
		token, err := c.Login(context.Background(), username, password)
		return loginResultMsg{token: token, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	b.WriteString("\n " + titleStyle.Render("SIGN IN") + "  " + dimStyle.Render("session required") + "\n\n")

	labels := [numLoginFields]string{"username", "password"}
	for i := loginField(0); i < numLoginFields; i++ {
		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = ">"
			style = selectedStyle
		}

		value := m.fields[i]
		if i == fieldPassword {
			value = strings.Repeat("*", len([]rune(value)))
		}
		if i == m.focus && !m.submitting {
			value += "█"
		}
		fmt.Fprintf(&b, " %s %s: %s\n", cursor, style.Render(fmt.Sprintf("%-8s", labels[i])), value)
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("signing in..."))
	} else if m.errMsg != "" {
		b.WriteString(" " + errStyle.Render(m.errMsg))
	} else {
		b.WriteString(" " + metaStyle.Render("enter to sign in"))
	}

	return b.String()
}
