// Package tui implements the interactive attendance console: a login
// form, a module menu, the badge generator, the live scanner, and the
// attendance logbook. Every view is gated through the session guard
// before it renders.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/atlasops/atlas/internal/capture"
	"github.com/atlasops/atlas/internal/guard"
	"github.com/atlasops/atlas/internal/session"
	"github.com/atlasops/atlas/pkg/client"
)

type view int

const (
	viewLogin view = iota
	viewHome
	viewGenerator
	viewScanner
	viewLogbook
)

// Route names as the guard knows them.
const (
	RouteLogin     = "login"
	RouteHome      = "home"
	RouteGenerator = "generator"
	RouteScanner   = "scanner"
	RouteLogbook   = "logbook"
)

func (v view) route() string {
	switch v {
	case viewLogin:
		return RouteLogin
	case viewGenerator:
		return RouteGenerator
	case viewScanner:
		return RouteScanner
	case viewLogbook:
		return RouteLogbook
	default:
		return RouteHome
	}
}

// navigateMsg asks the app to move to another view through the guard.
type navigateMsg struct {
	target view
}

// sessionExpiredMsg is emitted after a rejected credential has been purged
// and the notice delay has elapsed.
type sessionExpiredMsg struct{}

// App is the root Bubbletea model.
type App struct {
	client    *client.Client
	keyring   *session.Keyring
	guard     *guard.Guard
	view      view
	login     loginModel
	home      homeModel
	generator generatorModel
	scanner   scannerModel
	logbook   logbookModel
	helpOpen  bool
	version   string
	width     int
	height    int
	frame     int // logo shimmer animation frame
}

// NewApp creates the console rooted at the home menu. navToken is the
// value of a --token deep link; the guard consumes it here so it is
// persisted (or discarded) exactly once.
func NewApp(c *client.Client, kr *session.Keyring, g *guard.Guard, capSess *capture.Session, pageSize int, navToken, version string) App {
	// Home is public, so this never redirects; the check exists to adopt
	// the deep-link token before the first view renders.
	g.Check(RouteHome, navToken)

	return App{
		client:    c,
		keyring:   kr,
		guard:     g,
		view:      viewHome,
		login:     newLoginModel(c, kr),
		home:      newHomeModel(),
		generator: newGeneratorModel(c, pageSize),
		scanner:   newScannerModel(c, kr, capSess),
		logbook:   newLogbookModel(c, pageSize),
		version:   version,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.home.Init())
}

// goTo runs the guard for the target view and switches to it, or to the
// login form when the guard redirects.
func (a App) goTo(target view) (App, tea.Cmd) {
	decision := a.guard.Check(target.route(), "")

	// Leaving the scanner always tears the capture pipeline down.
	var teardown tea.Cmd
	if a.view == viewScanner && target != viewScanner {
		teardown = a.scanner.unmount()
	}

	if decision.State == guard.Redirecting {
		a.view = viewLogin
		a.login = newLoginModel(a.client, a.keyring)
		return a, teardown
	}

	a.view = target
	var cmd tea.Cmd
	switch target {
	case viewLogin:
		a.login = newLoginModel(a.client, a.keyring)
	case viewHome:
		cmd = a.home.Init()
	case viewGenerator:
		cmd = a.generator.Init()
	case viewScanner:
		cmd = a.scanner.Init()
	case viewLogbook:
		cmd = a.logbook.Init()
	}
	return a, tea.Batch(teardown, cmd)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.login, _ = a.login.Update(bodyMsg)
		a.home, _ = a.home.Update(bodyMsg)
		a.generator, _ = a.generator.Update(bodyMsg)
		a.scanner, _ = a.scanner.Update(bodyMsg)
		a.logbook, _ = a.logbook.Update(bodyMsg)

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case navigateMsg:
		return a.goTo(msg.target)

	case sessionExpiredMsg:
		return a.goTo(viewLogin)

	case tea.KeyMsg:
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc", "q":
				a.helpOpen = false
			case "ctrl+c":
				return a, tea.Quit
			}
			return a, nil
		}

		// Global keys (suspended while a form has focus)
		if !a.isEditing() {
			switch msg.String() {
			case "q", "ctrl+c":
				var teardown tea.Cmd
				if a.view == viewScanner {
					teardown = a.scanner.unmount()
				}
				return a, tea.Sequence(teardown, tea.Quit)
			case "h":
				a.helpOpen = true
				return a, nil
			case "0":
				if a.view != viewHome {
					return a.goTo(viewHome)
				}
			case "1":
				if a.view != viewGenerator {
					return a.goTo(viewGenerator)
				}
			case "2":
				if a.view != viewScanner {
					return a.goTo(viewScanner)
				}
			case "3":
				if a.view != viewLogbook {
					return a.goTo(viewLogbook)
				}
			case "esc":
				if a.view != viewHome && a.view != viewLogin {
					return a.goTo(viewHome)
				}
			}
		} else if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewGenerator:
		a.generator, cmd = a.generator.Update(msg)
	case viewScanner:
		a.scanner, cmd = a.scanner.Update(msg)
	case viewLogbook:
		a.logbook, cmd = a.logbook.Update(msg)
	}

	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin:
		return true
	case viewGenerator:
		return a.generator.editing
	}
	return false
}

func (a App) View() string {
	// Header: centered shimmer wordmark
	logo := renderShimmerLogo(a.frame)

	sub := metaStyle.Render("workforce attendance console")
	if a.version != "" && a.version != "dev" {
		sub = metaStyle.Render("workforce attendance console · " + a.version)
	}

	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	subWidth := lipgloss.Width(sub)
	subPad := (a.width - subWidth) / 2
	if subPad < 0 {
		subPad = 0
	}
	header += "\n" + strings.Repeat(" ", subPad) + sub

	// Tab bar: 0 Home  1 Generator  2 Scanner  3 Logbook
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"0", "Home", viewHome},
		{"1", "Generator", viewGenerator},
		{"2", "Scanner", viewScanner},
		{"3", "Logbook", viewLogbook},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	centeredTabs := tabBar.String()
	if a.view == viewLogin {
		centeredTabs = strings.Repeat(" ", a.width)
	}

	var body string
	var help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "next field") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("ctrl+c", "quit")
	case viewHome:
		body = a.home.View()
		help = " " + helpEntry("0-3", "modules") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	case viewGenerator:
		body = a.generator.View()
		if a.generator.editing {
			help = " " + helpEntry("enter", "generate") + "  " + helpEntry("esc", "cancel")
		} else {
			help = " " + helpEntry("g", "new badge") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("n/p", "page") + "  " + helpEntry("c", "copy") + "  " + helpEntry("d", "remove") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("esc", "home")
		}
	case viewScanner:
		body = a.scanner.View()
		help = " " + helpEntry("s", "start/restart") + "  " + helpEntry("x", "stop") + "  " + helpEntry("c", "copy") + "  " + helpEntry("esc", "home") + "  " + helpEntry("q", "quit")
	case viewLogbook:
		body = a.logbook.View()
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("n/p", "page") + "  " + helpEntry("e", "export") + "  " + helpEntry("d", "delete") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("esc", "home")
	}

	if a.helpOpen {
		body = helpView()
		help = " " + helpEntry("esc", "close")
	}

	// Chrome budget: header(2) + tabs(1) + help(1) = 4 lines + body
	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, centeredTabs, body, help)
}
