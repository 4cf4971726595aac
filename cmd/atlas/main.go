package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/atlasops/atlas/internal/capture"
	"github.com/atlasops/atlas/internal/config"
	"github.com/atlasops/atlas/internal/guard"
	"github.com/atlasops/atlas/internal/logging"
	"github.com/atlasops/atlas/internal/session"
	"github.com/atlasops/atlas/internal/tui"
	"github.com/atlasops/atlas/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	navToken, args := extractToken(os.Args[1:])

	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("atlas " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "login":
			return runLogin()
		case "logout":
			return runLogout()
		}
	}

	return launch(navToken)
}

// extractToken pulls a --token deep link out of the argument list, accepting
// both "--token t" and "--token=t".
func extractToken(args []string) (string, []string) {
	var token string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--token" && i+1 < len(args):
			token = args[i+1]
			i++
		case strings.HasPrefix(arg, "--token="):
			token = strings.TrimPrefix(arg, "--token=")
		default:
			rest = append(rest, arg)
		}
	}
	return token, rest
}

// buildConsole wires config, session stores, the API client and the capture
// pipeline into a ready-to-run app.
func buildConsole(navToken string) (tui.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return tui.App{}, err
	}
	logger, err := logging.Init(cfg.Logger)
	if err != nil {
		return tui.App{}, fmt.Errorf("init logging: %w", err)
	}

	short := session.NewMemoryStore()
	if tok := os.Getenv("ATLAS_TOKEN"); tok != "" {
		short.Set(session.TokenKey, session.Normalize(tok)) //nolint:errcheck // memory store cannot fail
	}
	long := session.NewFileStore(cfg.State.Dir)
	kr := session.NewKeyring(short, long)

	c := client.New(cfg.API.BaseURL, kr.Source())
	g := guard.New(kr, tui.RouteLogin, tui.RouteHome)

	var frames capture.FrameSource
	if src, err := capture.NewCommandFrameSource(cfg.Capture.Command, cfg.Capture.Device); err != nil {
		frames = capture.UnavailableSource{Err: err}
	} else {
		frames = src
	}
	decoder := capture.NewZXingDecoder(frames, 0)
	capSess := capture.NewSession(decoder, "scanner", kr.Source())

	logger.Info("console starting",
		slog.String("version", version),
		slog.String("api", cfg.API.BaseURL),
		slog.String("device", cfg.Capture.Device))

	return tui.NewApp(c, kr, g, capSess, cfg.API.PageSize, navToken, version), nil
}

func launch(navToken string) error {
	app, err := buildConsole(navToken)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// runLogin prompts for credentials on the plain terminal, stores the
// session token, and opens the console.
func runLogin() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logging.Init(cfg.Logger); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read username: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	c := client.New(cfg.API.BaseURL, func() string { return "" })
	token, err := c.Login(context.Background(), username, string(passBytes))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	short := session.NewMemoryStore()
	long := session.NewFileStore(cfg.State.Dir)
	kr := session.NewKeyring(short, long)
	kr.Persist(token)

	fmt.Printf("Signed in as %s\n\n", username)

	return launch("")
}

func runLogout() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	short := session.NewMemoryStore()
	long := session.NewFileStore(cfg.State.Dir)
	kr := session.NewKeyring(short, long)
	if kr.Read() == "" {
		fmt.Println("Already signed out.")
		return nil
	}
	kr.Purge()
	fmt.Println("Signed out.")
	return nil
}
