package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#60a5fa")).
		Bold(true).
		Render("A T L A S")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Workforce attendance, from your terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"atlas", "Open the console (interactive TUI)"},
		{"atlas login", "Authenticate with the attendance API"},
		{"atlas logout", "Clear the stored session"},
		{"atlas --token <t>", "Open with a one-off session token"},
		{"atlas --version", "Show version"},
		{"atlas help", "You are here"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	env := descStyle.Render("ATLAS_API_BASE_URL, ATLAS_TOKEN, and ~/.atlas/config.yaml configure the console.")
	fmt.Printf("\n  %s\n\n", env)
}
