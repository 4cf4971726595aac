package tui

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// formatAgo renders a relative timestamp for scanner feedback displays.
func formatAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads or truncates s to exactly width runes for table columns.
func padRight(s string, width int) string {
	s = truncStr(s, width)
	for utf8.RuneCountInString(s) < width {
		s += " "
	}
	return s
}
