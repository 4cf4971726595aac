// Package browser hands files and URLs to the desktop environment. The
// console uses it to reveal exported spreadsheets.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open asks the platform handler to open target, which may be a URL or a
// local file path such as a saved export.
func Open(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Start()
	case "linux":
		return exec.Command("xdg-open", target).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	default:
		return fmt.Errorf("no file handler for %s", runtime.GOOS)
	}
}
