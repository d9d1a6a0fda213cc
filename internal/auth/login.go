package auth

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/infblueocean/realstream/internal/otel"
)

// Opener shows url to the user, normally in the system browser.
type Opener func(url string) error

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go cmd.Wait()
	return nil
}

// Begin starts a login at loginURL. It reports manual=true when the
// browser could not be opened and the URL must be shown instead.
func (s *Session) Begin(loginURL string, open Opener) (manual bool) {
	if open == nil {
		open = OpenBrowser
	}
	s.log.Info("login started", "url", loginURL)
	s.emit(otel.LevelInfo, otel.KindAuthLogin, loginURL)
	if err := open(loginURL); err != nil {
		s.log.Warn("browser unavailable, showing login url", "err", err)
		return true
	}
	return false
}
