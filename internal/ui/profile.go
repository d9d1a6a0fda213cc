package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (a App) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "L", "q":
		a.profile = false
		return a, nil
	case "enter":
		if a.loggedIn() || a.cfg.Login == nil {
			return a, nil
		}
		return a, a.cfg.Login()
	case "x":
		if !a.loggedIn() || a.cfg.Logout == nil {
			return a, nil
		}
		return a, a.cfg.Logout()
	}
	return a, nil
}

func (a App) viewProfile() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Account") + "\n\n")
	switch {
	case a.user != nil:
		b.WriteString(displayName(a.user) + "\n")
		if a.user.Email != "" && a.user.Email != a.user.Name {
			b.WriteString(DimStyle.Render(a.user.Email) + "\n")
		}
		b.WriteString("\n" + HintStyle.Render("x to log out, esc to go back"))
	case a.loggedIn():
		b.WriteString(DimStyle.Render("Checking your session...") + "\n")
		b.WriteString("\n" + HintStyle.Render("x to log out, esc to go back"))
	default:
		b.WriteString("Not logged in\n")
		if a.loginURL != "" {
			b.WriteString("\nOpen this link to log in:\n" + a.loginURL + "\n")
		}
		b.WriteString("\n" + HintStyle.Render("enter to log in with Google, esc to go back"))
	}
	return Card.Render(b.String())
}
