package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/infblueocean/realstream/internal/api"
)

// maxDrawerComments caps how many comments the drawer renders.
const maxDrawerComments = 8

type commentsDrawer struct {
	open     bool
	itemID   string
	comments []api.Comment
	loading  bool
	posting  bool
	err      error
	input    textarea.Model
}

func (d *commentsDrawer) close() {
	d.open = false
	d.itemID = ""
	d.comments = nil
	d.err = nil
	d.input.Reset()
	d.input.Blur()
}

func (a App) openComments() (tea.Model, tea.Cmd) {
	it, ok := a.ctrl.ActiveItem()
	if !ok || it.ID == "" {
		return a, nil
	}
	a.drawer.open = true
	a.drawer.itemID = it.ID
	a.drawer.comments = nil
	a.drawer.err = nil
	a.drawer.loading = a.cfg.LoadComments != nil
	cmds := []tea.Cmd{a.drawer.input.Focus()}
	if a.cfg.LoadComments != nil {
		cmds = append(cmds, a.cfg.LoadComments(it.ID))
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateDrawer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.drawer.close()
		return a, nil

	case "enter":
		text := strings.TrimSpace(a.drawer.input.Value())
		if text == "" || a.drawer.posting {
			return a, nil
		}
		if !a.loggedIn() {
			return a, a.setFlash("Log in to comment (press esc, then L)", true)
		}
		if a.cfg.PostComment == nil {
			return a, nil
		}
		a.drawer.posting = true
		return a, a.cfg.PostComment(a.drawer.itemID, text)
	}

	var cmd tea.Cmd
	a.drawer.input, cmd = a.drawer.input.Update(msg)
	return a, cmd
}

func (a App) commentsLoaded(msg CommentsLoaded) (tea.Model, tea.Cmd) {
	if !a.drawer.open || msg.ItemID != a.drawer.itemID {
		return a, nil
	}
	a.drawer.loading = false
	a.drawer.err = msg.Err
	comments := append([]api.Comment(nil), msg.Comments...)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	a.drawer.comments = comments
	if msg.Err == nil {
		a.commentCounts[msg.ItemID] = len(comments)
	}
	return a, nil
}

func (a App) commentPosted(msg CommentPosted) (tea.Model, tea.Cmd) {
	a.drawer.posting = false
	if msg.Err != nil {
		return a, a.setFlash("Could not post comment", true)
	}
	a.commentCounts[msg.ItemID]++
	if a.drawer.open && msg.ItemID == a.drawer.itemID {
		a.drawer.comments = append([]api.Comment{msg.Comment}, a.drawer.comments...)
		a.drawer.input.Reset()
	}
	return a, nil
}

func (a App) viewDrawer() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Comments") + "\n")
	switch {
	case a.drawer.loading:
		b.WriteString(a.spin.View() + " loading\n")
	case a.drawer.err != nil:
		b.WriteString(ErrorStyle.Render("Could not load comments") + "\n")
	case len(a.drawer.comments) == 0:
		b.WriteString(DimStyle.Render("No comments yet") + "\n")
	}
	for i, c := range a.drawer.comments {
		if i == maxDrawerComments {
			b.WriteString(DimStyle.Render("...") + "\n")
			break
		}
		b.WriteString(CommentAuthor.Render(c.Author()) + " " + DimStyle.Render(c.CreatedAt.Format("Jan 2 15:04")) + "\n")
		b.WriteString(c.Content + "\n")
	}
	b.WriteString("\n" + a.drawer.input.View() + "\n")
	b.WriteString(HintStyle.Render("enter to post, esc to close"))
	return Drawer.Width(lipgloss.Width(a.drawer.input.View()) + 2).Render(b.String())
}
