package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/infblueocean/realstream/internal/feed"
	"github.com/infblueocean/realstream/internal/otel"
	"github.com/infblueocean/realstream/internal/session"
)

// wheelStep is how many rows one wheel notch scrolls.
const wheelStep = 3

// startFeed resets the pager for the session's context and requests the
// first page.
func (a *App) startFeed() tea.Cmd {
	req := a.pager.Reset(a.sess.Context())
	a.ctrl.Reset()
	a.scrollTop = 0
	a.scrolled = false
	a.interactionsFor = ""
	a.profile = false
	a.drawer.close()
	// resume in case the player was paused when the feed was left
	a.cfg.Player.SetPlaying(true)
	return a.dispatch(req)
}

// leaveFeed pauses playback on the way back to onboarding and forgets
// the feed, so fetches still in flight are dropped.
func (a *App) leaveFeed() {
	a.cfg.Player.SetPlaying(false)
	a.pager.Clear()
	a.ctrl.Reset()
	a.scrollTop = 0
	a.interactionsFor = ""
	a.drawer.close()
	a.profile = false
	a.input.Reset()
	a.input.Focus()
}

// dispatch turns a pager request into the command that carries it out.
func (a App) dispatch(req feed.Request) tea.Cmd {
	switch req.Kind {
	case feed.FetchPage:
		if req.Page > 0 {
			a.emit(otel.Event{Kind: otel.KindFetchMore, Context: req.Context.String(), Gen: req.Gen, Page: req.Page, Index: a.ctrl.Active()})
		}
		if a.cfg.FetchPage != nil {
			return a.cfg.FetchPage(req)
		}
	case feed.FetchRelated:
		if a.cfg.FetchRelated != nil {
			return a.cfg.FetchRelated(req)
		}
	case feed.Refresh:
		if a.cfg.Refresh != nil {
			return a.cfg.Refresh(req)
		}
	}
	return nil
}

// evaluate asks the pager whether the active index needs more content.
func (a App) evaluate() tea.Cmd {
	req, ok := a.pager.Evaluate(a.ctrl.Active())
	if !ok {
		return nil
	}
	return a.dispatch(req)
}

// interactionsCmd loads like state and comment count for the active item
// unless they were already requested for it.
func (a *App) interactionsCmd() tea.Cmd {
	it, ok := a.ctrl.ActiveItem()
	if !ok || it.ID == "" || it.ID == a.interactionsFor || a.cfg.LoadInteractions == nil {
		return nil
	}
	a.interactionsFor = it.ID
	return a.cfg.LoadInteractions(it.ID)
}

func (a *App) activeChanged() tea.Cmd {
	a.emit(otel.Event{Kind: otel.KindActiveIndex, Index: a.ctrl.Active(), Context: a.pager.Context().String()})
	return tea.Batch(a.evaluate(), a.interactionsCmd())
}

func (a App) move(delta int) (tea.Model, tea.Cmd) {
	vh := a.viewport()
	if !a.ctrl.Jump(delta, vh) {
		return a, nil
	}
	a.scrollTop = a.ctrl.Active() * vh
	a.scrolled = true
	return a, a.activeChanged()
}

// wheel scrolls by whole notches. The active item follows the rounded
// scroll position, as with a snap-scrolling container.
func (a App) wheel(notches int) (tea.Model, tea.Cmd) {
	n := a.pager.Len()
	if n == 0 {
		return a, nil
	}
	vh := a.viewport()
	a.scrollTop += notches * wheelStep
	a.scrollTop = max(0, min(a.scrollTop, (n-1)*vh))
	a.scrolled = true
	if !a.ctrl.OnScroll(a.scrollTop, vh) {
		return a, nil
	}
	return a, a.activeChanged()
}

func (a App) updateFeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Next):
		return a.move(1)

	case key.Matches(msg, keys.Prev):
		return a.move(-1)

	case key.Matches(msg, keys.Mute):
		a.ctrl.ToggleMute()
		return a, nil

	case key.Matches(msg, keys.Play):
		a.ctrl.TogglePlaying()
		return a, nil

	case key.Matches(msg, keys.Like):
		return a.like()

	case key.Matches(msg, keys.Comments):
		return a.openComments()

	case key.Matches(msg, keys.Share):
		it, ok := a.ctrl.ActiveItem()
		if !ok || a.cfg.Share == nil {
			return a, nil
		}
		return a, a.cfg.Share(it.MediaID)

	case key.Matches(msg, keys.Profile):
		a.profile = true
		return a, nil

	case key.Matches(msg, keys.Retry):
		req, ok := a.pager.Retry()
		if !ok {
			return a, nil
		}
		return a, tea.Batch(a.spin.Tick, a.dispatch(req))

	case key.Matches(msg, keys.Search):
		if err := a.sess.NewSearch(); err != nil {
			a.log.Error("new search", "err", err)
		}
		a.leaveFeed()
		return a, nil

	case key.Matches(msg, keys.Back):
		if err := a.sess.Pop(); err != nil {
			a.log.Error("back", "err", err)
		}
		a.leaveFeed()
		return a, nil

	case key.Matches(msg, keys.Debug):
		a.debugVisible = true
		return a, nil
	}
	return a, nil
}

// like toggles optimistically; LikeToggled confirms or rolls back.
func (a App) like() (tea.Model, tea.Cmd) {
	it, ok := a.ctrl.ActiveItem()
	if !ok {
		return a, nil
	}
	if !a.loggedIn() {
		return a, a.setFlash("Log in to like videos (press L)", true)
	}
	if a.cfg.ToggleLike == nil {
		return a, nil
	}
	prev := a.likes[it.ID]
	if _, pending := a.likeRollback[it.ID]; !pending {
		a.likeRollback[it.ID] = prev
	}
	next := prev
	next.Liked = !prev.Liked
	if next.Liked {
		next.Count++
	} else if next.Count > 0 {
		next.Count--
	}
	a.likes[it.ID] = next
	return a, a.cfg.ToggleLike(it.ID)
}

func (a App) viewFeed() string {
	switch {
	case a.pager.Loading():
		return a.spin.View() + " Loading videos..."

	case a.pager.Len() == 0 && a.pager.Err() != nil:
		return lipgloss.JoinVertical(lipgloss.Center,
			ErrorStyle.Render("Error loading feed"),
			DimStyle.Render(truncateRunes(a.pager.Err().Error(), max(20, a.width-8))),
			"",
			HintStyle.Render("press r to retry or n for a new search"))

	case a.pager.Len() == 0:
		return lipgloss.JoinVertical(lipgloss.Center,
			TitleStyle.Render("No videos found for "+describe(a.pager.Context())),
			"",
			HintStyle.Render("press n to search for something else"))
	}

	parts := []string{a.renderCard()}
	if a.pager.Err() != nil {
		parts = append(parts, ErrorStyle.Render("Error loading feed (r to retry)"))
	} else if a.pager.Fetching() {
		parts = append(parts, a.spin.View()+DimStyle.Render(" loading more"))
	}
	if a.drawer.open {
		parts = append(parts, a.viewDrawer())
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (a App) renderCard() string {
	it, ok := a.ctrl.ActiveItem()
	if !ok {
		return ""
	}
	w := min(72, max(24, a.width-8))

	var b strings.Builder
	pos := DimStyle.Render(fmt.Sprintf("%d/%d", a.ctrl.Active()+1, a.pager.Len()))
	if a.pager.HasMore() {
		pos = DimStyle.Render(fmt.Sprintf("%d/%d+", a.ctrl.Active()+1, a.pager.Len()))
	}
	b.WriteString(pos + "\n\n")
	b.WriteString(TitleStyle.Width(w).Render(it.Title) + "\n")

	meta := []string{}
	if it.Channel != "" {
		meta = append(meta, ChannelStyle.Render("@"+it.Channel))
	}
	if it.Duration > 0 {
		meta = append(meta, DimStyle.Render(formatDuration(it.Duration)))
	}
	if it.ViewCount > 0 {
		meta = append(meta, DimStyle.Render(formatCount(it.ViewCount)+" views"))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, DimStyle.Render(" · ")) + "\n")
	}
	if len(it.Tags) > 0 {
		var tags []string
		for i, t := range it.Tags {
			if i == 5 {
				break
			}
			tags = append(tags, TagStyle.Render("#"+strings.TrimPrefix(t, "#")))
		}
		b.WriteString("\n" + strings.Join(tags, "") + "\n")
	}
	if it.Description != "" {
		b.WriteString("\n" + DimStyle.Width(w).Render(truncateRunes(it.Description, w*2)) + "\n")
	}

	b.WriteString("\n" + a.renderInteractions(it.ID) + "\n")

	if !a.ctrl.Playing() {
		b.WriteString("\n" + a.renderPoster(it))
	}
	if a.cfg.ShowHints {
		if !a.scrolled && a.ctrl.Active() == 0 && a.pager.Len() > 1 {
			b.WriteString("\n" + HintStyle.Render("Swipe up for more (j)"))
		}
		if a.ctrl.Muted() {
			b.WriteString("\n" + HintStyle.Render("press m to unmute"))
		}
	}
	return Card.Width(w + 4).Render(b.String())
}

// renderPoster stands in for the video while it is not playing.
func (a App) renderPoster(it feed.Item) string {
	if a.playerErr != nil {
		return OverlayStyle.Render("Player unavailable") + "\n" + DimStyle.Render(feed.ShareURL(it.MediaID))
	}
	lines := []string{OverlayStyle.Render("▶ Paused  (space to play)")}
	if it.ThumbnailURL != "" {
		lines = append(lines, DimStyle.Render(truncateRunes(it.ThumbnailURL, 60)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderInteractions(itemID string) string {
	ls := a.likes[itemID]
	heart := DimStyle.Render("♡")
	if ls.Liked {
		heart = LikedStyle.Render("♥")
	}
	return fmt.Sprintf("%s %s   %s %s", heart, formatCount(int64(ls.Count)),
		DimStyle.Render("💬"), formatCount(int64(a.commentCounts[itemID])))
}

func describe(sc feed.SearchContext) string {
	switch {
	case sc.Channel != "":
		return "channel " + sc.Channel
	case sc.Topic != "":
		return "#" + sc.Topic
	}
	return "this search"
}

func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func formatDuration(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// inFeed reports whether the feed view has focus.
func (a App) inFeed() bool {
	return a.sess.View() == session.Feed && !a.drawer.open && !a.profile
}
