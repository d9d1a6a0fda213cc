package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/infblueocean/realstream/internal/feed"
	"github.com/infblueocean/realstream/internal/otel"
)

// TrendingTags are offered on the onboarding screen, selected with 1-4.
var TrendingTags = []string{"LiveGaming", "TechKeynote", "IndieNews", "Web3"}

func (a App) updateOnboarding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		if msg.String() == "esc" {
			a.searching = false
		}
		return a, nil
	}

	switch msg.String() {
	case "enter":
		return a.submit(a.contextFor(a.input.Value(), a.channelMode))

	case "tab":
		a.setChannelMode(!a.channelMode)
		return a, nil

	case "esc":
		a.input.Reset()
		a.recentIdx = -1
		return a, nil

	case "up", "down":
		if len(a.recent) == 0 {
			return a, nil
		}
		if msg.String() == "down" {
			a.recentIdx = (a.recentIdx + 1) % len(a.recent)
		} else if a.recentIdx <= 0 {
			a.recentIdx = len(a.recent) - 1
		} else {
			a.recentIdx--
		}
		r := a.recent[a.recentIdx]
		a.setChannelMode(r.Channel)
		a.input.SetValue(r.Value)
		a.input.CursorEnd()
		return a, nil

	case "1", "2", "3", "4":
		if a.input.Value() == "" {
			i := int(msg.Runes[0] - '1')
			a.setChannelMode(false)
			return a.submit(feed.Topic(TrendingTags[i]))
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) setChannelMode(on bool) {
	a.channelMode = on
	if on {
		a.input.Prompt = "@ "
		a.input.Placeholder = "channel name"
	} else {
		a.input.Prompt = "# "
		a.input.Placeholder = "topic, e.g. drone racing"
	}
}

func (a App) contextFor(value string, channel bool) feed.SearchContext {
	if channel {
		return feed.Channel(strings.TrimPrefix(strings.TrimSpace(value), "@"))
	}
	return feed.Topic(value)
}

// submit starts the scrape for sc. Empty input is ignored.
func (a App) submit(sc feed.SearchContext) (tea.Model, tea.Cmd) {
	if !sc.Valid() || a.cfg.Search == nil {
		return a, nil
	}
	a.searching = true
	a.searchSeq++
	a.pending = sc
	return a, tea.Batch(a.spin.Tick, stampSearch(a.cfg.Search(sc), a.searchSeq))
}

// stampSearch tags the SearchDone produced by cmd with seq.
func stampSearch(cmd tea.Cmd, seq int) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		if done, ok := msg.(SearchDone); ok {
			done.Seq = seq
			return done
		}
		return msg
	}
}

// searchDone enters the feed whether or not the scrape succeeded: on
// failure the feed shows whatever was scraped for the context before.
func (a App) searchDone(msg SearchDone) (tea.Model, tea.Cmd) {
	if !a.searching || msg.Seq != a.searchSeq {
		a.log.Debug("dropping search result", "ctx", msg.Context, "seq", msg.Seq, "want", a.searchSeq)
		return a, nil
	}
	a.searching = false

	if msg.Err != nil {
		a.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSearchFailed, Context: msg.Context.String(), Err: msg.Err.Error()})
		if err := a.sess.SearchFailed(msg.Context, msg.Err); err != nil {
			a.log.Error("persist search", "err", err)
		}
	} else {
		a.emit(otel.Event{Kind: otel.KindSearch, Context: msg.Context.String(), Count: msg.Count})
		if err := a.sess.SearchSucceeded(msg.Context); err != nil {
			a.log.Error("persist search", "err", err)
		}
	}
	a.input.Blur()
	a.recentIdx = -1

	cmds := []tea.Cmd{a.startFeed()}
	if a.cfg.RecentSearches != nil {
		cmds = append(cmds, a.cfg.RecentSearches())
	}
	return a, tea.Batch(cmds...)
}

func (a App) viewOnboarding() string {
	var b strings.Builder
	b.WriteString(BannerStyle.Render("RealStream") + "\n")
	b.WriteString(DimStyle.Render("Short videos for any topic or channel") + "\n\n")

	topic, channel := SelectedTab, Tab
	if a.channelMode {
		topic, channel = Tab, SelectedTab
	}
	b.WriteString(topic.Render("Topic") + " " + channel.Render("Channel") + DimStyle.Render("  (tab)") + "\n\n")

	if a.searching {
		b.WriteString(a.spin.View() + " Searching for " + describe(a.pending) + "...\n")
		b.WriteString(HintStyle.Render("esc to cancel") + "\n")
		return b.String()
	}
	b.WriteString(a.input.View() + "\n\n")

	b.WriteString(DimStyle.Render("Trending") + "\n")
	for i, t := range TrendingTags {
		b.WriteString(fmt.Sprintf("%s %s  ", StatusBarKey.Render(fmt.Sprint(i+1)), TagStyle.Render("#"+t)))
	}
	b.WriteString("\n")

	if len(a.recent) > 0 {
		b.WriteString("\n" + DimStyle.Render("Recent (up/down)") + "\n")
		for i, r := range a.recent {
			label := "#" + r.Value
			if r.Channel {
				label = "@" + r.Value
			}
			if i == a.recentIdx {
				b.WriteString(SelectedTab.Render(label) + "\n")
			} else {
				b.WriteString(Tab.Render(label) + "\n")
			}
		}
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
