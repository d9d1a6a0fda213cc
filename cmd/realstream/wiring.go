package main

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/infblueocean/realstream/internal/api"
	"github.com/infblueocean/realstream/internal/auth"
	"github.com/infblueocean/realstream/internal/config"
	"github.com/infblueocean/realstream/internal/feed"
	"github.com/infblueocean/realstream/internal/otel"
	"github.com/infblueocean/realstream/internal/session"
	"github.com/infblueocean/realstream/internal/store"
	"github.com/infblueocean/realstream/internal/ui"
)

// recentLimit is how many past searches onboarding offers.
const recentLimit = 10

var errTokenRejected = errors.New("token rejected by server")

// wiring turns backend calls into tea.Cmds for the UI.
type wiring struct {
	ctx    context.Context
	cfg    *config.Config
	client *api.Client
	loader *feed.Loader
	auth   *auth.Session
	store  *store.Store
	log    *log.Logger
}

func (w *wiring) appConfig(p feed.Reconciler, events *otel.Logger, ring *otel.RingBuffer) ui.AppConfig {
	return ui.AppConfig{
		Session:          session.New(w.store),
		Player:           p,
		Lookahead:        w.cfg.Feed.Lookahead,
		ShowHints:        w.cfg.UI.ShowHints,
		Events:           events,
		Ring:             ring,
		Search:           w.search,
		FetchPage:        w.fetchPage,
		FetchRelated:     w.fetchRelated,
		Refresh:          w.refresh,
		LoadInteractions: w.loadInteractions,
		ToggleLike:       w.toggleLike,
		LoadComments:     w.loadComments,
		PostComment:      w.postComment,
		Share:            w.share,
		Login:            w.login,
		Logout:           w.logout,
		CheckUser:        w.checkUser,
		RecentSearches:   w.recentSearches,
		LoggedIn:         w.auth.LoggedIn,
	}
}

// search scrapes for sc, waits for the backend to index the results and
// records the search. Channel searches adopt the channel's real title.
func (w *wiring) search(sc feed.SearchContext) tea.Cmd {
	return func() tea.Msg {
		res, err := w.client.Scrape(w.ctx, sc, w.cfg.Feed.ScrapeLimit)
		if err != nil {
			return ui.SearchDone{Context: sc, Err: err}
		}
		if d := w.cfg.ScrapeSettle(); d > 0 {
			select {
			case <-time.After(d):
			case <-w.ctx.Done():
				return ui.SearchDone{Context: sc, Err: w.ctx.Err()}
			}
		}

		kind, value := "topic", sc.Topic
		if sc.Channel != "" {
			sc = feed.Channel(res.CanonicalChannel(sc.Channel))
			kind, value = "channel", sc.Channel
		}
		if err := w.store.RecordSearch(kind, value); err != nil {
			w.log.Warn("record search", "err", err)
		}
		return ui.SearchDone{Context: sc, Count: res.Count}
	}
}

func (w *wiring) fetchPage(req feed.Request) tea.Cmd {
	return func() tea.Msg {
		pg, err := w.loader.LoadPage(w.ctx, req)
		return ui.PageLoaded{Req: req, Page: pg, Err: err}
	}
}

func (w *wiring) fetchRelated(req feed.Request) tea.Cmd {
	return func() tea.Msg {
		rel, err := w.loader.Related(w.ctx, req)
		return ui.RelatedLoaded{Req: req, Related: rel, Err: err}
	}
}

func (w *wiring) refresh(req feed.Request) tea.Cmd {
	return func() tea.Msg {
		pages, err := w.loader.Refresh(w.ctx, req)
		return ui.Refreshed{Req: req, Pages: pages, Err: err}
	}
}

// loadInteractions fetches the like state (logged in only) and the
// comment count side by side.
func (w *wiring) loadInteractions(itemID string) tea.Cmd {
	return func() tea.Msg {
		msg := ui.InteractionsLoaded{ItemID: itemID}
		g, gctx := errgroup.WithContext(w.ctx)
		if w.auth.LoggedIn() {
			g.Go(func() error {
				st, err := w.client.LikeStatus(gctx, itemID)
				if err != nil {
					return err
				}
				msg.Like = &st
				return nil
			})
		}
		g.Go(func() error {
			n, err := w.client.CommentCount(gctx, itemID)
			if err != nil {
				return err
			}
			msg.Comments = n
			return nil
		})
		msg.Err = g.Wait()
		return msg
	}
}

func (w *wiring) toggleLike(itemID string) tea.Cmd {
	return func() tea.Msg {
		st, err := w.client.ToggleLike(w.ctx, itemID)
		return ui.LikeToggled{ItemID: itemID, Status: st, Err: err}
	}
}

func (w *wiring) loadComments(itemID string) tea.Cmd {
	return func() tea.Msg {
		cs, err := w.client.Comments(w.ctx, itemID)
		return ui.CommentsLoaded{ItemID: itemID, Comments: cs, Err: err}
	}
}

func (w *wiring) postComment(itemID, text string) tea.Cmd {
	return func() tea.Msg {
		name := "User"
		if u := w.auth.User(); u != nil && u.Name != "" {
			name = u.Name
		} else if id, ok := w.auth.Identity(); ok {
			name = id.DisplayName()
		}
		c, err := w.client.AddComment(w.ctx, itemID, text, name)
		return ui.CommentPosted{ItemID: itemID, Comment: c, Err: err}
	}
}

func (w *wiring) share(mediaID string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(feed.ShareURL(mediaID)); err != nil {
			w.log.Warn("copy share link", "err", err)
		}
		return nil
	}
}

func (w *wiring) login() tea.Cmd {
	return func() tea.Msg {
		u := w.client.LoginURL(w.cfg.Auth.Provider)
		manual := w.auth.Begin(u, auth.OpenBrowser)
		return ui.LoginStarted{URL: u, Manual: manual}
	}
}

// onToken runs on the coordinator when the callback delivers a token.
func (w *wiring) onToken(ctx context.Context, token string) tea.Msg {
	if err := w.auth.SetToken(token); err != nil {
		return ui.LoginComplete{Err: err}
	}
	u := w.auth.CheckUser(ctx, w.client)
	if u == nil {
		return ui.LoginComplete{Err: errTokenRejected}
	}
	return ui.LoginComplete{User: u}
}

func (w *wiring) logout() tea.Cmd {
	return func() tea.Msg {
		return ui.LoggedOut{Err: w.auth.Logout()}
	}
}

func (w *wiring) checkUser() tea.Cmd {
	return func() tea.Msg {
		return ui.UserChecked{User: w.auth.CheckUser(w.ctx, w.client)}
	}
}

func (w *wiring) recentSearches() tea.Cmd {
	return func() tea.Msg {
		rs, err := w.store.RecentSearches(recentLimit)
		if err != nil {
			w.log.Warn("recent searches", "err", err)
			return nil
		}
		out := make([]ui.RecentSearch, 0, len(rs))
		for _, r := range rs {
			out = append(out, ui.RecentSearch{Channel: r.Kind == "channel", Value: r.Value})
		}
		return ui.RecentLoaded{Searches: out}
	}
}
