// Package session decides which view the app opens in and keeps the
// persisted search context in step with it.
package session

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/feed"
	"github.com/infblueocean/realstream/internal/logging"
)

// Persisted keys.
const (
	KeyOnboarded = "onboarded"
	KeyTopic     = "topic"
	KeyChannel   = "channel"
)

// View is the top-level screen.
type View int

const (
	Uninitialized View = iota
	Onboarding
	Feed
)

func (v View) String() string {
	switch v {
	case Onboarding:
		return "onboarding"
	case Feed:
		return "feed"
	}
	return "uninitialized"
}

// Storage is session-scoped key-value persistence.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Machine moves between Uninitialized, Onboarding and Feed. It is driven
// from the UI loop and is not safe for concurrent use.
type Machine struct {
	store Storage
	hist  *History
	log   *log.Logger

	view View
	ctx  feed.SearchContext
}

// New returns a Machine in Uninitialized.
func New(store Storage) *Machine {
	return &Machine{store: store, hist: &History{}, log: logging.For("session")}
}

// Restore opens Feed when the onboarded flag is set and a topic or channel
// is persisted, preferring the channel, and pushes a history entry so there
// is something to go back from. Anything else opens Onboarding; a set flag
// without a context is cleared.
func (m *Machine) Restore() (View, error) {
	onboarded, _, err := m.store.Get(KeyOnboarded)
	if err != nil {
		m.view = Onboarding
		return m.view, fmt.Errorf("restore session: %w", err)
	}
	topic, _, err := m.store.Get(KeyTopic)
	if err != nil {
		m.view = Onboarding
		return m.view, fmt.Errorf("restore session: %w", err)
	}
	channel, _, err := m.store.Get(KeyChannel)
	if err != nil {
		m.view = Onboarding
		return m.view, fmt.Errorf("restore session: %w", err)
	}

	if onboarded == "true" && (topic != "" || channel != "") {
		if channel != "" {
			m.ctx = feed.Channel(channel)
		} else {
			m.ctx = feed.Topic(topic)
		}
		m.view = Feed
		m.hist.Push(Feed)
		m.log.Info("session restored", "ctx", m.ctx)
		return m.view, nil
	}

	m.view = Onboarding
	m.ctx = feed.SearchContext{}
	if onboarded != "" {
		m.log.Warn("persisted session has no search context; clearing")
		if err := m.clear(); err != nil {
			return m.view, err
		}
	}
	return m.view, nil
}

// SearchSucceeded persists ctx and the onboarded flag, pushes history and
// moves to Feed.
func (m *Machine) SearchSucceeded(ctx feed.SearchContext) error {
	m.ctx = ctx
	m.view = Feed
	m.hist.Push(Feed)
	return m.persist(ctx)
}

// SearchFailed still moves to Feed with ctx so content scraped earlier for
// it can be shown.
func (m *Machine) SearchFailed(ctx feed.SearchContext, cause error) error {
	m.log.Warn("scrape failed; showing existing content", "ctx", ctx, "err", cause)
	return m.SearchSucceeded(ctx)
}

// Pop is back navigation. It always lands on Onboarding and clears the
// persisted context.
func (m *Machine) Pop() error {
	m.hist.Pop()
	return m.reset()
}

// NewSearch returns to Onboarding and clears the persisted context.
func (m *Machine) NewSearch() error {
	m.hist.Clear()
	return m.reset()
}

func (m *Machine) reset() error {
	m.view = Onboarding
	m.ctx = feed.SearchContext{}
	return m.clear()
}

func (m *Machine) persist(ctx feed.SearchContext) error {
	if err := m.store.Set(KeyOnboarded, "true"); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	var set, drop, val string
	if ctx.Channel != "" {
		set, drop, val = KeyChannel, KeyTopic, ctx.Channel
	} else {
		set, drop, val = KeyTopic, KeyChannel, ctx.Topic
	}
	if err := m.store.Set(set, val); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := m.store.Delete(drop); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (m *Machine) clear() error {
	if err := m.store.Delete(KeyOnboarded, KeyTopic, KeyChannel); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// View is the current view.
func (m *Machine) View() View { return m.view }

// Context is the current search context; zero outside Feed.
func (m *Machine) Context() feed.SearchContext { return m.ctx }

