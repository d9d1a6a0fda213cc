// Package otel records structured events for RealStream.
//
// Events are written as JSONL through an async drain goroutine and mirrored
// into an optional RingBuffer that backs the in-app debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event, "<subsystem>.<action>".
type EventKind string

const (
	// Player
	KindPlayerReady   EventKind = "player.ready"
	KindPlayerLoad    EventKind = "player.load"
	KindPlayerState   EventKind = "player.state"
	KindPlayerError   EventKind = "player.error"
	KindPlayerDestroy EventKind = "player.destroy"

	// Feed
	KindFetchMore   EventKind = "feed.fetch_more"
	KindPageLoaded  EventKind = "feed.page_loaded"
	KindRelated     EventKind = "feed.related"
	KindRefresh     EventKind = "feed.refresh"
	KindFeedError   EventKind = "feed.error"
	KindActiveIndex EventKind = "feed.active"

	// Session
	KindSessionRestore EventKind = "session.restore"
	KindSearch         EventKind = "session.search"
	KindSearchFailed   EventKind = "session.search_failed"

	// API and auth
	KindAPIRequest  EventKind = "api.request"
	KindAPIError    EventKind = "api.error"
	KindAuthLogin   EventKind = "auth.login"
	KindAuthToken   EventKind = "auth.token"
	KindAuthLogout  EventKind = "auth.logout"
	KindAuthInvalid EventKind = "auth.invalid"

	// UI
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace, only when REALSTREAM_TRACE is set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal record. Everything except Kind and Time is optional.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "player", "feed", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	MediaID   string         `json:"media,omitempty"`
	Context   string         `json:"ctx,omitempty"` // search context key
	Gen       uint64         `json:"gen,omitempty"`
	Index     int            `json:"idx,omitempty"`
	Page      int            `json:"page,omitempty"`
	Count     int            `json:"count,omitempty"`
	Status    int            `json:"status,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur into DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
