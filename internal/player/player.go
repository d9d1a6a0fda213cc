// Package player keeps one long-lived video player alive for the feed and
// swaps media on it in place.
//
// The Adapter hides whether the underlying Handle exists yet: calls made
// before the runtime is ready are recorded and applied once it is.
package player

import (
	"context"
	"errors"
)

// State is the player's reported playback state.
type State int

const (
	Unstarted State = -1
	Ended     State = 0
	Playing   State = 1
	Paused    State = 2
	Buffering State = 3
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Ended:
		return "ended"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Buffering:
		return "buffering"
	}
	return "unknown"
}

// ErrClosed is returned by Handle implementations after Destroy.
var ErrClosed = errors.New("player: closed")

// Handle is the narrow contract the feed depends on.
type Handle interface {
	Load(mediaID string) error
	SetLoop(loop bool) error
	Mute() error
	Unmute() error
	Play() error
	Pause() error
	State() State
	Destroy() error
}

// Options configure a new Handle.
type Options struct {
	MediaID string // initial media, may be empty
	Loop    bool
	// OnStateChange receives asynchronous state notifications. Backends
	// must not call it while holding a lock a Handle method waits on.
	OnStateChange func(State)
}

// Backend creates player handles. Handles always start muted.
type Backend interface {
	NewHandle(ctx context.Context, opts Options) (Handle, error)
}

// Loader resolves a Backend. It runs at most once per Runtime.
type Loader func(ctx context.Context) (Backend, error)
