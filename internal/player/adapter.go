package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/otel"
)

// DefaultDebounce is how long a non-playing state must persist before it
// is reported.
const DefaultDebounce = 500 * time.Millisecond

// Adapter owns at most one Handle for the lifetime of a mounted feed view.
// All methods are safe for concurrent use and safe to call before the
// handle exists.
type Adapter struct {
	rt       *Runtime
	clock    Clock
	debounce time.Duration
	log      *log.Logger
	events   *otel.Logger

	mu       sync.Mutex
	starting bool
	closed   bool
	handle   Handle

	media        string // desired media
	loadedMedia  string // last media handed to the handle
	muted        bool   // desired mute flag
	appliedMuted bool   // mute state last applied to the handle

	pending Timer  // "not playing" report, nil when none
	timerID uint64 // invalidates a pending callback that lost the race with Stop

	sink func(playing bool)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock replaces the wall clock used for the debounce timer.
func WithClock(c Clock) Option { return func(a *Adapter) { a.clock = c } }

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// WithEvents attaches the structured event log.
func WithEvents(l *otel.Logger) Option { return func(a *Adapter) { a.events = l } }

// NewAdapter returns an Adapter that will obtain its Backend from rt.
// The desired mute flag starts true.
func NewAdapter(rt *Runtime, opts ...Option) *Adapter {
	a := &Adapter{
		rt:       rt,
		clock:    realClock{},
		debounce: DefaultDebounce,
		log:      logging.For("player"),
		muted:    true,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Initialize waits for the runtime and creates the handle. It is a no-op
// if a handle exists or is being created. If the adapter is closed while
// waiting, nothing is created and nil is returned.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	if a.starting || a.handle != nil || a.closed {
		a.mu.Unlock()
		return nil
	}
	a.starting = true
	a.mu.Unlock()

	start := time.Now()
	backend, err := a.rt.Ready(ctx)
	if err != nil {
		a.mu.Lock()
		a.starting = false
		a.mu.Unlock()
		a.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindPlayerError, Err: err.Error()})
		return fmt.Errorf("player runtime: %w", err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.log.Warn("feed view closed before player was ready; not creating player")
		return nil
	}
	media := a.media
	a.mu.Unlock()

	h, err := backend.NewHandle(ctx, Options{MediaID: media, Loop: true, OnStateChange: a.HandleState})
	if err != nil {
		a.mu.Lock()
		a.starting = false
		a.mu.Unlock()
		a.log.Error("create player failed", "err", err)
		return fmt.Errorf("create player: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.starting = false
	if a.closed {
		// Closed while the handle was being built.
		if err := h.Destroy(); err != nil {
			a.log.Debug("destroy after close failed", "err", err)
		}
		return nil
	}
	a.handle = h
	a.loadedMedia = media
	a.appliedMuted = true

	// Catch up on calls made while the handle was being built.
	if a.media != a.loadedMedia {
		a.loadLocked(a.media)
	}
	if !a.muted {
		a.applyMuteLocked(false)
	}
	a.emit(otel.Event{Kind: otel.KindPlayerReady, MediaID: a.loadedMedia, Dur: time.Since(start)})
	return nil
}

// Ready reports whether the handle exists.
func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle != nil
}

// LoadMedia records id as the desired media and swaps it into the live
// handle. Loading the media already loaded is a no-op.
func (a *Adapter) LoadMedia(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.media = id
	if a.handle == nil || id == a.loadedMedia {
		return
	}
	a.loadLocked(id)
}

func (a *Adapter) loadLocked(id string) {
	if err := a.handle.Load(id); err != nil {
		a.log.Error("load media failed", "media", id, "err", err)
		return
	}
	a.loadedMedia = id
	if err := a.handle.SetLoop(true); err != nil {
		a.log.Warn("set loop failed", "err", err)
	}
	a.emit(otel.Event{Kind: otel.KindPlayerLoad, MediaID: id})
}

// SetMuted records the desired mute flag and applies it when it differs
// from what the handle was last told. Unmuting also resumes playback.
func (a *Adapter) SetMuted(m bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = m
	if a.handle == nil || m == a.appliedMuted {
		return
	}
	a.applyMuteLocked(m)
}

func (a *Adapter) applyMuteLocked(m bool) {
	if m {
		if err := a.handle.Mute(); err != nil {
			a.log.Warn("mute failed", "err", err)
			return
		}
	} else {
		if err := a.handle.Unmute(); err != nil {
			a.log.Warn("unmute failed", "err", err)
			return
		}
		if err := a.handle.Play(); err != nil {
			a.log.Warn("play after unmute failed", "err", err)
		}
	}
	a.appliedMuted = m
}

// SetPlaying issues Play or Pause only when the handle's reported state
// disagrees with p. No-op before the handle exists.
func (a *Adapter) SetPlaying(p bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle == nil {
		return
	}
	playing := a.handle.State() == Playing
	switch {
	case p && !playing:
		if err := a.handle.Play(); err != nil {
			a.log.Warn("play failed", "err", err)
		}
	case !p && playing:
		if err := a.handle.Pause(); err != nil {
			a.log.Warn("pause failed", "err", err)
		}
	}
}

// Subscribe sets the single receiver of debounced playing reports,
// replacing any previous one. fn runs on the goroutine that produced the
// report and must not block.
func (a *Adapter) Subscribe(fn func(playing bool)) {
	a.mu.Lock()
	a.sink = fn
	a.mu.Unlock()
}

// HandleState is the handle's state callback. Playing is reported at once
// and cancels a pending report. Paused, unstarted and buffering start a
// single timer that reports not playing after the debounce delay. Ended
// replays the current media.
func (a *Adapter) HandleState(s State) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPlayerState, MediaID: a.loadedMedia, Msg: s.String()})

	switch s {
	case Playing:
		a.cancelPendingLocked()
		sink := a.sink
		a.mu.Unlock()
		if sink != nil {
			sink(true)
		}
		return

	case Paused, Unstarted, Buffering:
		// An already pending report keeps its original deadline.
		if a.pending == nil {
			a.timerID++
			id := a.timerID
			a.pending = a.clock.AfterFunc(a.debounce, func() { a.fireNotPlaying(id) })
		}

	case Ended:
		if a.handle != nil {
			if err := a.handle.Play(); err != nil {
				a.log.Warn("replay failed", "err", err)
			}
		}
	}
	a.mu.Unlock()
}

func (a *Adapter) fireNotPlaying(id uint64) {
	a.mu.Lock()
	if a.closed || id != a.timerID || a.pending == nil {
		a.mu.Unlock()
		return
	}
	a.pending = nil
	sink := a.sink
	a.mu.Unlock()
	if sink != nil {
		sink(false)
	}
}

func (a *Adapter) cancelPendingLocked() {
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
	a.timerID++
}

// Close cancels the pending report and destroys the handle once.
// Destroy errors are logged and dropped.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.cancelPendingLocked()
	h := a.handle
	a.handle = nil
	a.sink = nil
	a.mu.Unlock()

	if h == nil {
		return
	}
	if err := h.Destroy(); err != nil {
		a.log.Debug("destroy player failed", "err", err)
	}
	a.emit(otel.Event{Kind: otel.KindPlayerDestroy})
}

func (a *Adapter) emit(e otel.Event) {
	if a.events == nil {
		return
	}
	e.Comp = "player"
	if e.Level == "" {
		e.Level = otel.LevelInfo
	}
	a.events.Emit(e)
}
