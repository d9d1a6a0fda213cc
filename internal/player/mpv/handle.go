package mpv

import (
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/player"
)

// observed properties, keyed by the observe id mpv echoes back
var observed = []string{"pause", "idle-active", "paused-for-cache", "eof-reached"}

// Handle is a player.Handle backed by one mpv process.
type Handle struct {
	sock string
	proc process
	log  *log.Logger
	c    *conn

	mu        sync.Mutex
	paused    bool
	idle      bool
	caching   bool
	eof       bool
	loading   bool
	state     player.State
	destroyed bool

	notify  func(player.State)
	events  chan player.State
	stopped chan struct{}
	once    sync.Once
}

func newHandle(sock string, proc process, notify func(player.State), l *log.Logger) *Handle {
	h := &Handle{
		sock:    sock,
		proc:    proc,
		log:     l,
		idle:    true,
		state:   player.Unstarted,
		notify:  notify,
		events:  make(chan player.State, 64),
		stopped: make(chan struct{}),
	}
	go h.deliver()
	return h
}

func (h *Handle) attach(nc net.Conn) {
	h.c = newConn(nc, h.onEvent)
}

// deliver runs the state callback off the socket read loop so the callback
// may issue commands.
func (h *Handle) deliver() {
	for {
		select {
		case s := <-h.events:
			if h.notify != nil {
				h.notify(s)
			}
		case <-h.stopped:
			return
		}
	}
}

func (h *Handle) observe() error {
	for i, name := range observed {
		if _, err := h.c.command("observe_property", i+1, name); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handle) onEvent(m message) {
	h.mu.Lock()
	switch m.Event {
	case "property-change":
		var v bool
		if len(m.Data) > 0 {
			_ = json.Unmarshal(m.Data, &v)
		}
		switch m.Name {
		case "pause":
			h.paused = v
		case "idle-active":
			h.idle = v
		case "paused-for-cache":
			h.caching = v
		case "eof-reached":
			h.eof = v
		}
	case "start-file":
		h.loading = true
		h.idle = false
		h.eof = false
	case "playback-restart", "file-loaded":
		h.loading = false
	case "end-file":
		h.loading = false
		if m.Reason == "eof" {
			h.eof = true
		}
	default:
		h.mu.Unlock()
		return
	}
	next := h.derive()
	changed := next != h.state
	h.state = next
	h.mu.Unlock()

	if changed {
		select {
		case h.events <- next:
		default:
			h.log.Warn("state event dropped", "state", next)
		}
	}
}

// derive maps mpv's properties onto player states. Caller holds h.mu.
func (h *Handle) derive() player.State {
	switch {
	case h.eof:
		return player.Ended
	case h.idle:
		return player.Unstarted
	case h.loading, h.caching:
		return player.Buffering
	case h.paused:
		return player.Paused
	}
	return player.Playing
}

func (h *Handle) run(args ...any) error {
	h.mu.Lock()
	dead := h.destroyed
	h.mu.Unlock()
	if dead {
		return player.ErrClosed
	}
	_, err := h.c.command(args...)
	return err
}

// Load replaces the current file with the media's watch page.
func (h *Handle) Load(mediaID string) error {
	return h.run("loadfile", WatchURL+mediaID, "replace")
}

func (h *Handle) SetLoop(loop bool) error {
	v := "no"
	if loop {
		v = "inf"
	}
	return h.run("set_property", "loop-file", v)
}

func (h *Handle) Mute() error   { return h.run("set_property", "mute", true) }
func (h *Handle) Unmute() error { return h.run("set_property", "mute", false) }
func (h *Handle) Play() error   { return h.run("set_property", "pause", false) }
func (h *Handle) Pause() error  { return h.run("set_property", "pause", true) }

// State returns the last derived state.
func (h *Handle) State() player.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Destroy asks mpv to quit, then kills it if it has not exited within a
// second. The socket file is removed. Only the first call does anything.
func (h *Handle) Destroy() error {
	var err error
	h.once.Do(func() {
		h.mu.Lock()
		h.destroyed = true
		h.mu.Unlock()

		if h.c != nil {
			_, _ = h.c.command("quit")
			err = h.c.close()
		}
		close(h.stopped)

		exited := make(chan struct{})
		go func() {
			h.proc.Wait()
			close(exited)
		}()
		select {
		case <-exited:
		case <-time.After(time.Second):
			h.proc.Kill()
			<-exited
		}
		os.Remove(h.sock)
	})
	return err
}
