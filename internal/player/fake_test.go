package player

import (
	"context"
	"sync"
	"time"
)

// manualClock fires timers only when Advance moves past their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (c *manualClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeHandle records every call made on it.
type fakeHandle struct {
	mu         sync.Mutex
	state      State
	calls      []string
	loads      []string
	destroys   int
	destroyErr error
}

func (h *fakeHandle) record(c string) {
	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.mu.Unlock()
}

func (h *fakeHandle) Load(id string) error {
	h.mu.Lock()
	h.loads = append(h.loads, id)
	h.calls = append(h.calls, "load:"+id)
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) SetLoop(bool) error { h.record("loop"); return nil }
func (h *fakeHandle) Mute() error        { h.record("mute"); return nil }
func (h *fakeHandle) Unmute() error      { h.record("unmute"); return nil }
func (h *fakeHandle) Play() error        { h.record("play"); return nil }
func (h *fakeHandle) Pause() error       { h.record("pause"); return nil }

func (h *fakeHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *fakeHandle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *fakeHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroys++
	return h.destroyErr
}

func (h *fakeHandle) count(c string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, x := range h.calls {
		if x == c {
			n++
		}
	}
	return n
}

func (h *fakeHandle) reset() {
	h.mu.Lock()
	h.calls = nil
	h.loads = nil
	h.mu.Unlock()
}

// fakeBackend hands out a single fakeHandle and remembers the options.
type fakeBackend struct {
	mu      sync.Mutex
	handle  *fakeHandle
	opts    []Options
	gate    chan struct{} // if set, NewHandle waits on it
	created int
}

func (b *fakeBackend) NewHandle(ctx context.Context, opts Options) (Handle, error) {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts = append(b.opts, opts)
	b.created++
	if b.handle == nil {
		b.handle = &fakeHandle{state: Unstarted}
	}
	return b.handle, nil
}

func readyRuntime(b Backend) *Runtime {
	return NewRuntime(func(context.Context) (Backend, error) { return b, nil })
}
