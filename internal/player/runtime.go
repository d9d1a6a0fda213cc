package player

import (
	"context"
	"sync"
)

// Runtime resolves a Backend exactly once. Every Ready call shares the
// single in-flight or resolved result, including a failure.
type Runtime struct {
	load Loader
	once sync.Once
	done chan struct{}

	backend Backend
	err     error
}

// NewRuntime wraps load. Nothing runs until the first Ready.
func NewRuntime(load Loader) *Runtime {
	return &Runtime{load: load, done: make(chan struct{})}
}

// Ready starts the loader on first use and waits for it. ctx bounds only
// this caller's wait; the load itself is not cancelled when a caller gives up.
func (r *Runtime) Ready(ctx context.Context) (Backend, error) {
	r.once.Do(func() {
		go func() {
			defer close(r.done)
			r.backend, r.err = r.load(context.Background())
		}()
	})
	select {
	case <-r.done:
		return r.backend, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolved reports whether the loader has finished.
func (r *Runtime) Resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

var (
	sharedMu sync.Mutex
	shared   *Runtime
)

// Shared returns the process-wide Runtime, creating it with load on the
// first call. Later calls ignore load.
func Shared(load Loader) *Runtime {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewRuntime(load)
	}
	return shared
}

func resetShared() {
	sharedMu.Lock()
	shared = nil
	sharedMu.Unlock()
}
