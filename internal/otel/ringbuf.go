package otel

import (
	"strings"
	"sync"
)

// DefaultRingSize is the ring capacity used when none is given.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events for the debug overlay.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []Event
	next int  // slot the next Push writes
	full bool // buf has wrapped at least once
}

// NewRingBuffer creates a ring holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied so
// callers may keep mutating their map.
func (r *RingBuffer) Push(e Event) {
	if len(e.Extra) > 0 {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}

	r.mu.Lock()
	r.buf[r.next] = e
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
}

// ordered returns events oldest first. Caller holds r.mu.
func (r *RingBuffer) ordered() []Event {
	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordered()
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.ordered()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Subsystem returns buffered events whose kind starts with "<sub>.".
func (r *RingBuffer) Subsystem(sub string) []Event {
	prefix := sub + "."
	var out []Event
	for _, e := range r.Snapshot() {
		if strings.HasPrefix(string(e.Kind), prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns how many events are buffered.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Cap returns the ring capacity.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// Stats counts buffered events per kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, e := range r.Snapshot() {
		counts[e.Kind]++
	}
	return counts
}
