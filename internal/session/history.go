package session

// History is the in-app back stack.
type History struct {
	entries []View
}

func (h *History) Push(v View) { h.entries = append(h.entries, v) }

// Pop removes the newest entry. ok is false when empty.
func (h *History) Pop() (View, bool) {
	if len(h.entries) == 0 {
		return Uninitialized, false
	}
	v := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return v, true
}

func (h *History) Len() int { return len(h.entries) }

func (h *History) Clear() { h.entries = nil }
