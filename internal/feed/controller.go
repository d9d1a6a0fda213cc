package feed

import "math"

// Reconciler is the part of the player the Controller drives.
type Reconciler interface {
	LoadMedia(id string)
	SetMuted(muted bool)
	SetPlaying(playing bool)
}

// ItemSource supplies the currently loaded items.
type ItemSource interface {
	Items() []Item
}

// Controller owns the active index and the global mute and play flags,
// and pushes them to the one player used for the whole feed.
type Controller struct {
	player Reconciler
	items  ItemSource

	active  int
	muted   bool
	playing bool
}

// NewController returns a Controller at index 0, muted.
func NewController(player Reconciler, items ItemSource) *Controller {
	return &Controller{player: player, items: items, muted: true}
}

// OnScroll sets the active index to round(scrollTop/viewportHeight),
// clamped to the loaded items (0 when none are loaded). The player is reconciled only when the
// index changes. It reports whether it changed.
func (c *Controller) OnScroll(scrollTop, viewportHeight int) bool {
	if viewportHeight <= 0 {
		return false
	}
	idx := int(math.Round(float64(scrollTop) / float64(viewportHeight)))
	if idx < 0 {
		idx = 0
	}
	// with nothing loaded the only valid index is 0
	if last := max(len(c.items.Items())-1, 0); idx > last {
		idx = last
	}
	if idx == c.active {
		return false
	}
	c.active = idx
	c.SyncMedia()
	return true
}

// Jump moves the active index by delta items, as a snap scroll would.
func (c *Controller) Jump(delta, viewportHeight int) bool {
	return c.OnScroll((c.active+delta)*viewportHeight, viewportHeight)
}

// SyncMedia loads the active item's media. Call it after the item list
// changes; the player ignores a repeat of the loaded media.
func (c *Controller) SyncMedia() {
	if it, ok := c.ActiveItem(); ok && it.MediaID != "" {
		c.player.LoadMedia(it.MediaID)
	}
}

// Reset returns to the first item, e.g. after a new search.
func (c *Controller) Reset() {
	c.active = 0
	c.playing = false
}

// ToggleMute flips the global mute flag and applies it.
func (c *Controller) ToggleMute() bool {
	c.muted = !c.muted
	c.player.SetMuted(c.muted)
	return c.muted
}

// TogglePlaying asks the player for the opposite of the mirrored flag.
// The flag itself changes only when the player reports back.
func (c *Controller) TogglePlaying() bool {
	want := !c.playing
	c.player.SetPlaying(want)
	return want
}

// ObservePlaying mirrors a debounced report from the player.
func (c *Controller) ObservePlaying(p bool) { c.playing = p }

// ActiveItem returns the item at the active index.
func (c *Controller) ActiveItem() (Item, bool) {
	items := c.items.Items()
	if c.active < 0 || c.active >= len(items) {
		return Item{}, false
	}
	return items[c.active], true
}

func (c *Controller) Active() int   { return c.active }
func (c *Controller) Muted() bool   { return c.muted }
func (c *Controller) Playing() bool { return c.playing }
