package feed

import (
	"fmt"
)

func makePage(number, size int, last bool) Page {
	items := make([]Item, size)
	for i := range items {
		id := fmt.Sprintf("v%d-%d", number, i)
		items[i] = Item{ID: id, MediaID: "yt-" + id, Title: id}
	}
	return Page{Items: items, Number: number, Size: size, Last: last}
}

// fakePlayer records reconcile calls.
type fakePlayer struct {
	loads   []string
	mutes   []bool
	playing []bool
}

func (p *fakePlayer) LoadMedia(id string)  { p.loads = append(p.loads, id) }
func (p *fakePlayer) SetMuted(m bool)      { p.mutes = append(p.mutes, m) }
func (p *fakePlayer) SetPlaying(v bool)    { p.playing = append(p.playing, v) }

type staticItems []Item

func (s staticItems) Items() []Item { return s }
