package feed

import (
	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/logging"
)

// DefaultLookahead is how close to the end of the loaded items the active
// index must be before the next page is requested.
const DefaultLookahead = 3

// RequestKind says what a Request asks the Loader to do.
type RequestKind int

const (
	FetchPage RequestKind = iota
	FetchRelated
	Refresh
)

func (k RequestKind) String() string {
	switch k {
	case FetchPage:
		return "page"
	case FetchRelated:
		return "related"
	case Refresh:
		return "refresh"
	}
	return "unknown"
}

// Request is work the Pager wants done. Gen ties the result back to the
// context that asked for it; results for an older Gen are dropped.
type Request struct {
	Kind    RequestKind
	Gen     uint64
	Context SearchContext
	Page    int   // FetchPage
	Pages   []int // Refresh
}

// Pager owns the page cache for the current search context and decides
// when to fetch more or fetch related content. It does no I/O and is not
// safe for concurrent use; the UI loop owns it.
type Pager struct {
	lookahead int
	log       *log.Logger

	gen      uint64
	ctx      SearchContext
	pages    []Page
	inFlight bool
	related  bool // related fetch issued for this context
	err      error
}

// NewPager returns a Pager with the given lookahead (DefaultLookahead if <= 0).
func NewPager(lookahead int) *Pager {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Pager{lookahead: lookahead, log: logging.For("pager")}
}

// Reset starts a new context identity, even when ctx equals the current
// one, and returns the request for its first page.
func (p *Pager) Reset(ctx SearchContext) Request {
	p.gen++
	p.ctx = ctx
	p.pages = nil
	p.err = nil
	p.related = false
	p.inFlight = true
	return Request{Kind: FetchPage, Gen: p.gen, Context: ctx, Page: 0}
}

// Clear drops the context and its pages when the feed is left. The
// generation moves on so results still in flight are ignored, and no
// request is issued.
func (p *Pager) Clear() {
	p.gen++
	p.ctx = SearchContext{}
	p.pages = nil
	p.err = nil
	p.related = false
	p.inFlight = false
}

// Evaluate is level-triggered: call it after every index or data change.
// It returns at most one request: the next page when active is within the
// lookahead of the end and more pages exist, or the one related fetch for
// this context once the last page is terminal.
func (p *Pager) Evaluate(active int) (Request, bool) {
	if p.inFlight || len(p.pages) == 0 || p.err != nil {
		return Request{}, false
	}
	last := p.pages[len(p.pages)-1]

	if !last.Last {
		n := p.count()
		if n > 0 && active >= n-p.lookahead {
			p.inFlight = true
			return Request{Kind: FetchPage, Gen: p.gen, Context: p.ctx, Page: last.Number + 1}, true
		}
		return Request{}, false
	}

	if !p.related && !p.ctx.IsZero() {
		p.related = true
		return Request{Kind: FetchRelated, Gen: p.gen, Context: p.ctx}, true
	}
	return Request{}, false
}

// PageLoaded applies a FetchPage result. It returns false for stale results.
func (p *Pager) PageLoaded(req Request, page Page, err error) bool {
	if req.Gen != p.gen {
		return false
	}
	p.inFlight = false
	if err != nil {
		p.err = err
		p.log.Error("fetch page failed", "ctx", req.Context, "page", req.Page, "err", err)
		return true
	}
	p.pages = append(p.pages, page)
	return true
}

// RelatedLoaded applies a FetchRelated result. Errors are logged and
// otherwise ignored. On success it returns a Refresh of every loaded page.
func (p *Pager) RelatedLoaded(req Request, err error) (Request, bool) {
	if req.Gen != p.gen {
		return Request{}, false
	}
	if err != nil {
		p.log.Warn("related fetch failed", "ctx", req.Context, "err", err)
		return Request{}, false
	}
	if p.inFlight {
		return Request{}, false
	}
	pages := make([]int, len(p.pages))
	for i, pg := range p.pages {
		pages[i] = pg.Number
	}
	if len(pages) == 0 {
		pages = []int{0}
	}
	p.inFlight = true
	return Request{Kind: Refresh, Gen: p.gen, Context: p.ctx, Pages: pages}, true
}

// Refreshed replaces the cache with refetched pages. Errors keep the
// current cache and are only logged.
func (p *Pager) Refreshed(req Request, pages []Page, err error) bool {
	if req.Gen != p.gen {
		return false
	}
	p.inFlight = false
	if err != nil {
		p.log.Warn("refresh failed", "ctx", req.Context, "err", err)
		return true
	}
	p.pages = pages
	return true
}

// Retry clears the error state and re-requests the page that failed.
func (p *Pager) Retry() (Request, bool) {
	if p.err == nil || p.inFlight {
		return Request{}, false
	}
	p.err = nil
	next := 0
	if n := len(p.pages); n > 0 {
		next = p.pages[n-1].Number + 1
	}
	p.inFlight = true
	return Request{Kind: FetchPage, Gen: p.gen, Context: p.ctx, Page: next}, true
}

// Items returns the loaded items in fetch order.
func (p *Pager) Items() []Item {
	out := make([]Item, 0, p.count())
	for _, pg := range p.pages {
		out = append(out, pg.Items...)
	}
	return out
}

func (p *Pager) count() int {
	n := 0
	for _, pg := range p.pages {
		n += len(pg.Items)
	}
	return n
}

// Len is the number of loaded items.
func (p *Pager) Len() int { return p.count() }

// Context is the current search context.
func (p *Pager) Context() SearchContext { return p.ctx }

// Err is the fetch error shown to the user, if any.
func (p *Pager) Err() error { return p.err }

// Loading reports whether the first page is still being fetched.
func (p *Pager) Loading() bool { return p.inFlight && len(p.pages) == 0 }

// Fetching reports whether any request is outstanding.
func (p *Pager) Fetching() bool { return p.inFlight }

// HasMore reports whether another page is known to exist.
func (p *Pager) HasMore() bool {
	return len(p.pages) > 0 && !p.pages[len(p.pages)-1].Last
}
