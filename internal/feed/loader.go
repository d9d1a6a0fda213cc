package feed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/infblueocean/realstream/internal/otel"
)

// Source is the content API as the Loader needs it.
type Source interface {
	ListVideos(ctx context.Context, page, size int, sc SearchContext) (Page, error)
	ScrapeRelated(ctx context.Context, sc SearchContext) (Related, error)
}

// Loader executes Pager requests.
type Loader struct {
	src      Source
	pageSize int
	events   *otel.Logger
	// refreshLimit bounds concurrent page refetches.
	refreshLimit int
}

// NewLoader returns a Loader fetching pageSize items per page.
func NewLoader(src Source, pageSize int, events *otel.Logger) *Loader {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Loader{src: src, pageSize: pageSize, events: events, refreshLimit: 4}
}

// PageSize is the size sent with every list request.
func (l *Loader) PageSize() int { return l.pageSize }

// LoadPage fetches req.Page for req.Context. Without a context it returns
// an empty terminal page and makes no request.
func (l *Loader) LoadPage(ctx context.Context, req Request) (Page, error) {
	if req.Context.IsZero() {
		return EmptyPage(l.pageSize), nil
	}
	start := time.Now()
	pg, err := l.src.ListVideos(ctx, req.Page, l.pageSize, req.Context)
	if err != nil {
		l.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindFeedError, Context: req.Context.String(), Gen: req.Gen, Page: req.Page, Err: err.Error()})
		return Page{}, fmt.Errorf("load page %d: %w", req.Page, err)
	}
	l.emit(otel.Event{Kind: otel.KindPageLoaded, Context: req.Context.String(), Gen: req.Gen, Page: req.Page, Count: len(pg.Items), Dur: time.Since(start)})
	return pg, nil
}

// Related triggers the related-content scrape for req.Context.
func (l *Loader) Related(ctx context.Context, req Request) (Related, error) {
	start := time.Now()
	res, err := l.src.ScrapeRelated(ctx, req.Context)
	if err != nil {
		l.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindRelated, Context: req.Context.String(), Gen: req.Gen, Err: err.Error()})
		return Related{}, fmt.Errorf("related scrape: %w", err)
	}
	l.emit(otel.Event{Kind: otel.KindRelated, Context: req.Context.String(), Gen: req.Gen, Count: res.Count, Dur: time.Since(start),
		Extra: map[string]any{"keywords": res.Keywords}})
	return res, nil
}

// Refresh refetches every page in req.Pages in parallel and returns them
// in request order. Any failure fails the whole refresh.
func (l *Loader) Refresh(ctx context.Context, req Request) ([]Page, error) {
	pages := make([]Page, len(req.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.refreshLimit)
	for i, n := range req.Pages {
		g.Go(func() error {
			pg, err := l.src.ListVideos(gctx, n, l.pageSize, req.Context)
			if err != nil {
				return fmt.Errorf("refresh page %d: %w", n, err)
			}
			pages[i] = pg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.emit(otel.Event{Kind: otel.KindRefresh, Context: req.Context.String(), Gen: req.Gen, Count: len(pages)})
	return pages, nil
}

func (l *Loader) emit(e otel.Event) {
	if l.events == nil {
		return
	}
	e.Comp = "feed"
	if e.Level == "" {
		e.Level = otel.LevelInfo
	}
	l.events.Emit(e)
}
