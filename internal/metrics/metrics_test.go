package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/infblueocean/realstream/internal/otel"
)

func TestObserveAPI(t *testing.T) {
	m := New()
	m.Observe(otel.Event{Kind: otel.KindAPIRequest, Status: 200, Dur: 40 * time.Millisecond})
	m.Observe(otel.Event{Kind: otel.KindAPIRequest, Status: 204})
	m.Observe(otel.Event{Kind: otel.KindAPIError, Status: 503})
	m.Observe(otel.Event{Kind: otel.KindAPIError})

	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("2xx")); got != 2 {
		t.Errorf("2xx = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("5xx")); got != 1 {
		t.Errorf("5xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.APIDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestObserveFeedAndPlayer(t *testing.T) {
	m := New()
	m.Observe(otel.Event{Kind: otel.KindPageLoaded, Count: 10, Dur: time.Second})
	m.Observe(otel.Event{Kind: otel.KindPageLoaded, Count: 4})
	m.Observe(otel.Event{Kind: otel.KindFeedError})
	m.Observe(otel.Event{Kind: otel.KindPlayerState, Msg: "playing"})
	m.Observe(otel.Event{Kind: otel.KindPlayerState, Msg: "paused"})
	m.Observe(otel.Event{Kind: otel.KindPlayerState, Msg: "playing"})
	m.Observe(otel.Event{Kind: otel.KindPlayerLoad, MediaID: "abc"})
	m.Observe(otel.Event{Kind: otel.KindActiveIndex, Index: 7})
	m.Observe(otel.Event{Kind: otel.KindSearch})
	m.Observe(otel.Event{Kind: otel.KindSearchFailed})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"pages", testutil.ToFloat64(m.PagesLoaded), 2},
		{"items", testutil.ToFloat64(m.ItemsLoaded), 14},
		{"feed errors", testutil.ToFloat64(m.FeedErrors), 1},
		{"playing", testutil.ToFloat64(m.PlayerStates.WithLabelValues("playing")), 2},
		{"paused", testutil.ToFloat64(m.PlayerStates.WithLabelValues("paused")), 1},
		{"loads", testutil.ToFloat64(m.PlayerLoads), 1},
		{"active index", testutil.ToFloat64(m.ActiveIndex), 7},
		{"search ok", testutil.ToFloat64(m.Searches.WithLabelValues("ok")), 1},
		{"search failed", testutil.ToFloat64(m.Searches.WithLabelValues("failed")), 1},
		{"events", testutil.ToFloat64(m.Events.WithLabelValues(string(otel.KindPlayerState))), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.Observe(otel.Event{Kind: otel.KindPlayerLoad})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "realstream_player_loads_total 1") {
		t.Errorf("metrics output missing player loads:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing runtime collector")
	}
}

func TestObserverWiring(t *testing.T) {
	m := New()
	l := otel.NewNullLogger()
	l.SetObserver(m.Observe)
	l.Emit(otel.Event{Kind: otel.KindPlayerLoad})
	l.Close()

	if got := testutil.ToFloat64(m.PlayerLoads); got != 1 {
		t.Errorf("loads = %v, want 1", got)
	}
}
