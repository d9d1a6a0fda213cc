package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/infblueocean/realstream/internal/feed"
)

type staticCreds struct{ token, user string }

func (s staticCreds) Token() string  { return s.token }
func (s staticCreds) UserID() string { return s.user }

func newTestClient(t *testing.T, h http.HandlerFunc, creds Credentials) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL + "/api/", Credentials: creds})
	c.backoffs = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return c
}

func TestListVideos(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/content/videos" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("size") != "10" || q.Get("hashtag") != "drone racing" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Has("channel") {
			t.Error("topic search must not send channel")
		}
		w.Write([]byte(`{"content":[{"id":"1","videoId":"abc","title":"t","hashtags":["fpv"],"channelTitle":"Pilot"}],
			"number":2,"size":10,"last":false,"totalPages":5,"totalElements":41}`))
	}, nil)

	pg, err := c.ListVideos(context.Background(), 2, 10, feed.Topic("drone racing"))
	if err != nil {
		t.Fatalf("ListVideos failed: %v", err)
	}
	if pg.Number != 2 || pg.Last || pg.TotalPages != 5 || len(pg.Items) != 1 {
		t.Errorf("page = %+v", pg)
	}
	it := pg.Items[0]
	if it.MediaID != "abc" || it.Channel != "Pilot" || len(it.Tags) != 1 {
		t.Errorf("item = %+v", it)
	}
}

func TestListVideosChannel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("channel") != "example" || q.Has("hashtag") {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"content":[],"number":0,"last":true}`))
	}, nil)
	pg, err := c.ListVideos(context.Background(), 0, 10, feed.Channel("example"))
	if err != nil {
		t.Fatal(err)
	}
	if !pg.Last || pg.Items == nil {
		t.Errorf("page = %+v", pg)
	}
}

func TestListVideosWithoutContextSendsNothing(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }, nil)
	pg, err := c.ListVideos(context.Background(), 0, 10, feed.SearchContext{})
	if err != nil {
		t.Fatal(err)
	}
	if !pg.Last || len(pg.Items) != 0 || hits.Load() != 0 {
		t.Errorf("page=%+v hits=%d", pg, hits.Load())
	}
}

func TestRetryOn5xxForGet(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`7`))
	}, nil)
	n, err := c.CommentCount(context.Background(), "v1")
	if err != nil {
		t.Fatalf("CommentCount failed: %v", err)
	}
	if n != 7 || hits.Load() != 3 {
		t.Errorf("n=%d hits=%d, want 7 after 3 attempts", n, hits.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)
	_, err := c.Comments(context.Background(), "v1")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 503 {
		t.Fatalf("err = %v, want StatusError 503", err)
	}
	if hits.Load() != 4 {
		t.Errorf("hits = %d, want 4 (1 + 3 retries)", hits.Load())
	}
}

func TestNoRetryForPost(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, staticCreds{"tok", "u1"})
	if _, err := c.ToggleLike(context.Background(), "v1"); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("toggle sent %d times, want 1", hits.Load())
	}
}

func TestLikeHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/interactions/likes/v%201" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		if got := r.Header.Get("X-User-Id"); got != "7b0c6d8e-3f7a-4a7e-9a53-2d7e7a0c1f11" {
			t.Errorf("X-User-Id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"isLiked":true,"likeCount":12}`))
	}, staticCreds{"tok", "7b0c6d8e-3f7a-4a7e-9a53-2d7e7a0c1f11"})

	ls, err := c.ToggleLike(context.Background(), "v 1")
	if err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}
	if !ls.Liked || ls.Count != 12 {
		t.Errorf("status = %+v", ls)
	}
}

func TestAddCommentBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body commentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if body.VideoID != "v1" || body.Content != "nice" || body.DisplayName != "Ada" {
			t.Errorf("body = %+v", body)
		}
		json.NewEncoder(w).Encode(Comment{ID: "c1", VideoID: "v1", Content: "nice", DisplayName: "Ada"})
	}, staticCreds{"tok", "u1"})

	cm, err := c.AddComment(context.Background(), "v1", "nice", "Ada")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if cm.ID != "c1" || cm.Author() != "Ada" {
		t.Errorf("comment = %+v", cm)
	}
	if (Comment{}).Author() != "User" {
		t.Error("anonymous comment should show User")
	}
}

func TestScrapeBodies(t *testing.T) {
	tests := []struct {
		name string
		sc   feed.SearchContext
		want scrapeRequest
	}{
		{"topic", feed.Topic("cats"), scrapeRequest{Hashtag: "cats", Limit: 50}},
		{"channel", feed.Channel("example"), scrapeRequest{Hashtag: "", Channel: "example", Limit: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/scraper/scrape" {
					t.Errorf("path = %s", r.URL.Path)
				}
				var got scrapeRequest
				json.NewDecoder(r.Body).Decode(&got)
				if got != tt.want {
					t.Errorf("body = %+v, want %+v", got, tt.want)
				}
				w.Write([]byte(`{"message":"ok","count":1,"videos":[{"id":"1","videoId":"x","channelTitle":"Example Official"}]}`))
			}, nil)
			res, err := c.Scrape(context.Background(), tt.sc, 50)
			if err != nil {
				t.Fatal(err)
			}
			if res.CanonicalChannel("example") != "Example Official" {
				t.Errorf("canonical = %q", res.CanonicalChannel("example"))
			}
		})
	}
	if (ScrapeResult{}).CanonicalChannel("typed") != "typed" {
		t.Error("empty scrape should fall back to the typed channel")
	}
}

func TestScrapeRelatedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scraper/scrape/related" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var got scrapeRequest
		json.NewDecoder(r.Body).Decode(&got)
		if got.Hashtag != "example" || got.Channel != "example" {
			t.Errorf("body = %+v", got)
		}
		w.Write([]byte(`{"count":3,"relatedKeywords":["a","b"]}`))
	}, nil)
	rel, err := c.ScrapeRelated(context.Background(), feed.Channel("example"))
	if err != nil {
		t.Fatal(err)
	}
	if rel.Count != 3 || len(rel.Keywords) != 2 {
		t.Errorf("related = %+v", rel)
	}
}

func TestUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, staticCreds{token: "expired"})
	_, err := c.CurrentUser(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLoginURL(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:3000/api"})
	if got := c.LoginURL("google"); got != "http://localhost:3000/api/auth/oauth2/authorization/google" {
		t.Errorf("LoginURL = %q", got)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`0`)) }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CommentCount(ctx, "v1"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
