package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHealth(t *testing.T) {
	s := New(Config{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRedirectDeliversToken(t *testing.T) {
	s := New(Config{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2/redirect?token=abc.def.ghi", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	select {
	case tok := <-s.Tokens():
		if tok != "abc.def.ghi" {
			t.Errorf("token = %q", tok)
		}
	default:
		t.Fatal("no token delivered")
	}
}

func TestRedirectKeepsNewestToken(t *testing.T) {
	s := New(Config{})
	for _, tok := range []string{"first", "second"} {
		s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/oauth2/redirect?token="+tok, nil))
	}
	if tok := <-s.Tokens(); tok != "second" {
		t.Errorf("token = %q, want second", tok)
	}
}

func TestRedirectWithoutToken(t *testing.T) {
	s := New(Config{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2/redirect", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	select {
	case tok := <-s.Tokens():
		t.Errorf("unexpected token %q", tok)
	default:
	}
}

func TestMetricsRoute(t *testing.T) {
	without := New(Config{})
	rec := httptest.NewRecorder()
	without.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics without handler: status = %d, want 404", rec.Code)
	}

	with := New(Config{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("up 1\n"))
	})})
	rec = httptest.NewRecorder()
	with.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "up 1\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !strings.HasSuffix(s.CallbackURL(), "/oauth2/redirect") || strings.HasSuffix(s.Addr(), ":0") {
		t.Errorf("callback url = %q", s.CallbackURL())
	}

	resp, err := http.Get(s.CallbackURL() + "?token=live")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if tok := <-s.Tokens(); tok != "live" {
		t.Errorf("token = %q", tok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
