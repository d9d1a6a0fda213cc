// Package server is the loopback HTTP listener that receives the OAuth
// redirect and serves health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/infblueocean/realstream/internal/logging"
)

// CallbackPath is where the backend redirects after a login.
const CallbackPath = "/oauth2/redirect"

// Config for New.
type Config struct {
	Addr    string       // loopback host:port; port 0 picks one
	Metrics http.Handler // nil leaves /metrics unrouted
}

// Server is the loopback listener.
type Server struct {
	router chi.Router
	addr   string
	tokens chan string
	http   *http.Server
	ln     net.Listener
	log    *log.Logger
}

// New builds the router. Nothing listens until Start.
func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		router: r,
		addr:   cfg.Addr,
		tokens: make(chan string, 1),
		log:    logging.For("server"),
	}
	r.Use(s.requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Get(CallbackPath, s.handleRedirect)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Tokens delivers tokens received on the callback. Only the newest
// undelivered token is kept.
func (s *Server) Tokens() <-chan string { return s.tokens }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.http = &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", "err", err)
		}
	}()
	s.log.Info("listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// CallbackURL is the redirect target to register with the backend.
func (s *Server) CallbackURL() string {
	return "http://" + s.Addr() + CallbackPath
}

// Shutdown stops the listener. Safe to call when never started.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

const loginDonePage = `<!doctype html><html><body style="font-family:sans-serif">
<p>Login complete. You can close this tab and return to the terminal.</p>
</body></html>`

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	// replace any token nobody picked up yet
	select {
	case <-s.tokens:
	default:
	}
	select {
	case s.tokens <- tok:
	default:
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(loginDonePage))
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
