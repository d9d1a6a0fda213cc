package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/api"
	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/otel"
)

// TokenStore persists the bearer token.
type TokenStore interface {
	Token() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// UserFetcher resolves the token to a profile.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (api.User, error)
}

// Session is the current login. It satisfies api.Credentials and is safe
// for concurrent use.
type Session struct {
	mu     sync.RWMutex
	store  TokenStore
	token  string
	ident  Identity
	user   *api.User
	events *otel.Logger
	log    *log.Logger
}

// NewSession loads any persisted token. A token that cannot be decoded
// is dropped.
func NewSession(store TokenStore, events *otel.Logger) (*Session, error) {
	s := &Session{store: store, events: events, log: logging.For("auth")}
	tok, err := store.Token()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return s, nil
	}
	id, err := ParseIdentity(tok)
	if err != nil {
		s.log.Warn("discarding stored token", "err", err)
		s.emit(otel.LevelWarn, otel.KindAuthInvalid, err.Error())
		if err := store.ClearToken(); err != nil {
			return nil, fmt.Errorf("clear token: %w", err)
		}
		return s, nil
	}
	s.token, s.ident = tok, id
	return s, nil
}

// Token is the bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID is the UUID subject of the token, or "".
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ident.UserID
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool { return s.Token() != "" }

// Identity returns the decoded token and whether one is held.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ident, s.token != ""
}

// User is the profile from the last successful CheckUser, or nil.
func (s *Session) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetToken stores a token received from the login callback.
func (s *Session) SetToken(tok string) error {
	id, err := ParseIdentity(tok)
	if err != nil {
		s.emit(otel.LevelWarn, otel.KindAuthInvalid, err.Error())
		return err
	}
	if err := s.store.SaveToken(tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.mu.Lock()
	s.token, s.ident, s.user = tok, id, nil
	s.mu.Unlock()
	s.emit(otel.LevelInfo, otel.KindAuthToken, id.DisplayName())
	return nil
}

// CheckUser validates the token against the backend. Any failure logs the
// user out quietly and returns nil. An expired token is dropped without
// asking the backend.
func (s *Session) CheckUser(ctx context.Context, f UserFetcher) *api.User {
	id, ok := s.Identity()
	if !ok {
		return nil
	}
	if id.Expired(time.Now()) {
		s.invalidate(fmt.Errorf("token expired at %s", id.Expires.Format(time.RFC3339)))
		return nil
	}
	u, err := f.CurrentUser(ctx)
	if err != nil {
		s.invalidate(err)
		return nil
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return &u
}

// Logout forgets the token and the user.
func (s *Session) Logout() error {
	if err := s.clear(); err != nil {
		return err
	}
	s.emit(otel.LevelInfo, otel.KindAuthLogout, "")
	return nil
}

// invalidate logs the user out after the token was found unusable.
func (s *Session) invalidate(cause error) {
	s.log.Info("token rejected, logging out", "err", cause)
	s.emit(otel.LevelWarn, otel.KindAuthInvalid, cause.Error())
	if err := s.clear(); err != nil {
		s.log.Error("clear token", "err", err)
	}
}

func (s *Session) clear() error {
	s.mu.Lock()
	s.token, s.ident, s.user = "", Identity{}, nil
	s.mu.Unlock()
	if err := s.store.ClearToken(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *Session) emit(level otel.Level, kind otel.EventKind, msg string) {
	if s.events == nil {
		return
	}
	s.events.Emit(otel.Event{Level: level, Kind: kind, Comp: "auth", Msg: msg})
}
