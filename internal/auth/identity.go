// Package auth holds the login state: the persisted bearer token, the
// identity decoded from it, and the browser-based OAuth login.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNoToken is returned when an operation needs a login.
var ErrNoToken = errors.New("auth: not logged in")

// Identity is what the client knows about the user from the token alone.
type Identity struct {
	// UserID is the token subject. Empty unless it is a UUID, since the
	// interaction services reject anything else in X-User-Id.
	UserID  string
	Subject string
	Name    string
	Email   string
	Expires time.Time
}

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseIdentity decodes the token payload. The signature is not checked;
// the backend does that on every request.
func ParseIdentity(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrNoToken
	}
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Identity{}, fmt.Errorf("decode token: %w", err)
	}
	id := Identity{Subject: c.Subject, Name: c.Name, Email: c.Email}
	if u, err := uuid.Parse(c.Subject); err == nil {
		id.UserID = u.String()
	}
	if c.ExpiresAt != nil {
		id.Expires = c.ExpiresAt.Time
	}
	return id, nil
}

// DisplayName is the name claim, then the email, then "User".
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	}
	return "User"
}

// Expired reports whether the token carries an expiry that has passed.
func (i Identity) Expired(now time.Time) bool {
	return !i.Expires.IsZero() && now.After(i.Expires)
}
