// Package session holds the logged-in user's credential and persists it
// between invocations.
//
// A Session is the only piece of process-wide mutable state marquee has. It
// is never global: callers build a Store and hand it to the API client, which
// reads the token on every request and writes it on login and logout.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is a bearer token plus the identity it was issued to.
type Session struct {
	User      string    `toml:"user"`
	Token     string    `toml:"token"`
	Roles     []string  `toml:"roles,omitempty"`
	ExpiresAt time.Time `toml:"expires_at,omitempty"`
}

// New builds a session for user from the raw token returned by the backend.
// When the token is a JWT its expiry and roles are read without verifying the
// signature; opaque tokens are accepted as they are.
func New(user, token string) Session {
	s := Session{User: user, Token: token}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(bareToken(token), claims); err != nil {
		return s
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	if s.User == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.User = sub
		}
	}
	s.Roles = rolesClaim(claims)

	return s
}

// IsZero reports whether no one is logged in.
func (s Session) IsZero() bool {
	return s.Token == ""
}

// Expired reports whether the token carries an expiry that is already past.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// HasRole reports whether the token grants role. Both "ADMIN" and
// "ROLE_ADMIN" spellings match.
func (s Session) HasRole(role string) bool {
	want := strings.TrimPrefix(strings.ToUpper(role), "ROLE_")
	for _, r := range s.Roles {
		if strings.TrimPrefix(strings.ToUpper(r), "ROLE_") == want {
			return true
		}
	}
	return false
}

func bareToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func rolesClaim(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case string:
		var roles []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		return roles
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if str, ok := r.(string); ok {
				roles = append(roles, str)
			}
		}
		return roles
	}
	return nil
}
