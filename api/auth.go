package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/s0up4200/marquee/session"
)

// authHeader is where the backend returns the issued token.
const authHeader = "Authentication"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token and persists the session.
// On any failure the stored session is left untouched.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.Session{}, invalidf("email and password are required")
	}

	r := request{
		method:    http.MethodPost,
		path:      "/login",
		body:      credentials{Email: email, Password: password},
		anonymous: true,
	}
	resp, err := c.send(ctx, r)
	if err != nil {
		return session.Session{}, err
	}

	token := strings.TrimSpace(resp.header.Get(authHeader))
	if token == "" {
		return session.Session{}, &APIError{
			Kind:       KindServer,
			StatusCode: resp.status,
			Method:     r.method,
			Path:       r.path,
			Message:    "login succeeded but no " + authHeader + " header was returned",
		}
	}

	sess := session.New(email, token)
	if err := c.store.Save(sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to store session: %w", err)
	}

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	c.logger.Info().Str("user", sess.User).Msg("Logged in")
	return sess, nil
}

// Logout forgets the session locally and in the store. The backend keeps no
// server-side session, so no request is made.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	user := c.sess.User
	c.sess = session.Session{}
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if user != "" {
		c.logger.Info().Str("user", user).Msg("Logged out")
	}
	return nil
}
