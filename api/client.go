package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/session"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "marquee"
	maxBodyBytes     = 10 << 20
)

// PageSizes are the page sizes used when a query leaves Size unset.
type PageSizes struct {
	Movies      int
	Comments    int
	Friendships int
	Users       int
}

// DefaultPageSizes matches what the web client requested.
var DefaultPageSizes = PageSizes{Movies: 7, Comments: 10, Friendships: 20, Users: 20}

// UserDefaults fill registration fields the user did not provide.
type UserDefaults struct {
	Country string
	Picture string
}

// Client talks to the films backend. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	store        session.Store
	logger       zerolog.Logger
	sizes        PageSizes
	userDefaults UserDefaults
	now          func() time.Time

	mu   sync.RWMutex
	sess session.Session
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithPageSizes overrides the default page sizes. Zero fields keep the
// default.
func WithPageSizes(sizes PageSizes) Option {
	return func(c *Client) {
		if sizes.Movies > 0 {
			c.sizes.Movies = sizes.Movies
		}
		if sizes.Comments > 0 {
			c.sizes.Comments = sizes.Comments
		}
		if sizes.Friendships > 0 {
			c.sizes.Friendships = sizes.Friendships
		}
		if sizes.Users > 0 {
			c.sizes.Users = sizes.Users
		}
	}
}

// WithUserDefaults sets the fallbacks used by CreateUser.
func WithUserDefaults(d UserDefaults) Option {
	return func(c *Client) {
		c.userDefaults = d
	}
}

// withClock is used by tests to control session expiry.
func withClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for the backend at baseURL. The current session
// is loaded from store; a nil store keeps the session in memory. A session
// that cannot be loaded is logged and treated as no session.
func NewClient(baseURL string, store session.Store, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("api URL must be an absolute http(s) URL: %q", baseURL)
	}

	if store == nil {
		store = session.NewMemoryStore(session.Session{})
	}

	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		userAgent:    defaultUserAgent,
		store:        store,
		logger:       logger,
		sizes:        DefaultPageSizes,
		userDefaults: UserDefaults{Country: "Undefined"},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// an unreadable session counts as logged out, so login and logout can
	// replace or clear it
	sess, err := store.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Ignoring stored session")
		sess = session.Session{}
	}
	c.sess = sess

	return c, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the current session; the zero value when logged out.
func (c *Client) Session() session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// request describes one call to the backend.
type request struct {
	method    string
	path      string
	query     url.Values
	body      any
	anonymous bool // send without the session token
}

// response is a successful (2xx) reply.
type response struct {
	status int
	header http.Header
	body   []byte
}

// send performs r and classifies the outcome. Only 2xx replies come back
// without an error.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	apiErr := func(kind Kind, status int, msg string, err error) error {
		return &APIError{Kind: kind, StatusCode: status, Method: r.method, Path: r.path, Message: msg, Err: err}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, apiErr(KindInvalid, 0, "failed to encode request body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, apiErr(KindInvalid, 0, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !r.anonymous {
		sess := c.Session()
		if !sess.IsZero() {
			if sess.Expired(c.now()) {
				return nil, apiErr(KindUnauthorized, 0, "session expired, log in again", nil)
			}
			req.Header.Set("Authorization", sess.Token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apiErr(KindTransport, 0, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apiErr(KindTransport, resp.StatusCode, "failed to read response body", err)
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiErr(kindForStatus(resp.StatusCode), resp.StatusCode, errorMessage(data), nil)
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// call performs r and decodes the body into out. A success without a body
// is a server error when out is non-nil.
func (c *Client) call(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return &APIError{Kind: KindServer, StatusCode: resp.status, Method: r.method, Path: r.path, Message: "empty response body"}
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &APIError{Kind: KindServer, StatusCode: resp.status, Method: r.method, Path: r.path, Message: "failed to parse response", Err: err}
	}
	return nil
}

// listPage fetches a Spring page. The backend reports a page without
// content as 404 Not Found (204 No Content for friendships); both decode to
// an empty page.
func listPage[T any](ctx context.Context, c *Client, r request, pagination Pagination) (*Page[T], error) {
	resp, err := c.send(ctx, r)
	if KindOf(err) == KindNotFound {
		c.logger.Debug().Str("path", r.path).Int("page", pagination.Page).Msg("No results")
		return emptyPage[T](pagination), nil
	}
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return emptyPage[T](pagination), nil
	}

	var page springPage[T]
	if err := json.Unmarshal(resp.body, &page); err != nil {
		return nil, &APIError{Kind: KindServer, StatusCode: resp.status, Method: r.method, Path: r.path, Message: "failed to parse page", Err: err}
	}
	return page.toPage(), nil
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
