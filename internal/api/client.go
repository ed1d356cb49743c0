// Package api is the HTTP client for the BookHub REST API. It attaches the
// stored bearer token to every call and tears the session down on 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/binhbb2204/bookhub/pkg/metrics"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 30 * time.Second

	LoginRoute        = "/login"
	UnauthorizedRoute = "/unauthorized"
)

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type Client struct {
	baseURL string
	http    *http.Client
	store   storage.Store
	log     *logger.Logger
	metrics *metrics.Metrics
	nav     Navigator

	mu    sync.RWMutex
	hooks []func()

	Auth    *AuthAPI
	Books   *BooksAPI
	Reviews *ReviewsAPI
	Users   *UsersAPI
	Admin   *AdminAPI
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.WithContext("component", "api_client") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

func New(baseURL string, store storage.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
		log:     logger.Nop(),
		metrics: metrics.New(),
		nav:     NavigatorFunc(func(string) {}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthAPI{c: c}
	c.Books = &BooksAPI{c: c}
	c.Reviews = &ReviewsAPI{c: c}
	c.Users = &UsersAPI{c: c}
	c.Admin = &AdminAPI{c: c}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Metrics() *metrics.Metrics { return c.metrics }

// OnUnauthorized registers fn to run after a 401 has cleared storage.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := storage.Token(c.store); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	done := c.metrics.Begin()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		done(0, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warn("request_failed", "method", method, "path", path, "request_id", requestID, "error", err.Error())
		return fmt.Errorf("%w (%s %s: %v)", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	done(resp.StatusCode, nil)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w (reading %s: %v)", ErrNetwork, path, err)
	}
	c.log.Debug("request_completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 400 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errBody models.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error
			apiErr.Details = errBody.Details
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized(path)
		}
		c.log.Warn("request_rejected", "method", method, "path", path, "status", resp.StatusCode, "error", apiErr.Error())
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// handleUnauthorized clears the stored session, runs the hooks and sends the
// user to the login view. Credential endpoints answer 401 for a wrong
// password; that is a form error, so the session is left alone.
func (c *Client) handleUnauthorized(path string) {
	if isCredentialPath(path) {
		return
	}
	if err := storage.ClearSession(c.store); err != nil {
		c.log.Error("clear_session_failed", "error", err.Error())
	}
	c.mu.RLock()
	hooks := append([]func(){}, c.hooks...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
	c.log.Info("session_expired", "path", path)
	c.nav.Navigate(LoginRoute)
}

func isCredentialPath(path string) bool {
	for _, p := range []string{"/auth/login", "/auth/register", "/auth/demo-login"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func requireID(id int64, what string) error {
	if id <= 0 {
		return errors.New(what + " ID is required")
	}
	return nil
}
