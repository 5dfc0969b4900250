// internal/adapters/supabase/client.go
package supabase

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
	"time"

	"golang.org/x/time/rate"

	"reviewgate/internal/adapters/observability"
	"reviewgate/internal/domain"
)

const (
	opVerify = "auth_user"
	opInsert = "reviews_insert"
	opDelete = "reviews_delete"

	// upstream error bodies are relayed to the caller; cap what we keep
	maxErrorBody = 64 << 10
)

// Client talks to the Supabase auth service and the PostgREST reviews table
// using the service-role key. Every call is a single attempt.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to install a mock transport.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

// WithRPS bounds outbound requests per second across all callers.
func WithRPS(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.rl = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

func New(base, key string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("service role key is required")
	}
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(20), 20),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- Public API ----

// VerifyToken asks the auth service who owns token.
func (c *Client) VerifyToken(ctx context.Context, token string) (domain.Identity, error) {
	var user struct {
		ID string `json:"id"`
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	h.Set("apikey", c.key)

	err := c.do(ctx, opVerify, http.MethodGet, c.base+"/auth/v1/user", h, nil, &user)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			return domain.Identity{}, fmt.Errorf("%w: status %d", domain.ErrInvalidToken, ue.Status)
		}
		return domain.Identity{}, err
	}
	if user.ID == "" {
		return domain.Identity{}, fmt.Errorf("%w: no user id in response", domain.ErrInvalidToken)
	}
	return domain.Identity{UserID: user.ID}, nil
}

func (c *Client) InsertReview(ctx context.Context, r domain.NewReview) ([]domain.Row, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, &domain.TransportError{Op: opInsert, Err: err}
	}
	h := c.serviceHeaders()
	h.Set("Content-Type", "application/json")

	var rows []domain.Row
	if err := c.do(ctx, opInsert, http.MethodPost, c.base+"/rest/v1/reviews", h, body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) DeleteReview(ctx context.Context, id string) ([]domain.Row, error) {
	u := c.base + "/rest/v1/reviews?id=" + url.QueryEscape("eq."+id)

	var rows []domain.Row
	if err := c.do(ctx, opDelete, http.MethodDelete, u, c.serviceHeaders(), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ---- Internals ----

func (c *Client) serviceHeaders() http.Header {
	h := http.Header{}
	h.Set("apikey", c.key)
	h.Set("Authorization", "Bearer "+c.key)
	h.Set("Prefer", "return=representation")
	return h
}

// do performs one request and decodes a 2xx JSON body into out. Non-2xx
// answers become *domain.UpstreamError, everything else *domain.TransportError.
func (c *Client) do(ctx context.Context, op, method, u string, h http.Header, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header = h
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reviewgate/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("supabase", op, 0, time.Since(start))
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("supabase", op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("read error body: %w", err)}
		}
		return &domain.UpstreamError{Op: op, Status: resp.StatusCode, Body: string(b)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		// 204 or an empty representation
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
