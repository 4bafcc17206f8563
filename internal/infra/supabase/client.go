// Package supabase talks to a Supabase project through its PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldquote/quotesync/internal/domain/session"
	"fieldquote/quotesync/internal/offline"
)

type Client struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
}

func New(baseURL, key string, timeout time.Duration) (*Client, error) {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("invalid supabase url")
	}
	if key == "" {
		return nil, fmt.Errorf("missing supabase key")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{BaseURL: base, Key: key, HTTP: &http.Client{Timeout: timeout}}, nil
}

// StatusError is a non-success PostgREST response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase status %d: %s", e.Status, e.Body)
}

// Eq builds a PostgREST equality filter value.
func Eq(v string) string { return "eq." + v }

// In builds a PostgREST membership filter value.
func In(vs ...string) string { return "in.(" + strings.Join(vs, ",") + ")" }

// token is the caller's access token when a session is on ctx, so row level
// security applies to the end user; otherwise the project key.
func (c *Client) token(ctx context.Context) string {
	if s, ok := session.FromContext(ctx); ok && s.AccessToken != "" {
		return s.AccessToken
	}
	return c.Key
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}, prefer string, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	urlStr := c.BaseURL + path
	if len(query) > 0 {
		urlStr += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.Key)
	req.Header.Set("Authorization", "Bearer "+c.token(ctx))
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("%w: %w", offline.ErrOffline, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Select reads rows of table matching query into out.
func (c *Client) Select(ctx context.Context, table string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, "/rest/v1/"+table, query, nil, "", out)
}

// Insert writes rows. When out is non-nil the inserted rows are returned
// into it.
func (c *Client) Insert(ctx context.Context, table string, rows interface{}, out interface{}) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, nil, rows, prefer, out)
}

// Update patches the rows matching query.
func (c *Client) Update(ctx context.Context, table string, query url.Values, patch interface{}) error {
	return c.do(ctx, http.MethodPatch, "/rest/v1/"+table, query, patch, "return=minimal", nil)
}

// Delete removes the rows matching query.
func (c *Client) Delete(ctx context.Context, table string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, "/rest/v1/"+table, query, nil, "return=minimal", nil)
}

// RPC calls a Postgres function exposed by PostgREST.
func (c *Client) RPC(ctx context.Context, fn string, payload interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+fn, nil, payload, "", out)
}
