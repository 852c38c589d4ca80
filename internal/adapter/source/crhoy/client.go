// Package crhoy adapts the CRHoy news API and website as a source.
package crhoy

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

const (
	apiBaseURL = "https://api.crhoy.net/"
	websiteURL = "https://www.crhoy.com/"

	// connectivityProbeAddr is a reliable public resolver used only to tell
	// "API is down" apart from "we are offline".
	connectivityProbeAddr = "8.8.8.8:53"
)

// Client talks to the CRHoy API and website with bounded retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	siteURL    string
	userAgent  string
	maxRetries int
	location   *time.Location
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point it at a local server).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithSiteURL overrides the website URL.
func WithSiteURL(u string) Option { return func(c *Client) { c.siteURL = u } }

// NewClient constructs a Client.
func NewClient(timeout time.Duration, userAgent string, maxRetries int, loc *time.Location, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    apiBaseURL,
		siteURL:    websiteURL,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		location:   loc,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type indexPayload struct {
	Ultimas []indexItem `json:"ultimas"`
}

type indexItem struct {
	ID         int64   `json:"id"`
	URL        string  `json:"url"`
	Date       string  `json:"date"`
	Hour       string  `json:"hour"`
	Categories [][]any `json:"categories"`
}

// FetchIndex returns the raw index JSON and its parsed entries for a date.
// A day unknown to the API (404) yields an empty index, not an error.
func (c *Client) FetchIndex(ctx domain.Context, date time.Time) ([]byte, []domain.IndexEntry, error) {
	url := fmt.Sprintf("%sultimas/%s.json?v=3", c.baseURL, date.Format("2006-01-02"))

	var raw []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound:
			raw = []byte(`{"ultimas":[]}`)
			return nil
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(resp.Body)
		return err
	}
	if err := backoff.Retry(op, c.retryPolicy(ctx)); err != nil {
		return nil, nil, fmt.Errorf("op=crhoy.fetch_index: %w: %v", domain.ErrUnavailable, err)
	}

	var payload indexPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("op=crhoy.fetch_index: %w: %v", domain.ErrSchemaInvalid, err)
	}

	entries := make([]domain.IndexEntry, 0, len(payload.Ultimas))
	for _, item := range payload.Ultimas {
		ts, err := ParseTimestamp(item.Date, item.Hour, c.location)
		if err != nil {
			return nil, nil, fmt.Errorf("op=crhoy.fetch_index: entry %d: %w", item.ID, err)
		}
		entries = append(entries, domain.IndexEntry{
			ID:         item.ID,
			URL:        item.URL,
			Timestamp:  ts,
			Categories: []string{categoryPath(item.Categories)},
		})
	}
	return raw, entries, nil
}

// categoryPath joins the URL-compatible category slugs, e.g. "deportes/futbol".
func categoryPath(cats [][]any) string {
	path := ""
	for _, cat := range cats {
		if len(cat) < 2 {
			continue
		}
		slug, ok := cat[1].(string)
		if !ok {
			continue
		}
		if path != "" {
			path += "/"
		}
		path += slug
	}
	return path
}

// FetchArticle downloads one article page.
func (c *Client) FetchArticle(ctx domain.Context, url string) ([]byte, error) {
	var html []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		html, err = io.ReadAll(resp.Body)
		return err
	}
	if err := backoff.Retry(op, c.retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("op=crhoy.fetch_article: %w: %v", domain.ErrUnavailable, err)
	}
	return html, nil
}

// CheckInternet reports whether we can reach the public internet at all.
func (c *Client) CheckInternet(ctx domain.Context) bool {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", connectivityProbeAddr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// CheckAPI reports whether the API server responds. Any HTTP response counts,
// even an error status; only transport failures mean it is down.
func (c *Client) CheckAPI(ctx domain.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *Client) retryPolicy(ctx domain.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}
