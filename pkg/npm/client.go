package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultRegistryURL is the public npm registry.
	DefaultRegistryURL = "https://registry.npmjs.org"

	// DefaultDownloadsURL is the npm downloads API.
	DefaultDownloadsURL = "https://api.npmjs.org"
)

// SearchResult is one package entry from the registry search endpoint.
type SearchResult struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// SearchPage is one page of keyword search results.
type SearchPage struct {
	Total   int
	Results []SearchResult
}

// Packument is the subset of registry package metadata the sync engine uses.
type Packument struct {
	Name        string
	Description string
	Version     string
	Keywords    []string
	Readme      string
	Deprecated  bool
}

// Client talks to the npm registry and downloads API.
type Client struct {
	registryURL  string
	downloadsURL string
	httpClient   *http.Client
	maxAttempts  int
}

// Option configures a Client.
type Option func(*Client)

// WithRegistryURL overrides the registry base URL.
func WithRegistryURL(u string) Option {
	return func(c *Client) { c.registryURL = u }
}

// WithDownloadsURL overrides the downloads API base URL.
func WithDownloadsURL(u string) Option {
	return func(c *Client) { c.downloadsURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates an npm registry client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		registryURL:  DefaultRegistryURL,
		downloadsURL: DefaultDownloadsURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		maxAttempts:  defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns one page of packages carrying the given keyword.
func (c *Client) Search(ctx context.Context, keyword string, size, from int) (*SearchPage, error) {
	q := url.Values{}
	q.Set("text", "keywords:"+keyword)
	q.Set("size", fmt.Sprintf("%d", size))
	q.Set("from", fmt.Sprintf("%d", from))

	var body struct {
		Total   int `json:"total"`
		Objects []struct {
			Package SearchResult `json:"package"`
		} `json:"objects"`
	}
	u := fmt.Sprintf("%s/-/v1/search?%s", c.registryURL, q.Encode())
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, fmt.Errorf("npm search: %w", err)
	}

	page := &SearchPage{Total: body.Total}
	for _, o := range body.Objects {
		page.Results = append(page.Results, o.Package)
	}
	return page, nil
}

// Packument fetches full package metadata for name.
func (c *Client) Packument(ctx context.Context, name string) (*Packument, error) {
	var body struct {
		Name     string `json:"name"`
		DistTags struct {
			Latest string `json:"latest"`
		} `json:"dist-tags"`
		Description string   `json:"description"`
		Keywords    []string `json:"keywords"`
		Readme      string   `json:"readme"`
		Versions    map[string]struct {
			Description string   `json:"description"`
			Keywords    []string `json:"keywords"`
			Deprecated  string   `json:"deprecated"`
		} `json:"versions"`
	}

	u := fmt.Sprintf("%s/%s", c.registryURL, url.PathEscape(name))
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, fmt.Errorf("npm packument %s: %w", name, err)
	}

	p := &Packument{
		Name:        body.Name,
		Description: body.Description,
		Version:     body.DistTags.Latest,
		Keywords:    body.Keywords,
		Readme:      body.Readme,
	}
	if v, ok := body.Versions[p.Version]; ok {
		if p.Description == "" {
			p.Description = v.Description
		}
		if len(p.Keywords) == 0 {
			p.Keywords = v.Keywords
		}
		p.Deprecated = v.Deprecated != ""
	}
	return p, nil
}

// WeeklyDownloads returns the last-week download count for name. Packages
// the downloads API has never seen return 0 without error.
func (c *Client) WeeklyDownloads(ctx context.Context, name string) (int64, error) {
	var body struct {
		Downloads int64 `json:"downloads"`
	}
	u := fmt.Sprintf("%s/downloads/point/last-week/%s", c.downloadsURL, url.PathEscape(name))
	err := c.getJSON(ctx, u, &body)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("npm downloads %s: %w", name, err)
	}
	return body.Downloads, nil
}

// StatusError is a non-2xx registry response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("npm: unexpected status %d from %s", e.Code, e.URL)
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	return retry(ctx, c.maxAttempts, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			se := &StatusError{Code: resp.StatusCode, URL: u}
			retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
			return retryable, se
		}
		return false, json.NewDecoder(resp.Body).Decode(out)
	})
}
