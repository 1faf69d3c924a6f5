package npm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(registry, downloads *httptest.Server) *Client {
	opts := []Option{WithHTTPClient(http.DefaultClient)}
	if registry != nil {
		opts = append(opts, WithRegistryURL(registry.URL))
	}
	if downloads != nil {
		opts = append(opts, WithDownloadsURL(downloads.URL))
	}
	return NewClient(opts...)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/-/v1/search", r.URL.Path)
		assert.Equal(t, "keywords:tpmjs-tool", r.URL.Query().Get("text"))
		assert.Equal(t, "2", r.URL.Query().Get("size"))
		assert.Equal(t, "0", r.URL.Query().Get("from"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total": 3,
			"objects": [
				{"package": {"name": "@acme/sitemap", "version": "1.2.0", "description": "sitemap tools", "keywords": ["tpmjs-tool"]}},
				{"package": {"name": "@acme/scraper", "version": "0.4.1", "description": "scraping tools", "keywords": ["tpmjs-tool"]}}
			]
		}`))
	}))
	defer srv.Close()

	page, err := testClient(srv, nil).Search(context.Background(), "tpmjs-tool", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "@acme/sitemap", page.Results[0].Name)
	assert.Equal(t, "1.2.0", page.Results[0].Version)
}

func TestPackument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/@acme%2Fsitemap", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "@acme/sitemap",
			"dist-tags": {"latest": "1.2.0"},
			"description": "sitemap tools",
			"keywords": ["tpmjs-tool", "sitemap"],
			"readme": "# Sitemap",
			"versions": {
				"1.2.0": {"description": "sitemap tools", "deprecated": ""}
			}
		}`))
	}))
	defer srv.Close()

	p, err := testClient(srv, nil).Packument(context.Background(), "@acme/sitemap")
	require.NoError(t, err)
	assert.Equal(t, "@acme/sitemap", p.Name)
	assert.Equal(t, "1.2.0", p.Version)
	assert.Equal(t, "# Sitemap", p.Readme)
	assert.False(t, p.Deprecated)
}

func TestPackumentDeprecated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "old-tool",
			"dist-tags": {"latest": "2.0.0"},
			"versions": {"2.0.0": {"deprecated": "use new-tool instead"}}
		}`))
	}))
	defer srv.Close()

	p, err := testClient(srv, nil).Packument(context.Background(), "old-tool")
	require.NoError(t, err)
	assert.True(t, p.Deprecated)
}

func TestWeeklyDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/downloads/point/last-week/@acme%2Fsitemap", r.URL.EscapedPath())
		w.Write([]byte(`{"downloads": 4212, "package": "@acme/sitemap"}`))
	}))
	defer srv.Close()

	n, err := testClient(nil, srv).WeeklyDownloads(context.Background(), "@acme/sitemap")
	require.NoError(t, err)
	assert.Equal(t, int64(4212), n)
}

func TestWeeklyDownloadsUnknownPackage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"package not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	n, err := testClient(nil, srv).WeeklyDownloads(context.Background(), "no-such-package")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetryOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "upstream blew up", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"total": 0, "objects": []}`))
	}))
	defer srv.Close()

	page, err := testClient(srv, nil).Search(context.Background(), "tpmjs-tool", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv, nil).Search(context.Background(), "tpmjs-tool", 10, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv, nil).Search(ctx, "tpmjs-tool", 10, 0)
	require.Error(t, err)
}
