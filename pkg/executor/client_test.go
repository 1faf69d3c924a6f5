package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSchemas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract-schemas", r.URL.Path)
		assert.Equal(t, "Bearer exec-token", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "@acme/sitemap", req["package"])
		assert.Equal(t, "1.2.0", req["version"])

		w.Write([]byte(`{
			"package": "@acme/sitemap",
			"version": "1.2.0",
			"tools": [
				{"name": "parse", "description": "Parse a sitemap", "inputSchema": {"type": "object"}},
				{"name": "broken", "error": "schema export is not an object"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "exec-token")
	result, err := client.ExtractSchemas(context.Background(), "@acme/sitemap", "1.2.0")
	require.NoError(t, err)
	require.Len(t, result.Tools, 2)
	assert.Equal(t, "parse", result.Tools[0].Name)
	assert.Empty(t, result.Tools[0].Error)
	assert.Equal(t, "schema export is not an object", result.Tools[1].Error)
}

func TestExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "parse", req["tool"])

		w.Write([]byte(`{"output": {"urls": 42}, "durationMs": 310}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "exec-token")
	result, err := client.Execute(context.Background(), "@acme/sitemap", "1.2.0", "parse", map[string]interface{}{
		"url": "https://example.com/sitemap.xml",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"urls": 42}`, string(result.Output))
	assert.Equal(t, int64(310), result.DurationMS)
}

func TestExecuteToolNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no tool named missing"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.Execute(context.Background(), "@acme/sitemap", "1.2.0", "missing", nil)
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, err.Error(), "no tool named missing")
}

func TestExecuteExecutionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "fetch failed: connection refused"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.Execute(context.Background(), "@acme/sitemap", "1.2.0", "parse", nil)
	require.ErrorIs(t, err, ErrExecutionFailed)
}

func TestExecutorUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.ExtractSchemas(context.Background(), "@acme/sitemap", "1.2.0")
	require.ErrorIs(t, err, ErrExecutorUnavailable)

	srv.Close()
	_, err = client.ExtractSchemas(context.Background(), "@acme/sitemap", "1.2.0")
	require.ErrorIs(t, err, ErrExecutorUnavailable)
}
