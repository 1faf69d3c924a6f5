package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()

	names := []string{}
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		"adr_generate",
		"html_to_markdown",
		"nda_generate",
		"nps_analyze",
		"prd_generate",
		"sitemap_parse",
	}, names)

	_, ok := r.Get("html_to_markdown")
	assert.True(t, ok)
	_, ok = r.Get("nope")
	assert.False(t, ok)

	_, err := r.Execute(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(&Tool{Name: "t", Description: "first"})
	r.Register(&Tool{Name: "t", Description: "second"})

	tool, ok := r.Get("t")
	require.True(t, ok)
	assert.Equal(t, "second", tool.Description)
	assert.Len(t, r.List(), 1)
}

func execute(t *testing.T, tool *Tool, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	out, err := tool.Handler(context.Background(), args)
	require.NoError(t, err)
	m, ok := out.(map[string]interface{})
	require.True(t, ok, "tool output should be a map")
	return m
}

func TestHTMLToMarkdown(t *testing.T) {
	out := execute(t, HTMLToMarkdown(), map[string]interface{}{
		"html": `<h1>Title</h1><p>Hello <strong>world</strong>, see <a href="https://example.com">docs</a>.</p><ul><li>One</li><li>Two</li></ul>`,
	})
	md := out["markdown"].(string)

	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "**world**")
	assert.Contains(t, md, "[docs](https://example.com)")
	assert.Contains(t, md, "- One")
	assert.Contains(t, md, "- Two")
}

func TestHTMLToMarkdownDropsScript(t *testing.T) {
	out := execute(t, HTMLToMarkdown(), map[string]interface{}{
		"html": `<p>Visible</p><script>alert("nope")</script><style>.x{}</style>`,
	})
	md := out["markdown"].(string)

	assert.Contains(t, md, "Visible")
	assert.NotContains(t, md, "alert")
	assert.NotContains(t, md, ".x{}")
}

func TestHTMLToMarkdownOrderedListAndCode(t *testing.T) {
	out := execute(t, HTMLToMarkdown(), map[string]interface{}{
		"html": `<ol><li>First</li><li>Second</li></ol><pre>x := 1</pre><p>inline <code>y</code></p>`,
	})
	md := out["markdown"].(string)

	assert.Contains(t, md, "1. First")
	assert.Contains(t, md, "2. Second")
	assert.Contains(t, md, "```\nx := 1\n```")
	assert.Contains(t, md, "`y`")
}

func TestHTMLToMarkdownMissingArg(t *testing.T) {
	_, err := HTMLToMarkdown().Handler(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestSitemapParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc><lastmod>2026-08-01</lastmod></url>
  <url><loc>https://example.com/about</loc></url>
</urlset>`))
	}))
	defer srv.Close()

	out := execute(t, SitemapParse(), map[string]interface{}{"url": srv.URL + "/sitemap.xml"})

	assert.Equal(t, false, out["isIndex"])
	assert.Equal(t, 2, out["count"])
	entries := out["entries"].([]SitemapEntry)
	assert.Equal(t, "https://example.com/", entries[0].URL)
	assert.Equal(t, "2026-08-01", entries[0].LastMod)
	assert.Empty(t, entries[1].LastMod)
}

func TestSitemapParseIndex(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>` + srv.URL + `/a.xml</loc></sitemap>
  <sitemap><loc>` + srv.URL + `/missing.xml</loc></sitemap>
</sitemapindex>`))
	})
	mux.HandleFunc("/a.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset><url><loc>https://example.com/page</loc></url></urlset>`))
	})
	mux.HandleFunc("/missing.xml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	out := execute(t, SitemapParse(), map[string]interface{}{"url": srv.URL + "/sitemap.xml"})

	assert.Equal(t, true, out["isIndex"])
	assert.Equal(t, 1, out["count"])
}

func TestSitemapParseLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset>
  <url><loc>https://example.com/1</loc></url>
  <url><loc>https://example.com/2</loc></url>
  <url><loc>https://example.com/3</loc></url>
</urlset>`))
	}))
	defer srv.Close()

	out := execute(t, SitemapParse(), map[string]interface{}{
		"url":   srv.URL,
		"limit": float64(2),
	})
	assert.Equal(t, 2, out["count"])
}

func TestPRDGenerate(t *testing.T) {
	out := execute(t, PRDGenerate(), map[string]interface{}{
		"title":   "Unified Search",
		"problem": "Users cannot search across packages and tools at once.",
		"goals":   []interface{}{"Single search box", "Sub-200ms responses"},
	})
	md := out["markdown"].(string)

	assert.Contains(t, md, "# PRD: Unified Search")
	assert.Contains(t, md, "Users cannot search")
	assert.Contains(t, md, "- Single search box")
	assert.Contains(t, md, "**Author:** Unknown")
}

func TestADRGenerate(t *testing.T) {
	out := execute(t, ADRGenerate(), map[string]interface{}{
		"title":    "Use Postgres for rate limiting",
		"number":   float64(7),
		"context":  "Limits must hold across processes.",
		"decision": "Store window counters in Postgres.",
	})
	md := out["markdown"].(string)

	assert.Contains(t, md, "# ADR-007: Use Postgres for rate limiting")
	assert.Contains(t, md, "**Status:** proposed")
	assert.Contains(t, md, "Store window counters in Postgres.")
}

func TestNDAGenerate(t *testing.T) {
	out := execute(t, NDAGenerate(), map[string]interface{}{
		"party_a": "Acme Corp",
		"party_b": "Widget LLC",
		"purpose": "a potential integration partnership",
	})
	md := out["markdown"].(string)

	assert.Contains(t, md, "**Acme Corp**")
	assert.Contains(t, md, "**Widget LLC**")
	assert.Contains(t, md, "2 years")
	assert.Contains(t, md, "the State of Delaware")
}

func TestNDAGenerateMissingParty(t *testing.T) {
	_, err := NDAGenerate().Handler(context.Background(), map[string]interface{}{
		"party_a": "Acme Corp",
		"purpose": "something",
	})
	assert.Error(t, err)
}

func TestNPSAnalyze(t *testing.T) {
	out := execute(t, NPSAnalyze(), map[string]interface{}{
		"ratings": []interface{}{
			float64(10), float64(9), float64(9), // promoters
			float64(8), float64(7), // passives
			float64(6), float64(3), float64(0), // detractors
			float64(9), float64(10), // promoters
		},
	})

	assert.Equal(t, 20, out["score"])
	assert.Equal(t, 10, out["responses"])
	assert.Equal(t, 5, out["promoters"])
	assert.Equal(t, 2, out["passives"])
	assert.Equal(t, 3, out["detractors"])
}

func TestNPSAnalyzeRejectsBadRatings(t *testing.T) {
	_, err := NPSAnalyze().Handler(context.Background(), map[string]interface{}{
		"ratings": []interface{}{float64(11)},
	})
	assert.Error(t, err)

	_, err = NPSAnalyze().Handler(context.Background(), map[string]interface{}{
		"ratings": []interface{}{},
	})
	assert.Error(t, err)

	_, err = NPSAnalyze().Handler(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}
