package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	sitemapMaxBytes  = 10 << 20
	sitemapMaxChild  = 50
	sitemapUserAgent = "tpmjs-sitemap/1.0"
)

type sitemapURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"sitemap"`
}

// SitemapEntry is one URL from a sitemap.
type SitemapEntry struct {
	URL     string `json:"url"`
	LastMod string `json:"lastmod,omitempty"`
}

// SitemapParse fetches and parses a sitemap.xml. Sitemap index files are
// followed one level deep, bounded to sitemapMaxChild child sitemaps.
func SitemapParse() *Tool {
	client := &http.Client{Timeout: 20 * time.Second}
	return sitemapParseWithClient(client)
}

func sitemapParseWithClient(client *http.Client) *Tool {
	return &Tool{
		Name:        "sitemap_parse",
		Description: "Fetch and parse a sitemap.xml, returning its URLs and last-modified dates",
		InputSchema: objectSchema(map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "URL of the sitemap.xml or sitemap index",
			},
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Maximum number of URLs to return (default 500)",
			},
		}, "url"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			loc, err := stringArg(args, "url", true)
			if err != nil {
				return nil, err
			}
			limit := 500
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}

			entries, indexed, err := parseSitemap(ctx, client, loc, limit)
			if err != nil {
				return nil, fmt.Errorf("sitemap_parse: %w", err)
			}
			if len(entries) > limit {
				entries = entries[:limit]
			}
			return map[string]interface{}{
				"url":     loc,
				"isIndex": indexed,
				"count":   len(entries),
				"entries": entries,
			}, nil
		},
	}
}

func parseSitemap(ctx context.Context, client *http.Client, loc string, limit int) ([]SitemapEntry, bool, error) {
	body, err := fetchSitemap(ctx, client, loc)
	if err != nil {
		return nil, false, err
	}

	if strings.Contains(string(body), "<sitemapindex") {
		var idx sitemapIndex
		if err := xml.Unmarshal(body, &idx); err != nil {
			return nil, true, fmt.Errorf("parse sitemap index: %w", err)
		}
		var entries []SitemapEntry
		children := idx.Sitemaps
		if len(children) > sitemapMaxChild {
			children = children[:sitemapMaxChild]
		}
		for _, child := range children {
			if len(entries) >= limit {
				break
			}
			childBody, err := fetchSitemap(ctx, client, child.Loc)
			if err != nil {
				// A missing child sitemap should not sink the whole parse.
				continue
			}
			entries = append(entries, parseURLSet(childBody)...)
		}
		return entries, true, nil
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, false, fmt.Errorf("parse sitemap: %w", err)
	}
	entries := make([]SitemapEntry, 0, len(set.URLs))
	for _, u := range set.URLs {
		entries = append(entries, SitemapEntry{
			URL:     strings.TrimSpace(u.Loc),
			LastMod: strings.TrimSpace(u.LastMod),
		})
	}
	return entries, false, nil
}

func parseURLSet(body []byte) []SitemapEntry {
	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil
	}
	entries := make([]SitemapEntry, 0, len(set.URLs))
	for _, u := range set.URLs {
		entries = append(entries, SitemapEntry{
			URL:     strings.TrimSpace(u.Loc),
			LastMod: strings.TrimSpace(u.LastMod),
		})
	}
	return entries
}

func fetchSitemap(ctx context.Context, client *http.Client, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", sitemapUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", loc, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, sitemapMaxBytes))
}
