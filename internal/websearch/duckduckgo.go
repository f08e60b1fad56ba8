package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ddgThrottle enforces a global rate limit of 1 query per second across all
// DuckDuckGo instances and goroutines.
var ddgThrottle struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo implements a keyless searcher using DuckDuckGo's HTML lite
// interface. It is the fallback provider when no Tavily key is configured.
type DuckDuckGo struct {
	client *http.Client
	// endpoint is overridable for tests.
	endpoint string
}

// NewDuckDuckGo creates a DuckDuckGo searcher with a modest timeout.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: "https://lite.duckduckgo.com/lite/",
	}
}

// Search scrapes the DuckDuckGo lite HTML page for results.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("duckduckgo: query is empty")
	}

	ddgThrottle.mu.Lock()
	if wait := time.Until(ddgThrottle.last.Add(time.Second)); wait > 0 {
		ddgThrottle.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		ddgThrottle.mu.Lock()
	}
	ddgThrottle.last = time.Now()
	ddgThrottle.mu.Unlock()

	formData := url.Values{}
	formData.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseLiteResults(string(body)), nil
}

var (
	reResultLink = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	reHrefFirst  = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	reSnippet    = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	reAnyLink    = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	reAnyTag     = regexp.MustCompile(`<[^>]+>`)
)

// parseLiteResults extracts search results from the DuckDuckGo lite HTML.
func parseLiteResults(html string) []Result {
	matches := reResultLink.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = reHrefFirst.FindAllStringSubmatch(html, -1)
	}
	snippets := reSnippet.FindAllStringSubmatch(html, -1)

	var results []Result
	for i, match := range matches {
		if len(match) < 3 {
			continue
		}

		link := strings.TrimSpace(match[1])
		title := decodeEntities(strings.TrimSpace(match[2]))
		if link == "" || title == "" {
			continue
		}

		snippet := ""
		if i < len(snippets) && len(snippets[i]) > 1 {
			snippet = decodeEntities(snippets[i][1])
		}

		results = append(results, Result{Title: title, URL: link, Snippet: snippet})
		if len(results) >= maxResults {
			break
		}
	}

	if len(results) == 0 {
		results = looseParse(html)
	}
	return results
}

// looseParse falls back to scanning for external links when the lite page
// markup has shifted.
func looseParse(html string) []Result {
	var results []Result
	seen := make(map[string]bool)

	for _, match := range reAnyLink.FindAllStringSubmatch(html, -1) {
		if len(match) < 3 {
			continue
		}

		link := strings.TrimSpace(match[1])
		title := decodeEntities(strings.TrimSpace(match[2]))

		if strings.Contains(link, "duckduckgo.com") ||
			strings.HasPrefix(link, "/") ||
			strings.HasPrefix(link, "#") ||
			strings.HasPrefix(link, "javascript:") {
			continue
		}
		if len(title) < 5 || seen[link] {
			continue
		}
		seen[link] = true

		results = append(results, Result{Title: title, URL: link})
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

// decodeEntities strips leftover tags and decodes common HTML entities.
func decodeEntities(s string) string {
	s = reAnyTag.ReplaceAllString(s, "")
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
	return strings.TrimSpace(replacer.Replace(s))
}
