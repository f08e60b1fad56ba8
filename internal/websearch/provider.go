// Package websearch provides web search providers for research workers.
// Providers must be safe for concurrent use; workers search from parallel
// goroutines.
package websearch

import "context"

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Provider runs a web search and returns up to a handful of results.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// maxResults caps the hits any provider returns, to keep tool output small
// enough for the model context.
const maxResults = 5
