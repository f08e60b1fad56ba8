package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/internal/websearch"
	"github.com/kmajewski/deepscout/pkg/models"
)

// ToolError indicates an external tool call failed. Inside the worker loop it
// is a recoverable event: the failure text is fed back to the model, which
// can try a different tool or source.
type ToolError struct {
	// Tool is the tool name that failed.
	Tool string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// PageFetcher retrieves a URL as plain text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// toolSpecs returns the capability set exposed to the model during a
// worker's loop.
func toolSpecs() []api.ToolSpec {
	return []api.ToolSpec{
		{
			Name:        "web_search",
			Description: "Search the web. Returns up to five results with title, URL, and snippet.",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query",
				},
			},
			Required: []string{"query"},
		},
		{
			Name:        "fetch_page",
			Description: "Fetch a web page and return its readable text content.",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "The URL to fetch",
				},
			},
			Required: []string{"url"},
		},
	}
}

// toolbox executes tool calls for a worker and reports the sources each call
// touched.
type toolbox struct {
	search  websearch.Provider
	fetcher PageFetcher
}

// execute runs one tool call. The returned sources feed the worker's running
// source set so partial findings survive a later failure.
func (tb *toolbox) execute(ctx context.Context, call api.ToolCall) (string, []models.Source, error) {
	switch call.Name {
	case "web_search":
		return tb.execSearch(ctx, call.Input)
	case "fetch_page":
		return tb.execFetch(ctx, call.Input)
	default:
		return "", nil, &ToolError{Tool: call.Name, Err: fmt.Errorf("unknown tool")}
	}
}

func (tb *toolbox) execSearch(ctx context.Context, input json.RawMessage) (string, []models.Source, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", nil, &ToolError{Tool: "web_search", Err: fmt.Errorf("invalid parameters: %w", err)}
	}

	results, err := tb.search.Search(ctx, params.Query)
	if err != nil {
		return "", nil, &ToolError{Tool: "web_search", Err: err}
	}
	if len(results) == 0 {
		return "No results found.", nil, nil
	}

	var out string
	sources := make([]models.Source, 0, len(results))
	for i, r := range results {
		out += fmt.Sprintf("%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
		sources = append(sources, models.Source{URL: r.URL, Title: r.Title})
	}
	return out, sources, nil
}

func (tb *toolbox) execFetch(ctx context.Context, input json.RawMessage) (string, []models.Source, error) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", nil, &ToolError{Tool: "fetch_page", Err: fmt.Errorf("invalid parameters: %w", err)}
	}

	text, err := tb.fetcher.Fetch(ctx, params.URL)
	if err != nil {
		return "", nil, &ToolError{Tool: "fetch_page", Err: err}
	}
	return text, []models.Source{{URL: params.URL}}, nil
}
