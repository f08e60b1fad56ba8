package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/internal/websearch"
	"github.com/kmajewski/deepscout/pkg/models"
)

// scriptedInvoker plays back a fixed sequence of responses and errors.
type scriptedInvoker struct {
	script []func() (*api.Response, error)
	calls  int
}

func (s *scriptedInvoker) Invoke(ctx context.Context, req api.Request) (*api.Response, error) {
	if s.calls >= len(s.script) {
		last := s.script[len(s.script)-1]
		s.calls++
		return last()
	}
	step := s.script[s.calls]
	s.calls++
	return step()
}

func textResponse(text string) func() (*api.Response, error) {
	return func() (*api.Response, error) {
		return &api.Response{Text: text, StopReason: api.StopEndTurn}, nil
	}
}

func toolResponse(name, input string) func() (*api.Response, error) {
	return func() (*api.Response, error) {
		return &api.Response{
			StopReason: api.StopToolUse,
			ToolCalls: []api.ToolCall{
				{ID: "call-1", Name: name, Input: json.RawMessage(input)},
			},
		}, nil
	}
}

func failResponse(err error) func() (*api.Response, error) {
	return func() (*api.Response, error) { return nil, err }
}

// stubSearch returns fixed results or an error.
type stubSearch struct {
	results []websearch.Result
	err     error
}

func (s *stubSearch) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	return s.results, s.err
}

// stubFetcher returns fixed page text or an error.
type stubFetcher struct {
	text string
	err  error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return s.text, s.err
}

const finalReport = `{
	"summary": "Tariffs raised fab input costs noticeably.",
	"analysis": "Detailed discussion of cost pass-through across the supply chain.",
	"key_points": ["costs rose", "sourcing shifted"],
	"sources": [{"url": "https://example.com/report", "title": "Cost Study"}]
}`

func testSubtask() models.Subtask {
	return models.Subtask{ID: "costs", Title: "Cost effects", Instructions: "Investigate cost impacts."}
}

func newTestWorker(invoker api.Invoker, search websearch.Provider, fetcher PageFetcher, maxSteps int) *Worker {
	return NewWorker(WorkerConfig{
		Invoker:  invoker,
		Model:    "research-model",
		Search:   search,
		Fetcher:  fetcher,
		MaxSteps: maxSteps,
		Retry:    api.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	})
}

func TestResearch_ToolLoopThenReport(t *testing.T) {
	invoker := &scriptedInvoker{script: []func() (*api.Response, error){
		toolResponse("web_search", `{"query": "tariff costs"}`),
		toolResponse("fetch_page", `{"url": "https://example.com/page"}`),
		textResponse("Here is my report:\n" + finalReport),
	}}
	search := &stubSearch{results: []websearch.Result{
		{Title: "Found Page", URL: "https://example.com/page", Snippet: "about costs"},
	}}
	fetcher := &stubFetcher{text: "page text about tariffs"}

	worker := newTestWorker(invoker, search, fetcher, 10)
	report := worker.Research(context.Background(), testSubtask())

	if report.Status != models.ReportStatusSuccess {
		t.Fatalf("Status = %s, want success (error: %s)", report.Status, report.Error)
	}
	if report.SubtaskID != "costs" {
		t.Errorf("SubtaskID = %q", report.SubtaskID)
	}
	if report.Summary != "Tariffs raised fab input costs noticeably." {
		t.Errorf("Summary = %q", report.Summary)
	}
	if len(report.KeyPoints) != 2 {
		t.Errorf("Expected 2 key points, got %d", len(report.KeyPoints))
	}
	if report.Steps != 3 {
		t.Errorf("Steps = %d, want 3", report.Steps)
	}

	// Report citations come first, then tool-gathered sources.
	if len(report.Sources) < 2 {
		t.Fatalf("Expected cited plus gathered sources, got %v", report.Sources)
	}
	if report.Sources[0].URL != "https://example.com/report" {
		t.Errorf("First source = %q, want the report's citation", report.Sources[0].URL)
	}
}

func TestResearch_ToolFailureIsRecoverable(t *testing.T) {
	invoker := &scriptedInvoker{script: []func() (*api.Response, error){
		toolResponse("web_search", `{"query": "tariff costs"}`),
		textResponse(finalReport),
	}}
	search := &stubSearch{err: errors.New("search backend down")}

	worker := newTestWorker(invoker, search, &stubFetcher{}, 10)
	report := worker.Research(context.Background(), testSubtask())

	if report.Status != models.ReportStatusSuccess {
		t.Errorf("Tool failure should not fail the worker; status = %s", report.Status)
	}
}

func TestResearch_StepBudgetExhausted(t *testing.T) {
	invoker := &scriptedInvoker{script: []func() (*api.Response, error){
		toolResponse("web_search", `{"query": "tariff costs"}`),
		textResponse("I found some early notes on rising costs but need more time."),
	}}
	search := &stubSearch{results: []websearch.Result{
		{Title: "Early Source", URL: "https://example.com/early"},
	}}

	worker := newTestWorker(invoker, search, &stubFetcher{}, 3)
	report := worker.Research(context.Background(), testSubtask())

	if report.Status != models.ReportStatusFailed {
		t.Fatalf("Status = %s, want failed", report.Status)
	}
	if report.Error != "step budget exhausted" {
		t.Errorf("Error = %q, want step budget exhausted", report.Error)
	}
	if !strings.Contains(report.Summary, "early notes") {
		t.Errorf("Partial summary should be preserved, got %q", report.Summary)
	}
	if len(report.Sources) != 1 || report.Sources[0].URL != "https://example.com/early" {
		t.Errorf("Gathered sources should be preserved, got %v", report.Sources)
	}
	if report.Steps != 3 {
		t.Errorf("Steps = %d, want 3", report.Steps)
	}
}

func TestResearch_UnrecoverableInvocationError(t *testing.T) {
	cause := &api.InvocationError{Model: "research-model", Err: errors.New("quota exceeded")}
	invoker := &scriptedInvoker{script: []func() (*api.Response, error){
		toolResponse("web_search", `{"query": "tariff costs"}`),
		failResponse(cause),
	}}
	search := &stubSearch{results: []websearch.Result{
		{Title: "First Hit", URL: "https://example.com/hit"},
	}}

	worker := newTestWorker(invoker, search, &stubFetcher{}, 10)
	report := worker.Research(context.Background(), testSubtask())

	if report.Status != models.ReportStatusFailed {
		t.Fatalf("Status = %s, want failed", report.Status)
	}
	if !strings.Contains(report.Error, "quota exceeded") {
		t.Errorf("Error = %q, should record the underlying cause", report.Error)
	}
	if len(report.Sources) != 1 {
		t.Errorf("Sources gathered before failure should be preserved, got %v", report.Sources)
	}
}

func TestResearch_NudgeAfterReportlessTurn(t *testing.T) {
	invoker := &scriptedInvoker{script: []func() (*api.Response, error){
		textResponse("I believe I am done researching."),
		textResponse(finalReport),
	}}

	worker := newTestWorker(invoker, &stubSearch{}, &stubFetcher{}, 5)
	report := worker.Research(context.Background(), testSubtask())

	if report.Status != models.ReportStatusSuccess {
		t.Fatalf("Status = %s, want success after nudge", report.Status)
	}
	if report.Steps != 2 {
		t.Errorf("Steps = %d, want 2", report.Steps)
	}
}

func TestParseFinalReport(t *testing.T) {
	report, err := parseFinalReport("Some prose first.\n" + finalReport + "\nTrailing words.")
	if err != nil {
		t.Fatalf("parseFinalReport failed: %v", err)
	}
	if report.Summary == "" || len(report.Sources) != 1 {
		t.Errorf("Parsed report incomplete: %+v", report)
	}
}

func TestParseFinalReport_NoObject(t *testing.T) {
	if _, err := parseFinalReport("nothing structured here"); err == nil {
		t.Error("Expected error when no JSON object present")
	}
}

func TestParseFinalReport_SkipsObjectsWithoutSummary(t *testing.T) {
	text := `{"note": "not a report"} and later ` + finalReport

	report, err := parseFinalReport(text)
	if err != nil {
		t.Fatalf("parseFinalReport failed: %v", err)
	}
	if !strings.Contains(report.Summary, "Tariffs") {
		t.Errorf("Summary = %q, should come from the real report object", report.Summary)
	}
}

func TestSourceSet_DedupesAndKeepsOrder(t *testing.T) {
	set := newSourceSet()
	set.add(models.Source{URL: "https://a.com", Title: "A"})
	set.add(models.Source{URL: "https://b.com"})
	set.add(models.Source{URL: "https://a.com", Title: "A again"})
	set.add(models.Source{URL: ""})

	list := set.list()
	if len(list) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(list))
	}
	if list[0].URL != "https://a.com" || list[1].URL != "https://b.com" {
		t.Errorf("Order not preserved: %v", list)
	}
	if list[0].Title != "A" {
		t.Errorf("First-seen form should be kept, got %q", list[0].Title)
	}
}
