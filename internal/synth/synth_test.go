package synth

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/pkg/models"
)

type scriptedInvoker struct {
	responses []*api.Response
	errs      []error
	requests  []api.Request
}

func (s *scriptedInvoker) Invoke(_ context.Context, req api.Request) (*api.Response, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	if s.errs != nil && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func textResponse(text string) *api.Response {
	return &api.Response{Text: text, StopReason: api.StopEndTurn}
}

func successReport(id, title string, sources ...models.Source) models.WorkerReport {
	return models.WorkerReport{
		SubtaskID: id,
		Title:     title,
		Status:    models.ReportStatusSuccess,
		Summary:   "summary of " + title,
		Analysis:  "analysis of " + title,
		KeyPoints: []string{"point one"},
		Sources:   sources,
	}
}

const wellFormed = `# Tariff Impacts

The tariff regime reshaped sourcing decisions across the industry.

## Open Questions

- How durable are the announced exemptions?`

func TestSynthesizeWellFormed(t *testing.T) {
	inv := &scriptedInvoker{responses: []*api.Response{textResponse(wellFormed)}}
	s := New(inv, "test-model", api.RetryPolicy{MaxAttempts: 1})

	reports := []models.WorkerReport{
		successReport("t1", "History", models.Source{URL: "https://example.com/a", Title: "A"}),
		successReport("t2", "Prices", models.Source{URL: "https://example.com/b", Title: "B"}),
	}

	final, err := s.Synthesize(context.Background(), "tariffs", "the plan", reports)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(inv.requests) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(inv.requests))
	}
	if !strings.Contains(final.Narrative, "Tariff Impacts") {
		t.Errorf("narrative missing report body: %q", final.Narrative)
	}
	if strings.Contains(final.Narrative, "Open Questions") {
		t.Errorf("narrative should not contain the open questions section: %q", final.Narrative)
	}
	if !strings.Contains(final.OpenQuestions, "exemptions") {
		t.Errorf("open questions = %q", final.OpenQuestions)
	}
	if len(final.Bibliography) != 2 {
		t.Errorf("bibliography size = %d, want 2", len(final.Bibliography))
	}
	if len(final.Uncovered) != 0 {
		t.Errorf("uncovered = %v, want empty", final.Uncovered)
	}
	if final.Query != "tariffs" {
		t.Errorf("query = %q", final.Query)
	}
	if final.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestSynthesizePromptCarriesFindings(t *testing.T) {
	inv := &scriptedInvoker{responses: []*api.Response{textResponse(wellFormed)}}
	s := New(inv, "test-model", api.RetryPolicy{MaxAttempts: 1})

	reports := []models.WorkerReport{
		successReport("t1", "Fab capacity", models.Source{URL: "https://example.com/fabs", Title: "Fab list"}),
	}
	if _, err := s.Synthesize(context.Background(), "q", "plan text", reports); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	prompt := inv.requests[0].Messages[0].Text
	for _, want := range []string{"plan text", "Fab capacity", "summary of Fab capacity", "https://example.com/fabs"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if inv.requests[0].Model != "test-model" {
		t.Errorf("model = %q", inv.requests[0].Model)
	}
}

func TestSynthesizeFailedReportsBecomeUncovered(t *testing.T) {
	inv := &scriptedInvoker{responses: []*api.Response{textResponse(wellFormed)}}
	s := New(inv, "test-model", api.RetryPolicy{MaxAttempts: 1})

	reports := []models.WorkerReport{
		successReport("t1", "History"),
		{
			SubtaskID: "t2",
			Title:     "Export controls",
			Status:    models.ReportStatusFailed,
			Error:     "step budget exhausted",
			Sources:   []models.Source{{URL: "https://example.com/partial"}},
		},
	}

	final, err := s.Synthesize(context.Background(), "q", "plan", reports)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !reflect.DeepEqual(final.Uncovered, []string{"Export controls"}) {
		t.Errorf("uncovered = %v", final.Uncovered)
	}
	if strings.Contains(inv.requests[0].Messages[0].Text, "Export controls") {
		t.Error("failed report text leaked into the synthesis prompt")
	}
	// Failed workers still contribute gathered sources to the bibliography.
	found := false
	for _, src := range final.Bibliography {
		if src.URL == "https://example.com/partial" {
			found = true
		}
	}
	if !found {
		t.Errorf("bibliography missing failed worker's source: %v", final.Bibliography)
	}
}

func TestSynthesizeNoSuccessfulReports(t *testing.T) {
	inv := &scriptedInvoker{}
	s := New(inv, "test-model", api.RetryPolicy{MaxAttempts: 1})

	reports := []models.WorkerReport{
		{SubtaskID: "t1", Title: "A", Status: models.ReportStatusFailed},
	}
	_, err := s.Synthesize(context.Background(), "q", "plan", reports)
	if !errors.Is(err, ErrNoReports) {
		t.Fatalf("error = %v, want ErrNoReports", err)
	}
	if len(inv.requests) != 0 {
		t.Errorf("expected no invocations, got %d", len(inv.requests))
	}
}

func TestSynthesizeRepairSucceeds(t *testing.T) {
	inv := &scriptedInvoker{responses: []*api.Response{
		textResponse("# Report\n\nBody without the required section."),
		textResponse(wellFormed),
	}}
	s := New(inv, "test-model", api.RetryPolicy{MaxAttempts: 1})

	final, err := s.Synthesize(context.Background(), "q", "plan", []models.WorkerReport{successReport("t1", "A")})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(inv.requests) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(inv.requests))
	}
	// The repair turn carries the malformed response back as assistant text.
	repair := inv.requests[1].Messages
	if len(repair) != 3 || repair[1].Role != api.RoleAssistant {
		t.Fatalf("unexpected repair conversation shape: %d messages", len(repair))
	}
	if !strings.Contains(final.OpenQuestions, "exemptions") {
		t.Errorf("open questions = %q", final.OpenQuestions)
	}
}

func TestSynthesizeRepairBudgetIsOne(t *testing.T) {
	malformed := textResponse("still no section here")
	inv := &scriptedInvoker{responses: []*api.Response{malformed, malformed}}
	s := New(inv, "test-model", api.RetryPolicy{MaxAttempts: 1})

	_, err := s.Synthesize(context.Background(), "q", "plan", []models.WorkerReport{successReport("t1", "A")})
	var formatErr *SynthesisFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("error = %v, want SynthesisFormatError", err)
	}
	if len(inv.requests) != 2 {
		t.Errorf("expected exactly 2 invocations, got %d", len(inv.requests))
	}
}

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		ok            bool
		narrative     string
		openQuestions string
	}{
		{
			name:          "heading at end",
			text:          "Body.\n\n## Open Questions\n\n- q1",
			ok:            true,
			narrative:     "Body.",
			openQuestions: "- q1",
		},
		{
			name: "no heading",
			text: "Body only.",
			ok:   false,
		},
		{
			name: "heading mid line is ignored",
			text: "The section ## Open Questions is required.",
			ok:   false,
		},
		{
			name:          "quoted heading earlier, real one later",
			text:          "Reports end with:\n## Open Questions\nas a convention.\n\n## Open Questions\n\n- real",
			ok:            true,
			narrative:     "Reports end with:\n## Open Questions\nas a convention.",
			openQuestions: "- real",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			narrative, openQuestions, ok := splitSections(tt.text)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if narrative != tt.narrative {
				t.Errorf("narrative = %q, want %q", narrative, tt.narrative)
			}
			if openQuestions != tt.openQuestions {
				t.Errorf("openQuestions = %q, want %q", openQuestions, tt.openQuestions)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"http://Example.com/a", "https://example.com/a/", true},
		{"https://example.com/a/", "http://example.com/a", true},
		{"https://example.com/a", "https://example.com/b", false},
		{"https://example.com/a?page=2", "https://example.com/a", false},
		{"https://EXAMPLE.com", "http://example.com/", true},
	}
	for _, tt := range tests {
		got := NormalizeURL(tt.a) == NormalizeURL(tt.b)
		if got != tt.same {
			t.Errorf("NormalizeURL(%q) == NormalizeURL(%q): got %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}

func TestBibliographyCollapsesVariants(t *testing.T) {
	reports := []models.WorkerReport{
		{Status: models.ReportStatusSuccess, Sources: []models.Source{
			{URL: "http://Example.com/a", Title: "First form"},
			{URL: "https://example.com/b", Title: "B"},
		}},
		{Status: models.ReportStatusSuccess, Sources: []models.Source{
			{URL: "https://example.com/a/", Title: "Second form"},
			{URL: "http://example.com/a", Title: "Third form"},
		}},
	}

	got := Bibliography(reports)
	if len(got) != 2 {
		t.Fatalf("bibliography size = %d, want 2: %v", len(got), got)
	}
	if got[0].URL != "http://Example.com/a" || got[0].Title != "First form" {
		t.Errorf("first entry = %+v, want the first-seen form kept", got[0])
	}
	if got[1].URL != "https://example.com/b" {
		t.Errorf("second entry = %+v", got[1])
	}
}

func TestBibliographyEmpty(t *testing.T) {
	if got := Bibliography(nil); got != nil {
		t.Errorf("Bibliography(nil) = %v, want nil", got)
	}
}
