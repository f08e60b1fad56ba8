package research

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kmajewski/deepscout/pkg/models"
)

// rawReport is the JSON structure the model emits when it finishes a subtask.
type rawReport struct {
	Summary   string   `json:"summary"`
	Analysis  string   `json:"analysis"`
	KeyPoints []string `json:"key_points"`
	Sources   []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"sources"`
}

var errNoReport = errors.New("no final report object found in response")

// parseFinalReport extracts the structured report from an end-turn response.
// Like the task splitter, parsing tolerates surrounding prose: the first
// syntactically valid JSON object with a non-empty summary wins.
func parseFinalReport(text string) (*rawReport, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var fragment json.RawMessage
		if err := dec.Decode(&fragment); err != nil {
			continue
		}

		var report rawReport
		if err := json.Unmarshal(fragment, &report); err != nil {
			continue
		}
		if strings.TrimSpace(report.Summary) == "" {
			continue
		}
		return &report, nil
	}
	return nil, errNoReport
}

// sourceSet accumulates sources in first-seen order, deduplicated by exact
// URL. Normalized deduplication across workers happens later, in synthesis.
type sourceSet struct {
	seen  map[string]bool
	order []models.Source
}

func newSourceSet() *sourceSet {
	return &sourceSet{seen: make(map[string]bool)}
}

func (s *sourceSet) add(sources ...models.Source) {
	for _, src := range sources {
		if src.URL == "" || s.seen[src.URL] {
			continue
		}
		s.seen[src.URL] = true
		s.order = append(s.order, src)
	}
}

func (s *sourceSet) list() []models.Source {
	return s.order
}
