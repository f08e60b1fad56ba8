// Package report renders a FinalReport to a markdown file with YAML front
// matter, suitable for static site generators and plain reading alike.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kmajewski/deepscout/pkg/models"
)

type frontMatter struct {
	Title       string    `yaml:"title"`
	Query       string    `yaml:"query"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Sources     int       `yaml:"sources"`
	Uncovered   []string  `yaml:"uncovered,omitempty"`
}

// Render produces the full markdown document for a report.
func Render(final *models.FinalReport) (string, error) {
	fm := frontMatter{
		Title:       titleFor(final.Query),
		Query:       final.Query,
		GeneratedAt: final.GeneratedAt,
		Sources:     len(final.Bibliography),
		Uncovered:   final.Uncovered,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	b.WriteString(final.Narrative)
	b.WriteString("\n\n## Open Questions\n\n")
	if final.OpenQuestions != "" {
		b.WriteString(final.OpenQuestions)
	} else {
		b.WriteString("None identified.")
	}
	b.WriteString("\n")

	if len(final.Uncovered) > 0 {
		b.WriteString("\n## Not Covered\n\n")
		b.WriteString("Research on these subtasks did not complete:\n\n")
		for _, title := range final.Uncovered {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	}

	if len(final.Bibliography) > 0 {
		b.WriteString("\n## Sources\n\n")
		for i, src := range final.Bibliography {
			if src.Title != "" {
				fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, src.Title, src.URL)
			} else {
				fmt.Fprintf(&b, "%d. <%s>\n", i+1, src.URL)
			}
		}
	}

	return b.String(), nil
}

// Write renders the report and writes it under dir, creating the directory
// if needed. The filename combines a slug of the query with the generation
// timestamp. Returns the written path.
func Write(dir string, final *models.FinalReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	doc, err := Render(final)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s.md", Slug(final.Query), final.GeneratedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a query into a filesystem-safe name fragment, capped at 60
// characters.
func Slug(query string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(query)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "report"
	}
	if len(s) > 60 {
		s = strings.Trim(s[:60], "-")
	}
	return s
}

func titleFor(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Research Report"
	}
	return "Research: " + query
}
