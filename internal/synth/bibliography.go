package synth

import (
	"net/url"
	"strings"

	"github.com/kmajewski/deepscout/pkg/models"
)

// NormalizeURL reduces a URL to its comparison key: host lowercased, path
// compared without trailing slashes, scheme ignored so http and https
// variants of the same page collapse. The first-seen original form is what
// ends up in the bibliography; this key only decides equality.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimRight(trimmed, "/"))
	}

	key := strings.ToLower(parsed.Host) + strings.TrimRight(parsed.Path, "/")
	if parsed.RawQuery != "" {
		key += "?" + parsed.RawQuery
	}
	return key
}

// Bibliography unions the sources of all reports, deduplicated by normalized
// URL, preserving first-seen order and first-seen form. It is deterministic
// and makes no model calls.
func Bibliography(reports []models.WorkerReport) []models.Source {
	seen := make(map[string]bool)
	var out []models.Source

	for _, report := range reports {
		for _, source := range report.Sources {
			key := NormalizeURL(source.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, source)
		}
	}
	return out
}
