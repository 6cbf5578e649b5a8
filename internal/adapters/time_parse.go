package adapters

import (
	"strings"
	"time"
)

// parseTimeFlexible handles the timestamp shapes Docker Hub emits for
// last_updated. Unparseable or empty values yield the zero time, which the
// evaluator treats as "keep, no timestamp".
func parseTimeFlexible(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
