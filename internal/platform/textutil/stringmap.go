package textutil

import "strings"

// NormalizeStringMap trims whitespace from keys and values and drops
// entries whose key trims to empty. Returns nil when nothing survives,
// so callers can treat the result as optional.
func NormalizeStringMap(values map[string]string) map[string]string {
	var normalized map[string]string
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if normalized == nil {
			normalized = make(map[string]string, len(values))
		}
		normalized[key] = strings.TrimSpace(value)
	}
	return normalized
}
