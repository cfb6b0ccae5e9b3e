package observability

import (
	"strings"
	"unicode"
)

const (
	maxFieldLen  = 256
	maxRouteLen  = 180
	maxMethodLen = 10
	maxUserIDLen = 64
)

// sanitizeString strips control characters and truncates so attacker
// supplied values cannot break log lines or span attributes.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldLen
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, value)

	runes := []rune(cleaned)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return cleaned
}

// SanitizeRoute bounds a chi route pattern before it lands in logs.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, maxRouteLen)
}

// SanitizeMethod bounds an HTTP method name.
func SanitizeMethod(method string) string {
	return sanitizeString(method, maxMethodLen)
}

// SanitizeUserID caps Firebase UIDs so a malformed token cannot flood a log field.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return sanitizeString(uid, maxUserIDLen)
}
