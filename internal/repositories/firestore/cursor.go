package firestore

import (
	"strings"
	"time"

	"github.com/karsa-studio/api/internal/platform/pagination"
)

func encodeListToken(ts time.Time, docID string) string {
	return pagination.EncodeListKey(pagination.ListKey{Timestamp: ts, DocID: docID})
}

func decodeListToken(token string) (time.Time, string, error) {
	key, err := pagination.DecodeListKey(token)
	if err != nil {
		return time.Time{}, "", err
	}
	return key.Timestamp, key.DocID, nil
}

func normaliseStatuses(statuses []string) []string {
	if len(statuses) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(statuses))
	seen := make(map[string]struct{})
	for _, status := range statuses {
		trimmed := strings.ToLower(strings.TrimSpace(status))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
