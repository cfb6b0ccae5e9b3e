package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPageToken reports an opaque page token that could not be decoded.
var ErrInvalidPageToken = errors.New("pagination: invalid page_token")

// ListKey identifies the last document of a page. List queries order by a
// timestamp column plus document ID for a stable tiebreak, so the token
// encodes both and paging survives equal timestamps.
type ListKey struct {
	Timestamp time.Time
	DocID     string
}

// EncodeListKey serialises the key into a base64 URL-safe page token.
func EncodeListKey(key ListKey) string {
	payload := fmt.Sprintf("%s|%s", key.Timestamp.UTC().Format(time.RFC3339Nano), key.DocID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// DecodeListKey parses a token produced by EncodeListKey.
func DecodeListKey(token string) (ListKey, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return ListKey{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	parts := strings.SplitN(string(data), "|", 2)
	if len(parts) != 2 {
		return ListKey{}, fmt.Errorf("%w: malformed payload", ErrInvalidPageToken)
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return ListKey{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return ListKey{Timestamp: ts, DocID: parts[1]}, nil
}
