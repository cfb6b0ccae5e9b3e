package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the number of items returned when the client omits page_size.
	DefaultPageSize = 20
	// MaxPageSize caps page_size to prevent unbounded Firestore reads.
	MaxPageSize = 100
)

// ErrInvalidPageSize reports a page_size value that is not an integer.
var ErrInvalidPageSize = errors.New("pagination: invalid page_size")

// Params carries the paging values extracted from a list request.
type Params struct {
	PageSize  int
	PageToken string
}

// FromRequest parses page_size and page_token from the request query string.
func FromRequest(r *http.Request) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query())
}

// Parse consumes query values and returns normalised paging parameters.
// Non-positive sizes fall back to the default and oversized values clamp
// to MaxPageSize; only a non-integer page_size is an error.
func Parse(values url.Values) (Params, error) {
	if values == nil {
		values = url.Values{}
	}

	pageSize := DefaultPageSize
	if raw := strings.TrimSpace(values.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("%w: must be an integer", ErrInvalidPageSize)
		}
		switch {
		case size <= 0:
			pageSize = DefaultPageSize
		case size > MaxPageSize:
			pageSize = MaxPageSize
		default:
			pageSize = size
		}
	}

	return Params{
		PageSize:  pageSize,
		PageToken: strings.TrimSpace(values.Get("page_token")),
	}, nil
}
