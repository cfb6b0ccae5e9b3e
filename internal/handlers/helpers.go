package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/karsa-studio/api/internal/platform/pagination"
	"github.com/karsa-studio/api/internal/services"
)

var errBodyTooLarge = errors.New("request body too large")

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}

func decodeJSONBody(r *http.Request, limit int64, dst any) error {
	body, err := readLimitedBody(r, limit)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// whatsappLink builds a wa.me deep link with a prefilled message. Returns
// empty when no contact number is configured.
func whatsappLink(number, message string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	link := "https://wa.me/" + digits.String()
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}

// requesterOwnsOrder reports whether the email query parameter matches the
// customer on record. Public invoice URLs stay unguessable: a missing or
// mismatched email reads the same as an unknown order.
func requesterOwnsOrder(r *http.Request, customerEmail string) bool {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	return email != "" && strings.EqualFold(email, customerEmail)
}

func parseFilterValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			value := strings.TrimSpace(part)
			if value == "" {
				continue
			}
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}

func parseTimeParam(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func parsePagination(r *http.Request) (services.Pagination, error) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		return services.Pagination{}, errors.New("page_size must be an integer")
	}
	return services.Pagination{
		PageSize:  params.PageSize,
		PageToken: params.PageToken,
	}, nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func formatTimePointer(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return formatTime(*ts)
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func int64Value(ptr *int64) int64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}
