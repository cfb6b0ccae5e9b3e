package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Status is the lifecycle state of an idempotency record.
type Status string

const (
	// DefaultTTL is how long records are retained when no TTL is configured.
	DefaultTTL = 24 * time.Hour
	// StatusPending marks a key that is reserved while the first request
	// is still being processed.
	StatusPending Status = "pending"
	// StatusCompleted marks a key whose response has been stored and can
	// be replayed to retries.
	StatusCompleted Status = "completed"
)

// ReservationState is the outcome of attempting to reserve a key.
type ReservationState int

const (
	// ReservationStateNew: the key was free and is now reserved for this request.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted: a stored response exists and should be replayed.
	ReservationStateCompleted
	// ReservationStatePending: another request holds the key right now.
	ReservationStatePending
)

// Reservation carries the reservation outcome plus the stored record when
// one exists.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the persisted state for one idempotency key: the request
// fingerprint it was reserved for and, once completed, the response to
// replay.
type Record struct {
	Key             string
	Fingerprint     string
	Status          Status
	ResponseStatus  int
	ResponseHeaders map[string][]string
	ResponseBody    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

func (r Record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Response is the HTTP response captured for future replays.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists idempotency reservations and their stored responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch is returned when a key is reused with a different
// request fingerprint, which means the client recycled a key for a new
// payload instead of retrying the original one.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

// recordID derives the document/map key for a scoped idempotency key. The
// hash keeps customer-supplied keys out of document IDs.
func recordID(key string) string {
	return sha256Hex([]byte(strings.TrimSpace(key)))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// replaySkippedHeaders are hop-by-hop or recomputed headers that must not
// be stored and replayed verbatim.
var replaySkippedHeaders = map[string]struct{}{
	"content-length":      {},
	"date":                {},
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"upgrade":             {},
}

func storableHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}
	kept := make(map[string][]string, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if _, skip := replaySkippedHeaders[strings.ToLower(canonical)]; skip {
			continue
		}
		kept[canonical] = append([]string(nil), values...)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func headersFromRecord(values map[string][]string) http.Header {
	header := make(http.Header, len(values))
	for name, vals := range values {
		header[name] = append([]string(nil), vals...)
	}
	return header
}
