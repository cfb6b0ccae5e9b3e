package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection   = "idempotency_keys"
	defaultTxAttempts   = 5
	defaultCleanupBatch = 100
)

// FirestoreStore implements Store on a Firestore collection. A record's
// document ID is the hash of its scoped key, so reserve and save operate on
// a single document inside a transaction.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	txAttempts int
}

// FirestoreOption customises the FirestoreStore.
type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the collection holding idempotency records.
func WithCollection(name string) FirestoreOption {
	return func(store *FirestoreStore) {
		if name != "" {
			store.collection = name
		}
	}
}

// WithMaxAttempts configures transaction retry attempts.
func WithMaxAttempts(attempts int) FirestoreOption {
	return func(store *FirestoreStore) {
		if attempts > 0 {
			store.txAttempts = attempts
		}
	}
}

// NewFirestoreStore constructs a Firestore-backed idempotency store.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	store := &FirestoreStore{
		client:     client,
		collection: defaultCollection,
		txAttempts: defaultTxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Reserve claims the key for the given fingerprint, returning the stored
// response when a completed record already exists. Expired records are
// reclaimed as new reservations.
func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.docRef(key)

	var result Reservation
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			return s.reserveNew(tx, ref, key, fingerprint, now, ttl, &result)
		}

		var doc recordDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if doc.Fingerprint != fingerprint {
			return ErrFingerprintMismatch
		}
		record := doc.toRecord()
		if record.expired(now) {
			return s.reserveNew(tx, ref, key, fingerprint, now, ttl, &result)
		}
		if record.Status == StatusCompleted {
			result = Reservation{State: ReservationStateCompleted, Record: record}
			return nil
		}
		result = Reservation{State: ReservationStatePending, Record: record}
		return nil
	}, firestore.MaxAttempts(s.attempts()))

	return result, err
}

func (s *FirestoreStore) reserveNew(tx *firestore.Transaction, ref *firestore.DocumentRef, key, fingerprint string, now time.Time, ttl time.Duration, result *Reservation) error {
	record := pendingRecord(key, fingerprint, now, ttl)
	if err := tx.Set(ref, newRecordDocument(record)); err != nil {
		return err
	}
	*result = Reservation{State: ReservationStateNew, Record: record}
	return nil
}

// SaveResponse marks the record completed and attaches the response to
// replay on retries.
func (s *FirestoreStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.docRef(key)

	headers := storableHeaders(resp.Headers)
	var body []byte
	if len(resp.Body) > 0 {
		body = append([]byte(nil), resp.Body...)
	}

	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		var doc recordDocument
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			if doc.Fingerprint != fingerprint {
				return ErrFingerprintMismatch
			}
		case status.Code(err) == codes.NotFound:
			doc = recordDocument{Key: key, Fingerprint: fingerprint, CreatedAt: now}
		default:
			return err
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}

		doc.Status = string(StatusCompleted)
		doc.ResponseStatus = resp.Status
		doc.ResponseHeaders = headers
		doc.ResponseBody = body
		doc.UpdatedAt = now
		doc.ExpiresAt = now.Add(ttl)
		return tx.Set(ref, doc)
	}, firestore.MaxAttempts(s.attempts()))
}

// Release deletes the reservation so the caller can retry after a failed
// attempt. Missing records are fine; the retry will re-reserve.
func (s *FirestoreStore) Release(ctx context.Context, key, _ string) error {
	_, err := s.docRef(key).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// CleanupExpired batch-deletes expired records, up to limit per call.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	if limit <= 0 {
		limit = defaultCleanupBatch
	}

	query := s.client.Collection(s.collection).Where("expires_at", "<=", now).Limit(limit)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := s.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *FirestoreStore) docRef(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(recordID(key))
}

func (s *FirestoreStore) attempts() int {
	if s.txAttempts <= 0 {
		return 1
	}
	return s.txAttempts
}

type recordDocument struct {
	Key             string              `firestore:"key"`
	Fingerprint     string              `firestore:"fingerprint"`
	Status          string              `firestore:"status"`
	ResponseStatus  int                 `firestore:"response_status"`
	ResponseHeaders map[string][]string `firestore:"response_headers"`
	ResponseBody    []byte              `firestore:"response_body"`
	CreatedAt       time.Time           `firestore:"created_at"`
	UpdatedAt       time.Time           `firestore:"updated_at"`
	ExpiresAt       time.Time           `firestore:"expires_at"`
}

func newRecordDocument(record Record) recordDocument {
	return recordDocument{
		Key:             record.Key,
		Fingerprint:     record.Fingerprint,
		Status:          string(record.Status),
		ResponseStatus:  record.ResponseStatus,
		ResponseHeaders: record.ResponseHeaders,
		ResponseBody:    record.ResponseBody,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
		ExpiresAt:       record.ExpiresAt,
	}
}

func (d recordDocument) toRecord() Record {
	return Record{
		Key:             d.Key,
		Fingerprint:     d.Fingerprint,
		Status:          Status(d.Status),
		ResponseStatus:  d.ResponseStatus,
		ResponseHeaders: d.ResponseHeaders,
		ResponseBody:    d.ResponseBody,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ExpiresAt:       d.ExpiresAt,
	}
}
