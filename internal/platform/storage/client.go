package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/karsa-studio/api/internal/platform/textutil"
)

const (
	defaultUploadTTL   = 15 * time.Minute
	defaultDownloadTTL = 5 * time.Minute
	maxDownloadTTL     = 15 * time.Minute
)

var (
	errNoSigner           = errors.New("storage: signer is required")
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
	errContentTypeDenied  = errors.New("storage: content type not allowed")
	errExpiryTooLong      = errors.New("storage: expiry exceeds permitted maximum")
)

// Client issues V4 signed URLs for payment-proof uploads and staff
// downloads, backed by a Signer.
type Client struct {
	signer Signer
	now    func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a signed URL client.
func NewClient(signer Signer, opts ...ClientOption) (*Client, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	client := &Client{signer: signer, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// UploadSpec constrains a signed upload URL. The signature binds the
// content type, length range, and any extra headers, so the customer
// can only PUT exactly what was negotiated.
type UploadSpec struct {
	ContentType         string
	AllowedContentTypes []string
	MaxSizeBytes        int64
	TTL                 time.Duration
	ExtraHeaders        map[string]string
}

// DownloadSpec shapes a signed download URL.
type DownloadSpec struct {
	TTL          time.Duration
	FileName     string
	ResponseType string
}

// SignedURL is a generated signed URL plus the headers the caller must
// send for the signature to verify.
type SignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
	Headers   map[string]string
}

// SignUpload creates a PUT signed URL for the given object.
func (c *Client) SignUpload(ctx context.Context, bucket, object string, spec UploadSpec) (SignedURL, error) {
	bucket, object, err := c.checkTarget(ctx, bucket, object)
	if err != nil {
		return SignedURL{}, err
	}

	contentType := strings.ToLower(strings.TrimSpace(spec.ContentType))
	if contentType == "" {
		return SignedURL{}, errContentTypeMissing
	}
	if len(spec.AllowedContentTypes) > 0 && !contentTypeAllowed(contentType, spec.AllowedContentTypes) {
		return SignedURL{}, errContentTypeDenied
	}

	ttl := spec.TTL
	if ttl <= 0 {
		ttl = defaultUploadTTL
	}
	expiresAt := c.now().Add(ttl)

	headers := map[string]string{"Content-Type": contentType}
	var signedHeaders []string
	if spec.MaxSizeBytes > 0 {
		lengthRange := fmt.Sprintf("0,%d", spec.MaxSizeBytes)
		signedHeaders = append(signedHeaders, "x-goog-content-length-range:"+lengthRange)
		headers["x-goog-content-length-range"] = lengthRange
	}
	extra := textutil.NormalizeStringMap(spec.ExtraHeaders)
	for _, key := range sortedKeys(extra) {
		value := extra[key]
		if value == "" {
			continue
		}
		signedHeaders = append(signedHeaders, strings.ToLower(key)+":"+value)
		headers[key] = value
	}

	signed, err := storage.SignedURL(bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		ContentType:    contentType,
		Headers:        signedHeaders,
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign upload url: %w", err)
	}

	return SignedURL{URL: signed, Method: "PUT", ExpiresAt: expiresAt, Headers: headers}, nil
}

// SignDownload creates a GET signed URL for the given object. Download
// URLs are short-lived; TTL is capped at maxDownloadTTL.
func (c *Client) SignDownload(ctx context.Context, bucket, object string, spec DownloadSpec) (SignedURL, error) {
	bucket, object, err := c.checkTarget(ctx, bucket, object)
	if err != nil {
		return SignedURL{}, err
	}

	ttl := spec.TTL
	if ttl <= 0 {
		ttl = defaultDownloadTTL
	}
	if ttl > maxDownloadTTL {
		return SignedURL{}, errExpiryTooLong
	}
	expiresAt := c.now().Add(ttl)

	query := url.Values{}
	if name := strings.TrimSpace(spec.FileName); name != "" {
		query.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	if responseType := strings.TrimSpace(spec.ResponseType); responseType != "" {
		query.Set("response-content-type", responseType)
	}

	opts := &storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
	}
	if len(query) > 0 {
		opts.QueryParameters = query
	}

	signed, err := storage.SignedURL(bucket, object, opts)
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign download url: %w", err)
	}

	return SignedURL{URL: signed, Method: "GET", ExpiresAt: expiresAt}, nil
}

func (c *Client) checkTarget(ctx context.Context, bucket, object string) (string, string, error) {
	if c == nil || c.signer == nil {
		return "", "", errNoSigner
	}
	if ctx == nil {
		return "", "", errors.New("storage: context is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return "", "", errInvalidBucket
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return "", "", errInvalidObject
	}
	return bucket, object, nil
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		switch {
		case candidate == "":
			continue
		case candidate == "*":
			return true
		case strings.HasSuffix(candidate, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(candidate, "*")) {
				return true
			}
		case contentType == candidate:
			return true
		}
	}
	return false
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
