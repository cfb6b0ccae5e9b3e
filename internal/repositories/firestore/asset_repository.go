package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/karsa-studio/api/internal/domain"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	pstorage "github.com/karsa-studio/api/internal/platform/storage"
	"github.com/karsa-studio/api/internal/repositories"
)

const (
	assetsCollection         = "assets"
	assetIDPrefix            = "ast_"
	assetStatusPendingUpload = "pending_upload"
	defaultAssetUploadTTL    = 15 * time.Minute
)

// proofContentTypes limits payment receipts to images and PDF exports.
var proofContentTypes = []string{"image/*", "application/pdf"}

// AssetRepository records proof-of-payment uploads and issues the signed URLs
// customers upload against.
type AssetRepository struct {
	base      *pfirestore.BaseRepository[assetDocument]
	storage   *pstorage.Client
	bucket    string
	uploadTTL time.Duration
	clock     func() time.Time
	newID     func() string
}

// AssetRepositoryOption customises the repository behaviour.
type AssetRepositoryOption func(*AssetRepository)

// WithAssetRepositoryClock overrides the clock used by the repository.
func WithAssetRepositoryClock(clock func() time.Time) AssetRepositoryOption {
	return func(r *AssetRepository) {
		if clock != nil {
			r.clock = func() time.Time { return clock().UTC() }
		}
	}
}

// WithAssetRepositoryIDGenerator overrides the ID generator used by the repository.
func WithAssetRepositoryIDGenerator(generator func() string) AssetRepositoryOption {
	return func(r *AssetRepository) {
		if generator != nil {
			r.newID = generator
		}
	}
}

// WithAssetUploadTTL overrides how long issued upload URLs stay valid.
func WithAssetUploadTTL(ttl time.Duration) AssetRepositoryOption {
	return func(r *AssetRepository) {
		if ttl > 0 {
			r.uploadTTL = ttl
		}
	}
}

// NewAssetRepository constructs a Firestore-backed asset repository.
func NewAssetRepository(provider *pfirestore.Provider, storageClient *pstorage.Client, bucket string, opts ...AssetRepositoryOption) (*AssetRepository, error) {
	if provider == nil {
		return nil, errors.New("asset repository: firestore provider is required")
	}
	if storageClient == nil {
		return nil, errors.New("asset repository: storage client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("asset repository: bucket is required")
	}

	repo := &AssetRepository{
		base:      pfirestore.NewBaseRepository[assetDocument](provider, assetsCollection),
		storage:   storageClient,
		bucket:    bucket,
		uploadTTL: defaultAssetUploadTTL,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return ulid.Make().String()
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo, nil
}

// CreateSignedUpload stores a pending asset record and returns an upload URL.
func (r *AssetRepository) CreateSignedUpload(ctx context.Context, cmd repositories.SignedUploadRecord) (domain.SignedAssetResponse, error) {
	if r == nil || r.base == nil || r.storage == nil {
		return domain.SignedAssetResponse{}, errors.New("asset repository: not initialised")
	}

	invoiceNumber := strings.ToUpper(strings.TrimSpace(cmd.InvoiceNumber))
	if invoiceNumber == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: invoice number is required")
	}
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if contentType == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: content type is required")
	}
	size := cmd.SizeBytes
	if size <= 0 {
		return domain.SignedAssetResponse{}, errors.New("asset repository: size bytes must be positive")
	}

	objectPath, err := pstorage.BuildObjectPath(pstorage.PurposeProofOfPayment, pstorage.PathParams{
		InvoiceNumber: invoiceNumber,
		FileName:      strings.TrimSpace(cmd.FileName),
	})
	if err != nil {
		return domain.SignedAssetResponse{}, err
	}

	assetID := assetIDPrefix + strings.ToLower(r.newID())

	signed, err := r.storage.SignUpload(ctx, r.bucket, objectPath, pstorage.UploadSpec{
		ContentType:         contentType,
		AllowedContentTypes: proofContentTypes,
		MaxSizeBytes:        size,
		TTL:                 r.uploadTTL,
		ExtraHeaders: map[string]string{
			"x-goog-meta-asset-id": assetID,
		},
	})
	if err != nil {
		return domain.SignedAssetResponse{}, fmt.Errorf("asset repository: sign upload url: %w", err)
	}

	now := r.clock()
	doc := assetDocument{
		InvoiceNumber:   invoiceNumber,
		Status:          assetStatusPendingUpload,
		Bucket:          r.bucket,
		ObjectPath:      objectPath,
		FileName:        strings.TrimSpace(cmd.FileName),
		ContentType:     contentType,
		SizeBytes:       size,
		UploadExpiresAt: signed.ExpiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.base.Set(ctx, assetID, doc); err != nil {
		return domain.SignedAssetResponse{}, err
	}

	return domain.SignedAssetResponse{
		AssetID:   assetID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: signed.ExpiresAt,
		Headers:   signed.Headers,
	}, nil
}

// CreateSignedProofDownload signs a short-lived download URL for the newest
// receipt uploaded against an invoice. Only staff or admins may call it.
func (r *AssetRepository) CreateSignedProofDownload(ctx context.Context, invoiceNumber string) (domain.SignedAssetResponse, error) {
	if r == nil || r.base == nil || r.storage == nil {
		return domain.SignedAssetResponse{}, errors.New("asset repository: not initialised")
	}
	invoiceNumber = strings.ToUpper(strings.TrimSpace(invoiceNumber))
	if invoiceNumber == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: invoice number is required")
	}

	if _, err := pstorage.AuthorizeDownloadFromContext(ctx, "", false); err != nil {
		return domain.SignedAssetResponse{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("invoiceNumber", "==", invoiceNumber).
			OrderBy("createdAt", firestore.Desc).
			Limit(1)
	})
	if err != nil {
		return domain.SignedAssetResponse{}, err
	}
	if len(docs) == 0 {
		return domain.SignedAssetResponse{}, pfirestore.WrapError("assets.find_by_invoice", status.Error(codes.NotFound, fmt.Sprintf("no receipt recorded for %s", invoiceNumber)))
	}

	asset := docs[0]
	bucket := strings.TrimSpace(asset.Data.Bucket)
	if bucket == "" {
		bucket = r.bucket
	}
	signed, err := r.storage.SignDownload(ctx, bucket, asset.Data.ObjectPath, pstorage.DownloadSpec{
		FileName:     asset.Data.FileName,
		ResponseType: asset.Data.ContentType,
	})
	if err != nil {
		return domain.SignedAssetResponse{}, fmt.Errorf("asset repository: sign download url: %w", err)
	}

	return domain.SignedAssetResponse{
		AssetID:   asset.ID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

type assetDocument struct {
	InvoiceNumber   string    `firestore:"invoiceNumber"`
	Status          string    `firestore:"status"`
	Bucket          string    `firestore:"bucket"`
	ObjectPath      string    `firestore:"objectPath"`
	FileName        string    `firestore:"fileName,omitempty"`
	ContentType     string    `firestore:"contentType"`
	SizeBytes       int64     `firestore:"sizeBytes"`
	UploadExpiresAt time.Time `firestore:"uploadExpiresAt"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

// Ensure interface compliance.
var _ repositories.AssetRepository = (*AssetRepository)(nil)
