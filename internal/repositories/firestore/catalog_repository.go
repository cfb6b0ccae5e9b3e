package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/karsa-studio/api/internal/domain"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	"github.com/karsa-studio/api/internal/repositories"
)

const (
	servicesCollection = "services"
	productsCollection = "products"
)

// CatalogRepository serves the service and product catalog read by the order flows.
type CatalogRepository struct {
	services *pfirestore.BaseRepository[serviceDocument]
	products *pfirestore.BaseRepository[productDocument]
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		services: pfirestore.NewBaseRepository[serviceDocument](provider, servicesCollection),
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection),
	}, nil
}

// FindService loads one service by document ID.
func (r *CatalogRepository) FindService(ctx context.Context, serviceID string) (domain.Service, error) {
	if r == nil || r.services == nil {
		return domain.Service{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(serviceID)
	if id == "" {
		return domain.Service{}, errors.New("catalog repository: service id is required")
	}
	doc, err := r.services.Get(ctx, id)
	if err != nil {
		return domain.Service{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindServiceBySlug loads one service by its URL slug.
func (r *CatalogRepository) FindServiceBySlug(ctx context.Context, slug string) (domain.Service, error) {
	if r == nil || r.services == nil {
		return domain.Service{}, errors.New("catalog repository not initialised")
	}
	normalised := strings.ToLower(strings.TrimSpace(slug))
	if normalised == "" {
		return domain.Service{}, errors.New("catalog repository: slug is required")
	}

	docs, err := r.services.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", normalised).Limit(1)
	})
	if err != nil {
		return domain.Service{}, err
	}
	if len(docs) == 0 {
		return domain.Service{}, pfirestore.WrapError("catalog.find_service_by_slug", status.Error(codes.NotFound, fmt.Sprintf("service %s not found", normalised)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// ListServices returns catalog services ordered by most recent creation.
func (r *CatalogRepository) ListServices(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Service], error) {
	if r == nil || r.services == nil {
		return domain.CursorPage[domain.Service]{}, errors.New("catalog repository not initialised")
	}

	docs, nextToken, err := queryCatalogPage(ctx, r.services, onlyPublished, pager, "catalog repository")
	if err != nil {
		return domain.CursorPage[domain.Service]{}, err
	}

	items := make([]domain.Service, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}
	return domain.CursorPage[domain.Service]{Items: items, NextPageToken: nextToken}, nil
}

// FindProduct loads one product by document ID.
func (r *CatalogRepository) FindProduct(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("catalog repository: product id is required")
	}
	doc, err := r.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindProductBySlug loads one product by its URL slug.
func (r *CatalogRepository) FindProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	normalised := strings.ToLower(strings.TrimSpace(slug))
	if normalised == "" {
		return domain.Product{}, errors.New("catalog repository: slug is required")
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", normalised).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.WrapError("catalog.find_product_by_slug", status.Error(codes.NotFound, fmt.Sprintf("product %s not found", normalised)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// ListProducts returns store products ordered by most recent creation.
func (r *CatalogRepository) ListProducts(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.products == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("catalog repository not initialised")
	}

	docs, nextToken, err := queryCatalogPage(ctx, r.products, onlyPublished, pager, "catalog repository")
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	items := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}
	return domain.CursorPage[domain.Product]{Items: items, NextPageToken: nextToken}, nil
}

type catalogTimestamped interface {
	createdAt() time.Time
}

func queryCatalogPage[T catalogTimestamped](ctx context.Context, base *pfirestore.BaseRepository[T], onlyPublished bool, pager domain.Pagination, label string) ([]pfirestore.Document[T], string, error) {
	limit := pager.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(pager.PageToken); token != "" {
		tokenTime, tokenID, err := decodeListToken(token)
		if err != nil {
			return nil, "", fmt.Errorf("%s: invalid page token: %w", label, err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	docs, err := base.Query(ctx, func(q firestore.Query) firestore.Query {
		if onlyPublished {
			q = q.Where("isPublished", "==", true)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return nil, "", err
	}

	nextToken := ""
	if limit > 0 && len(docs) == fetchLimit {
		last := docs[len(docs)-1]
		nextToken = encodeListToken(last.Data.createdAt(), last.ID)
		docs = docs[:len(docs)-1]
	}
	return docs, nextToken, nil
}

type servicePackageDocument struct {
	ID           string   `firestore:"id"`
	Name         string   `firestore:"name"`
	Description  string   `firestore:"description,omitempty"`
	Features     []string `firestore:"features,omitempty"`
	DurationDays int      `firestore:"durationDays,omitempty"`
	Price        int64    `firestore:"price"`
}

type serviceDocument struct {
	Slug        string                   `firestore:"slug"`
	Name        string                   `firestore:"name"`
	Description string                   `firestore:"description,omitempty"`
	Packages    []servicePackageDocument `firestore:"packages"`
	IsPublished bool                     `firestore:"isPublished"`
	CreatedAt   time.Time                `firestore:"createdAt"`
	UpdatedAt   time.Time                `firestore:"updatedAt"`
}

func (d serviceDocument) createdAt() time.Time { return d.CreatedAt }

func (d serviceDocument) toDomain(id string) domain.Service {
	packages := make([]domain.ServicePackage, 0, len(d.Packages))
	for _, pkg := range d.Packages {
		packages = append(packages, domain.ServicePackage{
			ID:           pkg.ID,
			Name:         pkg.Name,
			Description:  pkg.Description,
			Features:     append([]string(nil), pkg.Features...),
			DurationDays: pkg.DurationDays,
			Price:        pkg.Price,
		})
	}
	return domain.Service{
		ID:          id,
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Packages:    packages,
		IsPublished: d.IsPublished,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type productDocument struct {
	Slug          string    `firestore:"slug"`
	Name          string    `firestore:"name"`
	Description   string    `firestore:"description,omitempty"`
	Price         int64     `firestore:"price"`
	PreviewURL    string    `firestore:"previewUrl,omitempty"`
	DriveFolderID string    `firestore:"driveFolderId,omitempty"`
	IsPublished   bool      `firestore:"isPublished"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func (d productDocument) createdAt() time.Time { return d.CreatedAt }

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:            id,
		Slug:          d.Slug,
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		PreviewURL:    d.PreviewURL,
		DriveFolderID: d.DriveFolderID,
		IsPublished:   d.IsPublished,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
