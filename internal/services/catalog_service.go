package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates no published entry matches the identifier.
	ErrCatalogNotFound = errors.New("catalog: not found")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
}

type catalogService struct {
	catalog repositories.CatalogRepository
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	return &catalogService{catalog: deps.Catalog}, nil
}

// GetService resolves a service by ID first, then by slug. Only published
// entries are served.
func (s *catalogService) GetService(ctx context.Context, idOrSlug string) (Service, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return Service{}, fmt.Errorf("%w: identifier is required", ErrCatalogInvalidInput)
	}

	svc, err := s.catalog.FindService(ctx, key)
	if isNotFound(err) {
		svc, err = s.catalog.FindServiceBySlug(ctx, strings.ToLower(key))
	}
	if err != nil {
		if isNotFound(err) {
			return Service{}, fmt.Errorf("%w: service %s", ErrCatalogNotFound, key)
		}
		return Service{}, err
	}
	if !svc.IsPublished {
		return Service{}, fmt.Errorf("%w: service %s", ErrCatalogNotFound, key)
	}
	return svc, nil
}

// ListServices pages through published services.
func (s *catalogService) ListServices(ctx context.Context, pager Pagination) (domain.CursorPage[Service], error) {
	return s.catalog.ListServices(ctx, true, pager)
}

// GetProduct resolves a product by ID first, then by slug. Only published
// entries are served.
func (s *catalogService) GetProduct(ctx context.Context, idOrSlug string) (Product, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return Product{}, fmt.Errorf("%w: identifier is required", ErrCatalogInvalidInput)
	}

	product, err := s.catalog.FindProduct(ctx, key)
	if isNotFound(err) {
		product, err = s.catalog.FindProductBySlug(ctx, strings.ToLower(key))
	}
	if err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: product %s", ErrCatalogNotFound, key)
		}
		return Product{}, err
	}
	if !product.IsPublished {
		return Product{}, fmt.Errorf("%w: product %s", ErrCatalogNotFound, key)
	}
	return product, nil
}

// ListProducts pages through published products.
func (s *catalogService) ListProducts(ctx context.Context, pager Pagination) (domain.CursorPage[Product], error) {
	return s.catalog.ListProducts(ctx, true, pager)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
