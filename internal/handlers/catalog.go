package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

// CatalogHandlers serves the public service and product catalog.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the catalog endpoints directly on the API group.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/services", h.listServices)
	r.Get("/services/{idOrSlug}", h.getService)
	r.Get("/products", h.listProducts)
	r.Get("/products/{idOrSlug}", h.getProduct)
}

func (h *CatalogHandlers) listServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog unavailable", http.StatusServiceUnavailable))
		return
	}

	pagination, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListServices(ctx, pagination)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]servicePayload, 0, len(page.Items))
	for _, svc := range page.Items {
		items = append(items, buildServicePayload(svc))
	}
	writeJSONResponse(w, http.StatusOK, serviceListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *CatalogHandlers) getService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog unavailable", http.StatusServiceUnavailable))
		return
	}

	svc, err := h.catalog.GetService(ctx, strings.TrimSpace(chi.URLParam(r, "idOrSlug")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"service": buildServicePayload(svc)})
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog unavailable", http.StatusServiceUnavailable))
		return
	}

	pagination, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListProducts(ctx, pagination)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProduct(ctx, strings.TrimSpace(chi.URLParam(r, "idOrSlug")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

// Payloads -------------------------------------------------------------------

type serviceListResponse struct {
	Items         []servicePayload `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type servicePayload struct {
	ID          string                   `json:"id"`
	Slug        string                   `json:"slug"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Packages    []packageSnapshotPayload `json:"packages"`
	CreatedAt   string                   `json:"created_at"`
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type productPayload struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	PreviewURL  string `json:"preview_url,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func buildServicePayload(svc services.Service) servicePayload {
	packages := make([]packageSnapshotPayload, 0, len(svc.Packages))
	for _, pkg := range svc.Packages {
		packages = append(packages, packageSnapshotPayload{
			ID:           pkg.ID,
			Name:         pkg.Name,
			Description:  pkg.Description,
			Features:     pkg.Features,
			DurationDays: pkg.DurationDays,
			Price:        pkg.Price,
		})
	}
	return servicePayload{
		ID:          svc.ID,
		Slug:        svc.Slug,
		Name:        svc.Name,
		Description: svc.Description,
		Packages:    packages,
		CreatedAt:   formatTime(svc.CreatedAt),
	}
}

func buildProductPayload(product services.Product) productPayload {
	return productPayload{
		ID:          product.ID,
		Slug:        product.Slug,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		PreviewURL:  product.PreviewURL,
		CreatedAt:   formatTime(product.CreatedAt),
	}
}
