package transport

import (
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the create and update payload for a product
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url,max=500"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  uuid.MustParse(req.CategoryID),
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}
}

// ProductHandler serves /api/product
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the public reads and the admin-only writes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/product", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/category/{categoryID}", h.ListByCategory)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin(h.logger))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List supports page, page_size, sort and order query parameters. The
// unpaged total is returned in X-Total-Count.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	products, total, err := h.catalog.ListProducts(r.Context(), opts)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	setTotalCount(w, total)
	middleware.RespondWithJSON(w, http.StatusOK, newProductList(products))
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		return repository.ListOptions{}, err
	}
	opts := repository.ListOptions{Page: page, PageSize: pageSize}

	q := r.URL.Query()
	if sortBy := q.Get("sort"); sortBy != "" {
		if !repository.IsValidSortField(sortBy) {
			return opts, ErrInvalidQuery
		}
		opts.SortBy = sortBy
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
		opts.SortOrder = repository.SortOrderAsc
	case "desc":
		opts.SortOrder = repository.SortOrderDesc
	default:
		return opts, ErrInvalidQuery
	}

	return opts, nil
}

// Search matches q against product names and descriptions
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	products, total, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	setTotalCount(w, total)
	middleware.RespondWithJSON(w, http.StatusOK, newProductList(products))
}

func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	products, err := h.catalog.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductList(products))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Delete refuses products that appear on any order
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
