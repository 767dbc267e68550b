package transport

import (
	"net/http"
	"strconv"

	"autoparts/internal/domain"
	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the writable product payload. PUT replaces the whole
// product, so omitted fields go back to their defaults.
type ProductRequest struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	PriceWholesale  *decimal.Decimal `json:"price_wholesale"`
	ImageURL        string           `json:"image_url"`
	Category        string           `json:"category"`
	Inventory       *int             `json:"inventory"`
	Featured        bool             `json:"featured"`
	SaleType        string           `json:"sale_type"`
	MinWholesaleQty *int             `json:"min_wholesale_qty"`
}

func (p ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		PriceWholesale:  p.PriceWholesale,
		ImageURL:        p.ImageURL,
		Category:        p.Category,
		Inventory:       p.Inventory,
		Featured:        p.Featured,
		SaleType:        p.SaleType,
		MinWholesaleQty: p.MinWholesaleQty,
	}
}

// ProductHandler serves the catalogue
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes mounts the catalogue; writes are admin only
func (h *ProductHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /api/products?category&sale_type&featured
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	products, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"products": products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"product": product})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.Create(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	respond(w, http.StatusCreated, envelope{"product": product})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req ProductRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.Update(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"product": product})
}

// Delete removes the product and every cart line pointing at it
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	respondMessage(w, http.StatusOK, "product deleted")
}

// productFilter maps the query string; "all" or empty means no filter
func productFilter(r *http.Request) (domain.ProductFilter, error) {
	var filter domain.ProductFilter
	q := r.URL.Query()
	verr := &domain.ValidationError{}

	if raw := q.Get("category"); raw != "" && raw != "all" {
		category := domain.Category(raw)
		if !category.Valid() {
			verr.Add("category", "unknown category")
		}
		filter.Category = &category
	}
	if raw := q.Get("sale_type"); raw != "" && raw != "all" {
		saleType := domain.SaleType(raw)
		if !saleType.Valid() {
			verr.Add("sale_type", "unknown sale type")
		}
		filter.SaleType = &saleType
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("featured", "featured must be true or false")
		}
		filter.Featured = &featured
	}

	return filter, verr.OrNil()
}
