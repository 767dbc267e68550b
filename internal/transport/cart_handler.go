package transport

import (
	"net/http"

	"autoparts/internal/domain"
	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddToCartRequest adds a product to an anonymous session cart. Name, image
// and price are snapshotted server side from the catalogue.
type AddToCartRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	SaleType  string `json:"sale_type" validate:"omitempty,oneof=detal mayor"`
}

// UpdateCartRequest sets a line quantity; zero or less removes the line
type UpdateCartRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartHandler serves session carts
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// RegisterRoutes mounts the cart endpoints. Carts are keyed by an opaque
// client session id, so none of them require a login.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/", h.Add)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Remove)
		r.Delete("/session/{sessionID}", h.Clear)
	})
}

// Get handles GET /api/cart?session_id=...
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.Get(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"items": lines})
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	line, err := h.carts.Add(r.Context(), service.AddToCartInput{
		SessionID: req.SessionID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		SaleType:  domain.SaleType(req.SaleType),
	})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"item": line})
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req UpdateCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	line, err := h.carts.UpdateQuantity(r.Context(), id, *req.Quantity)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	if line == nil {
		respondMessage(w, http.StatusOK, "item removed from cart")
		return
	}
	respond(w, http.StatusOK, envelope{"item": line})
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.carts.Remove(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "item removed from cart")
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.carts.Clear(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "cart cleared", "removed": removed})
}
