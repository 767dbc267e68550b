package transport

import (
	"net/http"

	"autoparts/internal/domain"
	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutRequest turns the session cart into an order. Prices and the total
// are computed from the stored cart, never taken from the client.
type CheckoutRequest struct {
	SessionID       string                  `json:"session_id" validate:"required"`
	CustomerName    string                  `json:"customer_name" validate:"required"`
	CustomerEmail   string                  `json:"customer_email" validate:"required,email"`
	CustomerPhone   string                  `json:"customer_phone"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   string                  `json:"payment_method"`
	Notes           string                  `json:"notes"`
	Subscribe       bool                    `json:"subscribe"`
}

// CheckoutHandler serves the cart quote and checkout
type CheckoutHandler struct {
	checkout service.CheckoutService
	settings service.SettingsService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout service.CheckoutService, settings service.SettingsService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, settings: settings, logger: logger}
}

// RegisterRoutes mounts the checkout endpoints. idempotent wraps the
// order-creating POST.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, idempotent func(http.Handler) http.Handler) {
	r.Get("/api/checkout/quote", h.Quote)
	r.With(idempotent).Post("/api/checkout", h.Checkout)
}

// Quote handles GET /api/checkout/quote?session_id=...
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.checkout.Quote(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"quote": quote})
}

// Checkout creates the order, clears the cart and returns the bank transfer
// details to show on the confirmation page.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.checkout.Checkout(r.Context(), service.CheckoutInput{
		SessionID: req.SessionID,
		Customer: domain.CustomerInfo{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		Subscribe:       req.Subscribe,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	body := envelope{
		"order":        result.Order,
		"quote":        result.Quote,
		"cart_cleared": result.CartCleared,
		"subscribed":   result.Subscribed,
	}
	bank, err := h.settings.GetBank(r.Context())
	if err != nil {
		h.logger.Warn("Failed to load bank details for checkout confirmation", zap.Error(err))
	} else if bank.Configured() {
		body["payment_instructions"] = bank
	}

	respond(w, http.StatusCreated, body)
}
