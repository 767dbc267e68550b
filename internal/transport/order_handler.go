package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"autoparts/internal/domain"
	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateOrderRequest is an order submitted with explicit lines and total
type CreateOrderRequest struct {
	CustomerName    string                  `json:"customer_name"`
	CustomerEmail   string                  `json:"customer_email"`
	CustomerPhone   string                  `json:"customer_phone"`
	Items           []domain.OrderItem      `json:"items"`
	Total           *decimal.Decimal        `json:"total"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                  `json:"payment_method"`
	Source          string                  `json:"source"`
	Notes           string                  `json:"notes"`
}

// ExternalOrderRequest imports a marketplace order
type ExternalOrderRequest struct {
	Platform        string                  `json:"platform" validate:"required"`
	ExternalOrderID string                  `json:"external_order_id" validate:"required"`
	CustomerName    string                  `json:"customer_name"`
	CustomerEmail   string                  `json:"customer_email"`
	CustomerPhone   string                  `json:"customer_phone"`
	Items           []domain.OrderItem      `json:"items"`
	Total           *decimal.Decimal        `json:"total"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address"`
	Notes           string                  `json:"notes"`
}

// UpdateOrderRequest patches an order; absent fields are left alone
type UpdateOrderRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
	Notes         *string `json:"notes"`
}

// OrderHandler serves the order lifecycle
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes mounts the order endpoints. Customers may place an order and
// look it up by its token; listing, updating and imports are admin only.
func (h *OrderHandler) RegisterRoutes(r chi.Router, adminOnly, idempotent func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.With(idempotent).Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/pdf", h.Document)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", h.List)
			r.With(idempotent).Post("/external", h.CreateExternal)
			r.Put("/{id}", h.Update)
		})
	})
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	order, err := h.orders.Create(r.Context(), service.CreateOrderInput{
		Customer: domain.CustomerInfo{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Items:           req.Items,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Source:          req.Source,
		Notes:           req.Notes,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"order": order})
}

func (h *OrderHandler) CreateExternal(w http.ResponseWriter, r *http.Request) {
	var req ExternalOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	order, err := h.orders.CreateExternal(r.Context(), service.ExternalOrderInput{
		Platform:        req.Platform,
		ExternalOrderID: req.ExternalOrderID,
		Customer: domain.CustomerInfo{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Items:           req.Items,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"order": order})
}

// List handles GET /api/orders?status&payment_status&source&sort&start_date&end_date
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilter(r)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"orders": orders})
}

// Get accepts either the public order token or the numeric id
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"order": order})
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var patch domain.OrderPatch
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}
	if req.PaymentStatus != nil {
		paymentStatus := domain.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &paymentStatus
	}
	patch.Notes = req.Notes

	order, err := h.orders.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"order": order})
}

// Document handles GET /api/orders/{id}/pdf?doc_type=ticket|delivery
func (h *OrderHandler) Document(w http.ResponseWriter, r *http.Request) {
	kind := domain.DocumentKind(r.URL.Query().Get("doc_type"))

	doc, err := h.orders.Document(r.Context(), chi.URLParam(r, "id"), kind)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		h.logger.Warn("Failed to write order document", zap.String("filename", doc.Filename), zap.Error(err))
	}
}

func orderFilter(r *http.Request) (domain.OrderFilter, error) {
	var filter domain.OrderFilter
	q := r.URL.Query()
	verr := &domain.ValidationError{}

	if raw := q.Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !status.Valid() {
			verr.Add("status", fmt.Sprintf("unknown status %q", raw))
		}
		filter.Status = &status
	}
	if raw := q.Get("payment_status"); raw != "" {
		paymentStatus := domain.PaymentStatus(raw)
		if !paymentStatus.Valid() {
			verr.Add("payment_status", fmt.Sprintf("unknown payment status %q", raw))
		}
		filter.PaymentStatus = &paymentStatus
	}
	if raw := q.Get("source"); raw != "" {
		filter.Source = &raw
	}

	ascending, err := sortAscending(r)
	if err != nil {
		return filter, err
	}
	filter.Ascending = ascending

	from, to, err := dateRange(r)
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to

	return filter, verr.OrNil()
}
