package transport

import (
	"net/http"

	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler serves the admin dashboard figures
type ReportHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewReportHandler(orders service.OrderService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{orders: orders, logger: logger}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/api/stats", h.Stats)
		r.Get("/api/reports/sales", h.Sales)
	})
}

func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"stats": stats})
}

// Sales handles GET /api/reports/sales?start_date&end_date (inclusive days)
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	report, err := h.orders.SalesReport(r.Context(), from, to)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"report": report})
}
