package transport

import (
	"net/http"

	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SubscribeRequest adds an email to the newsletter list
type SubscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
	Active *bool  `json:"is_active"`
}

// SubscriberHandler serves the newsletter list
type SubscriberHandler struct {
	subscribers service.SubscriberService
	logger      *zap.Logger
}

func NewSubscriberHandler(subscribers service.SubscriberService, logger *zap.Logger) *SubscriberHandler {
	return &SubscriberHandler{subscribers: subscribers, logger: logger}
}

func (h *SubscriberHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Post("/api/subscribers", h.Subscribe)
	r.With(adminOnly).Get("/api/subscribers", h.List)
}

// Subscribe succeeds for repeat emails too, without storing a second row
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.subscribers.Subscribe(r.Context(), service.SubscribeInput{Email: req.Email, Source: req.Source, Active: req.Active})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	if result.AlreadySubscribed {
		respondMessage(w, http.StatusOK, "already subscribed")
		return
	}
	respond(w, http.StatusCreated, envelope{"message": "subscribed", "subscriber": result.Subscriber})
}

// List handles GET /api/subscribers?sort=asc|desc
func (h *SubscriberHandler) List(w http.ResponseWriter, r *http.Request) {
	ascending, err := sortAscending(r)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	subscribers, err := h.subscribers.List(r.Context(), ascending)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"subscribers": subscribers})
}
