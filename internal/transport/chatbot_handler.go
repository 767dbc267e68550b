package transport

import (
	"net/http"

	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChatbotResponseRequest creates or replaces a canned response
type ChatbotResponseRequest struct {
	Keywords         []string `json:"keywords" validate:"required,min=1"`
	Response         string   `json:"response" validate:"required"`
	RedirectWhatsApp bool     `json:"redirect_whatsapp"`
	Active           *bool    `json:"active"`
}

func (c ChatbotResponseRequest) input() service.ChatbotInput {
	return service.ChatbotInput{
		Keywords:         c.Keywords,
		Response:         c.Response,
		RedirectWhatsApp: c.RedirectWhatsApp,
		Active:           c.Active,
	}
}

// ChatbotQueryRequest is a customer message
type ChatbotQueryRequest struct {
	Message string `json:"message"`
}

// ChatbotHandler serves the keyword chatbot
type ChatbotHandler struct {
	chatbot service.ChatbotService
	logger  *zap.Logger
}

func NewChatbotHandler(chatbot service.ChatbotService, logger *zap.Logger) *ChatbotHandler {
	return &ChatbotHandler{chatbot: chatbot, logger: logger}
}

func (h *ChatbotHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/chatbot", func(r chi.Router) {
		r.Post("/query", h.Query)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/responses", h.List)
			r.Post("/responses", h.Create)
			r.Put("/responses/{id}", h.Update)
			r.Delete("/responses/{id}", h.Delete)
		})
	})
}

func (h *ChatbotHandler) List(w http.ResponseWriter, r *http.Request) {
	responses, err := h.chatbot.List(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"responses": responses})
}

func (h *ChatbotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ChatbotResponseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	response, err := h.chatbot.Create(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"response": response})
}

func (h *ChatbotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req ChatbotResponseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	response, err := h.chatbot.Update(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"response": response})
}

func (h *ChatbotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.chatbot.Delete(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "response deleted")
}

// Query answers a customer message with the first matching canned response
func (h *ChatbotHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req ChatbotQueryRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	reply, err := h.chatbot.Query(r.Context(), req.Message)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"response":          reply.Response,
		"redirect_whatsapp": reply.RedirectWhatsApp,
		"whatsapp_number":   reply.WhatsAppNumber,
	})
}
