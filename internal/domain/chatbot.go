package domain

import (
	"strings"
	"time"
)

const ChatbotFallbackResponse = "No entendí tu consulta. ¿Podrías ser más específico? También puedes contactar a nuestro equipo de ventas directamente."

// ChatbotResponse is a canned answer triggered by keywords
type ChatbotResponse struct {
	ID               int64     `json:"id" db:"id"`
	Keywords         []string  `json:"keywords" db:"keywords"`
	Response         string    `json:"response" db:"response"`
	RedirectWhatsApp bool      `json:"redirect_whatsapp" db:"redirect_whatsapp"`
	Active           bool      `json:"active" db:"active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Matches reports whether any keyword occurs in message, ignoring case
func (r *ChatbotResponse) Matches(message string) bool {
	lowered := strings.ToLower(message)
	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// ChatbotReply is the result of a chatbot query
type ChatbotReply struct {
	Response         string `json:"response"`
	RedirectWhatsApp bool   `json:"redirect_whatsapp"`
	WhatsAppNumber   string `json:"whatsapp_number"`
}
