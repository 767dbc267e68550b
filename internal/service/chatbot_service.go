package service

import (
	"context"
	"strings"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/repository"
)

// ChatbotObserver is told whether each query matched a keyword
type ChatbotObserver interface {
	ChatbotQuery(matched bool)
}

// ChatbotInput carries the writable fields of a canned response
type ChatbotInput struct {
	Keywords         []string
	Response         string
	RedirectWhatsApp bool
	Active           *bool
}

// ChatbotService manages canned responses and answers customer messages
type ChatbotService interface {
	List(ctx context.Context) ([]*domain.ChatbotResponse, error)
	Create(ctx context.Context, in ChatbotInput) (*domain.ChatbotResponse, error)
	Update(ctx context.Context, id int64, in ChatbotInput) (*domain.ChatbotResponse, error)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, message string) (*domain.ChatbotReply, error)
}

type chatbotService struct {
	responses repository.ChatbotRepository
	settings  repository.SettingsRepository
	observer  ChatbotObserver
}

// NewChatbotService creates a new instance of ChatbotService. observer may be nil.
func NewChatbotService(responses repository.ChatbotRepository, settings repository.SettingsRepository, observer ChatbotObserver) ChatbotService {
	return &chatbotService{responses: responses, settings: settings, observer: observer}
}

func (s *chatbotService) List(ctx context.Context) ([]*domain.ChatbotResponse, error) {
	return s.responses.List(ctx, false)
}

func (s *chatbotService) Create(ctx context.Context, in ChatbotInput) (*domain.ChatbotResponse, error) {
	response := &domain.ChatbotResponse{}
	if err := applyChatbotInput(response, in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	response.CreatedAt = now
	response.UpdatedAt = now

	if err := s.responses.Create(ctx, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *chatbotService) Update(ctx context.Context, id int64, in ChatbotInput) (*domain.ChatbotResponse, error) {
	response, err := s.responses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyChatbotInput(response, in); err != nil {
		return nil, err
	}
	response.UpdatedAt = time.Now().UTC()

	if err := s.responses.Update(ctx, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *chatbotService) Delete(ctx context.Context, id int64) error {
	return s.responses.Delete(ctx, id)
}

// Query returns the first active response, in creation order, with a keyword
// contained in the message. Unmatched messages get the fallback text.
func (s *chatbotService) Query(ctx context.Context, message string) (*domain.ChatbotReply, error) {
	company, err := s.settings.GetCompany(ctx)
	if err != nil {
		return nil, err
	}

	responses, err := s.responses.List(ctx, true)
	if err != nil {
		return nil, err
	}

	for _, r := range responses {
		if !r.Matches(message) {
			continue
		}
		s.observe(true)
		reply := &domain.ChatbotReply{Response: r.Response, RedirectWhatsApp: r.RedirectWhatsApp}
		if r.RedirectWhatsApp {
			reply.WhatsAppNumber = company.WhatsAppNumber
		}
		return reply, nil
	}

	s.observe(false)
	return &domain.ChatbotReply{
		Response:         domain.ChatbotFallbackResponse,
		RedirectWhatsApp: true,
		WhatsAppNumber:   company.WhatsAppNumber,
	}, nil
}

func (s *chatbotService) observe(matched bool) {
	if s.observer != nil {
		s.observer.ChatbotQuery(matched)
	}
}

func applyChatbotInput(r *domain.ChatbotResponse, in ChatbotInput) error {
	verr := &domain.ValidationError{}

	keywords := make([]string, 0, len(in.Keywords))
	for _, kw := range in.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		verr.Add("keywords", "at least one keyword is required")
	}

	text := strings.TrimSpace(in.Response)
	if text == "" {
		verr.Add("response", "response text is required")
	}

	if err := verr.OrNil(); err != nil {
		return err
	}

	r.Keywords = keywords
	r.Response = text
	r.RedirectWhatsApp = in.RedirectWhatsApp
	r.Active = true
	if in.Active != nil {
		r.Active = *in.Active
	}
	return nil
}
