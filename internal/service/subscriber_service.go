package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/repository"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SubscribeResult tells whether the email was already on the list
type SubscribeResult struct {
	Subscriber        *domain.Subscriber
	AlreadySubscribed bool
}

// SubscribeInput is a newsletter sign-up. A nil Active stores an active
// subscriber.
type SubscribeInput struct {
	Email  string
	Source string
	Active *bool
}

// SubscriberService manages the newsletter list
type SubscriberService interface {
	Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error)
	List(ctx context.Context, ascending bool) ([]*domain.Subscriber, error)
}

type subscriberService struct {
	subscribers repository.SubscriberRepository
}

// NewSubscriberService creates a new instance of SubscriberService
func NewSubscriberService(subscribers repository.SubscriberRepository) SubscriberService {
	return &subscriberService{subscribers: subscribers}
}

// Subscribe adds the email; subscribing twice succeeds without a second row
func (s *subscriberService) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewValidationError("email", "a valid email is required")
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = domain.DefaultSubscriberSource
	}

	subscriber := &domain.Subscriber{
		Email:        email,
		Source:       source,
		Active:       in.Active == nil || *in.Active,
		SubscribedAt: time.Now().UTC(),
	}

	if err := s.subscribers.Create(ctx, subscriber); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return &SubscribeResult{AlreadySubscribed: true}, nil
		}
		return nil, err
	}

	return &SubscribeResult{Subscriber: subscriber}, nil
}

func (s *subscriberService) List(ctx context.Context, ascending bool) ([]*domain.Subscriber, error) {
	return s.subscribers.List(ctx, ascending)
}
