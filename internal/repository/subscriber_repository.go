package repository

import (
	"context"
	"fmt"

	"autoparts/internal/database"
	"autoparts/internal/domain"
)

// SubscriberRepository defines the interface for newsletter subscriber data access
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *domain.Subscriber) error
	List(ctx context.Context, ascending bool) ([]*domain.Subscriber, error)
	CountActive(ctx context.Context) (int, error)
}

type subscriberRepository struct {
	db *database.DB
}

// NewSubscriberRepository creates a new instance of SubscriberRepository
func NewSubscriberRepository(db *database.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

// Create inserts a subscriber; a duplicate email yields ErrSubscriberExists
func (r *subscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	query := `
		INSERT INTO subscribers (email, source, active, subscribed_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.Get(ctx, query, subscriber.Email, subscriber.Source, subscriber.Active, subscriber.SubscribedAt).
		Scan(&subscriber.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSubscriberExists
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	return nil
}

func (r *subscriberRepository) List(ctx context.Context, ascending bool) ([]*domain.Subscriber, error) {
	query := `SELECT id, email, source, active, subscribed_at FROM subscribers`
	if ascending {
		query += " ORDER BY subscribed_at ASC, id ASC"
	} else {
		query += " ORDER BY subscribed_at DESC, id DESC"
	}

	rows, err := r.db.All(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []*domain.Subscriber{}
	for rows.Next() {
		s := &domain.Subscriber{}
		if err := rows.Scan(&s.ID, &s.Email, &s.Source, &s.Active, &s.SubscribedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return subscribers, nil
}

func (r *subscriberRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.Get(ctx, `SELECT COUNT(*) FROM subscribers WHERE active = ?`, true).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return total, nil
}
