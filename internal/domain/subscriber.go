package domain

import "time"

const DefaultSubscriberSource = "website"

// Subscriber is a newsletter email
type Subscriber struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Source       string    `json:"source" db:"source"`
	Active       bool      `json:"is_active" db:"active"`
	SubscribedAt time.Time `json:"subscribed_at" db:"subscribed_at"`
}
