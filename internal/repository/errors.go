package repository

import (
	"fmt"

	"autoparts/internal/domain"
)

// Entity sentinels wrap the domain kinds so callers can match either
var (
	ErrProductNotFound      = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrCartLineNotFound     = fmt.Errorf("cart item %w", domain.ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrOrderTokenTaken      = fmt.Errorf("order id already used: %w", domain.ErrConflict)
	ErrChatbotNotFound      = fmt.Errorf("chatbot response %w", domain.ErrNotFound)
	ErrSubscriberExists     = fmt.Errorf("subscriber already exists: %w", domain.ErrConflict)
	ErrUserNotFound         = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrUserAlreadyExists    = fmt.Errorf("user with this email already exists: %w", domain.ErrConflict)
	ErrRefreshTokenNotFound = fmt.Errorf("refresh token %w", domain.ErrNotFound)
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}
