package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"autoparts/internal/database"
	"autoparts/internal/domain"
)

// ChatbotRepository defines the interface for canned chatbot responses
type ChatbotRepository interface {
	Create(ctx context.Context, response *domain.ChatbotResponse) error
	Update(ctx context.Context, response *domain.ChatbotResponse) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.ChatbotResponse, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.ChatbotResponse, error)
}

type chatbotRepository struct {
	db *database.DB
}

// NewChatbotRepository creates a new instance of ChatbotRepository
func NewChatbotRepository(db *database.DB) ChatbotRepository {
	return &chatbotRepository{db: db}
}

const chatbotColumns = `id, keywords, response, redirect_whatsapp, active, created_at, updated_at`

func (r *chatbotRepository) Create(ctx context.Context, response *domain.ChatbotResponse) error {
	keywords, err := encodeKeywords(response.Keywords)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chatbot_responses (keywords, response, redirect_whatsapp, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err = r.db.Get(ctx, query, keywords, response.Response, response.RedirectWhatsApp, response.Active,
		response.CreatedAt, response.UpdatedAt).Scan(&response.ID)
	if err != nil {
		return fmt.Errorf("failed to create chatbot response: %w", err)
	}

	return nil
}

func (r *chatbotRepository) Update(ctx context.Context, response *domain.ChatbotResponse) error {
	keywords, err := encodeKeywords(response.Keywords)
	if err != nil {
		return err
	}

	query := `
		UPDATE chatbot_responses
		SET keywords = ?, response = ?, redirect_whatsapp = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Run(ctx, query, keywords, response.Response, response.RedirectWhatsApp, response.Active,
		response.UpdatedAt, response.ID)
	if err != nil {
		return fmt.Errorf("failed to update chatbot response: %w", err)
	}

	return expectAffected(result, ErrChatbotNotFound)
}

func (r *chatbotRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Run(ctx, `DELETE FROM chatbot_responses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chatbot response: %w", err)
	}

	return expectAffected(result, ErrChatbotNotFound)
}

func (r *chatbotRepository) FindByID(ctx context.Context, id int64) (*domain.ChatbotResponse, error) {
	response, err := scanChatbotResponse(r.db.Get(ctx, `SELECT `+chatbotColumns+` FROM chatbot_responses WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatbotNotFound
		}
		return nil, fmt.Errorf("failed to find chatbot response: %w", err)
	}
	return response, nil
}

// List returns responses in creation order
func (r *chatbotRepository) List(ctx context.Context, activeOnly bool) ([]*domain.ChatbotResponse, error) {
	query := `SELECT ` + chatbotColumns + ` FROM chatbot_responses`
	var args []interface{}
	if activeOnly {
		query += " WHERE active = ?"
		args = append(args, true)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.All(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chatbot responses: %w", err)
	}
	defer rows.Close()

	responses := []*domain.ChatbotResponse{}
	for rows.Next() {
		response, err := scanChatbotResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chatbot response: %w", err)
		}
		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chatbot responses: %w", err)
	}

	return responses, nil
}

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	raw, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("failed to encode keywords: %w", err)
	}
	return string(raw), nil
}

func scanChatbotResponse(row rowScanner) (*domain.ChatbotResponse, error) {
	var (
		response domain.ChatbotResponse
		keywords string
	)

	err := row.Scan(
		&response.ID,
		&keywords,
		&response.Response,
		&response.RedirectWhatsApp,
		&response.Active,
		&response.CreatedAt,
		&response.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keywords), &response.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}

	return &response, nil
}
