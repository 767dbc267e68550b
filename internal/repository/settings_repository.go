package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"autoparts/internal/database"
	"autoparts/internal/domain"
)

// singletonID is the only row id the config tables accept
const singletonID = 1

// SettingsRepository stores the bank and company singleton records
type SettingsRepository interface {
	GetBank(ctx context.Context) (*domain.BankConfig, error)
	SaveBank(ctx context.Context, cfg *domain.BankConfig) error
	GetCompany(ctx context.Context) (*domain.CompanyConfig, error)
	SaveCompany(ctx context.Context, cfg *domain.CompanyConfig) error
}

type settingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *database.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetBank returns the bank record, or an empty one when none was saved
func (r *settingsRepository) GetBank(ctx context.Context) (*domain.BankConfig, error) {
	query := `
		SELECT bank_name, account_number, account_holder, account_type, identification, phone, updated_at
		FROM bank_config WHERE id = ?
	`

	cfg := &domain.BankConfig{}
	var updatedAt time.Time
	err := r.db.Get(ctx, query, singletonID).Scan(
		&cfg.BankName,
		&cfg.AccountNumber,
		&cfg.AccountHolder,
		&cfg.AccountType,
		&cfg.Identification,
		&cfg.Phone,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.BankConfig{}, nil
		}
		return nil, fmt.Errorf("failed to get bank config: %w", err)
	}

	cfg.UpdatedAt = &updatedAt
	return cfg, nil
}

// SaveBank overwrites the whole bank record
func (r *settingsRepository) SaveBank(ctx context.Context, cfg *domain.BankConfig) error {
	query := `
		INSERT INTO bank_config (id, bank_name, account_number, account_holder, account_type, identification, phone, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			bank_name = excluded.bank_name,
			account_number = excluded.account_number,
			account_holder = excluded.account_holder,
			account_type = excluded.account_type,
			identification = excluded.identification,
			phone = excluded.phone,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := r.db.Run(ctx, query, singletonID, cfg.BankName, cfg.AccountNumber, cfg.AccountHolder,
		cfg.AccountType, cfg.Identification, cfg.Phone, now)
	if err != nil {
		return fmt.Errorf("failed to save bank config: %w", err)
	}

	cfg.UpdatedAt = &now
	return nil
}

// GetCompany returns the company record, or an empty one when none was saved
func (r *settingsRepository) GetCompany(ctx context.Context) (*domain.CompanyConfig, error) {
	query := `
		SELECT name, address, phone, email, rif, logo_url, whatsapp_number, updated_at
		FROM company_config WHERE id = ?
	`

	cfg := &domain.CompanyConfig{}
	var updatedAt time.Time
	err := r.db.Get(ctx, query, singletonID).Scan(
		&cfg.Name,
		&cfg.Address,
		&cfg.Phone,
		&cfg.Email,
		&cfg.RIF,
		&cfg.LogoURL,
		&cfg.WhatsAppNumber,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.CompanyConfig{}, nil
		}
		return nil, fmt.Errorf("failed to get company config: %w", err)
	}

	cfg.UpdatedAt = &updatedAt
	return cfg, nil
}

// SaveCompany overwrites the whole company record
func (r *settingsRepository) SaveCompany(ctx context.Context, cfg *domain.CompanyConfig) error {
	query := `
		INSERT INTO company_config (id, name, address, phone, email, rif, logo_url, whatsapp_number, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			phone = excluded.phone,
			email = excluded.email,
			rif = excluded.rif,
			logo_url = excluded.logo_url,
			whatsapp_number = excluded.whatsapp_number,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := r.db.Run(ctx, query, singletonID, cfg.Name, cfg.Address, cfg.Phone, cfg.Email,
		cfg.RIF, cfg.LogoURL, cfg.WhatsAppNumber, now)
	if err != nil {
		return fmt.Errorf("failed to save company config: %w", err)
	}

	cfg.UpdatedAt = &now
	return nil
}
