package service

import (
	"context"
	"strings"

	"autoparts/internal/domain"
	"autoparts/internal/repository"
)

// SettingsService reads and overwrites the bank and company records
type SettingsService interface {
	GetBank(ctx context.Context) (*domain.BankConfig, error)
	UpdateBank(ctx context.Context, cfg domain.BankConfig) (*domain.BankConfig, error)
	GetCompany(ctx context.Context) (*domain.CompanyConfig, error)
	UpdateCompany(ctx context.Context, cfg domain.CompanyConfig) (*domain.CompanyConfig, error)
}

type settingsService struct {
	settings repository.SettingsRepository
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(settings repository.SettingsRepository) SettingsService {
	return &settingsService{settings: settings}
}

func (s *settingsService) GetBank(ctx context.Context) (*domain.BankConfig, error) {
	return s.settings.GetBank(ctx)
}

// UpdateBank replaces every bank field; omitted fields are cleared
func (s *settingsService) UpdateBank(ctx context.Context, cfg domain.BankConfig) (*domain.BankConfig, error) {
	cfg.BankName = strings.TrimSpace(cfg.BankName)
	cfg.AccountNumber = strings.TrimSpace(cfg.AccountNumber)
	cfg.AccountHolder = strings.TrimSpace(cfg.AccountHolder)
	cfg.AccountType = strings.TrimSpace(cfg.AccountType)
	cfg.Identification = strings.TrimSpace(cfg.Identification)
	cfg.Phone = strings.TrimSpace(cfg.Phone)

	if err := s.settings.SaveBank(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *settingsService) GetCompany(ctx context.Context) (*domain.CompanyConfig, error) {
	return s.settings.GetCompany(ctx)
}

// UpdateCompany replaces every company field; omitted fields are cleared
func (s *settingsService) UpdateCompany(ctx context.Context, cfg domain.CompanyConfig) (*domain.CompanyConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.WhatsAppNumber = strings.TrimSpace(cfg.WhatsAppNumber)
	cfg.Email = strings.TrimSpace(cfg.Email)

	if err := s.settings.SaveCompany(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
