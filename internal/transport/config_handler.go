package transport

import (
	"net/http"

	"autoparts/internal/domain"
	"autoparts/internal/middleware"
	"autoparts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BankConfigRequest replaces the bank transfer details
type BankConfigRequest struct {
	BankName       string `json:"bank_name" validate:"required"`
	AccountNumber  string `json:"account_number" validate:"required"`
	AccountHolder  string `json:"account_holder" validate:"required"`
	AccountType    string `json:"account_type" validate:"required"`
	Identification string `json:"identification"`
	Phone          string `json:"phone"`
}

// CompanyConfigRequest replaces the company profile
type CompanyConfigRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	RIF            string `json:"rif"`
	LogoURL        string `json:"logo_url"`
	WhatsAppNumber string `json:"whatsapp_number"`
}

// ConfigHandler serves the bank and company singletons
type ConfigHandler struct {
	settings service.SettingsService
	logger   *zap.Logger
}

func NewConfigHandler(settings service.SettingsService, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{settings: settings, logger: logger}
}

// RegisterRoutes mounts the config endpoints. Reads are public because the
// checkout page shows the bank details.
func (h *ConfigHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/config", func(r chi.Router) {
		r.Get("/bank", h.GetBank)
		r.Get("/company", h.GetCompany)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Put("/bank", h.UpdateBank)
			r.Put("/company", h.UpdateCompany)
		})
	})
}

func (h *ConfigHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.settings.GetBank(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"config": bank})
}

func (h *ConfigHandler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	var req BankConfigRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	bank, err := h.settings.UpdateBank(r.Context(), domain.BankConfig{
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		AccountHolder:  req.AccountHolder,
		AccountType:    req.AccountType,
		Identification: req.Identification,
		Phone:          req.Phone,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Bank configuration updated")
	respond(w, http.StatusOK, envelope{"config": bank})
}

func (h *ConfigHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.settings.GetCompany(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, envelope{"config": company})
}

func (h *ConfigHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyConfigRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	company, err := h.settings.UpdateCompany(r.Context(), domain.CompanyConfig{
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		RIF:            req.RIF,
		LogoURL:        req.LogoURL,
		WhatsAppNumber: req.WhatsAppNumber,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Company configuration updated")
	respond(w, http.StatusOK, envelope{"config": company})
}
