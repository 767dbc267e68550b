package domain

import "time"

// BankConfig holds the bank transfer destination shown at checkout
type BankConfig struct {
	BankName       string     `json:"bank_name,omitempty"`
	AccountNumber  string     `json:"account_number,omitempty"`
	AccountHolder  string     `json:"account_holder,omitempty"`
	AccountType    string     `json:"account_type,omitempty"`
	Identification string     `json:"identification,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Configured reports whether payment instructions can be shown
func (b *BankConfig) Configured() bool {
	return b != nil && b.BankName != "" && b.AccountNumber != ""
}

// CompanyConfig holds the business identity printed on documents
type CompanyConfig struct {
	Name           string     `json:"name,omitempty"`
	Address        string     `json:"address,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Email          string     `json:"email,omitempty"`
	RIF            string     `json:"rif,omitempty"`
	LogoURL        string     `json:"logo_url,omitempty"`
	WhatsAppNumber string     `json:"whatsapp_number,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
