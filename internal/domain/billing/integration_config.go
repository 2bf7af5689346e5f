package billing

import (
	"github.com/shopspring/decimal"

	"github.com/gestionale/backend/internal/domain/shared"
)

// DocumentType is the kind of document created at the provider
type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "invoice"
	DocumentTypeProforma DocumentType = "proforma"
)

// DefaultVATRate is the VAT rate applied when the configuration carries none
var DefaultVATRate = decimal.NewFromInt(22)

// IntegrationConfig is the per-tenant configuration of the invoicing
// provider integration. The API token is a secret: it crosses the network
// only inside the provider client and must never be logged.
type IntegrationConfig struct {
	shared.TenantEntity
	Enabled        bool
	CompanyID      string
	APIToken       string
	DefaultVATRate decimal.Decimal
	DocumentType   DocumentType
}

// VATRate returns the configured VAT rate, defaulting to 22 percent
func (c *IntegrationConfig) VATRate() decimal.Decimal {
	if c.DefaultVATRate.IsPositive() {
		return c.DefaultVATRate
	}
	return DefaultVATRate
}

// ValidateForUpload checks that the configuration allows talking to the
// provider. Both checks fail fast, before any network call.
func (c *IntegrationConfig) ValidateForUpload() error {
	if !c.Enabled {
		return ErrIntegrationDisabled
	}
	if c.APIToken == "" || c.CompanyID == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Credentials returns the provider credentials held by the configuration
func (c *IntegrationConfig) Credentials() ProviderCredentials {
	return ProviderCredentials{
		CompanyID:   c.CompanyID,
		AccessToken: c.APIToken,
	}
}
