package billing

import (
	"strings"

	"github.com/gestionale/backend/internal/domain/shared"
)

// Customer carries the billing-relevant identity of a local customer.
// Read-only to the invoicing subsystem.
type Customer struct {
	shared.TenantEntity
	CompanyName    string
	FirstName      string
	SecondName     string
	VATNumber      string
	FiscalCode     string
	Address        string
	City           string
	Province       string
	PostalCode     string
	Country        string
	CertifiedEmail string
	SDICode        string
	Email          string
	Phone          string
}

// BillingName returns the buyer entity name: company name when present,
// else the personal name.
func (c *Customer) BillingName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.SecondName)
}

// TaxCode returns the fiscal code, falling back to the VAT number
func (c *Customer) TaxCode() string {
	if c.FiscalCode != "" {
		return c.FiscalCode
	}
	return c.VATNumber
}

// BillingCountry returns the postal country, defaulting to Italia
func (c *Customer) BillingCountry() string {
	if c.Country != "" {
		return c.Country
	}
	return "Italia"
}
