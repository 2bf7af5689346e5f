package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestionale/backend/internal/domain/shared"
)

// ServiceType classifies the kind of service a contract sells
type ServiceType string

const (
	ServiceTypeSubscription ServiceType = "subscription"
	ServiceTypePackage      ServiceType = "package"
	ServiceTypeFreeTrial    ServiceType = "free_trial"
	ServiceTypeOther        ServiceType = "other"
)

// ParseServiceType normalizes a stored service type value.
// Legacy records carry Italian labels, so those are accepted too.
func ParseServiceType(value string) ServiceType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "subscription", "abbonamento":
		return ServiceTypeSubscription
	case "package", "pacchetto":
		return ServiceTypePackage
	case "free_trial", "free-trial", "prova_gratuita", "prova gratuita":
		return ServiceTypeFreeTrial
	default:
		return ServiceTypeOther
	}
}

// ItemCode returns the provider line-item code for the service type
func (t ServiceType) ItemCode() string {
	switch t {
	case ServiceTypeSubscription:
		return "SUB"
	case ServiceTypePackage:
		return "PKG"
	case ServiceTypeFreeTrial:
		return "TRL"
	default:
		return "SRV"
	}
}

// PaymentTerms is the payment-terms code attached to a contract
type PaymentTerms string

const (
	PaymentTermsImmediate PaymentTerms = "immediate"
	PaymentTermsNet15     PaymentTerms = "net_15"
	PaymentTermsNet30     PaymentTerms = "net_30"
	PaymentTermsNet45     PaymentTerms = "net_45"
	PaymentTermsNet60     PaymentTerms = "net_60"
)

// Days resolves the payment-terms code to a due-date offset in days.
// Unknown or missing codes fall back to net 30.
func (p PaymentTerms) Days() int {
	switch p {
	case PaymentTermsImmediate:
		return 0
	case PaymentTermsNet15:
		return 15
	case PaymentTermsNet30:
		return 30
	case PaymentTermsNet45:
		return 45
	case PaymentTermsNet60:
		return 60
	default:
		return 30
	}
}

// Contract identifies a sold service. It is owned by the record store and
// read-only to the invoicing subsystem.
type Contract struct {
	shared.TenantEntity
	CustomerID   uuid.UUID
	ServiceName  string
	ServiceType  ServiceType
	Cost         decimal.Decimal
	Currency     string
	StartDate    time.Time
	EndDate      *time.Time
	PaymentTerms PaymentTerms
	// MaxEntries overrides the billed quantity for package contracts
	MaxEntries *int
}

// DueDate returns the invoice due date for the contract
func (c *Contract) DueDate() time.Time {
	return c.StartDate.AddDate(0, 0, c.PaymentTerms.Days())
}

// BilledQuantity returns the line-item quantity for the contract.
// Package contracts bill a fixed quantity of 1 unless a max-entries figure
// is set. Subscription contracts bill the number of whole months between
// start and end date (month components, not elapsed days), floored at 1.
func (c *Contract) BilledQuantity() int {
	switch c.ServiceType {
	case ServiceTypePackage:
		if c.MaxEntries != nil && *c.MaxEntries > 0 {
			return *c.MaxEntries
		}
		return 1
	case ServiceTypeSubscription:
		if c.EndDate == nil {
			return 1
		}
		months := (c.EndDate.Year()-c.StartDate.Year())*12 + int(c.EndDate.Month()) - int(c.StartDate.Month())
		if months < 1 {
			return 1
		}
		return months
	default:
		return 1
	}
}
