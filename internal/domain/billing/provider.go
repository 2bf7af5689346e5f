package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProviderCredentials are the per-request credentials for the provider API.
// They are held transiently: built from an IntegrationConfig right before a
// call and never stored by the client.
type ProviderCredentials struct {
	CompanyID   string
	AccessToken string
}

// InvoicePayload is the provider-schema invoice document. It is transient:
// constructed per upload attempt, never persisted.
type InvoicePayload struct {
	DocumentType DocumentType     `json:"type"`
	Subject      string           `json:"subject"`
	NetAmount    decimal.Decimal  `json:"amount_net"`
	VATAmount    decimal.Decimal  `json:"amount_vat"`
	Entity       InvoiceEntity    `json:"entity"`
	IssueDate    string           `json:"date"`
	NextDueDate  string           `json:"next_due_date"`
	Items        []InvoiceItem    `json:"items_list"`
	Payments     []InvoicePayment `json:"payments_list"`
}

// InvoiceEntity is the buyer block of an invoice document
type InvoiceEntity struct {
	Name           string `json:"name"`
	VATNumber      string `json:"vat_number"`
	TaxCode        string `json:"tax_code"`
	Address        string `json:"address_street"`
	City           string `json:"address_city"`
	Province       string `json:"address_province"`
	PostalCode     string `json:"address_postal_code"`
	Country        string `json:"country"`
	CertifiedEmail string `json:"certified_email"`
	SDICode        string `json:"ei_code"`
}

// InvoiceItem is a line item of an invoice document
type InvoiceItem struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"measure"`
	NetPrice      decimal.Decimal `json:"net_price"`
	GrossPrice    decimal.Decimal `json:"gross_price"`
	Quantity      int             `json:"qty"`
	VAT           InvoiceItemVAT  `json:"vat"`
}

// InvoiceItemVAT is the VAT block of a line item
type InvoiceItemVAT struct {
	Rate   decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoicePayment is an entry of the payments list of an invoice document
type InvoicePayment struct {
	Amount    decimal.Decimal `json:"amount"`
	DueDate   string          `json:"due_date"`
	TermsDays int             `json:"payment_terms_days"`
	Status    string          `json:"status"`
}

// DocumentResult is the provider's answer to a document creation
type DocumentResult struct {
	InvoiceID     string
	InvoiceNumber string
}

// ProviderClient is a customer record of the provider's client directory.
// Transient: fetched page by page, never persisted directly.
type ProviderClient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	VATNumber string `json:"vat_number"`
	Email     string `json:"email"`
	City      string `json:"city"`
}

// ClientPage is one page of the provider's client directory, carrying the
// provider's pagination metadata verbatim
type ClientPage struct {
	CurrentPage int              `json:"current_page"`
	LastPage    int              `json:"last_page"`
	PerPage     int              `json:"per_page"`
	Total       int              `json:"total"`
	From        int              `json:"from"`
	To          int              `json:"to"`
	Clients     []ProviderClient `json:"data"`
}

// InvoicingProvider is the port through which orchestrators reach the
// provider API. Implementations receive credentials per call and must not
// retain them.
type InvoicingProvider interface {
	// CreateDocument uploads one invoice document
	CreateDocument(ctx context.Context, creds ProviderCredentials, payload *InvoicePayload) (*DocumentResult, error)

	// ListClients fetches one page of the client directory. The search
	// term, when non-empty, restricts results to clients whose name
	// contains the term.
	ListClients(ctx context.Context, creds ProviderCredentials, page, perPage int, search string) (*ClientPage, error)

	// GetClient fetches a single client by id
	GetClient(ctx context.Context, creds ProviderCredentials, clientID string) (*ProviderClient, error)
}
