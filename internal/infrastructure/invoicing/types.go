package invoicing

import (
	"encoding/json"

	"github.com/gestionale/backend/internal/domain/billing"
)

// documentEnvelope wraps an outgoing document the way the provider
// expects it
type documentEnvelope struct {
	Data *billing.InvoicePayload `json:"data"`
}

// createDocumentResponse is the provider's answer to a document creation
type createDocumentResponse struct {
	Data struct {
		ID     json.Number `json:"id"`
		Number string      `json:"number"`
	} `json:"data"`
}

// wireClient is a client record as the provider serializes it. IDs come
// back numeric; the domain carries them as strings.
type wireClient struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	VATNumber string      `json:"vat_number"`
	Email     string      `json:"email"`
	City      string      `json:"city"`
}

func (w wireClient) toDomain() billing.ProviderClient {
	return billing.ProviderClient{
		ID:        w.ID.String(),
		Name:      w.Name,
		VATNumber: w.VATNumber,
		Email:     w.Email,
		City:      w.City,
	}
}

// listClientsResponse is one page of the provider's client directory
type listClientsResponse struct {
	CurrentPage int          `json:"current_page"`
	LastPage    int          `json:"last_page"`
	PerPage     int          `json:"per_page"`
	Total       int          `json:"total"`
	From        int          `json:"from"`
	To          int          `json:"to"`
	Data        []wireClient `json:"data"`
}

// getClientResponse is the provider's answer to a single client fetch
type getClientResponse struct {
	Data wireClient `json:"data"`
}
