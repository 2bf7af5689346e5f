package invoicing

import (
	"github.com/google/uuid"

	"github.com/gestionale/backend/internal/domain/billing"
)

// UploadResult is the outcome of a single contract upload
type UploadResult struct {
	ContractID    uuid.UUID `json:"contract_id"`
	Success       bool      `json:"success"`
	InvoiceID     string    `json:"invoice_id,omitempty"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// BulkUploadResult aggregates the per-contract outcomes of a bulk run.
// The orchestrator renders no overall verdict; callers tally the counts.
type BulkUploadResult struct {
	Results []UploadResult `json:"results"`
}

// SucceededCount returns how many uploads in the batch succeeded
func (r *BulkUploadResult) SucceededCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// ClientImportResult is the outcome of importing one provider client
type ClientImportResult struct {
	ClientID string `json:"client_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// UploadHistoryEntry is one upload attempt rendered for the history view
type UploadHistoryEntry struct {
	Status        billing.UploadStatus `json:"upload_status"`
	InvoiceID     string               `json:"invoice_id,omitempty"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	Error         string               `json:"error,omitempty"`
	UploadedAt    string               `json:"uploaded_at"`
}

// UploadHistory is the full status answer for one contract
type UploadHistory struct {
	ContractID uuid.UUID                   `json:"contract_id"`
	State      billing.ContractUploadState `json:"state"`
	Attempts   []UploadHistoryEntry        `json:"attempts"`
}
