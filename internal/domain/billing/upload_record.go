package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/gestionale/backend/internal/domain/shared"
)

// UploadStatus is the outcome of a single upload attempt
type UploadStatus string

const (
	UploadStatusSuccess UploadStatus = "success"
	UploadStatusFailed  UploadStatus = "failed"
)

// ContractUploadState is the derived per-contract upload state, maintained
// transactionally alongside the append-only attempt log
type ContractUploadState string

const (
	UploadStateNeverAttempted ContractUploadState = "never_attempted"
	UploadStateFailed         ContractUploadState = "failed"
	UploadStateUploaded       ContractUploadState = "uploaded"
)

// UploadRecord is the persisted outcome of one upload attempt. Records are
// append-only: a contract accumulates one record per attempt.
type UploadRecord struct {
	shared.TenantEntity
	ContractID    uuid.UUID
	Status        UploadStatus
	InvoiceID     string
	InvoiceNumber string
	ErrorMessage  string
	UploadedAt    time.Time
}

// NewSuccessRecord creates an upload record for a successful attempt
func NewSuccessRecord(tenantID, contractID uuid.UUID, invoiceID, invoiceNumber string) *UploadRecord {
	return &UploadRecord{
		TenantEntity:  shared.NewTenantEntity(tenantID),
		ContractID:    contractID,
		Status:        UploadStatusSuccess,
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		UploadedAt:    time.Now(),
	}
}

// NewFailureRecord creates an upload record for a failed attempt
func NewFailureRecord(tenantID, contractID uuid.UUID, cause error) *UploadRecord {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &UploadRecord{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ContractID:   contractID,
		Status:       UploadStatusFailed,
		ErrorMessage: msg,
		UploadedAt:   time.Now(),
	}
}

// NextState returns the contract upload state after this attempt. A
// contract that has been uploaded once stays uploaded: later failed
// attempts do not demote it, matching the most-recent-success rule.
func (r *UploadRecord) NextState(current ContractUploadState) ContractUploadState {
	if r.Status == UploadStatusSuccess {
		return UploadStateUploaded
	}
	if current == UploadStateUploaded {
		return UploadStateUploaded
	}
	return UploadStateFailed
}
