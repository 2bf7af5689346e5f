package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
)

// UploadService drives a single contract's upload to the invoicing
// provider: it validates the partner configuration, builds the document
// payload, calls the provider and records the outcome. Exactly one
// UploadRecord is written per invocation, success or failure.
type UploadService struct {
	provider billing.InvoicingProvider
	uploads  billing.UploadRecordRepository
	logger   *zap.Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(provider billing.InvoicingProvider, uploads billing.UploadRecordRepository, logger *zap.Logger) *UploadService {
	return &UploadService{
		provider: provider,
		uploads:  uploads,
		logger:   logger,
	}
}

// UploadContract uploads one contract as an invoice document. The partner
// configuration is an explicit argument: preconditions are checked here,
// and a failed configuration is recorded without any network call.
func (s *UploadService) UploadContract(ctx context.Context, contract *billing.Contract, customer *billing.Customer, cfg *billing.IntegrationConfig) (*UploadResult, error) {
	if err := cfg.ValidateForUpload(); err != nil {
		s.recordFailure(ctx, contract, err)
		return nil, err
	}

	payload := BuildInvoicePayload(contract, customer, cfg)

	result, err := s.provider.CreateDocument(ctx, cfg.Credentials(), payload)
	if err != nil {
		s.recordFailure(ctx, contract, err)
		s.logger.Warn("invoice upload failed",
			zap.String("contract_id", contract.ID.String()),
			zap.String("tenant_id", contract.TenantID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	record := billing.NewSuccessRecord(contract.TenantID, contract.ID, result.InvoiceID, result.InvoiceNumber)
	if err := s.uploads.RecordAttempt(ctx, record); err != nil {
		return nil, fmt.Errorf("invoice created but recording the outcome failed: %w", err)
	}

	s.logger.Info("invoice uploaded",
		zap.String("contract_id", contract.ID.String()),
		zap.String("invoice_number", result.InvoiceNumber),
	)

	return &UploadResult{
		ContractID:    contract.ID,
		Success:       true,
		InvoiceID:     result.InvoiceID,
		InvoiceNumber: result.InvoiceNumber,
	}, nil
}

// History returns the upload attempts for a contract, newest first,
// together with the derived upload state.
func (s *UploadService) History(ctx context.Context, tenantID, contractID uuid.UUID) (*UploadHistory, error) {
	records, err := s.uploads.FindByContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	state, err := s.uploads.StateFor(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}

	history := &UploadHistory{
		ContractID: contractID,
		State:      state,
		Attempts:   make([]UploadHistoryEntry, 0, len(records)),
	}
	for _, r := range records {
		history.Attempts = append(history.Attempts, UploadHistoryEntry{
			Status:        r.Status,
			InvoiceID:     r.InvoiceID,
			InvoiceNumber: r.InvoiceNumber,
			Error:         r.ErrorMessage,
			UploadedAt:    r.UploadedAt.Format(time.RFC3339),
		})
	}
	return history, nil
}

// recordFailure appends a failed attempt. A failing store write is logged
// but does not mask the original upload error.
func (s *UploadService) recordFailure(ctx context.Context, contract *billing.Contract, cause error) {
	record := billing.NewFailureRecord(contract.TenantID, contract.ID, cause)
	if err := s.uploads.RecordAttempt(ctx, record); err != nil {
		s.logger.Error("failed to record upload attempt",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}
}
