package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
)

// BulkUploadService sequences single-contract uploads over a set of
// contract ids. Processing is deliberately serial: a minimum inter-call
// interval keeps the provider's rate limits honored and the ordering
// deterministic. One result entry is produced per input id, in input
// order, and a failure for one id never stops the rest of the batch.
type BulkUploadService struct {
	contracts billing.ContractRepository
	uploader  *UploadService
	guard     billing.UploadGuard
	interval  time.Duration
	logger    *zap.Logger
}

// NewBulkUploadService creates a new BulkUploadService. The interval is
// the minimum pause between consecutive upload attempts.
func NewBulkUploadService(
	contracts billing.ContractRepository,
	uploader *UploadService,
	guard billing.UploadGuard,
	interval time.Duration,
	logger *zap.Logger,
) *BulkUploadService {
	return &BulkUploadService{
		contracts: contracts,
		uploader:  uploader,
		guard:     guard,
		interval:  interval,
		logger:    logger,
	}
}

// UploadContracts uploads the given contracts sequentially. The partner
// configuration is validated once up front: a disabled or incomplete
// configuration fails the whole batch before any per-item attempt.
func (s *BulkUploadService) UploadContracts(ctx context.Context, tenantID uuid.UUID, contractIDs []uuid.UUID, cfg *billing.IntegrationConfig) (*BulkUploadResult, error) {
	if err := cfg.ValidateForUpload(); err != nil {
		return nil, err
	}

	result := &BulkUploadResult{Results: make([]UploadResult, 0, len(contractIDs))}

	for i, contractID := range contractIDs {
		result.Results = append(result.Results, s.uploadOne(ctx, tenantID, contractID, cfg))

		// pace the provider between attempts, success or failure
		if i < len(contractIDs)-1 {
			s.pause(ctx)
		}
	}

	s.logger.Info("bulk upload finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("total", len(contractIDs)),
		zap.Int("succeeded", result.SucceededCount()),
	)

	return result, nil
}

// uploadOne performs the attempt for a single id, converting every error
// into a failure entry so no input id is ever dropped from the result.
func (s *BulkUploadService) uploadOne(ctx context.Context, tenantID, contractID uuid.UUID, cfg *billing.IntegrationConfig) UploadResult {
	if err := ctx.Err(); err != nil {
		return UploadResult{ContractID: contractID, Error: err.Error()}
	}

	contract, customer, err := s.contracts.FindWithCustomer(ctx, tenantID, contractID)
	if err != nil {
		return UploadResult{ContractID: contractID, Error: err.Error()}
	}

	if s.guard != nil {
		acquired, err := s.guard.TryAcquire(ctx, tenantID, contractID)
		if err != nil {
			return UploadResult{ContractID: contractID, Error: err.Error()}
		}
		if !acquired {
			return UploadResult{ContractID: contractID, Error: billing.ErrUploadInFlight.Error()}
		}
		defer s.guard.Release(ctx, tenantID, contractID)
	}

	uploaded, err := s.uploader.UploadContract(ctx, contract, customer, cfg)
	if err != nil {
		return UploadResult{ContractID: contractID, Error: err.Error()}
	}
	return *uploaded
}

// pause waits the configured interval, returning early only when the
// context is cancelled
func (s *BulkUploadService) pause(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
