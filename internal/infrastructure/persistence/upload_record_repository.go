package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// UploadRecordRepository is the GORM implementation of
// billing.UploadRecordRepository. The attempt log is append-only; the
// derived per-contract state row is maintained in the same transaction.
type UploadRecordRepository struct {
	db *gorm.DB
}

// NewUploadRecordRepository creates a new UploadRecordRepository
func NewUploadRecordRepository(db *gorm.DB) *UploadRecordRepository {
	return &UploadRecordRepository{db: db}
}

// RecordAttempt appends the upload record and advances the derived
// contract state atomically
func (r *UploadRecordRepository) RecordAttempt(ctx context.Context, record *billing.UploadRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UploadRecordModelFromDomain(record)
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to append upload record: %w", err)
		}

		var state models.ContractUploadStateModel
		err := tx.
			Where("tenant_id = ? AND contract_id = ?", record.TenantID, record.ContractID).
			First(&state).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			state = models.ContractUploadStateModel{
				TenantID:   record.TenantID,
				ContractID: record.ContractID,
				State:      record.NextState(billing.UploadStateNeverAttempted),
			}
			state.ID = uuid.New()
			if err := tx.Create(&state).Error; err != nil {
				return fmt.Errorf("failed to create contract upload state: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load contract upload state: %w", err)
		default:
			next := record.NextState(state.State)
			if next != state.State {
				if err := tx.Model(&state).Update("state", next).Error; err != nil {
					return fmt.Errorf("failed to update contract upload state: %w", err)
				}
			}
		}
		return nil
	})
}

// FindByContract returns every attempt for the contract, newest first
func (r *UploadRecordRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]billing.UploadRecord, error) {
	var recordModels []models.UploadRecordModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		Order("uploaded_at DESC").
		Find(&recordModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list upload records: %w", err)
	}

	records := make([]billing.UploadRecord, 0, len(recordModels))
	for i := range recordModels {
		records = append(records, *recordModels[i].ToDomain())
	}
	return records, nil
}

// StateFor returns the derived upload state for the contract.
// never_attempted is implied by the absence of a state row.
func (r *UploadRecordRepository) StateFor(ctx context.Context, tenantID, contractID uuid.UUID) (billing.ContractUploadState, error) {
	var state models.ContractUploadStateModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.UploadStateNeverAttempted, nil
		}
		return "", fmt.Errorf("failed to load contract upload state: %w", err)
	}
	return state.State, nil
}

// LatestSuccess returns the most recent successful attempt
func (r *UploadRecordRepository) LatestSuccess(ctx context.Context, tenantID, contractID uuid.UUID) (*billing.UploadRecord, error) {
	var model models.UploadRecordModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ? AND status = ?", tenantID, contractID, billing.UploadStatusSuccess).
		Order("uploaded_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load latest successful upload: %w", err)
	}
	return model.ToDomain(), nil
}
