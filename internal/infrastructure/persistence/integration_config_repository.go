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

// IntegrationConfigRepository is the GORM implementation of
// billing.IntegrationConfigRepository. Each tenant has at most one row.
type IntegrationConfigRepository struct {
	db *gorm.DB
}

// NewIntegrationConfigRepository creates a new IntegrationConfigRepository
func NewIntegrationConfigRepository(db *gorm.DB) *IntegrationConfigRepository {
	return &IntegrationConfigRepository{db: db}
}

// FindByTenant returns the tenant's provider configuration
func (r *IntegrationConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.IntegrationConfig, error) {
	var model models.IntegrationConfigModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find integration config: %w", err)
	}
	return model.ToDomain(), nil
}

// Save persists the tenant's provider configuration
func (r *IntegrationConfigRepository) Save(ctx context.Context, config *billing.IntegrationConfig) error {
	model := models.IntegrationConfigModelFromDomain(config)
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save integration config: %w", err)
	}
	return nil
}
