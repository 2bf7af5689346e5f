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

// ContractRepository is the GORM implementation of billing.ContractRepository
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new ContractRepository
func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByIDForTenant finds a contract by ID scoped to the tenant
func (r *ContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Contract, error) {
	var model models.ContractModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find contract: %w", err)
	}
	return model.ToDomain(), nil
}

// FindWithCustomer loads a contract together with its customer
func (r *ContractRepository) FindWithCustomer(ctx context.Context, tenantID, id uuid.UUID) (*billing.Contract, *billing.Customer, error) {
	contract, err := r.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}

	var customerModel models.CustomerModel
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, contract.CustomerID).
		First(&customerModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: contract customer", shared.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to find contract customer: %w", err)
	}

	return contract, customerModel.ToDomain(), nil
}

// FindAllForTenant returns one page of the tenant's contracts
func (r *ContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Contract, error) {
	var contractModels []models.ContractModel
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("service_name LIKE ?", "%"+filter.Search+"%")
	}
	err := applyFilter(query, filter).Find(&contractModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	contracts := make([]billing.Contract, 0, len(contractModels))
	for i := range contractModels {
		contracts = append(contracts, *contractModels[i].ToDomain())
	}
	return contracts, nil
}

// CountForTenant counts the tenant's contracts matching the filter
func (r *ContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ContractModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("service_name LIKE ?", "%"+filter.Search+"%")
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return count, nil
}

// Save persists a contract
func (r *ContractRepository) Save(ctx context.Context, contract *billing.Contract) error {
	model := models.ContractModelFromDomain(contract)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

// applyFilter applies pagination and ordering to a query
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.OrderBy != "" {
		dir := "asc"
		if filter.OrderDir == "desc" {
			dir = "desc"
		}
		query = query.Order(fmt.Sprintf("%s %s", sanitizeOrderColumn(filter.OrderBy), dir))
	}
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}
	return query
}

// sanitizeOrderColumn restricts ordering to a known set of columns so
// caller input never reaches the SQL text
func sanitizeOrderColumn(column string) string {
	switch column {
	case "created_at", "updated_at", "start_date", "service_name", "company_name", "uploaded_at":
		return column
	default:
		return "created_at"
	}
}
