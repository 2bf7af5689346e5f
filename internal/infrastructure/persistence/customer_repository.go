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

// CustomerRepository is the GORM implementation of billing.CustomerRepository
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByIDForTenant finds a customer by ID scoped to the tenant
func (r *CustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns one page of the tenant's customers
func (r *CustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Customer, error) {
	var customerModels []models.CustomerModel
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	query = applyCustomerSearch(query, filter)
	err := applyFilter(query, filter).Find(&customerModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	customers := make([]billing.Customer, 0, len(customerModels))
	for i := range customerModels {
		customers = append(customers, *customerModels[i].ToDomain())
	}
	return customers, nil
}

// CountForTenant counts the tenant's customers matching the filter
func (r *CustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("tenant_id = ?", tenantID)
	query = applyCustomerSearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

// ExistsByVATNumber reports whether the tenant already has a customer
// with the given VAT number
func (r *CustomerRepository) ExistsByVATNumber(ctx context.Context, tenantID uuid.UUID, vatNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND vat_number = ?", tenantID, vatNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check VAT number: %w", err)
	}
	return count > 0, nil
}

// Save persists a customer
func (r *CustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func applyCustomerSearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search == "" {
		return query
	}
	pattern := "%" + filter.Search + "%"
	return query.Where(
		"company_name LIKE ? OR first_name LIKE ? OR second_name LIKE ? OR vat_number LIKE ?",
		pattern, pattern, pattern, pattern,
	)
}
