package records

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// CustomerService exposes read access to customer records for the
// invoicing surface
type CustomerService struct {
	customers billing.CustomerRepository
	logger    *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customers billing.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customers, logger: logger}
}

// GetCustomer returns a single customer scoped to the tenant
func (s *CustomerService) GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*billing.Customer, error) {
	return s.customers.FindByIDForTenant(ctx, tenantID, id)
}

// ListCustomers returns one page of the tenant's customers
func (s *CustomerService) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.Customer], error) {
	customers, err := s.customers.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.customers.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(customers, total, filter.Page, filter.PageSize)
	return &page, nil
}
