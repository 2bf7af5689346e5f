package records

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// ContractService exposes read access to contract records for the
// invoicing surface. Contracts are managed elsewhere; this service never
// mutates them.
type ContractService struct {
	contracts billing.ContractRepository
	logger    *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(contracts billing.ContractRepository, logger *zap.Logger) *ContractService {
	return &ContractService{contracts: contracts, logger: logger}
}

// GetContract returns a single contract scoped to the tenant
func (s *ContractService) GetContract(ctx context.Context, tenantID, id uuid.UUID) (*billing.Contract, error) {
	return s.contracts.FindByIDForTenant(ctx, tenantID, id)
}

// ListContracts returns one page of the tenant's contracts
func (s *ContractService) ListContracts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.Contract], error) {
	contracts, err := s.contracts.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.contracts.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(contracts, total, filter.Page, filter.PageSize)
	return &page, nil
}
