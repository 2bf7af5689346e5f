package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestionale/backend/internal/domain/shared"
)

// ContractRepository provides access to contract records
type ContractRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	// FindWithCustomer loads a contract together with its customer
	FindWithCustomer(ctx context.Context, tenantID, id uuid.UUID) (*Contract, *Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contract, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, contract *Contract) error
}

// CustomerRepository provides access to customer records
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByVATNumber(ctx context.Context, tenantID uuid.UUID, vatNumber string) (bool, error)
	Save(ctx context.Context, customer *Customer) error
}

// IntegrationConfigRepository provides access to the per-tenant provider
// configuration
type IntegrationConfigRepository interface {
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*IntegrationConfig, error)
	Save(ctx context.Context, config *IntegrationConfig) error
}

// UploadRecordRepository persists upload attempts. The log is append-only;
// RecordAttempt also maintains the per-contract upload state in the same
// transaction.
type UploadRecordRepository interface {
	RecordAttempt(ctx context.Context, record *UploadRecord) error
	// FindByContract returns all attempts for a contract, newest first
	FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]UploadRecord, error)
	// StateFor returns the derived upload state for a contract
	StateFor(ctx context.Context, tenantID, contractID uuid.UUID) (ContractUploadState, error)
	// LatestSuccess returns the most recent successful attempt, or
	// shared.ErrNotFound when the contract was never uploaded
	LatestSuccess(ctx context.Context, tenantID, contractID uuid.UUID) (*UploadRecord, error)
}
