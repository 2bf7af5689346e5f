package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// =============================================================================
// Mock Provider
// =============================================================================

// MockInvoicingProvider is a mock implementation of billing.InvoicingProvider
type MockInvoicingProvider struct {
	mock.Mock
}

func (m *MockInvoicingProvider) CreateDocument(ctx context.Context, creds billing.ProviderCredentials, payload *billing.InvoicePayload) (*billing.DocumentResult, error) {
	args := m.Called(ctx, creds, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DocumentResult), args.Error(1)
}

func (m *MockInvoicingProvider) ListClients(ctx context.Context, creds billing.ProviderCredentials, page, perPage int, search string) (*billing.ClientPage, error) {
	args := m.Called(ctx, creds, page, perPage, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ClientPage), args.Error(1)
}

func (m *MockInvoicingProvider) GetClient(ctx context.Context, creds billing.ProviderCredentials, clientID string) (*billing.ProviderClient, error) {
	args := m.Called(ctx, creds, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ProviderClient), args.Error(1)
}

// =============================================================================
// Mock Repositories
// =============================================================================

// MockUploadRecordRepository is a mock implementation of billing.UploadRecordRepository
type MockUploadRecordRepository struct {
	mock.Mock
}

func (m *MockUploadRecordRepository) RecordAttempt(ctx context.Context, record *billing.UploadRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUploadRecordRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]billing.UploadRecord, error) {
	args := m.Called(ctx, tenantID, contractID)
	return args.Get(0).([]billing.UploadRecord), args.Error(1)
}

func (m *MockUploadRecordRepository) StateFor(ctx context.Context, tenantID, contractID uuid.UUID) (billing.ContractUploadState, error) {
	args := m.Called(ctx, tenantID, contractID)
	return args.Get(0).(billing.ContractUploadState), args.Error(1)
}

func (m *MockUploadRecordRepository) LatestSuccess(ctx context.Context, tenantID, contractID uuid.UUID) (*billing.UploadRecord, error) {
	args := m.Called(ctx, tenantID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.UploadRecord), args.Error(1)
}

// MockContractRepository is a mock implementation of billing.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Contract), args.Error(1)
}

func (m *MockContractRepository) FindWithCustomer(ctx context.Context, tenantID, id uuid.UUID) (*billing.Contract, *billing.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*billing.Contract), args.Get(1).(*billing.Customer), args.Error(2)
}

func (m *MockContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Contract, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Contract), args.Error(1)
}

func (m *MockContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, contract *billing.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of billing.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Customer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByVATNumber(ctx context.Context, tenantID uuid.UUID, vatNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, vatNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// =============================================================================
// Mock Guard
// =============================================================================

// MockUploadGuard is a mock implementation of billing.UploadGuard
type MockUploadGuard struct {
	mock.Mock
}

func (m *MockUploadGuard) TryAcquire(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, contractID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUploadGuard) Release(ctx context.Context, tenantID, contractID uuid.UUID) {
	m.Called(ctx, tenantID, contractID)
}
