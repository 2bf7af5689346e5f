package invoicing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

func providerClients(ids ...string) []billing.ProviderClient {
	clients := make([]billing.ProviderClient, 0, len(ids))
	for _, id := range ids {
		clients = append(clients, billing.ProviderClient{
			ID:        id,
			Name:      "Cliente " + id,
			VATNumber: "IT0000000" + id,
		})
	}
	return clients
}

func pageOf(clients []billing.ProviderClient, page, lastPage int) *billing.ClientPage {
	return &billing.ClientPage{
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     20,
		Total:       len(clients),
		From:        1,
		To:          len(clients),
		Clients:     clients,
	}
}

func TestClientImportService_FetchPage(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())
	tenantID := uuid.New()

	provider.On("ListClients", mock.Anything, mock.Anything, 1, 20, "").
		Return(pageOf(providerClients("1", "2", "3"), 1, 4), nil)

	view, err := service.FetchPage(context.Background(), tenantID, enabledConfig(), 1, "")

	require.NoError(t, err)
	assert.Len(t, view.Clients, 3)
	assert.Equal(t, 1, view.Pagination.CurrentPage)
	assert.Equal(t, 4, view.Pagination.LastPage)
	assert.Empty(t, view.Selection)
}

func TestClientImportService_FetchPage_SearchEscapesQuotes(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())

	provider.On("ListClients", mock.Anything, mock.Anything, 1, 20, "name contains 'O''Brien'").
		Return(pageOf(providerClients("7"), 1, 1), nil)

	_, err := service.FetchPage(context.Background(), uuid.New(), enabledConfig(), 1, "O'Brien")

	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestClientImportService_FetchPage_SearchChangeResetsToFirstPage(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())
	tenantID := uuid.New()

	provider.On("ListClients", mock.Anything, mock.Anything, 3, 20, "").
		Return(pageOf(providerClients("1"), 3, 5), nil).Once()
	provider.On("ListClients", mock.Anything, mock.Anything, 1, 20, "name contains 'Rossi'").
		Return(pageOf(providerClients("2"), 1, 1), nil).Once()

	_, err := service.FetchPage(context.Background(), tenantID, enabledConfig(), 3, "")
	require.NoError(t, err)

	// asking for page 3 with a fresh term must land on page 1
	view, err := service.FetchPage(context.Background(), tenantID, enabledConfig(), 3, "Rossi")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Pagination.CurrentPage)
	assert.Equal(t, "Rossi", view.Pagination.Search)
	provider.AssertExpectations(t)
}

func TestClientImportService_FetchPage_ClearsSelection(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())
	tenantID := uuid.New()

	provider.On("ListClients", mock.Anything, mock.Anything, mock.Anything, 20, mock.Anything).
		Return(pageOf(providerClients("1", "2"), 1, 2), nil)

	_, err := service.FetchPage(context.Background(), tenantID, enabledConfig(), 1, "")
	require.NoError(t, err)

	view := service.Select(tenantID, []string{"1", "2"})
	assert.Len(t, view.Selection, 2)

	view, err = service.FetchPage(context.Background(), tenantID, enabledConfig(), 2, "")
	require.NoError(t, err)
	assert.Empty(t, view.Selection)
}

func TestClientImportService_FetchPage_DisabledConfig(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())

	cfg := enabledConfig()
	cfg.Enabled = false

	_, err := service.FetchPage(context.Background(), uuid.New(), cfg, 1, "")

	assert.ErrorIs(t, err, billing.ErrIntegrationDisabled)
	provider.AssertNotCalled(t, "ListClients", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClientImportService_Select_IgnoresInvisibleIDs(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())
	tenantID := uuid.New()

	provider.On("ListClients", mock.Anything, mock.Anything, 1, 20, "").
		Return(pageOf(providerClients("1", "2"), 1, 1), nil)

	_, err := service.FetchPage(context.Background(), tenantID, enabledConfig(), 1, "")
	require.NoError(t, err)

	view := service.Select(tenantID, []string{"1", "99"})
	assert.Equal(t, []string{"1"}, view.Selection)
}

func TestClientImportService_SelectAllVisible(t *testing.T) {
	provider := new(MockInvoicingProvider)
	service := NewClientImportService(provider, new(MockCustomerRepository), 20, zap.NewNop())
	tenantID := uuid.New()

	provider.On("ListClients", mock.Anything, mock.Anything, 1, 20, "").
		Return(pageOf(providerClients("1", "2", "3"), 1, 1), nil)

	_, err := service.FetchPage(context.Background(), tenantID, enabledConfig(), 1, "")
	require.NoError(t, err)

	view := service.SelectAllVisible(tenantID)
	assert.Len(t, view.Selection, 3)
}

func TestClientImportService_Import(t *testing.T) {
	provider := new(MockInvoicingProvider)
	customers := new(MockCustomerRepository)
	service := NewClientImportService(provider, customers, 20, zap.NewNop())
	tenantID := uuid.New()
	cfg := enabledConfig()

	provider.On("ListClients", mock.Anything, mock.Anything, 1, 20, "").
		Return(pageOf(providerClients("1", "2", "3", "4", "5"), 1, 1), nil)

	_, err := service.FetchPage(context.Background(), tenantID, cfg, 1, "")
	require.NoError(t, err)
	service.Select(tenantID, []string{"2", "4"})

	provider.On("GetClient", mock.Anything, cfg.Credentials(), "2").
		Return(&billing.ProviderClient{ID: "2", Name: "Cliente 2", VATNumber: "IT00000002", Email: "c2@example.com", City: "Torino"}, nil)
	provider.On("GetClient", mock.Anything, cfg.Credentials(), "4").
		Return(nil, billing.NewProviderAPIError(404, "client not found"))

	customers.On("ExistsByVATNumber", mock.Anything, tenantID, "IT00000002").Return(false, nil)
	customers.On("Save", mock.Anything, mock.MatchedBy(func(c *billing.Customer) bool {
		return c.TenantID == tenantID &&
			c.CompanyName == "Cliente 2" &&
			c.VATNumber == "IT00000002" &&
			c.Email == "c2@example.com" &&
			c.City == "Torino"
	})).Return(nil)

	results, err := service.Import(context.Background(), tenantID, cfg, []string{"2", "4"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "client not found")

	// the imported entry left the candidate list, the failed one stayed
	view := service.View(tenantID)
	assert.Len(t, view.Clients, 4)
	for _, c := range view.Clients {
		assert.NotEqual(t, "2", c.ID)
	}
	assert.Empty(t, view.Selection)
	customers.AssertExpectations(t)
}

func TestClientImportService_Import_DuplicateVATNumber(t *testing.T) {
	provider := new(MockInvoicingProvider)
	customers := new(MockCustomerRepository)
	service := NewClientImportService(provider, customers, 20, zap.NewNop())
	tenantID := uuid.New()
	cfg := enabledConfig()

	provider.On("GetClient", mock.Anything, cfg.Credentials(), "1").
		Return(&billing.ProviderClient{ID: "1", Name: "Cliente 1", VATNumber: "IT00000001"}, nil)
	customers.On("ExistsByVATNumber", mock.Anything, tenantID, "IT00000001").Return(true, nil)

	results, err := service.Import(context.Background(), tenantID, cfg, []string{"1"})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, shared.ErrAlreadyExists.Error(), results[0].Error)
	customers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestClientImportService_Import_SaveError(t *testing.T) {
	provider := new(MockInvoicingProvider)
	customers := new(MockCustomerRepository)
	service := NewClientImportService(provider, customers, 20, zap.NewNop())
	tenantID := uuid.New()
	cfg := enabledConfig()

	provider.On("GetClient", mock.Anything, cfg.Credentials(), "1").
		Return(&billing.ProviderClient{ID: "1", Name: "Cliente 1"}, nil)
	customers.On("Save", mock.Anything, mock.Anything).Return(errors.New("constraint violation"))

	results, err := service.Import(context.Background(), tenantID, cfg, []string{"1"})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "constraint violation")
	// no VAT number on the provider record skips the duplicate check
	customers.AssertNotCalled(t, "ExistsByVATNumber", mock.Anything, mock.Anything, mock.Anything)
}
