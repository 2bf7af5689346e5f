package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	invoicingapp "github.com/gestionale/backend/internal/application/invoicing"
	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// ProviderForwarder relays raw requests to the invoicing provider. The
// upstream status and body come back verbatim.
type ProviderForwarder interface {
	Forward(ctx context.Context, creds billing.ProviderCredentials, method, path string, query url.Values, body []byte) (int, []byte, error)
}

// InvoicingHandler exposes the invoicing integration: provider settings,
// contract uploads, upload history, client import and the provider proxy.
// Provider credentials are resolved server-side on every call; the API
// token never appears in a request or response.
type InvoicingHandler struct {
	BaseHandler
	settings  *invoicingapp.SettingsService
	uploads   *invoicingapp.UploadService
	bulk      *invoicingapp.BulkUploadService
	imports   *invoicingapp.ClientImportService
	contracts billing.ContractRepository
	guard     billing.UploadGuard
	forwarder ProviderForwarder
	validate  *validator.Validate
}

// NewInvoicingHandler creates a new InvoicingHandler
func NewInvoicingHandler(
	settings *invoicingapp.SettingsService,
	uploads *invoicingapp.UploadService,
	bulk *invoicingapp.BulkUploadService,
	imports *invoicingapp.ClientImportService,
	contracts billing.ContractRepository,
	guard billing.UploadGuard,
	forwarder ProviderForwarder,
) *InvoicingHandler {
	return &InvoicingHandler{
		settings:  settings,
		uploads:   uploads,
		bulk:      bulk,
		imports:   imports,
		contracts: contracts,
		guard:     guard,
		forwarder: forwarder,
		validate:  validator.New(),
	}
}

// tenantConfig loads the tenant's provider configuration, falling back
// to the disabled default when none is stored yet
func (h *InvoicingHandler) tenantConfig(c *gin.Context, tenantID uuid.UUID) (*billing.IntegrationConfig, bool) {
	cfg, err := h.settings.Config(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &billing.IntegrationConfig{TenantEntity: shared.NewTenantEntity(tenantID)}, true
		}
		h.HandleError(c, err)
		return nil, false
	}
	return cfg, true
}

// GetSettings returns the tenant's provider settings with the API token
// reduced to a recognition hint
func (h *InvoicingHandler) GetSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	view, err := h.settings.Settings(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateSettings replaces the tenant's provider settings. A missing
// api_token field keeps the stored token.
func (h *InvoicingHandler) UpdateSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var input invoicingapp.UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.settings.Update(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UploadContract uploads a single contract to the provider
func (h *InvoicingHandler) UploadContract(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	cfg, ok := h.tenantConfig(c, tenantID)
	if !ok {
		return
	}

	contract, customer, err := h.contracts.FindWithCustomer(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.guard != nil {
		acquired, err := h.guard.TryAcquire(c.Request.Context(), tenantID, contractID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		if !acquired {
			h.HandleError(c, billing.ErrUploadInFlight)
			return
		}
		defer h.guard.Release(c.Request.Context(), tenantID, contractID)
	}

	result, err := h.uploads.UploadContract(c.Request.Context(), contract, customer, cfg)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkUploadRequest asks for a sequential upload of several contracts
type BulkUploadRequest struct {
	ContractIDs []string `json:"contract_ids" binding:"required,min=1,dive,uuid"`
}

// BulkUpload uploads the given contracts one by one, pacing the provider
// between calls. The response carries one entry per requested contract,
// in request order.
func (h *InvoicingHandler) BulkUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req BulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contractIDs := make([]uuid.UUID, 0, len(req.ContractIDs))
	for _, raw := range req.ContractIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid contract ID: "+raw)
			return
		}
		contractIDs = append(contractIDs, id)
	}

	cfg, ok := h.tenantConfig(c, tenantID)
	if !ok {
		return
	}

	result, err := h.bulk.UploadContracts(c.Request.Context(), tenantID, contractIDs, cfg)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UploadHistory returns the upload attempts and derived state for a contract
func (h *InvoicingHandler) UploadHistory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	history, err := h.uploads.History(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// ClientPageRequest selects one page of the provider's client directory
type ClientPageRequest struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Search string `form:"search"`
}

// FetchClients retrieves one page of the provider's client directory,
// replacing the current candidate list
func (h *InvoicingHandler) FetchClients(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req ClientPageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	cfg, ok := h.tenantConfig(c, tenantID)
	if !ok {
		return
	}

	view, err := h.imports.FetchPage(c.Request.Context(), tenantID, cfg, req.Page, req.Search)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ClientSelectionRequest carries the ids to select for import
type ClientSelectionRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// SelectClients replaces the selection with the given ids. Ids not on
// the currently visible page are ignored.
func (h *InvoicingHandler) SelectClients(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req ClientSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.Success(c, h.imports.Select(tenantID, req.IDs))
}

// SelectAllClients selects every client on the visible page
func (h *InvoicingHandler) SelectAllClients(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	h.Success(c, h.imports.SelectAllVisible(tenantID))
}

// ImportClients imports the selected provider clients as customers.
// Successfully imported entries leave the candidate list so a rerun
// only targets the remaining failures.
func (h *InvoicingHandler) ImportClients(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req ClientSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cfg, ok := h.tenantConfig(c, tenantID)
	if !ok {
		return
	}

	results, err := h.imports.Import(c.Request.Context(), tenantID, cfg, req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// Proxy actions
const (
	ActionFetchClients       = "fetch_clients"
	ActionFetchClientDetails = "fetch_client_details"
	ActionCreateDocument     = "create_document"
)

// ProxyRequest is a tagged provider action. The handler resolves the
// tenant's credentials and relays the call; the provider's status code
// and body are returned untouched.
type ProxyRequest struct {
	Action   string          `json:"action" validate:"required,oneof=fetch_clients fetch_client_details create_document"`
	ClientID string          `json:"client_id" validate:"required_if=Action fetch_client_details"`
	Page     int             `json:"page" validate:"omitempty,min=1"`
	PerPage  int             `json:"per_page" validate:"omitempty,min=1,max=100"`
	Search   string          `json:"search"`
	Document json.RawMessage `json:"document" validate:"required_if=Action create_document"`
}

// Proxy dispatches a tagged provider action. Unknown actions are
// rejected before any upstream call.
func (h *InvoicingHandler) Proxy(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cfg, ok := h.tenantConfig(c, tenantID)
	if !ok {
		return
	}
	if err := cfg.ValidateForUpload(); err != nil {
		h.HandleError(c, err)
		return
	}
	creds := cfg.Credentials()

	var (
		method string
		path   string
		query  url.Values
		body   []byte
	)

	switch req.Action {
	case ActionFetchClients:
		method = http.MethodGet
		path = "/c/" + url.PathEscape(creds.CompanyID) + "/entities/clients"
		query = url.Values{}
		if req.Page > 0 {
			query.Set("page", strconv.Itoa(req.Page))
		}
		if req.PerPage > 0 {
			query.Set("per_page", strconv.Itoa(req.PerPage))
		}
		if req.Search != "" {
			query.Set("q", req.Search)
		}
	case ActionFetchClientDetails:
		method = http.MethodGet
		path = "/c/" + url.PathEscape(creds.CompanyID) + "/entities/clients/" + url.PathEscape(req.ClientID)
	case ActionCreateDocument:
		method = http.MethodPost
		path = "/c/" + url.PathEscape(creds.CompanyID) + "/issued_documents"
		body = []byte(`{"data":` + string(req.Document) + `}`)
	}

	status, respBody, err := h.forwarder.Forward(c.Request.Context(), creds, method, path, query, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Data(status, "application/json", respBody)
}

// RegisterRoutes registers all invoicing routes
func (h *InvoicingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoicing := rg.Group("/invoicing")
	{
		invoicing.GET("/settings", h.GetSettings)
		invoicing.PUT("/settings", h.UpdateSettings)

		invoicing.POST("/contracts/:id/upload", h.UploadContract)
		invoicing.GET("/contracts/:id/history", h.UploadHistory)
		invoicing.POST("/contracts/bulk-upload", h.BulkUpload)

		invoicing.GET("/clients", h.FetchClients)
		invoicing.POST("/clients/select", h.SelectClients)
		invoicing.POST("/clients/select-all", h.SelectAllClients)
		invoicing.POST("/clients/import", h.ImportClients)

		invoicing.POST("/proxy", h.Proxy)
	}
}
