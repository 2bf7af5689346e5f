package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gestionale/backend/internal/application/records"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/interfaces/http/dto"
)

// ContractHandler exposes read access to contract records
type ContractHandler struct {
	BaseHandler
	contracts *records.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contracts *records.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// Get returns a single contract
func (h *ContractHandler) Get(c *gin.Context) {
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

	contract, err := h.contracts.GetContract(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contract)
}

// List returns one page of the tenant's contracts
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := listRequestFilter(req)

	page, err := h.contracts.ListContracts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// listRequestFilter converts the query parameters into a repository filter
func listRequestFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}

// RegisterRoutes registers all contract routes
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	{
		contracts.GET("", h.List)
		contracts.GET("/:id", h.Get)
	}
}
