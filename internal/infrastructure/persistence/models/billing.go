package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// ContractModel is the persistence model for the Contract domain entity.
type ContractModel struct {
	TenantModel
	CustomerID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ServiceName  string               `gorm:"type:varchar(200);not null"`
	ServiceType  billing.ServiceType  `gorm:"type:varchar(20);not null;default:'other'"`
	Cost         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency     string               `gorm:"type:varchar(3);not null;default:'EUR'"`
	StartDate    time.Time            `gorm:"not null;index"`
	EndDate      *time.Time           `gorm:""`
	PaymentTerms billing.PaymentTerms `gorm:"type:varchar(20)"`
	MaxEntries   *int                 `gorm:""`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract entity.
func (m *ContractModel) ToDomain() *billing.Contract {
	return &billing.Contract{
		TenantEntity: m.ToDomainTenantEntity(),
		CustomerID:   m.CustomerID,
		ServiceName:  m.ServiceName,
		ServiceType:  m.ServiceType,
		Cost:         m.Cost,
		Currency:     m.Currency,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		PaymentTerms: m.PaymentTerms,
		MaxEntries:   m.MaxEntries,
	}
}

// FromDomain populates the persistence model from a domain Contract entity.
func (m *ContractModel) FromDomain(c *billing.Contract) {
	m.FromDomainTenantEntity(c.TenantEntity)
	m.CustomerID = c.CustomerID
	m.ServiceName = c.ServiceName
	m.ServiceType = c.ServiceType
	m.Cost = c.Cost
	m.Currency = c.Currency
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.PaymentTerms = c.PaymentTerms
	m.MaxEntries = c.MaxEntries
}

// ContractModelFromDomain creates a new persistence model from a domain Contract entity.
func ContractModelFromDomain(c *billing.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	TenantModel
	CompanyName    string `gorm:"type:varchar(200);index"`
	FirstName      string `gorm:"type:varchar(100)"`
	SecondName     string `gorm:"type:varchar(100)"`
	VATNumber      string `gorm:"type:varchar(50);index"`
	FiscalCode     string `gorm:"type:varchar(50)"`
	Address        string `gorm:"type:text"`
	City           string `gorm:"type:varchar(100)"`
	Province       string `gorm:"type:varchar(100)"`
	PostalCode     string `gorm:"type:varchar(20)"`
	Country        string `gorm:"type:varchar(100)"`
	CertifiedEmail string `gorm:"type:varchar(200)"`
	SDICode        string `gorm:"type:varchar(20)"`
	Email          string `gorm:"type:varchar(200);index"`
	Phone          string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *billing.Customer {
	return &billing.Customer{
		TenantEntity:   m.ToDomainTenantEntity(),
		CompanyName:    m.CompanyName,
		FirstName:      m.FirstName,
		SecondName:     m.SecondName,
		VATNumber:      m.VATNumber,
		FiscalCode:     m.FiscalCode,
		Address:        m.Address,
		City:           m.City,
		Province:       m.Province,
		PostalCode:     m.PostalCode,
		Country:        m.Country,
		CertifiedEmail: m.CertifiedEmail,
		SDICode:        m.SDICode,
		Email:          m.Email,
		Phone:          m.Phone,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *billing.Customer) {
	m.FromDomainTenantEntity(c.TenantEntity)
	m.CompanyName = c.CompanyName
	m.FirstName = c.FirstName
	m.SecondName = c.SecondName
	m.VATNumber = c.VATNumber
	m.FiscalCode = c.FiscalCode
	m.Address = c.Address
	m.City = c.City
	m.Province = c.Province
	m.PostalCode = c.PostalCode
	m.Country = c.Country
	m.CertifiedEmail = c.CertifiedEmail
	m.SDICode = c.SDICode
	m.Email = c.Email
	m.Phone = c.Phone
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// IntegrationConfigModel is the persistence model for the per-tenant
// provider configuration. One row per tenant.
type IntegrationConfigModel struct {
	BaseModel
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	Enabled        bool                 `gorm:"not null;default:false"`
	CompanyID      string               `gorm:"type:varchar(50)"`
	APIToken       string               `gorm:"type:varchar(500)"`
	DefaultVATRate decimal.Decimal      `gorm:"type:decimal(5,2);not null;default:0"`
	DocumentType   billing.DocumentType `gorm:"type:varchar(20);not null;default:'invoice'"`
}

// TableName returns the table name for GORM
func (IntegrationConfigModel) TableName() string {
	return "invoicing_integration_configs"
}

// ToDomain converts the persistence model to a domain IntegrationConfig entity.
func (m *IntegrationConfigModel) ToDomain() *billing.IntegrationConfig {
	return &billing.IntegrationConfig{
		TenantEntity: shared.TenantEntity{
			BaseEntity: m.BaseModel.ToDomain(),
			TenantID:   m.TenantID,
		},
		Enabled:        m.Enabled,
		CompanyID:      m.CompanyID,
		APIToken:       m.APIToken,
		DefaultVATRate: m.DefaultVATRate,
		DocumentType:   m.DocumentType,
	}
}

// FromDomain populates the persistence model from a domain IntegrationConfig entity.
func (m *IntegrationConfigModel) FromDomain(c *billing.IntegrationConfig) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.Enabled = c.Enabled
	m.CompanyID = c.CompanyID
	m.APIToken = c.APIToken
	m.DefaultVATRate = c.DefaultVATRate
	m.DocumentType = c.DocumentType
}

// IntegrationConfigModelFromDomain creates a new persistence model from a
// domain IntegrationConfig entity.
func IntegrationConfigModelFromDomain(c *billing.IntegrationConfig) *IntegrationConfigModel {
	m := &IntegrationConfigModel{}
	m.FromDomain(c)
	return m
}

// UploadRecordModel is the persistence model for upload attempts. Rows
// are append-only: no update path exists.
type UploadRecordModel struct {
	TenantModel
	ContractID    uuid.UUID            `gorm:"type:uuid;not null;index:idx_upload_records_contract"`
	Status        billing.UploadStatus `gorm:"type:varchar(20);not null"`
	InvoiceID     string               `gorm:"type:varchar(50)"`
	InvoiceNumber string               `gorm:"type:varchar(50)"`
	ErrorMessage  string               `gorm:"type:text"`
	UploadedAt    time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (UploadRecordModel) TableName() string {
	return "invoice_upload_records"
}

// ToDomain converts the persistence model to a domain UploadRecord entity.
func (m *UploadRecordModel) ToDomain() *billing.UploadRecord {
	return &billing.UploadRecord{
		TenantEntity:  m.ToDomainTenantEntity(),
		ContractID:    m.ContractID,
		Status:        m.Status,
		InvoiceID:     m.InvoiceID,
		InvoiceNumber: m.InvoiceNumber,
		ErrorMessage:  m.ErrorMessage,
		UploadedAt:    m.UploadedAt,
	}
}

// FromDomain populates the persistence model from a domain UploadRecord entity.
func (m *UploadRecordModel) FromDomain(r *billing.UploadRecord) {
	m.FromDomainTenantEntity(r.TenantEntity)
	m.ContractID = r.ContractID
	m.Status = r.Status
	m.InvoiceID = r.InvoiceID
	m.InvoiceNumber = r.InvoiceNumber
	m.ErrorMessage = r.ErrorMessage
	m.UploadedAt = r.UploadedAt
}

// UploadRecordModelFromDomain creates a new persistence model from a
// domain UploadRecord entity.
func UploadRecordModelFromDomain(r *billing.UploadRecord) *UploadRecordModel {
	m := &UploadRecordModel{}
	m.FromDomain(r)
	return m
}

// ContractUploadStateModel is the derived per-contract upload state. It
// is maintained in the same transaction that appends the upload record,
// so readers never need to scan the attempt log.
type ContractUploadStateModel struct {
	BaseModel
	TenantID   uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_contract_upload_state,priority:1"`
	ContractID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_contract_upload_state,priority:2"`
	State      billing.ContractUploadState `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (ContractUploadStateModel) TableName() string {
	return "contract_upload_states"
}
