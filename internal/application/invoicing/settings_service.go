package invoicing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// IntegrationSettingsView is the partner configuration rendered for
// callers. The API token never leaves the service in clear: only a hint
// with the last four characters is exposed.
type IntegrationSettingsView struct {
	Enabled        bool                 `json:"enabled"`
	CompanyID      string               `json:"company_id"`
	TokenHint      string               `json:"token_hint"`
	DefaultVATRate decimal.Decimal      `json:"default_vat_rate"`
	DocumentType   billing.DocumentType `json:"document_type"`
}

// UpdateSettingsInput carries a settings change. A nil APIToken keeps the
// stored token; an empty string clears it.
type UpdateSettingsInput struct {
	Enabled        bool                 `json:"enabled"`
	CompanyID      string               `json:"company_id"`
	APIToken       *string              `json:"api_token,omitempty"`
	DefaultVATRate decimal.Decimal      `json:"default_vat_rate"`
	DocumentType   billing.DocumentType `json:"document_type"`
}

// SettingsService manages the per-tenant provider configuration
type SettingsService struct {
	configs billing.IntegrationConfigRepository
	logger  *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(configs billing.IntegrationConfigRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{configs: configs, logger: logger}
}

// Config returns the raw configuration for internal callers. Handlers
// must render it through Settings instead.
func (s *SettingsService) Config(ctx context.Context, tenantID uuid.UUID) (*billing.IntegrationConfig, error) {
	return s.configs.FindByTenant(ctx, tenantID)
}

// Settings returns the tenant's configuration with the token redacted. A
// tenant without a stored configuration gets the disabled default.
func (s *SettingsService) Settings(ctx context.Context, tenantID uuid.UUID) (*IntegrationSettingsView, error) {
	cfg, err := s.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &IntegrationSettingsView{}, nil
		}
		return nil, err
	}
	return renderSettings(cfg), nil
}

// Update applies a settings change and returns the redacted view
func (s *SettingsService) Update(ctx context.Context, tenantID uuid.UUID, input UpdateSettingsInput) (*IntegrationSettingsView, error) {
	cfg, err := s.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		cfg = &billing.IntegrationConfig{TenantEntity: shared.NewTenantEntity(tenantID)}
	}

	cfg.Enabled = input.Enabled
	cfg.CompanyID = input.CompanyID
	cfg.DefaultVATRate = input.DefaultVATRate
	cfg.DocumentType = input.DocumentType
	if input.APIToken != nil {
		cfg.APIToken = *input.APIToken
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("integration settings updated",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("enabled", cfg.Enabled),
	)

	return renderSettings(cfg), nil
}

func renderSettings(cfg *billing.IntegrationConfig) *IntegrationSettingsView {
	return &IntegrationSettingsView{
		Enabled:        cfg.Enabled,
		CompanyID:      cfg.CompanyID,
		TokenHint:      tokenHint(cfg.APIToken),
		DefaultVATRate: cfg.VATRate(),
		DocumentType:   cfg.DocumentType,
	}
}

// tokenHint keeps the last four characters of the token, enough for an
// operator to recognize which token is stored
func tokenHint(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
