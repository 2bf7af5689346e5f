package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	invoicingapp "github.com/gestionale/backend/internal/application/invoicing"
	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/interfaces/http/dto"
	"github.com/gestionale/backend/internal/interfaces/http/middleware"
)

// ====== Stub Dependencies ======

type stubConfigRepo struct {
	cfg *billing.IntegrationConfig
}

func (s *stubConfigRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.IntegrationConfig, error) {
	if s.cfg == nil {
		return nil, shared.ErrNotFound
	}
	return s.cfg, nil
}

func (s *stubConfigRepo) Save(ctx context.Context, config *billing.IntegrationConfig) error {
	s.cfg = config
	return nil
}

type stubUploadRepo struct {
	records []billing.UploadRecord
	state   billing.ContractUploadState
}

func (s *stubUploadRepo) RecordAttempt(ctx context.Context, record *billing.UploadRecord) error {
	s.records = append(s.records, *record)
	s.state = record.NextState(s.state)
	return nil
}

func (s *stubUploadRepo) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]billing.UploadRecord, error) {
	return s.records, nil
}

func (s *stubUploadRepo) StateFor(ctx context.Context, tenantID, contractID uuid.UUID) (billing.ContractUploadState, error) {
	if s.state == "" {
		return billing.UploadStateNeverAttempted, nil
	}
	return s.state, nil
}

func (s *stubUploadRepo) LatestSuccess(ctx context.Context, tenantID, contractID uuid.UUID) (*billing.UploadRecord, error) {
	return nil, shared.ErrNotFound
}

type stubForwarder struct {
	status int
	body   []byte
	err    error

	gotMethod string
	gotPath   string
	gotQuery  url.Values
	gotBody   []byte
	gotToken  string
}

func (s *stubForwarder) Forward(ctx context.Context, creds billing.ProviderCredentials, method, path string, query url.Values, body []byte) (int, []byte, error) {
	s.gotMethod = method
	s.gotPath = path
	s.gotQuery = query
	s.gotBody = body
	s.gotToken = creds.AccessToken
	return s.status, s.body, s.err
}

// ====== Helpers ======

func enabledConfig(tenantID uuid.UUID) *billing.IntegrationConfig {
	return &billing.IntegrationConfig{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Enabled:      true,
		CompanyID:    "845",
		APIToken:     "super-secret-token",
	}
}

func newProxyHandler(cfg *billing.IntegrationConfig, forwarder *stubForwarder) *InvoicingHandler {
	logger := zap.NewNop()
	settings := invoicingapp.NewSettingsService(&stubConfigRepo{cfg: cfg}, logger)
	uploads := invoicingapp.NewUploadService(nil, &stubUploadRepo{}, logger)
	return NewInvoicingHandler(settings, uploads, nil, nil, nil, nil, forwarder)
}

func performJSON(t *testing.T, h *InvoicingHandler, tenantID uuid.UUID, handle gin.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.JWTTenantIDKey, tenantID.String())

	handle(c)
	return w
}

// ====== Proxy ======

func TestInvoicingHandler_Proxy(t *testing.T) {
	tenantID := uuid.New()

	t.Run("relays upstream status and body verbatim", func(t *testing.T) {
		forwarder := &stubForwarder{status: http.StatusTeapot, body: []byte(`{"error":{"message":"odd"}}`)}
		h := newProxyHandler(enabledConfig(tenantID), forwarder)

		w := performJSON(t, h, tenantID, h.Proxy, http.MethodPost, "/invoicing/proxy",
			`{"action":"fetch_clients","page":2,"per_page":10,"search":"Rossi"}`)

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, `{"error":{"message":"odd"}}`, w.Body.String())
		assert.Equal(t, http.MethodGet, forwarder.gotMethod)
		assert.Equal(t, "/c/845/entities/clients", forwarder.gotPath)
		assert.Equal(t, "2", forwarder.gotQuery.Get("page"))
		assert.Equal(t, "10", forwarder.gotQuery.Get("per_page"))
		assert.Equal(t, "Rossi", forwarder.gotQuery.Get("q"))
	})

	t.Run("resolves credentials server side", func(t *testing.T) {
		forwarder := &stubForwarder{status: http.StatusOK, body: []byte(`{}`)}
		h := newProxyHandler(enabledConfig(tenantID), forwarder)

		w := performJSON(t, h, tenantID, h.Proxy, http.MethodPost, "/invoicing/proxy",
			`{"action":"fetch_client_details","client_id":"77"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/c/845/entities/clients/77", forwarder.gotPath)
		assert.Equal(t, "super-secret-token", forwarder.gotToken)
		// the token must never show up in the response
		assert.NotContains(t, w.Body.String(), "super-secret-token")
	})

	t.Run("wraps document payload for create_document", func(t *testing.T) {
		forwarder := &stubForwarder{status: http.StatusOK, body: []byte(`{"data":{"id":12}}`)}
		h := newProxyHandler(enabledConfig(tenantID), forwarder)

		w := performJSON(t, h, tenantID, h.Proxy, http.MethodPost, "/invoicing/proxy",
			`{"action":"create_document","document":{"type":"invoice"}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.MethodPost, forwarder.gotMethod)
		assert.Equal(t, "/c/845/issued_documents", forwarder.gotPath)
		assert.JSONEq(t, `{"data":{"type":"invoice"}}`, string(forwarder.gotBody))
	})

	t.Run("rejects unknown action", func(t *testing.T) {
		forwarder := &stubForwarder{status: http.StatusOK, body: []byte(`{}`)}
		h := newProxyHandler(enabledConfig(tenantID), forwarder)

		w := performJSON(t, h, tenantID, h.Proxy, http.MethodPost, "/invoicing/proxy",
			`{"action":"drop_tables"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, forwarder.gotMethod)
	})

	t.Run("refuses when integration is disabled", func(t *testing.T) {
		forwarder := &stubForwarder{status: http.StatusOK, body: []byte(`{}`)}
		h := newProxyHandler(nil, forwarder)

		w := performJSON(t, h, tenantID, h.Proxy, http.MethodPost, "/invoicing/proxy",
			`{"action":"fetch_clients"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeIntegrationDisabled)
		assert.Empty(t, forwarder.gotMethod)
	})

	t.Run("maps unreachable provider to bad gateway", func(t *testing.T) {
		forwarder := &stubForwarder{err: billing.ErrProviderUnavailable}
		h := newProxyHandler(enabledConfig(tenantID), forwarder)

		w := performJSON(t, h, tenantID, h.Proxy, http.MethodPost, "/invoicing/proxy",
			`{"action":"fetch_clients"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

// ====== Settings ======

func TestInvoicingHandler_Settings(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns redacted settings", func(t *testing.T) {
		h := newProxyHandler(enabledConfig(tenantID), &stubForwarder{})

		w := performJSON(t, h, tenantID, h.GetSettings, http.MethodGet, "/invoicing/settings", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "super-secret-token")
		assert.Contains(t, w.Body.String(), "****oken")
	})

	t.Run("returns disabled defaults without stored config", func(t *testing.T) {
		h := newProxyHandler(nil, &stubForwarder{})

		w := performJSON(t, h, tenantID, h.GetSettings, http.MethodGet, "/invoicing/settings", "")

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, false, data["enabled"])
	})

	t.Run("update keeps stored token when field omitted", func(t *testing.T) {
		repo := &stubConfigRepo{cfg: enabledConfig(tenantID)}
		logger := zap.NewNop()
		settings := invoicingapp.NewSettingsService(repo, logger)
		uploads := invoicingapp.NewUploadService(nil, &stubUploadRepo{}, logger)
		h := NewInvoicingHandler(settings, uploads, nil, nil, nil, nil, &stubForwarder{})

		w := performJSON(t, h, tenantID, h.UpdateSettings, http.MethodPut, "/invoicing/settings",
			`{"enabled":true,"company_id":"900","default_vat_rate":"22","document_type":"invoice"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "super-secret-token", repo.cfg.APIToken)
		assert.Equal(t, "900", repo.cfg.CompanyID)
	})
}

// ====== Upload History ======

func TestInvoicingHandler_UploadHistory(t *testing.T) {
	tenantID := uuid.New()
	contractID := uuid.New()

	uploadRepo := &stubUploadRepo{}
	require.NoError(t, uploadRepo.RecordAttempt(context.Background(),
		billing.NewSuccessRecord(tenantID, contractID, "991", "2024/42")))

	logger := zap.NewNop()
	settings := invoicingapp.NewSettingsService(&stubConfigRepo{}, logger)
	uploads := invoicingapp.NewUploadService(nil, uploadRepo, logger)
	h := NewInvoicingHandler(settings, uploads, nil, nil, nil, nil, &stubForwarder{})

	t.Run("returns attempts and derived state", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req, err := http.NewRequest(http.MethodGet, "/invoicing/contracts/"+contractID.String()+"/history", nil)
		require.NoError(t, err)
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: contractID.String()}}
		c.Set(middleware.JWTTenantIDKey, tenantID.String())

		h.UploadHistory(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"state":"uploaded"`)
		assert.Contains(t, w.Body.String(), `"2024/42"`)
	})

	t.Run("rejects malformed contract id", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req, err := http.NewRequest(http.MethodGet, "/invoicing/contracts/nope/history", nil)
		require.NoError(t, err)
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: "nope"}}
		c.Set(middleware.JWTTenantIDKey, tenantID.String())

		h.UploadHistory(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
