package invoicing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionale/backend/internal/domain/billing"
)

var testCreds = billing.ProviderCredentials{
	CompanyID:   "845",
	AccessToken: "test-token-abcd",
}

func TestClient_CreateDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/c/845/issued_documents", r.URL.Path)
		assert.Equal(t, "Bearer test-token-abcd", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var envelope struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		assert.Equal(t, "invoice", envelope.Data["type"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":12345,"number":"2024/42"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	payload := &billing.InvoicePayload{DocumentType: billing.DocumentTypeInvoice, Subject: "Hosting"}

	result, err := client.CreateDocument(context.Background(), testCreds, payload)

	require.NoError(t, err)
	assert.Equal(t, "12345", result.InvoiceID)
	assert.Equal(t, "2024/42", result.InvoiceNumber)
}

func TestClient_CreateDocument_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"entity vat_number is invalid"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.CreateDocument(context.Background(), testCreds, &billing.InvoicePayload{})

	var apiErr *billing.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "entity vat_number is invalid", apiErr.Message)
}

func TestClient_CreateDocument_MissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.CreateDocument(context.Background(), testCreds, &billing.InvoicePayload{})

	assert.ErrorIs(t, err, billing.ErrProviderInvalidResponse)
}

func TestClient_ListClients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c/845/entities/clients", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		assert.Equal(t, "name contains 'Rossi'", r.URL.Query().Get("q"))

		w.Write([]byte(`{
			"current_page": 2, "last_page": 3, "per_page": 20,
			"total": 45, "from": 21, "to": 40,
			"data": [
				{"id": 1, "name": "Rossi Srl", "vat_number": "IT01", "email": "a@b.it", "city": "Milano"},
				{"id": 2, "name": "Rossini Spa", "vat_number": "IT02"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	page, err := client.ListClients(context.Background(), testCreds, 2, 20, "name contains 'Rossi'")

	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 45, page.Total)
	require.Len(t, page.Clients, 2)
	assert.Equal(t, "1", page.Clients[0].ID)
	assert.Equal(t, "Rossi Srl", page.Clients[0].Name)
	assert.Equal(t, "Milano", page.Clients[0].City)
}

func TestClient_GetClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c/845/entities/clients/77", r.URL.Path)
		w.Write([]byte(`{"data":{"id":77,"name":"Bianchi Snc","vat_number":"IT77"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	got, err := client.GetClient(context.Background(), testCreds, "77")

	require.NoError(t, err)
	assert.Equal(t, "77", got.ID)
	assert.Equal(t, "Bianchi Snc", got.Name)
}

func TestClient_Forward_PassesStatusAndBodyVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token-abcd", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"error":"odd upstream answer"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	status, body, err := client.Forward(context.Background(), testCreds, http.MethodGet, "/c/845/entities/clients", url.Values{"page": {"1"}}, nil)

	// upstream errors are not translated, the caller sees them as-is
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, status)
	assert.JSONEq(t, `{"error":"odd upstream answer"}`, string(body))
}

func TestClient_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	_, err := client.ListClients(context.Background(), testCreds, 1, 20, "")
	assert.ErrorIs(t, err, billing.ErrProviderUnavailable)

	_, _, err = client.Forward(context.Background(), testCreds, http.MethodGet, "/x", nil, nil)
	assert.ErrorIs(t, err, billing.ErrProviderUnavailable)
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"bad token"}}`, "bad token"},
		{"flat with details", `{"error":"validation","details":"missing entity"}`, "validation: missing entity"},
		{"flat without details", `{"error":"validation"}`, "validation"},
		{"raw text", `upstream exploded`, "upstream exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseErrorMessage([]byte(tt.body)))
		})
	}
}
