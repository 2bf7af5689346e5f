package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gestionale/backend/internal/domain/billing"
)

// maxResponseSize is the maximum allowed response size from the provider API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client talks to the invoicing provider's REST API. It implements
// billing.InvoicingProvider. Credentials arrive per call and are used
// only to build the outgoing request; the client never stores them.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new provider API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateDocument uploads one invoice document
func (c *Client) CreateDocument(ctx context.Context, creds billing.ProviderCredentials, payload *billing.InvoicePayload) (*billing.DocumentResult, error) {
	path := fmt.Sprintf("/c/%s/issued_documents", url.PathEscape(creds.CompanyID))
	body, err := c.doRequest(ctx, creds, http.MethodPost, path, nil, documentEnvelope{Data: payload})
	if err != nil {
		return nil, err
	}

	var resp createDocumentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrProviderInvalidResponse, err)
	}
	if resp.Data.ID.String() == "" {
		return nil, fmt.Errorf("%w: missing document id", billing.ErrProviderInvalidResponse)
	}

	return &billing.DocumentResult{
		InvoiceID:     resp.Data.ID.String(),
		InvoiceNumber: resp.Data.Number,
	}, nil
}

// ListClients fetches one page of the provider's client directory
func (c *Client) ListClients(ctx context.Context, creds billing.ProviderCredentials, page, perPage int, search string) (*billing.ClientPage, error) {
	path := fmt.Sprintf("/c/%s/entities/clients", url.PathEscape(creds.CompanyID))
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	if search != "" {
		query.Set("q", search)
	}

	body, err := c.doRequest(ctx, creds, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var resp listClientsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrProviderInvalidResponse, err)
	}

	result := &billing.ClientPage{
		CurrentPage: resp.CurrentPage,
		LastPage:    resp.LastPage,
		PerPage:     resp.PerPage,
		Total:       resp.Total,
		From:        resp.From,
		To:          resp.To,
		Clients:     make([]billing.ProviderClient, 0, len(resp.Data)),
	}
	for _, client := range resp.Data {
		result.Clients = append(result.Clients, client.toDomain())
	}
	return result, nil
}

// GetClient fetches a single client by id
func (c *Client) GetClient(ctx context.Context, creds billing.ProviderCredentials, clientID string) (*billing.ProviderClient, error) {
	path := fmt.Sprintf("/c/%s/entities/clients/%s", url.PathEscape(creds.CompanyID), url.PathEscape(clientID))
	body, err := c.doRequest(ctx, creds, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var resp getClientResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrProviderInvalidResponse, err)
	}

	client := resp.Data.toDomain()
	return &client, nil
}

// Forward relays a raw request to the provider and returns the upstream
// status and body verbatim. Used by the proxy surface so the frontend
// sees exactly what the provider answered.
func (c *Client) Forward(ctx context.Context, creds billing.ProviderCredentials, method, path string, query url.Values, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.requestURL(path, query), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("invoicing: failed to create request: %w", err)
	}
	c.setHeaders(req, creds)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", billing.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("invoicing: failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// doRequest performs an HTTP request to the provider API
func (c *Client) doRequest(ctx context.Context, creds billing.ProviderCredentials, method, path string, query url.Values, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("invoicing: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.requestURL(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("invoicing: failed to create request: %w", err)
	}
	c.setHeaders(req, creds)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("invoicing: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, billing.NewProviderAPIError(resp.StatusCode, parseErrorMessage(body))
	}

	return body, nil
}

func (c *Client) requestURL(path string, query url.Values) string {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func (c *Client) setHeaders(req *http.Request, creds billing.ProviderCredentials) {
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// parseErrorMessage extracts a human message from a provider error body.
// The provider answers either {"error":{"message":...}} or a flat
// {"error":...,"details":...}; anything else is reported as raw text.
func parseErrorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		if flat.Details != "" {
			return flat.Error + ": " + flat.Details
		}
		return flat.Error
	}

	const maxRawMessage = 512
	if len(body) > maxRawMessage {
		body = body[:maxRawMessage]
	}
	return string(body)
}
