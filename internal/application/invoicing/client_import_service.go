package invoicing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/domain/shared"
)

// PaginationState tracks the current position in the provider's client
// directory. It is reset whenever the search term changes.
type PaginationState struct {
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	From        int    `json:"from"`
	To          int    `json:"to"`
	Search      string `json:"search,omitempty"`
}

// ClientPageView is the state returned to the caller after a page fetch
type ClientPageView struct {
	Clients    []billing.ProviderClient `json:"clients"`
	Pagination PaginationState          `json:"pagination"`
	Selection  []string                 `json:"selection"`
}

// importSession is the per-tenant candidate list, selection set and
// pagination state of a running import workflow
type importSession struct {
	mu        sync.Mutex
	clients   []billing.ProviderClient
	selection map[string]struct{}
	page      PaginationState
	importing bool
}

// ClientImportService drives the paginated, searchable retrieval of the
// provider's client directory and the selection/import workflow. Imported
// entries are removed from the candidate list so a rerun only targets the
// remaining failures.
type ClientImportService struct {
	provider  billing.InvoicingProvider
	customers billing.CustomerRepository
	pageSize  int
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*importSession
}

// NewClientImportService creates a new ClientImportService
func NewClientImportService(provider billing.InvoicingProvider, customers billing.CustomerRepository, pageSize int, logger *zap.Logger) *ClientImportService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &ClientImportService{
		provider:  provider,
		customers: customers,
		pageSize:  pageSize,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*importSession),
	}
}

// session returns the tenant's session, creating it on first use
func (s *ClientImportService) session(tenantID uuid.UUID) *importSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tenantID]
	if !ok {
		sess = &importSession{selection: make(map[string]struct{})}
		s.sessions[tenantID] = sess
	}
	return sess
}

// clientSearchQuery escapes the search term (single quotes doubled) and
// embeds it in the provider's query expression
func clientSearchQuery(term string) string {
	if term == "" {
		return ""
	}
	escaped := strings.ReplaceAll(term, "'", "''")
	return fmt.Sprintf("name contains '%s'", escaped)
}

// FetchPage retrieves one page of the provider's client directory,
// replacing the candidate list and clearing the selection. A change of
// search term resets pagination to the first page.
func (s *ClientImportService) FetchPage(ctx context.Context, tenantID uuid.UUID, cfg *billing.IntegrationConfig, page int, search string) (*ClientPageView, error) {
	if err := cfg.ValidateForUpload(); err != nil {
		return nil, err
	}

	sess := s.session(tenantID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.importing {
		return nil, billing.ErrImportInFlight
	}

	if search != sess.page.Search {
		page = 1
	}
	if page < 1 {
		page = 1
	}

	result, err := s.provider.ListClients(ctx, cfg.Credentials(), page, s.pageSize, clientSearchQuery(search))
	if err != nil {
		return nil, err
	}

	sess.clients = result.Clients
	sess.selection = make(map[string]struct{})
	sess.page = PaginationState{
		CurrentPage: result.CurrentPage,
		LastPage:    result.LastPage,
		PerPage:     result.PerPage,
		Total:       result.Total,
		From:        result.From,
		To:          result.To,
		Search:      search,
	}

	return sess.view(), nil
}

// Select adds the given ids to the selection set. Only ids visible on the
// current page are accepted: the selection never spans pages.
func (s *ClientImportService) Select(tenantID uuid.UUID, ids []string) *ClientPageView {
	sess := s.session(tenantID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	visible := make(map[string]struct{}, len(sess.clients))
	for _, c := range sess.clients {
		visible[c.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := visible[id]; ok {
			sess.selection[id] = struct{}{}
		}
	}
	return sess.view()
}

// SelectAllVisible selects every client on the current page
func (s *ClientImportService) SelectAllVisible(tenantID uuid.UUID) *ClientPageView {
	sess := s.session(tenantID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for _, c := range sess.clients {
		sess.selection[c.ID] = struct{}{}
	}
	return sess.view()
}

// Import imports the selected provider clients into the local customer
// store, one by one. Every id yields exactly one result. Successfully
// imported entries leave the candidate list; the selection set is cleared
// entirely, failed ids included.
func (s *ClientImportService) Import(ctx context.Context, tenantID uuid.UUID, cfg *billing.IntegrationConfig, ids []string) ([]ClientImportResult, error) {
	if err := cfg.ValidateForUpload(); err != nil {
		return nil, err
	}

	sess := s.session(tenantID)
	sess.mu.Lock()
	if sess.importing {
		sess.mu.Unlock()
		return nil, billing.ErrImportInFlight
	}
	sess.importing = true
	sess.mu.Unlock()

	results := make([]ClientImportResult, 0, len(ids))
	imported := make(map[string]struct{})

	for _, id := range ids {
		if err := s.importOne(ctx, tenantID, cfg, id); err != nil {
			results = append(results, ClientImportResult{ClientID: id, Error: err.Error()})
			continue
		}
		imported[id] = struct{}{}
		results = append(results, ClientImportResult{ClientID: id, Success: true})
	}

	sess.mu.Lock()
	remaining := sess.clients[:0]
	for _, c := range sess.clients {
		if _, ok := imported[c.ID]; !ok {
			remaining = append(remaining, c)
		}
	}
	sess.clients = remaining
	sess.selection = make(map[string]struct{})
	sess.importing = false
	sess.mu.Unlock()

	s.logger.Info("client import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("requested", len(ids)),
		zap.Int("imported", len(imported)),
	)

	return results, nil
}

// importOne fetches one provider client and creates the local customer
// record, refusing duplicates by VAT number
func (s *ClientImportService) importOne(ctx context.Context, tenantID uuid.UUID, cfg *billing.IntegrationConfig, clientID string) error {
	client, err := s.provider.GetClient(ctx, cfg.Credentials(), clientID)
	if err != nil {
		return err
	}

	if client.VATNumber != "" {
		exists, err := s.customers.ExistsByVATNumber(ctx, tenantID, client.VATNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists
		}
	}

	customer := &billing.Customer{
		TenantEntity: shared.NewTenantEntity(tenantID),
		CompanyName:  client.Name,
		VATNumber:    client.VATNumber,
		Email:        client.Email,
		City:         client.City,
	}
	return s.customers.Save(ctx, customer)
}

// View returns the current session state without touching the provider
func (s *ClientImportService) View(tenantID uuid.UUID) *ClientPageView {
	sess := s.session(tenantID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view()
}

// view renders the session; the caller must hold sess.mu
func (sess *importSession) view() *ClientPageView {
	selection := make([]string, 0, len(sess.selection))
	for id := range sess.selection {
		selection = append(selection, id)
	}
	clients := make([]billing.ProviderClient, len(sess.clients))
	copy(clients, sess.clients)
	return &ClientPageView{
		Clients:    clients,
		Pagination: sess.page,
		Selection:  selection,
	}
}
