package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestionale/backend/internal/domain/billing"
)

// claim represents an in-flight upload with expiration
type claim struct {
	expiresAt time.Time
}

// InMemoryUploadGuard implements billing.UploadGuard using an in-memory
// map. Suitable for single-instance deployments and testing.
type InMemoryUploadGuard struct {
	mu     sync.Mutex
	claims map[string]claim
	ttl    time.Duration
}

// NewInMemoryUploadGuard creates a new in-memory upload guard
func NewInMemoryUploadGuard(ttl time.Duration) *InMemoryUploadGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &InMemoryUploadGuard{
		claims: make(map[string]claim),
		ttl:    ttl,
	}
}

// TryAcquire claims the contract for upload. Returns false when another
// upload of the same contract is already in flight.
func (g *InMemoryUploadGuard) TryAcquire(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	key := tenantID.String() + ":" + contractID.String()
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if c, exists := g.claims[key]; exists && now.Before(c.expiresAt) {
		return false, nil
	}
	g.claims[key] = claim{expiresAt: now.Add(g.ttl)}
	return true, nil
}

// Release frees the claim
func (g *InMemoryUploadGuard) Release(ctx context.Context, tenantID, contractID uuid.UUID) {
	key := tenantID.String() + ":" + contractID.String()

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
}

var _ billing.UploadGuard = (*InMemoryUploadGuard)(nil)
