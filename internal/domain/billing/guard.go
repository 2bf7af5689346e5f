package billing

import (
	"context"

	"github.com/google/uuid"
)

// UploadGuard marks contracts with an upload in flight, so overlapping
// bulk runs skip them instead of producing duplicate documents. The guard
// is advisory: it narrows, but does not close, the at-least-once window,
// and entries expire on their own so a crashed run cannot wedge a contract.
type UploadGuard interface {
	// TryAcquire marks the contract as in flight. Returns false when
	// another upload already holds the mark.
	TryAcquire(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error)

	// Release clears the mark after the attempt completes
	Release(ctx context.Context, tenantID, contractID uuid.UUID)
}
