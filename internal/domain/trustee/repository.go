package trustee

import (
	"context"
	"time"

	"legacy-keeper-go/internal/domain/invitation"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// Create returns ErrDuplicateTrustee when the owner already has a trustee.
	Create(ctx context.Context, trustee *Trustee) error
	Save(ctx context.Context, trustee *Trustee) error
	Delete(ctx context.Context, ownerID, id string) error
	GetByID(ctx context.Context, ownerID, id string) (*Trustee, error)
	// LockByID reads a trustee regardless of owner, locking the row inside a transaction.
	LockByID(ctx context.Context, id string) (*Trustee, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Trustee, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	GetByOwnerAndEmail(ctx context.Context, ownerID, email string) (*Trustee, error)
	// LatestForEmail prefers a pending row, then the most recently created one.
	LatestForEmail(ctx context.Context, email string) (*Trustee, error)
	GetByTokenHash(ctx context.Context, hash string) (*Trustee, error)
	SetStatus(ctx context.Context, id string, status invitation.Status, respondedAt time.Time) error
}
