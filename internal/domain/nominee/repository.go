package nominee

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// Create returns ErrDuplicateNominee when the owner already nominated the email.
	Create(ctx context.Context, nominee *Nominee) error
	Save(ctx context.Context, nominee *Nominee) error
	Delete(ctx context.Context, ownerID, id string) error
	GetByID(ctx context.Context, ownerID, id string) (*Nominee, error)
	LockByID(ctx context.Context, ownerID, id string) (*Nominee, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Nominee, error)
	GetByOwnerAndEmail(ctx context.Context, ownerID, email string) (*Nominee, error)
	GetByTokenHash(ctx context.Context, hash string) (*Nominee, error)
	LockByTokenHash(ctx context.Context, hash string) (*Nominee, error)
}
