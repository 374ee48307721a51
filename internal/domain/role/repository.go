package role

import "context"

type Repository interface {
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	// UpsertAssignment inserts unless (user, role, related user) already exists.
	UpsertAssignment(ctx context.Context, assignment *Assignment) (bool, error)
	DeleteAssignment(ctx context.Context, userID, roleID, relatedUserID string) error
	// ListDelegations returns nominee and trustee assignments, oldest first.
	ListDelegations(ctx context.Context, userID string) ([]Delegation, error)
}

// NomineeAccess resolves the access categories granted on the nominee row
// addressed to email under owner. found is false when the row is gone.
type NomineeAccess interface {
	NomineeAccess(ctx context.Context, ownerID, email string) (categories []string, found bool, err error)
}

// TrusteeStatus reports whether email is the accepted trustee of owner.
type TrusteeStatus interface {
	TrusteeActive(ctx context.Context, ownerID, email string) (bool, error)
}
