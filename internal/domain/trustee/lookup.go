package trustee

import (
	"context"
	"errors"

	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/invitation"
)

// Lookup answers "is email the accepted trustee of owner" straight from the
// repository. The role registry and the approval board both depend on it.
type Lookup struct {
	repo Repository
}

func NewLookup(repo Repository) *Lookup {
	return &Lookup{repo: repo}
}

func (l *Lookup) TrusteeActive(ctx context.Context, ownerID, email string) (bool, error) {
	_, ok, err := l.ActivePolicy(ctx, ownerID, email)
	return ok, err
}

func (l *Lookup) ActivePolicy(ctx context.Context, ownerID, email string) (approval.Policy, bool, error) {
	trustee, err := l.repo.GetByOwnerAndEmail(ctx, ownerID, email)
	if err != nil {
		if errors.Is(err, ErrTrusteeNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if trustee.Status != invitation.StatusAccepted {
		return "", false, nil
	}
	return trustee.ApprovalType, true, nil
}
