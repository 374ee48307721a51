package nominee

import (
	"context"
	"errors"

	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/invitation"
)

// ApprovalDirectory exposes the nominee service to the approval board.
type ApprovalDirectory struct {
	svc *Service
}

func NewApprovalDirectory(svc *Service) *ApprovalDirectory {
	return &ApprovalDirectory{svc: svc}
}

func (d *ApprovalDirectory) Candidates(ctx context.Context, ownerID string) ([]approval.Candidate, error) {
	nominees, err := d.svc.ListNominees(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := make([]approval.Candidate, 0, len(nominees))
	for i := range nominees {
		result = append(result, toCandidate(&nominees[i]))
	}
	return result, nil
}

func (d *ApprovalDirectory) RequestApproval(ctx context.Context, ownerID, nomineeID string) (approval.Candidate, string, error) {
	result, err := d.svc.SendRequest(ctx, ownerID, nomineeID)
	if err != nil {
		return approval.Candidate{}, "", translate(err)
	}
	return toCandidate(result.Nominee), result.InvitationLink, nil
}

func (d *ApprovalDirectory) GrantAccess(ctx context.Context, ownerID, nomineeID string) (approval.Candidate, invitation.Outcome, error) {
	nominee, outcome, err := d.svc.GrantRole(ctx, ownerID, nomineeID)
	if err != nil {
		return approval.Candidate{}, "", translate(err)
	}
	return toCandidate(nominee), outcome, nil
}

func (d *ApprovalDirectory) Decline(ctx context.Context, ownerID, nomineeID string) (approval.Candidate, error) {
	nominee, err := d.svc.Decline(ctx, ownerID, nomineeID)
	if err != nil {
		return approval.Candidate{}, translate(err)
	}
	return toCandidate(nominee), nil
}

func toCandidate(nominee *Nominee) approval.Candidate {
	return approval.Candidate{
		ID:               nominee.ID,
		Name:             nominee.Name,
		Email:            nominee.Email,
		Relationship:     nominee.Relationship,
		AccessCategories: nominee.Categories(),
		Status:           nominee.Status,
	}
}

func translate(err error) error {
	if errors.Is(err, ErrNomineeNotFound) {
		return approval.ErrNomineeNotFound
	}
	return err
}

// AccessLookup reads granted categories straight from the repository for the
// role registry.
type AccessLookup struct {
	repo Repository
}

func NewAccessLookup(repo Repository) *AccessLookup {
	return &AccessLookup{repo: repo}
}

// NomineeAccess reports found=false when the row is gone or was rejected, which
// revokes access even if a stale assignment remains.
func (l *AccessLookup) NomineeAccess(ctx context.Context, ownerID, email string) ([]string, bool, error) {
	nominee, err := l.repo.GetByOwnerAndEmail(ctx, ownerID, email)
	if err != nil {
		if errors.Is(err, ErrNomineeNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if nominee.Status == invitation.StatusRejected {
		return nil, false, nil
	}
	return nominee.Categories(), true, nil
}
