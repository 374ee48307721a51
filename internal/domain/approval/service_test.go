package approval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"legacy-keeper-go/internal/domain/invitation"
	"legacy-keeper-go/pkg/logger"
)

type fakeTrustees struct {
	policies map[string]Policy
}

func (f *fakeTrustees) ActivePolicy(ctx context.Context, ownerID, email string) (Policy, bool, error) {
	policy, ok := f.policies[ownerID+"|"+email]
	return policy, ok, nil
}

type fakeNominees struct {
	items      map[string]*Candidate
	order      []string
	grantCalls int
}

func newFakeNominees(statuses ...invitation.Status) *fakeNominees {
	f := &fakeNominees{items: make(map[string]*Candidate)}
	for _, candidate := range candidates(statuses...) {
		c := candidate
		f.items[c.ID] = &c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *fakeNominees) Candidates(ctx context.Context, ownerID string) ([]Candidate, error) {
	result := make([]Candidate, 0, len(f.order))
	for _, id := range f.order {
		result = append(result, *f.items[id])
	}
	return result, nil
}

func (f *fakeNominees) RequestApproval(ctx context.Context, ownerID, nomineeID string) (Candidate, string, error) {
	c := f.items[nomineeID]
	c.Status = invitation.StatusPending
	return *c, "https://app/nominee-onboarding?token=t", nil
}

func (f *fakeNominees) GrantAccess(ctx context.Context, ownerID, nomineeID string) (Candidate, invitation.Outcome, error) {
	f.grantCalls++
	c := f.items[nomineeID]
	c.Status = invitation.StatusGranted
	return *c, invitation.OutcomeRoleGranted, nil
}

func (f *fakeNominees) Decline(ctx context.Context, ownerID, nomineeID string) (Candidate, error) {
	c := f.items[nomineeID]
	c.Status = invitation.StatusRejected
	return *c, nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

var actor = Actor{UserID: "t-user", Email: "t@x.com", OwnerID: "owner-1"}

func newService(policy Policy, nominees *fakeNominees) *Service {
	trustees := &fakeTrustees{policies: map[string]Policy{"owner-1|t@x.com": policy}}
	return NewService(trustees, nominees, BulkGateAllAccepted, testLogger())
}

func TestBoardRequiresActiveTrustee(t *testing.T) {
	svc := newService(PolicyGroup, newFakeNominees())

	_, err := svc.Board(context.Background(), Actor{UserID: "x", Email: "other@x.com", OwnerID: "owner-1"})
	if !errors.Is(err, ErrNotTrustee) {
		t.Fatalf("expected ErrNotTrustee, got %v", err)
	}
}

func TestAddNomineeEnforcesPolicy(t *testing.T) {
	nominees := newFakeNominees(invitation.StatusAccepted, invitation.StatusPending)
	svc := newService(PolicyIndividual, nominees)
	ctx := context.Background()

	if _, _, err := svc.AddNominee(ctx, actor, "b"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for pending nominee, got %v", err)
	}

	candidate, outcome, err := svc.AddNominee(ctx, actor, "a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if candidate.Status != invitation.StatusGranted || outcome != invitation.OutcomeRoleGranted {
		t.Fatalf("unexpected result %+v %q", candidate, outcome)
	}

	if _, _, err := svc.AddNominee(ctx, actor, "a"); err != nil {
		t.Fatalf("re-adding a granted nominee should succeed, got %v", err)
	}

	if _, _, err := svc.AddNominee(ctx, actor, "zzz"); !errors.Is(err, ErrNomineeNotFound) {
		t.Fatalf("expected ErrNomineeNotFound, got %v", err)
	}
}

func TestSendRequestOnlyForUninvited(t *testing.T) {
	nominees := newFakeNominees(invitation.StatusNone, invitation.StatusPending)
	svc := newService(PolicyGroup, nominees)
	ctx := context.Background()

	candidate, link, err := svc.SendRequest(ctx, actor, "a")
	if err != nil || candidate.Status != invitation.StatusPending || link == "" {
		t.Fatalf("unexpected send result %+v %q %v", candidate, link, err)
	}
	if _, _, err := svc.SendRequest(ctx, actor, "b"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

func TestDecideApproveGrantsEveryAcceptedNominee(t *testing.T) {
	nominees := newFakeNominees(invitation.StatusAccepted, invitation.StatusAccepted, invitation.StatusGranted)
	svc := newService(PolicyGroup, nominees)

	results, err := svc.Decide(context.Background(), actor, DecisionApprove)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 2 || nominees.grantCalls != 2 {
		t.Fatalf("expected two grants, got %d results and %d calls", len(results), nominees.grantCalls)
	}
}

func TestDecideLockedUntilAllAccepted(t *testing.T) {
	nominees := newFakeNominees(invitation.StatusAccepted, invitation.StatusPending)
	svc := newService(PolicyIndividual, nominees)

	if _, err := svc.Decide(context.Background(), actor, DecisionReject); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

func TestDecideReject(t *testing.T) {
	nominees := newFakeNominees(invitation.StatusAccepted, invitation.StatusAccepted)
	svc := newService(PolicyGroup, nominees)

	results, err := svc.Decide(context.Background(), actor, DecisionReject)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, result := range results {
		if result.Status != invitation.StatusRejected {
			t.Fatalf("expected rejected, got %+v", result)
		}
	}
}
