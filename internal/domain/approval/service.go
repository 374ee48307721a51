package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legacy-keeper-go/internal/domain/invitation"
	"legacy-keeper-go/pkg/logger"
)

var (
	ErrNotTrustee      = errors.New("caller is not the accepted trustee of this owner")
	ErrNotEligible     = errors.New("action not allowed by approval policy")
	ErrNomineeNotFound = errors.New("nominee not found")
	ErrInvalidDecision = errors.New("invalid decision")
)

// Actor is the trustee acting on behalf of OwnerID.
type Actor struct {
	UserID  string
	Email   string
	OwnerID string
}

type TrusteeDirectory interface {
	ActivePolicy(ctx context.Context, ownerID, email string) (Policy, bool, error)
}

type NomineeDirectory interface {
	Candidates(ctx context.Context, ownerID string) ([]Candidate, error)
	RequestApproval(ctx context.Context, ownerID, nomineeID string) (Candidate, string, error)
	GrantAccess(ctx context.Context, ownerID, nomineeID string) (Candidate, invitation.Outcome, error)
	Decline(ctx context.Context, ownerID, nomineeID string) (Candidate, error)
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(value string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(value))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", ErrInvalidDecision
	}
}

type DecisionResult struct {
	NomineeID string             `json:"nominee_id"`
	Status    invitation.Status  `json:"status"`
	Outcome   invitation.Outcome `json:"outcome,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type Service struct {
	trustees TrusteeDirectory
	nominees NomineeDirectory
	gate     BulkGate
	log      logger.Logger
}

func NewService(trustees TrusteeDirectory, nominees NomineeDirectory, gate BulkGate, log logger.Logger) *Service {
	if gate == "" {
		gate = BulkGateAllAccepted
	}
	return &Service{trustees: trustees, nominees: nominees, gate: gate, log: log}
}

// Board re-reads every nominee of the actor's owner and evaluates it under the
// owner's policy.
func (s *Service) Board(ctx context.Context, actor Actor) (Board, error) {
	if actor.OwnerID == "" || actor.Email == "" {
		return Board{}, ErrNotTrustee
	}

	policy, ok, err := s.trustees.ActivePolicy(ctx, actor.OwnerID, actor.Email)
	if err != nil {
		return Board{}, fmt.Errorf("active policy: %w", err)
	}
	if !ok {
		return Board{}, ErrNotTrustee
	}

	candidates, err := s.nominees.Candidates(ctx, actor.OwnerID)
	if err != nil {
		return Board{}, fmt.Errorf("list nominees: %w", err)
	}

	board := Evaluate(policy, candidates, s.gate)
	board.OwnerID = actor.OwnerID
	return board, nil
}

func (s *Service) SendRequest(ctx context.Context, actor Actor, nomineeID string) (Candidate, string, error) {
	item, err := s.item(ctx, actor, nomineeID)
	if err != nil {
		return Candidate{}, "", err
	}
	if !item.CanSendRequest {
		return Candidate{}, "", ErrNotEligible
	}
	return s.nominees.RequestApproval(ctx, actor.OwnerID, nomineeID)
}

// AddNominee activates the nominee's access once the policy allows it.
func (s *Service) AddNominee(ctx context.Context, actor Actor, nomineeID string) (Candidate, invitation.Outcome, error) {
	item, err := s.item(ctx, actor, nomineeID)
	if err != nil {
		return Candidate{}, "", err
	}
	if !item.CanAdd {
		return Candidate{}, "", ErrNotEligible
	}

	candidate, outcome, err := s.nominees.GrantAccess(ctx, actor.OwnerID, nomineeID)
	if err != nil {
		return Candidate{}, "", err
	}
	s.log.Info("approval: nominee added", "owner_id", actor.OwnerID, "trustee_id", actor.UserID, "nominee_id", nomineeID, "outcome", outcome)
	return candidate, outcome, nil
}

// Decide applies a bulk decision to every nominee it concerns. Per-nominee
// failures are reported in the results and do not stop the others.
func (s *Service) Decide(ctx context.Context, actor Actor, decision Decision) ([]DecisionResult, error) {
	board, err := s.Board(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !board.CanBulkDecide {
		return nil, ErrNotEligible
	}

	results := make([]DecisionResult, 0, len(board.Items))
	for _, item := range board.Items {
		var (
			candidate Candidate
			outcome   invitation.Outcome
			err       error
		)
		switch decision {
		case DecisionApprove:
			if !item.CanAdd || item.Status == invitation.StatusGranted {
				continue
			}
			candidate, outcome, err = s.nominees.GrantAccess(ctx, actor.OwnerID, item.ID)
		case DecisionReject:
			if item.Status == invitation.StatusGranted || item.Status == invitation.StatusRejected {
				continue
			}
			candidate, err = s.nominees.Decline(ctx, actor.OwnerID, item.ID)
			outcome = invitation.OutcomeRejected
		default:
			return nil, ErrInvalidDecision
		}

		result := DecisionResult{NomineeID: item.ID, Status: item.Status}
		if err != nil {
			s.log.InternalError("approval.decide: nominee decision failed", err, "owner_id", actor.OwnerID, "nominee_id", item.ID, "decision", decision)
			result.Error = err.Error()
		} else {
			result.Status = candidate.Status
			result.Outcome = outcome
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) item(ctx context.Context, actor Actor, nomineeID string) (Item, error) {
	board, err := s.Board(ctx, actor)
	if err != nil {
		return Item{}, err
	}
	item, ok := board.Find(nomineeID)
	if !ok {
		return Item{}, ErrNomineeNotFound
	}
	return item, nil
}
