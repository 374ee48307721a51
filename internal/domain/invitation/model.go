package invitation

import (
	"fmt"
	"strings"
)

type Status string

const (
	// StatusNone means no invitation has been sent yet.
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	// StatusGranted is set once the nominee role has been activated by the trustee.
	StatusGranted Status = "granted"
)

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionAccept:
		return ActionAccept, nil
	case ActionReject:
		return ActionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, value)
	}
}

// Outcome describes what an invitation response did beyond the status change.
type Outcome string

const (
	OutcomeRoleGranted         Outcome = "role_granted"
	OutcomePendingRegistration Outcome = "pending_registration"
	OutcomeRejected            Outcome = "rejected"
)

// Kind is the delegate role an invitation is addressed to.
type Kind string

const (
	KindNominee Kind = "nominee"
	KindTrustee Kind = "trustee"
)
