package invitation

// Respond applies an invitee response. Repeating the response already recorded
// is a no-op (changed == false); contradicting it is ErrAlreadyResponded.
func Respond(current Status, action Action) (next Status, changed bool, err error) {
	switch action {
	case ActionAccept, ActionReject:
	default:
		return current, false, ErrInvalidAction
	}

	switch current {
	case StatusPending:
		if action == ActionAccept {
			return StatusAccepted, true, nil
		}
		return StatusRejected, true, nil
	case StatusAccepted, StatusGranted:
		if action == ActionAccept {
			return current, false, nil
		}
		return current, false, ErrAlreadyResponded
	case StatusRejected:
		if action == ActionReject {
			return current, false, nil
		}
		return current, false, ErrAlreadyResponded
	default:
		return current, false, ErrInvalidTransition
	}
}

// Reissue moves a not-yet-answered invitation (or a fresh record) to pending.
func Reissue(current Status) (Status, error) {
	switch current {
	case StatusNone, StatusPending, "":
		return StatusPending, nil
	default:
		return current, ErrInvalidTransition
	}
}

// Grant is the trustee-mediated activation. Rejected invitations stay terminal;
// everything else may be granted, eligibility is decided by the approval policy.
func Grant(current Status) (Status, bool, error) {
	switch current {
	case StatusGranted:
		return StatusGranted, false, nil
	case StatusRejected:
		return current, false, ErrInvalidTransition
	default:
		return StatusGranted, true, nil
	}
}

// Decline is the trustee-mediated rejection of a nominee that is not yet granted.
func Decline(current Status) (Status, bool, error) {
	switch current {
	case StatusRejected:
		return StatusRejected, false, nil
	case StatusGranted:
		return current, false, ErrInvalidTransition
	default:
		return StatusRejected, true, nil
	}
}

// Answered reports whether the invitee has accepted, including after the grant.
func (s Status) Answered() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusGranted
}

// AcceptedOrGranted is the status predicate used by approval aggregation.
func (s Status) AcceptedOrGranted() bool {
	return s == StatusAccepted || s == StatusGranted
}
