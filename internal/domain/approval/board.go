package approval

import "legacy-keeper-go/internal/domain/invitation"

// BulkGate selects what unlocks the bulk approve/reject actions.
type BulkGate string

const (
	// BulkGateAllAccepted requires every nominee to have accepted, whatever the policy.
	BulkGateAllAccepted BulkGate = "all_accepted"
	// BulkGatePolicy unlocks bulk actions whenever at least one nominee is addable.
	BulkGatePolicy BulkGate = "policy"
)

type Candidate struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Relationship     string            `json:"relationship"`
	AccessCategories []string          `json:"access_categories"`
	Status           invitation.Status `json:"status"`
}

type Item struct {
	Candidate
	CanSendRequest bool `json:"can_send_request"`
	CanAdd         bool `json:"can_add"`
}

type Board struct {
	OwnerID       string `json:"owner_id"`
	Policy        Policy `json:"policy"`
	PolicyLabel   string `json:"policy_label"`
	AllAccepted   bool   `json:"all_accepted"`
	CanBulkDecide bool   `json:"can_bulk_decide"`
	Items         []Item `json:"nominees"`
}

func (b Board) Find(nomineeID string) (Item, bool) {
	for _, item := range b.Items {
		if item.ID == nomineeID {
			return item, true
		}
	}
	return Item{}, false
}

// Evaluate computes per-nominee eligibility under policy. A granted nominee
// counts as accepted.
func Evaluate(policy Policy, candidates []Candidate, gate BulkGate) Board {
	allAccepted := len(candidates) > 0
	for _, candidate := range candidates {
		if !candidate.Status.AcceptedOrGranted() {
			allAccepted = false
			break
		}
	}

	board := Board{
		Policy:      policy,
		PolicyLabel: policy.Label(),
		AllAccepted: allAccepted,
		Items:       make([]Item, 0, len(candidates)),
	}

	anyAddable := false
	for _, candidate := range candidates {
		item := Item{
			Candidate:      candidate,
			CanSendRequest: policy != PolicyNoRequest && candidate.Status == invitation.StatusNone,
			CanAdd:         canAdd(policy, candidate.Status, allAccepted),
		}
		if item.CanAdd {
			anyAddable = true
		}
		board.Items = append(board.Items, item)
	}

	switch gate {
	case BulkGatePolicy:
		board.CanBulkDecide = anyAddable
	default:
		board.CanBulkDecide = allAccepted
	}
	return board
}

func canAdd(policy Policy, status invitation.Status, allAccepted bool) bool {
	switch policy {
	case PolicyNoRequest:
		return true
	case PolicyIndividual:
		return status.AcceptedOrGranted()
	case PolicyGroup:
		return allAccepted
	default:
		return false
	}
}
