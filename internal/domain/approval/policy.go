package approval

import (
	"errors"
	"fmt"
	"strings"
)

// Policy decides when a nominee's access may be activated by the trustee.
type Policy string

const (
	PolicyIndividual Policy = "individual"
	PolicyGroup      Policy = "group"
	PolicyNoRequest  Policy = "no_request"
)

var ErrUnknownPolicy = errors.New("unknown approval type")

// ParsePolicy accepts the closed values as well as legacy free-text labels such
// as "Group Approval", matched case-insensitively by substring.
func ParsePolicy(value string) (Policy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch Policy(normalized) {
	case PolicyIndividual, PolicyGroup, PolicyNoRequest:
		return Policy(normalized), nil
	}

	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch {
	case strings.Contains(normalized, "group"):
		return PolicyGroup, nil
	case strings.Contains(normalized, "individual"):
		return PolicyIndividual, nil
	case strings.Contains(normalized, "no request"):
		return PolicyNoRequest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, value)
}

func (p Policy) Label() string {
	switch p {
	case PolicyIndividual:
		return "Individual Approval"
	case PolicyGroup:
		return "Group Approval"
	case PolicyNoRequest:
		return "No Request"
	default:
		return string(p)
	}
}
