package trustee

import "errors"

var (
	ErrTrusteeNotFound  = errors.New("trustee not found")
	ErrDuplicateTrustee = errors.New("a trustee already exists for this account")
)
