package nominee

import "errors"

var (
	ErrNomineeNotFound  = errors.New("nominee not found")
	ErrDuplicateNominee = errors.New("a nominee with this email already exists")
)
