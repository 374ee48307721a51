package invitation

import "errors"

var (
	// ErrInvalidToken covers unknown and expired tokens alike.
	ErrInvalidToken      = errors.New("invalid or expired invitation")
	ErrInvalidAction     = errors.New("invalid invitation action")
	ErrInvalidTransition = errors.New("invalid invitation transition")
	ErrAlreadyResponded  = errors.New("invitation already responded")
)
