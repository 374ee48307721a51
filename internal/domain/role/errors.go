package role

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRoleNotFound     = errors.New("role not found")
)
