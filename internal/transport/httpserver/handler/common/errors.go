package common

import (
	"errors"
	"net/http"

	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/invitation"
	"legacy-keeper-go/internal/domain/nominee"
	roledomain "legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/internal/domain/trustee"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/internal/domain/validation"
	"legacy-keeper-go/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{roledomain.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated", "not authenticated"},
	{trustee.ErrTrusteeNotFound, http.StatusNotFound, "not_found", "trustee not found"},
	{nominee.ErrNomineeNotFound, http.StatusNotFound, "not_found", "nominee not found"},
	{approval.ErrNomineeNotFound, http.StatusNotFound, "not_found", "nominee not found"},
	{userdomain.ErrUserNotFound, http.StatusNotFound, "not_found", "user not found"},
	{invitation.ErrInvalidToken, http.StatusNotFound, "invalid_token", "invitation link is invalid or has expired"},
	{trustee.ErrDuplicateTrustee, http.StatusConflict, "duplicate_trustee", "a trustee already exists for this account"},
	{nominee.ErrDuplicateNominee, http.StatusConflict, "duplicate_nominee", "a nominee with this email already exists"},
	{invitation.ErrAlreadyResponded, http.StatusConflict, "invalid_transition", "invitation already responded"},
	{invitation.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "action not allowed in the current status"},
	{approval.ErrNotEligible, http.StatusConflict, "not_eligible", "action not allowed by the approval policy"},
	{approval.ErrNotTrustee, http.StatusForbidden, "forbidden", "only the accepted trustee can do this"},
	{invitation.ErrInvalidAction, http.StatusBadRequest, "invalid_request", "action must be accept or reject"},
	{approval.ErrInvalidDecision, http.StatusBadRequest, "invalid_request", "decision must be approve or reject"},
}

// WriteServiceError maps a domain error onto the HTTP error envelope. Known
// errors are logged as business errors, anything else as internal.
func WriteServiceError(w http.ResponseWriter, log logger.Logger, op string, err error, kv ...any) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		log.BusinessError(op+": validation failed", err, kv...)
		writeFieldsError(w, http.StatusBadRequest, "validation_error", "validation failed", validationErr.Fields)
		return
	}

	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			log.BusinessError(op, err, kv...)
			writeError(w, mapping.status, mapping.code, mapping.message)
			return
		}
	}

	log.InternalError(op, err, kv...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
