package trustees

import (
	"net/http"
	"strings"

	"legacy-keeper-go/internal/domain/invitation"
	roledomain "legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/internal/transport/httpserver/middleware"
)

type respondRequest struct {
	TrusteeID string `json:"trusteeId"`
}

// GetInvitationByToken is the public view behind an invitation link.
func (h *Handlers) GetInvitationByToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))

	inv, err := h.Trustees.InvitationByToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.log, "trustee_onboarding.get: lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationResponse(inv))
}

// GetSessionInvitation finds the invitation addressed to the signed-in account.
func (h *Handlers) GetSessionInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	inv, err := h.Trustees.InvitationForInvitee(r.Context(), user.Email)
	if err != nil {
		writeServiceError(w, h.log, "trustee_onboarding.session: lookup failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationResponse(inv))
}

func (h *Handlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, invitation.ActionAccept)
}

func (h *Handlers) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, invitation.ActionReject)
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, action invitation.Action) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.TrusteeID = strings.TrimSpace(req.TrusteeID)
	if req.TrusteeID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "trusteeId is required")
		return
	}

	invitee := roledomain.Subject{ID: user.ID, Email: user.Email}
	trustee, err := h.Trustees.Respond(r.Context(), invitee, req.TrusteeID, action)
	if err != nil {
		writeServiceError(w, h.log, "trustee_onboarding.respond: respond failed", err, "user_id", user.ID, "trustee_id", req.TrusteeID, "action", action)
		return
	}
	writeJSON(w, http.StatusOK, toTrusteeResponse(trustee))
}
