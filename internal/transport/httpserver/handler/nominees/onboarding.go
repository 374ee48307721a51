package nominees

import (
	"net/http"
	"strings"

	"legacy-keeper-go/internal/domain/invitation"
)

type verifyRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

// GetDetails is public: the token is the credential.
func (h *Handlers) GetDetails(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))

	details, err := h.Nominees.GetDetails(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.log, "nominee_onboarding.get: lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsResponse(details))
}

func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	action, err := invitation.ParseAction(req.Action)
	if err != nil {
		writeServiceError(w, h.log, "nominee_onboarding.verify: invalid action", err, "action", req.Action)
		return
	}

	result, err := h.Nominees.Verify(r.Context(), strings.TrimSpace(req.Token), action)
	if err != nil {
		writeServiceError(w, h.log, "nominee_onboarding.verify: verify failed", err, "action", action)
		return
	}
	if result.Outcome == invitation.OutcomePendingRegistration {
		h.log.Info("nominee_onboarding.verify: accepted before registration", "nominee_id", result.Nominee.ID)
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		NomineeID: result.Nominee.ID,
		Status:    result.Nominee.Status,
		Outcome:   result.Outcome,
	})
}
