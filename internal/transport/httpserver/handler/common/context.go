package common

import (
	"net/http"

	roledomain "legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/internal/transport/httpserver/middleware"
)

type meContextResponse struct {
	Role             *roledomain.Descriptor  `json:"role"`
	EffectiveOwnerID string                  `json:"effective_owner_id"`
	Sections         []roledomain.Section    `json:"sections"`
	Delegations      []roledomain.Descriptor `json:"delegations"`
}

// MeContext describes whose data the caller is looking at and what they may open.
func (h *Handlers) MeContext(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	current := middleware.RoleFromContext(r.Context())

	ownerID, err := h.Roles.ResolveEffectiveOwnerID(r.Context(), user.ID, current)
	if err != nil {
		WriteServiceError(w, h.log, "me.context: resolve owner failed", err, "user_id", user.ID)
		return
	}

	delegations, err := h.Roles.Delegations(r.Context(), roledomain.Subject{ID: user.ID, Email: user.Email})
	if err != nil {
		WriteServiceError(w, h.log, "me.context: list delegations failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, meContextResponse{
		Role:             current,
		EffectiveOwnerID: ownerID,
		Sections:         roledomain.VisibleSections(current),
		Delegations:      delegations,
	})
}
