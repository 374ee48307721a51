package trustees

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	trusteedomain "legacy-keeper-go/internal/domain/trustee"
	commonhandler "legacy-keeper-go/internal/transport/httpserver/handler/common"
	"legacy-keeper-go/internal/transport/httpserver/middleware"
)

type trusteeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	ApprovalType string `json:"approval_type"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *Handlers) ListTrustees(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	trustees, err := h.Trustees.ListTrustees(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, "trustees.list: list failed", err, "user_id", user.ID)
		return
	}

	response := make([]trusteeResponse, 0, len(trustees))
	for i := range trustees {
		response = append(response, toTrusteeResponse(&trustees[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CountTrustees(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	count, err := h.Trustees.CountTrustees(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, "trustees.count: count failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *Handlers) CreateTrustee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	input, ok := h.readInput(w, r)
	if !ok {
		return
	}

	result, err := h.Trustees.AddTrustee(r.Context(), user.ID, input)
	if err != nil {
		writeServiceError(w, h.log, "trustees.create: add trustee failed", err, "user_id", user.ID)
		return
	}
	if len(result.AttachmentErrors) > 0 {
		h.log.Warn("trustees.create: some attachments were not stored", "user_id", user.ID, "trustee_id", result.Trustee.ID, "failed", len(result.AttachmentErrors))
	}

	writeJSON(w, http.StatusCreated, toWriteResponse(result))
}

func (h *Handlers) UpdateTrustee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	id := chi.URLParam(r, "id")

	input, ok := h.readInput(w, r)
	if !ok {
		return
	}

	result, err := h.Trustees.UpdateTrustee(r.Context(), user.ID, id, input)
	if err != nil {
		writeServiceError(w, h.log, "trustees.update: update trustee failed", err, "user_id", user.ID, "trustee_id", id)
		return
	}

	writeJSON(w, http.StatusOK, toWriteResponse(result))
}

func (h *Handlers) DeleteTrustee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.Trustees.DeleteTrustee(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, h.log, "trustees.delete: delete trustee failed", err, "user_id", user.ID, "trustee_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ReissueInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	id := chi.URLParam(r, "id")

	result, err := h.Trustees.ReissueInvitation(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.log, "trustees.invite: reissue invitation failed", err, "user_id", user.ID, "trustee_id", id)
		return
	}

	writeJSON(w, http.StatusOK, toWriteResponse(result))
}

// readInput accepts a JSON body or a multipart form with attachment parts.
// It writes the error response itself and reports whether to continue.
func (h *Handlers) readInput(w http.ResponseWriter, r *http.Request) (trusteedomain.Input, bool) {
	if commonhandler.IsMultipart(r) {
		files, err := commonhandler.ReadMultipart(w, r, h.maxBody)
		if err != nil {
			h.log.BusinessError("trustees: invalid multipart body", err)
			writeError(w, http.StatusBadRequest, "invalid_form", "invalid multipart body")
			return trusteedomain.Input{}, false
		}
		return trusteedomain.Input{
			Name:         commonhandler.FormString(r, "name"),
			Email:        commonhandler.FormString(r, "email"),
			Relationship: commonhandler.FormString(r, "relationship"),
			Phone:        commonhandler.FormString(r, "phone"),
			ApprovalType: commonhandler.FormString(r, "approval_type"),
			Files:        files,
		}, true
	}

	var req trusteeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return trusteedomain.Input{}, false
	}
	return trusteedomain.Input{
		Name:         req.Name,
		Email:        req.Email,
		Relationship: req.Relationship,
		Phone:        req.Phone,
		ApprovalType: req.ApprovalType,
	}, true
}
