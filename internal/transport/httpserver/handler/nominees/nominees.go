package nominees

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
	commonhandler "legacy-keeper-go/internal/transport/httpserver/handler/common"
	"legacy-keeper-go/internal/transport/httpserver/middleware"
)

type nomineeRequest struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Relationship     string   `json:"relationship"`
	Phone            string   `json:"phone"`
	AccessCategories []string `json:"access_categories"`
	SendInvitation   bool     `json:"send_invitation"`
}

func (h *Handlers) ListNominees(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	nominees, err := h.Nominees.ListNominees(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, "nominees.list: list failed", err, "user_id", user.ID)
		return
	}

	response := make([]nomineeResponse, 0, len(nominees))
	for i := range nominees {
		response = append(response, toNomineeResponse(&nominees[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetNominee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	id := chi.URLParam(r, "id")

	nominee, err := h.Nominees.GetNominee(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.log, "nominees.get: get nominee failed", err, "user_id", user.ID, "nominee_id", id)
		return
	}
	writeJSON(w, http.StatusOK, toNomineeResponse(nominee))
}

func (h *Handlers) CreateNominee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}

	input, ok := h.readInput(w, r)
	if !ok {
		return
	}

	result, err := h.Nominees.AddNominee(r.Context(), user.ID, input)
	if err != nil {
		writeServiceError(w, h.log, "nominees.create: add nominee failed", err, "user_id", user.ID)
		return
	}
	if len(result.AttachmentErrors) > 0 {
		h.log.Warn("nominees.create: some attachments were not stored", "user_id", user.ID, "nominee_id", result.Nominee.ID, "failed", len(result.AttachmentErrors))
	}

	writeJSON(w, http.StatusCreated, toWriteResponse(result))
}

func (h *Handlers) UpdateNominee(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.Nominees.UpdateNominee(r.Context(), user.ID, id, input)
	if err != nil {
		writeServiceError(w, h.log, "nominees.update: update nominee failed", err, "user_id", user.ID, "nominee_id", id)
		return
	}
	writeJSON(w, http.StatusOK, toWriteResponse(result))
}

func (h *Handlers) DeleteNominee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.Nominees.DeleteNominee(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, h.log, "nominees.delete: delete nominee failed", err, "user_id", user.ID, "nominee_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SendInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	}
	id := chi.URLParam(r, "id")

	result, err := h.Nominees.SendRequest(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.log, "nominees.invite: send request failed", err, "user_id", user.ID, "nominee_id", id)
		return
	}
	writeJSON(w, http.StatusOK, toWriteResponse(result))
}

func (h *Handlers) readInput(w http.ResponseWriter, r *http.Request) (nomineedomain.Input, bool) {
	if commonhandler.IsMultipart(r) {
		files, err := commonhandler.ReadMultipart(w, r, h.maxBody)
		if err != nil {
			h.log.BusinessError("nominees: invalid multipart body", err)
			writeError(w, http.StatusBadRequest, "invalid_form", "invalid multipart body")
			return nomineedomain.Input{}, false
		}
		return nomineedomain.Input{
			Name:             commonhandler.FormString(r, "name"),
			Email:            commonhandler.FormString(r, "email"),
			Relationship:     commonhandler.FormString(r, "relationship"),
			Phone:            commonhandler.FormString(r, "phone"),
			AccessCategories: commonhandler.FormList(r, "access_categories"),
			SendInvitation:   commonhandler.FormBool(r, "send_invitation"),
			Files:            files,
		}, true
	}

	var req nomineeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return nomineedomain.Input{}, false
	}
	return nomineedomain.Input{
		Name:             req.Name,
		Email:            req.Email,
		Relationship:     req.Relationship,
		Phone:            req.Phone,
		AccessCategories: req.AccessCategories,
		SendInvitation:   req.SendInvitation,
	}, true
}
