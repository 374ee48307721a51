package approvals

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	approvaldomain "legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/invitation"
	roledomain "legacy-keeper-go/internal/domain/role"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/internal/transport/httpserver/middleware"
)

type nomineeActionRequest struct {
	NomineeID string `json:"nomineeId"`
	UserEmail string `json:"userEmail"`
}

type decideRequest struct {
	UserEmail string `json:"userEmail"`
}

type sendRequestResponse struct {
	Nominee        approvaldomain.Candidate `json:"nominee"`
	InvitationLink string                   `json:"invitation_link"`
}

type addNomineeResponse struct {
	Nominee approvaldomain.Candidate `json:"nominee"`
	Outcome invitation.Outcome       `json:"outcome"`
}

type decideResponse struct {
	Decision approvaldomain.Decision         `json:"decision"`
	Results  []approvaldomain.DecisionResult `json:"results"`
}

// Board lists the owner's nominees with what the trustee may do for each.
func (h *Handlers) Board(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r.Context(), r.URL.Query().Get("userEmail"))
	if err != nil {
		writeServiceError(w, h.log, "approvals.board: resolve owner failed", err)
		return
	}

	board, err := h.Approvals.Board(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.log, "approvals.board: load board failed", err, "user_id", actor.UserID, "owner_id", actor.OwnerID)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handlers) SendRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNomineeAction(w, r)
	if !ok {
		return
	}

	actor, err := h.actor(r.Context(), req.UserEmail)
	if err != nil {
		writeServiceError(w, h.log, "approvals.send_request: resolve owner failed", err)
		return
	}

	candidate, link, err := h.Approvals.SendRequest(r.Context(), actor, req.NomineeID)
	if err != nil {
		writeServiceError(w, h.log, "approvals.send_request: send failed", err, "user_id", actor.UserID, "owner_id", actor.OwnerID, "nominee_id", req.NomineeID)
		return
	}
	writeJSON(w, http.StatusOK, sendRequestResponse{Nominee: candidate, InvitationLink: link})
}

func (h *Handlers) AddNominee(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNomineeAction(w, r)
	if !ok {
		return
	}

	actor, err := h.actor(r.Context(), req.UserEmail)
	if err != nil {
		writeServiceError(w, h.log, "approvals.add_nominee: resolve owner failed", err)
		return
	}

	candidate, outcome, err := h.Approvals.AddNominee(r.Context(), actor, req.NomineeID)
	if err != nil {
		writeServiceError(w, h.log, "approvals.add_nominee: grant failed", err, "user_id", actor.UserID, "owner_id", actor.OwnerID, "nominee_id", req.NomineeID)
		return
	}
	writeJSON(w, http.StatusOK, addNomineeResponse{Nominee: candidate, Outcome: outcome})
}

func (h *Handlers) ApproveAll(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, approvaldomain.DecisionApprove)
}

func (h *Handlers) RejectAll(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, approvaldomain.DecisionReject)
}

func (h *Handlers) decide(w http.ResponseWriter, r *http.Request, decision approvaldomain.Decision) {
	var req decideRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.UserEmail == "" {
		req.UserEmail = r.URL.Query().Get("userEmail")
	}

	actor, err := h.actor(r.Context(), req.UserEmail)
	if err != nil {
		writeServiceError(w, h.log, "approvals.decide: resolve owner failed", err)
		return
	}

	results, err := h.Approvals.Decide(r.Context(), actor, decision)
	if err != nil {
		writeServiceError(w, h.log, "approvals.decide: decision failed", err, "user_id", actor.UserID, "owner_id", actor.OwnerID, "decision", decision)
		return
	}
	writeJSON(w, http.StatusOK, decideResponse{Decision: decision, Results: results})
}

// actor identifies the trustee and the owner they act for. The owner is named
// by email, or taken from the trustee delegation of the current request.
func (h *Handlers) actor(ctx context.Context, ownerEmail string) (approvaldomain.Actor, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return approvaldomain.Actor{}, roledomain.ErrNotAuthenticated
	}
	actor := approvaldomain.Actor{UserID: user.ID, Email: user.Email}

	ownerEmail = strings.TrimSpace(ownerEmail)
	if ownerEmail != "" {
		owner, err := h.Owners.GetByEmail(ctx, ownerEmail)
		if err != nil {
			if errors.Is(err, userdomain.ErrUserNotFound) {
				return approvaldomain.Actor{}, approvaldomain.ErrNotTrustee
			}
			return approvaldomain.Actor{}, err
		}
		actor.OwnerID = owner.UserID
		return actor, nil
	}

	current := middleware.RoleFromContext(ctx)
	if current.Name == roledomain.NameTrustee && current.RelatedUser != nil {
		actor.OwnerID = current.RelatedUser.ID
	}
	return actor, nil
}

func decodeNomineeAction(w http.ResponseWriter, r *http.Request) (nomineeActionRequest, bool) {
	var req nomineeActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return req, false
	}
	req.NomineeID = strings.TrimSpace(req.NomineeID)
	if req.NomineeID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "nomineeId is required")
		return req, false
	}
	if req.UserEmail == "" {
		req.UserEmail = r.URL.Query().Get("userEmail")
	}
	return req, true
}
