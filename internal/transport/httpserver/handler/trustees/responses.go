package trustees

import (
	"time"

	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	trusteedomain "legacy-keeper-go/internal/domain/trustee"
	userdomain "legacy-keeper-go/internal/domain/user"
)

type trusteeResponse struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Email                 string            `json:"email"`
	Relationship          string            `json:"relationship"`
	Phone                 string            `json:"phone"`
	ProfilePhotoURL       *string           `json:"profile_photo_url"`
	GovernmentIDURL       *string           `json:"government_id_url"`
	ApprovalType          approval.Policy   `json:"approval_type"`
	ApprovalLabel         string            `json:"approval_label"`
	Status                invitation.Status `json:"status"`
	InvitationSentAt      *time.Time        `json:"invitation_sent_at"`
	InvitationExpiresAt   *time.Time        `json:"invitation_expires_at"`
	InvitationRespondedAt *time.Time        `json:"invitation_responded_at"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type writeResponse struct {
	Trustee          trusteeResponse      `json:"trustee"`
	InvitationLink   string               `json:"invitation_link,omitempty"`
	AttachmentErrors []attachment.Failure `json:"attachment_errors,omitempty"`
}

// invitationResponse is the invitee's view; it leaves out the owner's documents.
type invitationResponse struct {
	TrusteeID           string            `json:"trustee_id"`
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Relationship        string            `json:"relationship"`
	ApprovalType        approval.Policy   `json:"approval_type"`
	ApprovalLabel       string            `json:"approval_label"`
	Status              invitation.Status `json:"status"`
	InvitationExpiresAt *time.Time        `json:"invitation_expires_at"`
	Owner               userdomain.Public `json:"owner"`
}

func toTrusteeResponse(trustee *trusteedomain.Trustee) trusteeResponse {
	return trusteeResponse{
		ID:                    trustee.ID,
		Name:                  trustee.Name,
		Email:                 trustee.Email,
		Relationship:          trustee.Relationship,
		Phone:                 trustee.Phone,
		ProfilePhotoURL:       trustee.ProfilePhotoURL,
		GovernmentIDURL:       trustee.GovernmentIDURL,
		ApprovalType:          trustee.ApprovalType,
		ApprovalLabel:         trustee.Label(),
		Status:                trustee.Status,
		InvitationSentAt:      trustee.InvitationSentAt,
		InvitationExpiresAt:   trustee.InvitationExpiresAt,
		InvitationRespondedAt: trustee.InvitationRespondedAt,
		CreatedAt:             trustee.CreatedAt,
		UpdatedAt:             trustee.UpdatedAt,
	}
}

func toWriteResponse(result *trusteedomain.Result) writeResponse {
	return writeResponse{
		Trustee:          toTrusteeResponse(result.Trustee),
		InvitationLink:   result.InvitationLink,
		AttachmentErrors: result.AttachmentErrors,
	}
}

func toInvitationResponse(inv *trusteedomain.Invitation) invitationResponse {
	return invitationResponse{
		TrusteeID:           inv.Trustee.ID,
		Name:                inv.Trustee.Name,
		Email:               inv.Trustee.Email,
		Relationship:        inv.Trustee.Relationship,
		ApprovalType:        inv.Trustee.ApprovalType,
		ApprovalLabel:       inv.Trustee.Label(),
		Status:              inv.Trustee.Status,
		InvitationExpiresAt: inv.Trustee.InvitationExpiresAt,
		Owner:               inv.Owner,
	}
}
