package nominees

import (
	"time"

	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
	userdomain "legacy-keeper-go/internal/domain/user"
)

type nomineeResponse struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Email                 string            `json:"email"`
	Relationship          string            `json:"relationship"`
	Phone                 string            `json:"phone"`
	AccessCategories      []string          `json:"access_categories"`
	ProfilePhotoURL       *string           `json:"profile_photo_url"`
	GovernmentIDURL       *string           `json:"government_id_url"`
	Status                invitation.Status `json:"status"`
	InvitationSentAt      *time.Time        `json:"invitation_sent_at"`
	InvitationExpiresAt   *time.Time        `json:"invitation_expires_at"`
	InvitationRespondedAt *time.Time        `json:"invitation_responded_at"`
	GrantedAt             *time.Time        `json:"granted_at"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type writeResponse struct {
	Nominee          nomineeResponse      `json:"nominee"`
	InvitationLink   string               `json:"invitation_link,omitempty"`
	AttachmentErrors []attachment.Failure `json:"attachment_errors,omitempty"`
}

type detailsResponse struct {
	NomineeID           string            `json:"nominee_id"`
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Relationship        string            `json:"relationship"`
	AccessCategories    []string          `json:"access_categories"`
	Status              invitation.Status `json:"status"`
	InvitationExpiresAt *time.Time        `json:"invitation_expires_at"`
	Inviter             userdomain.Public `json:"inviter"`
}

type verifyResponse struct {
	NomineeID string             `json:"nominee_id"`
	Status    invitation.Status  `json:"status"`
	Outcome   invitation.Outcome `json:"outcome"`
}

func toNomineeResponse(nominee *nomineedomain.Nominee) nomineeResponse {
	return nomineeResponse{
		ID:                    nominee.ID,
		Name:                  nominee.Name,
		Email:                 nominee.Email,
		Relationship:          nominee.Relationship,
		Phone:                 nominee.Phone,
		AccessCategories:      nominee.Categories(),
		ProfilePhotoURL:       nominee.ProfilePhotoURL,
		GovernmentIDURL:       nominee.GovernmentIDURL,
		Status:                nominee.Status,
		InvitationSentAt:      nominee.InvitationSentAt,
		InvitationExpiresAt:   nominee.InvitationExpiresAt,
		InvitationRespondedAt: nominee.InvitationRespondedAt,
		GrantedAt:             nominee.GrantedAt,
		CreatedAt:             nominee.CreatedAt,
		UpdatedAt:             nominee.UpdatedAt,
	}
}

func toWriteResponse(result *nomineedomain.Result) writeResponse {
	return writeResponse{
		Nominee:          toNomineeResponse(result.Nominee),
		InvitationLink:   result.InvitationLink,
		AttachmentErrors: result.AttachmentErrors,
	}
}

func toDetailsResponse(details *nomineedomain.Details) detailsResponse {
	return detailsResponse{
		NomineeID:           details.Nominee.ID,
		Name:                details.Nominee.Name,
		Email:               details.Nominee.Email,
		Relationship:        details.Nominee.Relationship,
		AccessCategories:    details.Nominee.Categories(),
		Status:              details.Nominee.Status,
		InvitationExpiresAt: details.Nominee.InvitationExpiresAt,
		Inviter:             details.Inviter,
	}
}
