package trustee

import (
	"time"

	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	userdomain "legacy-keeper-go/internal/domain/user"
)

// Trustee is the single delegate appointed by UserID (the owner).
type Trustee struct {
	ID                    string            `gorm:"type:uuid;primaryKey"`
	UserID                string            `gorm:"type:uuid;not null;uniqueIndex"`
	Name                  string            `gorm:"not null"`
	Email                 string            `gorm:"not null"`
	Relationship          string            `gorm:"not null"`
	Phone                 string            `gorm:"not null"`
	ProfilePhotoURL       *string           `gorm:"column:profile_photo_url"`
	GovernmentIDURL       *string           `gorm:"column:government_id_url"`
	ApprovalType          approval.Policy   `gorm:"type:varchar(16);not null"`
	ApprovalLabel         *string           `gorm:"type:text"`
	Status                invitation.Status `gorm:"type:varchar(16);not null"`
	InvitationToken       *string           `gorm:"type:text"`
	InvitationSentAt      *time.Time
	InvitationExpiresAt   *time.Time
	InvitationRespondedAt *time.Time
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (Trustee) TableName() string { return "trustees" }

// Label is the policy text shown to people; the legacy free text wins when present.
func (t *Trustee) Label() string {
	if t.ApprovalLabel != nil && *t.ApprovalLabel != "" {
		return *t.ApprovalLabel
	}
	return t.ApprovalType.Label()
}

type Input struct {
	Name         string
	Email        string
	Relationship string
	Phone        string
	ApprovalType string
	Files        []attachment.File
}

// Result is a written trustee plus what happened around the write.
// InvitationLink is only set when a new token was issued.
type Result struct {
	Trustee          *Trustee
	InvitationLink   string
	AttachmentErrors []attachment.Failure
}

// Invitation is what an invitee sees: the trustee row and who sent it.
type Invitation struct {
	Trustee *Trustee
	Owner   userdomain.Public
}
