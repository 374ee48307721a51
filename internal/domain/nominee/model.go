package nominee

import (
	"time"

	"github.com/lib/pq"
	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	userdomain "legacy-keeper-go/internal/domain/user"
)

type Nominee struct {
	ID                    string            `gorm:"type:uuid;primaryKey"`
	UserID                string            `gorm:"type:uuid;not null;index"`
	Name                  string            `gorm:"not null"`
	Email                 string            `gorm:"not null"`
	Relationship          string            `gorm:"not null"`
	Phone                 string            `gorm:"not null"`
	AccessCategories      pq.StringArray    `gorm:"type:text[];not null"`
	ProfilePhotoURL       *string           `gorm:"column:profile_photo_url"`
	GovernmentIDURL       *string           `gorm:"column:government_id_url"`
	Status                invitation.Status `gorm:"type:varchar(16);not null"`
	InvitationToken       *string           `gorm:"type:text"`
	InvitationSentAt      *time.Time
	InvitationExpiresAt   *time.Time
	InvitationRespondedAt *time.Time
	GrantedAt             *time.Time
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (Nominee) TableName() string { return "nominees" }

func (n *Nominee) Categories() []string {
	result := make([]string, len(n.AccessCategories))
	copy(result, n.AccessCategories)
	return result
}

type Input struct {
	Name             string
	Email            string
	Relationship     string
	Phone            string
	AccessCategories []string
	// SendInvitation issues a token right away instead of leaving the nominee at none.
	SendInvitation bool
	Files          []attachment.File
}

type Result struct {
	Nominee          *Nominee
	InvitationLink   string
	AttachmentErrors []attachment.Failure
}

// Details is the onboarding view behind a nominee invitation link.
type Details struct {
	Nominee *Nominee
	Inviter userdomain.Public
}

type Verification struct {
	Nominee *Nominee
	Outcome invitation.Outcome
}
