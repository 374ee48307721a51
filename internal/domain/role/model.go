package role

import (
	"time"

	userdomain "legacy-keeper-go/internal/domain/user"
)

const (
	NameUser    = "user"
	NameNominee = "nominee"
	NameTrustee = "trustee"
)

type Role struct {
	ID   string `gorm:"type:uuid;primaryKey"`
	Name string `gorm:"size:32;not null;uniqueIndex"`
}

func (Role) TableName() string { return "roles" }

// Assignment grants UserID a role relative to RelatedUserID (the inviting owner).
type Assignment struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	UserID        string    `gorm:"type:uuid;not null;index"`
	RoleID        string    `gorm:"type:uuid;not null"`
	RelatedUserID *string   `gorm:"type:uuid;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (Assignment) TableName() string { return "user_roles" }

// Delegation is an assignment joined with its role name and owner profile.
type Delegation struct {
	RoleName  string
	Owner     userdomain.Public
	CreatedAt time.Time
}

// Descriptor is the per-request role context: whose data the caller is viewing
// and, for nominees, through which access categories.
type Descriptor struct {
	Name             string             `json:"name"`
	RelatedUser      *userdomain.Public `json:"related_user,omitempty"`
	AccessCategories []string           `json:"access_categories,omitempty"`
}

func DefaultDescriptor() *Descriptor {
	return &Descriptor{Name: NameUser}
}

func (d *Descriptor) IsDelegate() bool {
	return d != nil && (d.Name == NameNominee || d.Name == NameTrustee)
}

// Subject is the authenticated caller.
type Subject struct {
	ID    string
	Email string
}
