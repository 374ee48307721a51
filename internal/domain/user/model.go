package user

import "time"

type Profile struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Email     *string   `gorm:"type:text"`
	Name      *string   `gorm:"type:text"`
	AvatarURL *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string { return "user_profiles" }

// Public is the part of a profile that may be shown to invitees and delegates.
type Public struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (p *Profile) Public() Public {
	if p == nil {
		return Public{}
	}
	return Public{
		ID:        p.UserID,
		Email:     deref(p.Email),
		Name:      deref(p.Name),
		AvatarURL: deref(p.AvatarURL),
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
