package models

import (
	"net/url"
	"strings"
	"time"
)

type Role string

const (
	RoleNurse     Role = "nurse"
	RolePhysician Role = "physician"
)

func (role Role) Valid() bool {
	return role == RoleNurse || role == RolePhysician
}

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

const UnknownUsername = "Unknown"

type User struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)"`
	Email              string    `gorm:"uniqueIndex;not null"`
	Username           string    `gorm:"not null"`
	AvatarURL          string    `gorm:"not null;default:''"`
	PasswordHash       string    `gorm:"not null"`
	MustChangePassword bool      `gorm:"not null;default:false"`
	Role               Role      `gorm:"type:varchar(16);not null;default:nurse"`
	CreatedAt          time.Time `gorm:"not null"`
}

// Profile is the public projection of a user used to decorate records and messages.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Role      Role   `json:"role"`
}

func (user User) Profile() Profile {
	return Profile{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	}
}

func PlaceholderProfile(id string) Profile {
	return Profile{
		ID:        id,
		Username:  UnknownUsername,
		AvatarURL: DefaultAvatarURL("U"),
	}
}

func DefaultAvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(strings.TrimSpace(name)) + "&background=random"
}
