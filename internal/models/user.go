package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultUnlockedItems is the cosmetic set every account starts with.
var DefaultUnlockedItems = []string{"font-sans", "color-black", "bg-white", "size-medium"}

type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null"`
	Username string    `json:"username" gorm:"uniqueIndex;not null"`
	Password string    `json:"-" gorm:"not null"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	Points        int      `json:"points" gorm:"not null;default:0"`
	UnlockedItems []string `json:"unlockedItems" gorm:"serializer:json"`

	// Day keys (YYYY-MM-DD in the reset time zone). Nil means the user has
	// never performed the action.
	LastSentDate     *string `json:"lastSentDate"`
	LastReceivedDate *string `json:"lastReceivedDate"`

	Banned      bool     `json:"banned" gorm:"default:false"`
	Roles       []string `json:"roles" gorm:"serializer:json"`
	AccountType string   `json:"accountType" gorm:"default:regular"`

	AvatarURL              string `json:"avatarUrl"`
	HasRegeneratedUsername bool   `json:"hasRegeneratedUsername" gorm:"default:false"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the account carries admin privileges.
func (u *User) IsAdmin() bool {
	if u.AccountType == "admin" {
		return true
	}
	for _, role := range u.Roles {
		if role == "admin" {
			return true
		}
	}
	return false
}
