package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal owner record referenced by loops and mastery rows.
// Identity issuance and session management live outside this service.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email       string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"column:display_name" json:"display_name,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
