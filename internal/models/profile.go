package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a user's row in the external identity/profile store.
// The relay only ever touches the presence columns.
type Profile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:text" json:"username"`
	IsOnline  bool      `gorm:"not null;default:false;index" json:"is_online"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID when the profile has no ID yet.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
