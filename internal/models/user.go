package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account record keyed by the identity provider's subject id
// (FirebaseUID). FirebaseUID and Phone are immutable once set; the update
// path never touches them.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirebaseUID string     `gorm:"size:128;not null;uniqueIndex" json:"firebaseUid"`
	Phone       string     `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Name        string     `gorm:"size:100" json:"name"`
	Email       string     `gorm:"size:255" json:"email,omitempty"`
	Aadhaar     string     `gorm:"size:12" json:"aadhaar,omitempty"`
	Password    string     `gorm:"size:100" json:"-"`
	Role        string     `gorm:"size:20;not null" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}
