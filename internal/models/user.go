package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser represents an operator account for the admin endpoints.
// There is no self-service signup; rows are seeded or created manually.
type AdminUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName overrides the default table name.
func (AdminUser) TableName() string {
	return "admin_users"
}
