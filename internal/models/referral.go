package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferralCode represents a discount code tracked by usage count.
// Codes are stored upper-cased and matched case-insensitively.
type ReferralCode struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Code            string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discountPercent"`
	IsActive        bool            `gorm:"not null;default:true" json:"isActive"`
	UsageCount      int             `gorm:"not null;default:0" json:"usageCount"`
	CreatedAt       time.Time       `gorm:"not null" json:"createdAt"`
}
