package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PresaleStage represents the current campaign stage of the token presale.
// The most recently updated row is the authoritative one.
type PresaleStage struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TotalRaised  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalRaised"`
	TotalSupply  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"totalSupply"`
	CurrentRate  decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"currentRate"` // tokens per USDT
	StageEndTime time.Time       `gorm:"not null" json:"stageEndTime"`
	IsActive     bool            `gorm:"not null;default:true" json:"isActive"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updatedAt"`
}

// TableName overrides the default table name.
func (PresaleStage) TableName() string {
	return "presale_stages"
}

// Percentage returns the funding progress as a value in [0, 100].
// A zero goal yields zero rather than a division error.
func (p *PresaleStage) Percentage() decimal.Decimal {
	if p.TotalSupply.IsZero() {
		return decimal.Zero
	}
	return p.TotalRaised.Div(p.TotalSupply).Mul(decimal.NewFromInt(100))
}
