package referral

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pepewuff/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a code does not exist or is inactive.
// Callers cannot distinguish the two cases, which keeps inactive codes
// unguessable.
var ErrNotFound = errors.New("referral code not found or inactive")

// Service manages referral discount codes.
type Service struct {
	db *gorm.DB
}

// NewService creates a new referral service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Lookup finds an active code, matching case-insensitively.
func (s *Service) Lookup(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := s.db.WithContext(ctx).Where("code = ?", normalize(code)).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !rc.IsActive {
		return nil, ErrNotFound
	}
	return &rc, nil
}

// Apply consumes one use of an active code. The increment is a single
// conditional UPDATE so concurrent applies cannot lose counts, and it is
// permanent: a later failed purchase does not roll it back.
func (s *Service) Apply(ctx context.Context, code string) (*models.ReferralCode, error) {
	result := s.db.WithContext(ctx).Model(&models.ReferralCode{}).
		Where("code = ? AND is_active = ?", normalize(code), true).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var rc models.ReferralCode
	if err := s.db.WithContext(ctx).Where("code = ?", normalize(code)).First(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

// Create stores a new code, upper-cased. The unique index rejects duplicates.
func (s *Service) Create(ctx context.Context, code string, discountPercent decimal.Decimal) (*models.ReferralCode, error) {
	rc := models.ReferralCode{
		ID:              uuid.New(),
		Code:            normalize(code),
		DiscountPercent: discountPercent,
		IsActive:        true,
	}
	if err := s.db.WithContext(ctx).Create(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
