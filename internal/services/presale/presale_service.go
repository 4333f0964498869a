package presale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pepewuff/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed values for the lazily created first stage.
var (
	seedTotalRaised = decimal.RequireFromString("76735.34")
	seedTotalSupply = decimal.RequireFromString("200000")
	seedCurrentRate = decimal.RequireFromString("65")
)

// seedStageDuration is the deadline offset for a freshly bootstrapped stage:
// 3 days, 5 hours, 17 minutes, 14 seconds.
const seedStageDuration = 3*24*time.Hour + 5*time.Hour + 17*time.Minute + 14*time.Second

// Service manages the presale ledger: the single current-stage record
// holding the running raise total, goal, rate and deadline.
type Service struct {
	db *gorm.DB
}

// NewService creates a new presale ledger service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Current returns the most recently updated stage. If no stage exists yet it
// seeds one with the campaign defaults; concurrent bootstraps may each insert
// a row, in which case the newest one wins on subsequent reads.
func (s *Service) Current(ctx context.Context) (*models.PresaleStage, error) {
	var stage models.PresaleStage
	err := s.db.WithContext(ctx).Order("updated_at DESC").First(&stage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.seedStage(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (s *Service) seedStage(ctx context.Context) (*models.PresaleStage, error) {
	stage := models.PresaleStage{
		ID:           uuid.New(),
		TotalRaised:  seedTotalRaised,
		TotalSupply:  seedTotalSupply,
		CurrentRate:  seedCurrentRate,
		StageEndTime: time.Now().UTC().Add(seedStageDuration),
		IsActive:     true,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&stage).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

// ApplyRaise folds amount into the current stage's total as a single
// conditional UPDATE, so concurrent purchases cannot lose each other's
// increments. It returns the stage as of after the update.
func (s *Service) ApplyRaise(ctx context.Context, amount decimal.Decimal) (*models.PresaleStage, error) {
	stage, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.PresaleStage{}).
		Where("id = ?", stage.ID).
		Updates(map[string]interface{}{
			"total_raised": gorm.Expr("total_raised + ?", amount),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}

	var updated models.PresaleStage
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", stage.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateStageInput carries the fields an operator may change on the current
// stage. Nil fields are left untouched.
type UpdateStageInput struct {
	TotalSupply  *decimal.Decimal
	CurrentRate  *decimal.Decimal
	StageEndTime *time.Time
	IsActive     *bool
}

// UpdateStage applies a partial update to the current stage.
func (s *Service) UpdateStage(ctx context.Context, input UpdateStageInput) (*models.PresaleStage, error) {
	stage, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if input.TotalSupply != nil {
		updates["total_supply"] = *input.TotalSupply
	}
	if input.CurrentRate != nil {
		updates["current_rate"] = *input.CurrentRate
	}
	if input.StageEndTime != nil {
		updates["stage_end_time"] = input.StageEndTime.UTC()
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Model(&models.PresaleStage{}).
		Where("id = ?", stage.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var updated models.PresaleStage
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", stage.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeactivateExpired marks stages whose deadline has passed as inactive.
// Called from the scheduler.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.PresaleStage{}).
		Where("is_active = ? AND stage_end_time < ?", true, time.Now().UTC()).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
