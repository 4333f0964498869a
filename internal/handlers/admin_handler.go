package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/models"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/pepewuff/backend/internal/services/referral"
	"github.com/pepewuff/backend/internal/services/transaction"
	"github.com/pepewuff/backend/internal/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AdminHandler serves the operator endpoints under /api/admin
type AdminHandler struct {
	db           *gorm.DB
	jwtConfig    config.JWTConfig
	presale      *presale.Service
	referrals    *referral.Service
	transactions *transaction.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, jwtConfig config.JWTConfig, presaleSvc *presale.Service, referralSvc *referral.Service, txSvc *transaction.Service) *AdminHandler {
	return &AdminHandler{
		db:           db,
		jwtConfig:    jwtConfig,
		presale:      presaleSvc,
		referrals:    referralSvc,
		transactions: txSvc,
	}
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	var admin models.AdminUser
	err := h.db.WithContext(c.Request.Context()).Where("username = ?", req.Username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPasswordHash(req.Password, admin.PasswordHash)) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	token, err := utils.GenerateToken(admin.ID, admin.Username, h.jwtConfig.Secret, h.jwtConfig.Expiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int64(h.jwtConfig.Expiration) * 3600,
	})
}

// updateStageRequest carries optional stage fields; decimals arrive as
// strings to avoid float precision loss.
type updateStageRequest struct {
	TotalSupply  *string    `json:"totalSupply"`
	CurrentRate  *string    `json:"currentRate"`
	StageEndTime *time.Time `json:"stageEndTime"`
	IsActive     *bool      `json:"isActive"`
}

// UpdatePresale handles PATCH /api/admin/presale
func (h *AdminHandler) UpdatePresale(c *gin.Context) {
	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid stage data"})
		return
	}

	input := presale.UpdateStageInput{
		StageEndTime: req.StageEndTime,
		IsActive:     req.IsActive,
	}
	if req.TotalSupply != nil {
		supply, err := decimal.NewFromString(*req.TotalSupply)
		if err != nil || supply.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "totalSupply must be a non-negative number"})
			return
		}
		input.TotalSupply = &supply
	}
	if req.CurrentRate != nil {
		rate, err := decimal.NewFromString(*req.CurrentRate)
		if err != nil || rate.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "currentRate must be a non-negative number"})
			return
		}
		input.CurrentRate = &rate
	}

	stage, err := h.presale.UpdateStage(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update presale stage"})
		return
	}

	c.JSON(http.StatusOK, presaleResponse{
		PresaleStage: *stage,
		Percentage:   stage.Percentage().StringFixed(2),
	})
}

// CreateReferralCode handles POST /api/admin/referral-codes
func (h *AdminHandler) CreateReferralCode(c *gin.Context) {
	var req struct {
		Code            string `json:"code" binding:"required"`
		DiscountPercent string `json:"discountPercent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Referral code is required"})
		return
	}

	discount := decimal.Zero
	if req.DiscountPercent != "" {
		parsed, err := decimal.NewFromString(req.DiscountPercent)
		if err != nil || parsed.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "discountPercent must be a non-negative number"})
			return
		}
		discount = parsed
	}

	code, err := h.referrals.Create(c.Request.Context(), req.Code, discount)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"message": "Referral code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create referral code"})
		return
	}

	c.JSON(http.StatusCreated, code)
}

// UpdateTransactionStatus handles PATCH /api/admin/transactions/:id/status
func (h *AdminHandler) UpdateTransactionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid transaction ID"})
		return
	}

	var req struct {
		Status string  `json:"status" binding:"required"`
		TxHash *string `json:"txHash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Status is required"})
		return
	}

	record, err := h.transactions.UpdateStatus(c.Request.Context(), id, models.TransactionStatus(req.Status), req.TxHash)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Transaction not found"})
		case errors.Is(err, transaction.ErrStatusFinal):
			c.JSON(http.StatusConflict, gin.H{"message": "Transaction status is final"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status transition"})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}
