package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pepewuff/backend/internal/services/referral"
)

// ReferralHandler serves the referral code endpoints
type ReferralHandler struct {
	referrals *referral.Service
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralSvc *referral.Service) *ReferralHandler {
	return &ReferralHandler{referrals: referralSvc}
}

// GetCode handles GET /api/referral/:code
func (h *ReferralHandler) GetCode(c *gin.Context) {
	code, err := h.referrals.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Invalid or inactive referral code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to validate referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":            code.Code,
		"discountPercent": code.DiscountPercent,
		"isValid":         true,
	})
}

// Apply handles POST /api/referral/apply
func (h *ReferralHandler) Apply(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Referral code is required"})
		return
	}

	code, err := h.referrals.Apply(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Invalid or inactive referral code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to apply referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":            code.Code,
		"discountPercent": code.DiscountPercent,
		"applied":         true,
	})
}
