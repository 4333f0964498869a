package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pepewuff/backend/internal/models"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/pepewuff/backend/internal/services/pricing"
)

// PresaleHandler serves the public presale endpoints
type PresaleHandler struct {
	presale *presale.Service
	pricing *pricing.Service
}

// NewPresaleHandler creates a new presale handler
func NewPresaleHandler(presaleSvc *presale.Service, pricingSvc *pricing.Service) *PresaleHandler {
	return &PresaleHandler{
		presale: presaleSvc,
		pricing: pricingSvc,
	}
}

// presaleResponse is the stage record plus its display percentage.
type presaleResponse struct {
	models.PresaleStage
	Percentage string `json:"percentage"`
}

// calculateRequest is the body of POST /api/presale/calculate.
type calculateRequest struct {
	Currency  string  `json:"currency"`
	PayAmount float64 `json:"payAmount"`
}

// GetPresale handles GET /api/presale
func (h *PresaleHandler) GetPresale(c *gin.Context) {
	stage, err := h.presale.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch presale data"})
		return
	}

	c.JSON(http.StatusOK, presaleResponse{
		PresaleStage: *stage,
		Percentage:   stage.Percentage().StringFixed(2),
	})
}

// Calculate handles POST /api/presale/calculate
func (h *PresaleHandler) Calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid currency or amount"})
		return
	}

	quote, err := h.pricing.CalculateTokens(c.Request.Context(), models.Currency(req.Currency), req.PayAmount)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to calculate token amount"})
		return
	}

	c.JSON(http.StatusOK, quote)
}
