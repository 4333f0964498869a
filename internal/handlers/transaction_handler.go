package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pepewuff/backend/internal/models"
	"github.com/pepewuff/backend/internal/services/transaction"
)

// TransactionHandler serves the purchase recording and lookup endpoints
type TransactionHandler struct {
	transactions *transaction.Service
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txSvc *transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactions: txSvc}
}

// Create handles POST /api/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var input transaction.RecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid transaction data"})
		return
	}

	record, err := h.transactions.Record(c.Request.Context(), input)
	if err != nil {
		var verr *transaction.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid transaction data",
				"errors":  verr.Fields,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create transaction"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListByWallet handles GET /api/transactions/:walletAddress
func (h *TransactionHandler) ListByWallet(c *gin.Context) {
	address := c.Param("walletAddress")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Wallet address is required"})
		return
	}

	records, err := h.transactions.ListByWallet(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// walletPurchase is the purchase-history view row served to the wallet page.
type walletPurchase struct {
	WalletAddress   string          `json:"walletAddress"`
	WalletName      string          `json:"walletName"`
	Amount          string          `json:"amount"`
	TransactionHash *string         `json:"transactionHash"`
	Timestamp       time.Time       `json:"timestamp"`
	Currency        models.Currency `json:"currency"`
	TokenAmount     string          `json:"tokenAmount"`
}

// WalletPurchases handles GET /api/wallet/purchase?address=...
func (h *TransactionHandler) WalletPurchases(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Wallet address is required"})
		return
	}

	records, err := h.transactions.ListByWallet(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch wallet purchases"})
		return
	}

	purchases := make([]walletPurchase, 0, len(records))
	for _, record := range records {
		purchases = append(purchases, walletPurchase{
			WalletAddress:   record.WalletAddress,
			WalletName:      record.ReceiveAmount.String() + " PEPEWUFF",
			Amount:          record.PayAmount.String(),
			TransactionHash: record.TxHash,
			Timestamp:       record.CreatedAt,
			Currency:        record.Currency,
			TokenAmount:     record.ReceiveAmount.String(),
		})
	}

	c.JSON(http.StatusOK, purchases)
}
