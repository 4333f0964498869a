package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is one of the payment currencies accepted by the presale.
type Currency string

const (
	CurrencyETH  Currency = "ETH"
	CurrencyBNB  Currency = "BNB"
	CurrencyTRX  Currency = "TRX"
	CurrencySOL  Currency = "SOL"
	CurrencyUSDT Currency = "USDT"
)

// SupportedCurrencies is the fixed set of currencies buyers can pay with.
var SupportedCurrencies = []Currency{CurrencyETH, CurrencyBNB, CurrencyTRX, CurrencySOL, CurrencyUSDT}

// IsSupportedCurrency reports whether c is in the accepted set.
func IsSupportedCurrency(c Currency) bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// IsEVMCurrency reports whether transactions in c can be confirmed
// through an Ethereum-compatible RPC endpoint.
func IsEVMCurrency(c Currency) bool {
	return c == CurrencyETH || c == CurrencyBNB
}

// TransactionStatus is the lifecycle state of a purchase attempt.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
// pending -> completed | failed, never reverses.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Transaction represents a single purchase attempt. Wallet addresses are
// lowercase-normalized before storage so lookups are case-insensitive.
type Transaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	WalletAddress string            `gorm:"not null;index" json:"walletAddress"`
	Currency      Currency          `gorm:"type:varchar(10);not null" json:"currency"`
	PayAmount     decimal.Decimal   `gorm:"type:decimal(18,8);not null" json:"payAmount"`
	ReceiveAmount decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"receiveAmount"`
	TxHash        *string           `json:"txHash"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ReferralCode  *string           `json:"referralCode"`
	CreatedAt     time.Time         `gorm:"not null" json:"createdAt"`
}
