package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pepewuff/backend/internal/models"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// ErrStatusFinal is returned when a status transition is attempted on a
// transaction that already reached completed or failed.
var ErrStatusFinal = errors.New("transaction status is final")

// FieldError describes a single validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field violation found in a request, so
// clients get the full list in one response instead of one error at a time.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid transaction data: " + strings.Join(parts, "; ")
}

// ConfirmEnqueuer schedules an on-chain confirmation check for a recorded
// transaction. Implemented by the jobs package; nil disables enqueueing.
type ConfirmEnqueuer interface {
	EnqueueConfirmation(transactionID uuid.UUID) error
}

// RecordInput is a purchase attempt as submitted by a client. Amounts arrive
// as strings because the purchase form posts them verbatim, commas included.
type RecordInput struct {
	WalletAddress string  `json:"walletAddress"`
	Currency      string  `json:"currency"`
	PayAmount     string  `json:"payAmount"`
	ReceiveAmount string  `json:"receiveAmount"`
	TxHash        *string `json:"txHash"`
	ReferralCode  *string `json:"referralCode"`
}

// Service records purchase attempts and keeps the presale ledger in sync
// with them.
type Service struct {
	db       *gorm.DB
	enqueuer ConfirmEnqueuer
}

// NewService creates a new transaction service. enqueuer may be nil when no
// background confirmation is wanted (tests, one-off tools).
func NewService(db *gorm.DB, enqueuer ConfirmEnqueuer) *Service {
	return &Service{db: db, enqueuer: enqueuer}
}

type validated struct {
	walletAddress string
	currency      models.Currency
	payAmount     decimal.Decimal
	receiveAmount decimal.Decimal
}

// validate checks every field and collects all violations before reporting.
func validate(input RecordInput) (*validated, *ValidationError) {
	var fields []FieldError

	wallet := strings.ToLower(strings.TrimSpace(input.WalletAddress))
	if wallet == "" {
		fields = append(fields, FieldError{Field: "walletAddress", Message: "wallet address is required"})
	}

	currency := models.Currency(strings.ToUpper(strings.TrimSpace(input.Currency)))
	if input.Currency == "" {
		fields = append(fields, FieldError{Field: "currency", Message: "currency is required"})
	} else if !models.IsSupportedCurrency(currency) {
		fields = append(fields, FieldError{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", input.Currency)})
	}

	// EVM chains get a strict address check; other chains use their own
	// address formats and only require a non-empty value.
	if wallet != "" && models.IsEVMCurrency(currency) && !common.IsHexAddress(wallet) {
		fields = append(fields, FieldError{Field: "walletAddress", Message: "not a valid hex address"})
	}

	payAmount, err := parseAmount(input.PayAmount)
	if err != nil {
		fields = append(fields, FieldError{Field: "payAmount", Message: err.Error()})
	}

	receiveAmount, err := parseAmount(input.ReceiveAmount)
	if err != nil {
		fields = append(fields, FieldError{Field: "receiveAmount", Message: err.Error()})
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return &validated{
		walletAddress: wallet,
		currency:      currency,
		payAmount:     payAmount,
		receiveAmount: receiveAmount,
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.New("amount must be a number")
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.New("amount must not be negative")
	}
	return amount, nil
}

// Record validates and persists a purchase attempt, then folds its USDT
// equivalent into the presale ledger. The insert and the raise run in one
// database transaction so a crash between them cannot leave the ledger
// under-counted relative to recorded purchases.
func (s *Service) Record(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	v, verr := validate(input)
	if verr != nil {
		return nil, verr
	}

	record := models.Transaction{
		ID:            uuid.New(),
		WalletAddress: v.walletAddress,
		Currency:      v.currency,
		PayAmount:     v.payAmount,
		ReceiveAmount: v.receiveAmount,
		TxHash:        normalizeOptional(input.TxHash),
		Status:        models.TransactionStatusPending,
		ReferralCode:  normalizeCode(input.ReferralCode),
		CreatedAt:     time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		ledger := presale.NewService(tx)
		stage, err := ledger.Current(ctx)
		if err != nil {
			return err
		}

		// The ledger aggregates in USDT: credited tokens divided by the
		// stage rate (tokens per USDT).
		if stage.CurrentRate.IsPositive() {
			usdtEquivalent := v.receiveAmount.Div(stage.CurrentRate).Round(2)
			if _, err := ledger.ApplyRaise(ctx, usdtEquivalent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.enqueuer != nil && record.TxHash != nil && models.IsEVMCurrency(record.Currency) {
		if err := s.enqueuer.EnqueueConfirmation(record.ID); err != nil {
			// The purchase is already committed; confirmation is best effort
			// here and the sweep job will pick the transaction up later.
			log.Printf("failed to enqueue confirmation for transaction %s: %v", record.ID, err)
		}
	}

	return &record, nil
}

// ListByWallet returns all transactions for a wallet, newest first. The
// address matches case-insensitively because storage is lowercase-normalized.
func (s *Service) ListByWallet(ctx context.Context, walletAddress string) ([]models.Transaction, error) {
	var records []models.Transaction
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", strings.ToLower(strings.TrimSpace(walletAddress))).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns a single transaction by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var record models.Transaction
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateStatus transitions a pending transaction to completed or failed,
// optionally attaching the observed on-chain hash. The write is a single
// UPDATE conditional on the row still being pending, so two concurrent
// transitions (confirmation job vs. admin) cannot reverse a terminal status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus, txHash *string) (*models.Transaction, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("invalid target status %q", status)
	}

	updates := map[string]interface{}{"status": status}
	if txHash != nil {
		updates["tx_hash"] = *txHash
	}
	result := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row does not exist or it already reached a terminal
		// status; Get distinguishes the two.
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStatusFinal
	}

	return s.Get(ctx, id)
}

// PendingWithHash returns pending EVM transactions that carry a hash and can
// therefore be checked on-chain. Used by the confirmation sweep.
func (s *Service) PendingWithHash(ctx context.Context, limit int) ([]models.Transaction, error) {
	var records []models.Transaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND tx_hash IS NOT NULL AND currency IN ?",
			models.TransactionStatusPending,
			[]models.Currency{models.CurrencyETH, models.CurrencyBNB}).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeCode(s *string) *string {
	trimmed := normalizeOptional(s)
	if trimmed == nil {
		return nil
	}
	upper := strings.ToUpper(*trimmed)
	return &upper
}
