package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/models"
)

// ErrNotMined is returned when a transaction has no receipt yet. Callers
// should retry later.
var ErrNotMined = errors.New("transaction not yet mined")

// ErrUnsupportedChain is returned for currencies without a configured RPC
// endpoint.
var ErrUnsupportedChain = errors.New("no RPC endpoint configured for currency")

// Service checks purchase transactions against EVM-compatible chains.
type Service struct {
	clients map[models.Currency]*ethclient.Client
}

// NewService dials the configured RPC endpoints. Currencies without an
// endpoint are simply not confirmable; their transactions stay pending until
// an operator resolves them.
func NewService(cfg config.ChainConfig) (*Service, error) {
	clients := make(map[models.Currency]*ethclient.Client)

	if cfg.EthereumRPC != "" {
		client, err := ethclient.Dial(cfg.EthereumRPC)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
		}
		clients[models.CurrencyETH] = client
	}
	if cfg.BSCRPC != "" {
		client, err := ethclient.Dial(cfg.BSCRPC)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to BSC RPC: %w", err)
		}
		clients[models.CurrencyBNB] = client
	}

	return &Service{clients: clients}, nil
}

// CanConfirm reports whether transactions in this currency can be checked
// on-chain.
func (s *Service) CanConfirm(currency models.Currency) bool {
	_, ok := s.clients[currency]
	return ok
}

// ConfirmTransaction looks up the receipt for txHash and maps its on-chain
// status to a transaction status: a successful receipt completes the
// purchase, a reverted one fails it.
func (s *Service) ConfirmTransaction(ctx context.Context, currency models.Currency, txHash string) (models.TransactionStatus, error) {
	client, ok := s.clients[currency]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChain, currency)
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return "", ErrNotMined
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch receipt for %s: %w", txHash, err)
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		return models.TransactionStatusCompleted, nil
	}
	return models.TransactionStatusFailed, nil
}
