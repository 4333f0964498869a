package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/models"
	"github.com/pepewuff/backend/internal/queue"
	"github.com/pepewuff/backend/internal/services/chain"
	"github.com/pepewuff/backend/internal/services/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.PresaleStage{},
		&models.Transaction{},
		&queue.Job{},
	))
	return db
}

// offlineChain has no RPC endpoints, so nothing is confirmable.
func offlineChain(t *testing.T) *chain.Service {
	svc, err := chain.NewService(config.ChainConfig{})
	require.NoError(t, err)
	return svc
}

func TestEnqueueConfirmationPersistsJob(t *testing.T) {
	db := setupTestDB(t)
	q := queue.NewQueue(db)
	enqueuer := NewConfirmEnqueuer(q)

	id := uuid.New()
	require.NoError(t, enqueuer.EnqueueConfirmation(id))

	var job queue.Job
	require.NoError(t, db.First(&job, "type = ?", queue.JobTypeConfirmTransaction).Error)

	var payload ConfirmTransactionPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, id, payload.TransactionID)
}

func TestConfirmMissingTransactionIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	txSvc := transaction.NewService(db, nil)

	// A job for a deleted row completes instead of retrying forever
	err := confirmTransaction(context.Background(), offlineChain(t), txSvc, uuid.New())
	assert.NoError(t, err)
}

func TestConfirmLeavesPendingWhenChainUnconfigured(t *testing.T) {
	db := setupTestDB(t)
	txSvc := transaction.NewService(db, nil)

	hash := "0xe670ec64341771606e55d6b4ca35a1a6b75ee3d5145a99d05921026d1527331"
	record, err := txSvc.Record(context.Background(), transaction.RecordInput{
		WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Currency:      "ETH",
		PayAmount:     "1",
		ReceiveAmount: "227500",
		TxHash:        &hash,
	})
	require.NoError(t, err)

	require.NoError(t, confirmTransaction(context.Background(), offlineChain(t), txSvc, record.ID))

	reloaded, err := txSvc.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, reloaded.Status)
}

func TestConfirmTerminalTransactionIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	txSvc := transaction.NewService(db, nil)

	record, err := txSvc.Record(context.Background(), transaction.RecordInput{
		WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Currency:      "ETH",
		PayAmount:     "1",
		ReceiveAmount: "227500",
	})
	require.NoError(t, err)
	_, err = txSvc.UpdateStatus(context.Background(), record.ID, models.TransactionStatusCompleted, nil)
	require.NoError(t, err)

	require.NoError(t, confirmTransaction(context.Background(), offlineChain(t), txSvc, record.ID))
}
