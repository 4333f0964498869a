package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/pepewuff/backend/internal/queue"
	"github.com/pepewuff/backend/internal/services/chain"
	"github.com/pepewuff/backend/internal/services/transaction"
)

// ConfirmTransactionPayload is the payload for confirm_transaction jobs.
type ConfirmTransactionPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

// ConfirmEnqueuer adapts the queue to the transaction service's enqueue hook.
type ConfirmEnqueuer struct {
	queue *queue.Queue
}

// NewConfirmEnqueuer creates an enqueuer bound to the given queue.
func NewConfirmEnqueuer(q *queue.Queue) *ConfirmEnqueuer {
	return &ConfirmEnqueuer{queue: q}
}

// EnqueueConfirmation schedules an on-chain confirmation check.
func (e *ConfirmEnqueuer) EnqueueConfirmation(transactionID uuid.UUID) error {
	_, err := e.queue.Enqueue(queue.JobTypeConfirmTransaction, ConfirmTransactionPayload{
		TransactionID: transactionID,
	})
	return err
}

// RegisterConfirmationJobHandlers registers the confirm_transaction handler.
func RegisterConfirmationJobHandlers(q *queue.Queue, chainSvc *chain.Service, txSvc *transaction.Service) {
	q.RegisterHandler(queue.JobTypeConfirmTransaction, func(ctx context.Context, job *queue.Job) error {
		var payload ConfirmTransactionPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad confirm_transaction payload: %w", err)
		}
		return confirmTransaction(ctx, chainSvc, txSvc, payload.TransactionID)
	})
}

func confirmTransaction(ctx context.Context, chainSvc *chain.Service, txSvc *transaction.Service, id uuid.UUID) error {
	record, err := txSvc.Get(ctx, id)
	if errors.Is(err, transaction.ErrNotFound) {
		// Nothing to confirm; don't retry a job for a deleted row.
		return nil
	}
	if err != nil {
		return err
	}

	if record.Status.IsTerminal() || record.TxHash == nil {
		return nil
	}
	if !chainSvc.CanConfirm(record.Currency) {
		// No RPC endpoint for this chain; the transaction stays pending
		// until an operator resolves it.
		return nil
	}

	status, err := chainSvc.ConfirmTransaction(ctx, record.Currency, *record.TxHash)
	if err != nil {
		// Includes chain.ErrNotMined: returning the error reschedules the
		// job with backoff.
		return err
	}

	if _, err := txSvc.UpdateStatus(ctx, id, status, nil); err != nil {
		if errors.Is(err, transaction.ErrStatusFinal) {
			return nil
		}
		return err
	}

	log.Printf("transaction %s confirmed on-chain as %s", id, status)
	return nil
}
