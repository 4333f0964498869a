package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pepewuff/backend/internal/queue"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/pepewuff/backend/internal/services/pricing"
	"github.com/pepewuff/backend/internal/services/transaction"
)

// confirmationSweepBatch caps how many stale pending transactions one sweep
// turns into confirmation jobs.
const confirmationSweepBatch = 50

// StartScheduler wires up the recurring jobs and starts them asynchronously:
//   - sweep pending transactions with a tx hash into confirmation jobs
//     (catch-up for enqueues lost at record time)
//   - deactivate stages whose deadline passed
//   - keep the price cache warm so requests rarely pay fetch latency
func StartScheduler(
	q *queue.Queue,
	presaleSvc *presale.Service,
	pricingSvc *pricing.Service,
	txSvc *transaction.Service,
) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	if _, err := scheduler.Every(1).Minute().Do(func() {
		sweepPendingTransactions(q, txSvc)
	}); err != nil {
		return nil, err
	}

	if _, err := scheduler.Every(1).Minute().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		expired, err := presaleSvc.DeactivateExpired(ctx)
		if err != nil {
			log.Printf("stage expiry sweep failed: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("deactivated %d expired presale stage(s)", expired)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := scheduler.Every(25).Seconds().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pricingSvc.Warm(ctx)
	}); err != nil {
		return nil, err
	}

	scheduler.StartAsync()
	return scheduler, nil
}

// sweepPendingTransactions enqueues confirmation jobs for pending EVM
// transactions that carry a hash. The handler is idempotent, so a duplicate
// job for an already-confirmed transaction is a no-op.
func sweepPendingTransactions(q *queue.Queue, txSvc *transaction.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := txSvc.PendingWithHash(ctx, confirmationSweepBatch)
	if err != nil {
		log.Printf("confirmation sweep failed: %v", err)
		return
	}

	for _, record := range records {
		if _, err := q.Enqueue(queue.JobTypeConfirmTransaction, ConfirmTransactionPayload{
			TransactionID: record.ID,
		}); err != nil {
			log.Printf("failed to enqueue confirmation for transaction %s: %v", record.ID, err)
		}
	}
}
