package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeConfirmTransaction checks a recorded purchase against its chain
	// and transitions it out of pending.
	JobTypeConfirmTransaction JobType = "confirm_transaction"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job persisted in the database.
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobHandler processes a single job. A returned error schedules a retry
// until MaxRetries is exhausted.
type JobHandler func(ctx context.Context, job *Job) error

// Queue is a database-backed job queue. Jobs survive restarts and are
// retried with exponential backoff.
type Queue struct {
	db           *gorm.DB
	handlers     map[JobType]JobHandler
	pollInterval time.Duration
	batchSize    int

	mu   sync.RWMutex
	quit chan struct{}
	done chan struct{}
}

// NewQueue creates a new job queue backed by the given database.
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{
		db:           db,
		handlers:     make(map[JobType]JobHandler),
		pollInterval: 5 * time.Second,
		batchSize:    10,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// RegisterHandler registers a handler for a job type.
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue persists a new pending job with a JSON-serialized payload.
func (q *Queue) Enqueue(jobType JobType, payload interface{}) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    data,
		Status:     JobStatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := q.db.Create(&job).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID, nil
}

// ProcessJobs runs the polling loop until Stop is called. Meant to run in
// its own goroutine.
func (q *Queue) ProcessJobs() {
	defer close(q.done)

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	log.Printf("job queue processor started (poll every %s)", q.pollInterval)
	for {
		select {
		case <-q.quit:
			log.Printf("job queue processor stopped")
			return
		case <-ticker.C:
			q.processBatch()
		}
	}
}

// Stop stops the polling loop and waits for it to exit.
func (q *Queue) Stop() {
	close(q.quit)
	<-q.done
}

func (q *Queue) processBatch() {
	var jobs []Job
	now := time.Now().UTC()
	err := q.db.
		Where("status = ? AND (next_retry IS NULL OR next_retry <= ?)", JobStatusPending, now).
		Order("created_at ASC").
		Limit(q.batchSize).
		Find(&jobs).Error
	if err != nil {
		log.Printf("failed to fetch pending jobs: %v", err)
		return
	}

	for i := range jobs {
		q.process(&jobs[i])
	}
}

func (q *Queue) process(job *Job) {
	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()
	if !ok {
		q.markFailed(job, fmt.Errorf("no handler registered for job type %q", job.Type))
		return
	}

	if err := q.updateStatus(job, JobStatusProcessing, ""); err != nil {
		log.Printf("failed to mark job %s as processing: %v", job.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		q.retryOrFail(job, err)
		return
	}

	if err := q.updateStatus(job, JobStatusCompleted, ""); err != nil {
		log.Printf("failed to mark job %s as completed: %v", job.ID, err)
	}
}

// retryOrFail reschedules the job with exponential backoff, or fails it for
// good once retries are exhausted.
func (q *Queue) retryOrFail(job *Job, cause error) {
	job.RetryCount++
	if job.RetryCount > job.MaxRetries {
		q.markFailed(job, cause)
		return
	}

	backoff := time.Duration(math.Pow(2, float64(job.RetryCount))) * 30 * time.Second
	nextRetry := time.Now().UTC().Add(backoff)
	err := q.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": job.RetryCount,
		"next_retry":  nextRetry,
		"error":       cause.Error(),
		"updated_at":  time.Now().UTC(),
	}).Error
	if err != nil {
		log.Printf("failed to schedule retry for job %s: %v", job.ID, err)
		return
	}
	log.Printf("job %s (%s) failed, retry %d/%d at %s: %v",
		job.ID, job.Type, job.RetryCount, job.MaxRetries, nextRetry.Format(time.RFC3339), cause)
}

func (q *Queue) markFailed(job *Job, cause error) {
	err := q.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      cause.Error(),
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		log.Printf("failed to mark job %s as failed: %v", job.ID, err)
		return
	}
	log.Printf("job %s (%s) failed permanently: %v", job.ID, job.Type, cause)
}

func (q *Queue) updateStatus(job *Job, status JobStatus, errMsg string) error {
	return q.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     status,
		"error":      errMsg,
		"updated_at": time.Now().UTC(),
	}).Error
}
