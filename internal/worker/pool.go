package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueStockAlert = "jobs:stock_alert"

	JobStockAlert = "stock_alert"

	// MaxJobAttempts is how many times a job is processed before it is moved to the DLQ.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	// Replays counts how often the job came back from the DLQ.
	Replays int `json:"replays,omitempty"`
}

// JobHandler processes the payload of one job type. A returned error
// schedules a retry until MaxJobAttempts is reached.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Handlers routes job types to their processors.
type Handlers map[string]JobHandler

// StockAlert is the payload of a stock_alert job. It is emitted after a
// product or fabric transitions into low_stock or out_of_stock.
type StockAlert struct {
	Kind      string `json:"kind"` // "product" | "fabric"
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Stock     string `json:"stock"`
	Threshold string `json:"threshold"`
	Unit      string `json:"unit"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueStockAlert pushes a stock alert job to Redis.
func (d *Dispatcher) EnqueueStockAlert(ctx context.Context, alert StockAlert) error {
	return d.enqueue(ctx, QueueStockAlert, JobStockAlert, alert)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP and uses no CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int) {
	queues := []string{QueueStockAlert}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			outcome := processJob(ctx, handlers, result[1])
			settle(ctx, rdb, result[0], outcome)
		}
	}
}

// jobOutcome says what to do with a job after one processing attempt.
type jobOutcome struct {
	job    Job
	retry  bool
	dead   bool
	reason string
}

func processJob(ctx context.Context, handlers Handlers, raw string) jobOutcome {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		return jobOutcome{job: Job{Type: "unknown", Payload: quoted}, dead: true, reason: "malformed job: " + err.Error()}
	}

	h, ok := handlers[job.Type]
	if !ok {
		log.Warn().Str("type", job.Type).Msg("no handler for job type")
		return jobOutcome{job: job, dead: true, reason: fmt.Sprintf("no handler for %q", job.Type)}
	}

	job.Attempts++
	if err := h.Process(ctx, job.Payload); err != nil {
		if job.Attempts >= MaxJobAttempts {
			return jobOutcome{job: job, dead: true, reason: fmt.Sprintf("max attempts (%d) exceeded: %s", MaxJobAttempts, err)}
		}
		log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
		return jobOutcome{job: job, retry: true}
	}
	log.Debug().Str("type", job.Type).Int("attempt", job.Attempts).Msg("job processed")
	return jobOutcome{job: job}
}

func settle(ctx context.Context, rdb *redis.Client, queue string, o jobOutcome) {
	switch {
	case o.dead:
		SendToDLQ(ctx, rdb, queue, o.job, o.reason)
	case o.retry:
		encoded, err := json.Marshal(o.job)
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("failed to re-encode job")
			return
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
		}
	}
}
