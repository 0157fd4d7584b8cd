package worker

// dlq.go
// Alerts that keep failing (SMTP down, bad recipient) land in dlq:<queue>.
// The replay job moves them back with a fresh attempt budget so a short mail
// outage does not silently drop stock alerts.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// MaxReplays bounds how often one job is brought back from the DLQ.
const MaxReplays = 5

// DeadLetter is a job that exhausted its attempts, with the reason of the last failure.
type DeadLetter struct {
	Queue    string    `json:"queue"`
	Job      Job       `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
	Replays  int       `json:"replays"`
}

func dlqKey(queue string) string { return DLQPrefix + queue }

// SendToDLQ parks a job in the dead letter list of its queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := DeadLetter{Queue: queue, Job: job, Reason: reason, FailedAt: time.Now().UTC(), Replays: job.Replays}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, dlqKey(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey(queue)).Msg("dlq: failed to push")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Int("replays", job.Replays).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of dead letters of a queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}

// revive prepares a dead letter for another round. Jobs that were already
// replayed MaxReplays times, or that have no handler, stay dead.
func revive(entry DeadLetter) (Job, bool) {
	if entry.Replays >= MaxReplays || entry.Job.Type == "" || entry.Job.Type == "unknown" {
		return Job{}, false
	}
	job := entry.Job
	job.Attempts = 0
	job.Replays = entry.Replays + 1
	return job, true
}

// ReplayDLQ moves up to limit dead letters of queue back onto it, oldest
// first. Entries that cannot be revived are pushed back onto the DLQ so they
// remain inspectable. It returns the number of requeued jobs.
func ReplayDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int) (int, error) {
	n, err := DLQLength(ctx, rdb, queue)
	if err != nil {
		return 0, err
	}
	if int64(limit) > n {
		limit = int(n)
	}

	replayed := 0
	for i := 0; i < limit; i++ {
		raw, err := rdb.RPop(ctx, dlqKey(queue)).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, fmt.Errorf("dlq: pop: %w", err)
		}

		var entry DeadLetter
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("dlq: dropping undecodable entry")
			continue
		}
		job, ok := revive(entry)
		if !ok {
			if err := rdb.LPush(ctx, dlqKey(queue), raw).Err(); err != nil {
				return replayed, fmt.Errorf("dlq: park: %w", err)
			}
			continue
		}
		encoded, err := json.Marshal(job)
		if err != nil {
			return replayed, err
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			// Put it back so the entry is not lost.
			_ = rdb.RPush(ctx, dlqKey(queue), raw).Err()
			return replayed, fmt.Errorf("dlq: requeue: %w", err)
		}
		replayed++
	}
	return replayed, nil
}
