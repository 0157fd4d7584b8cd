package worker

// reconcile_cron.go
// Scheduled maintenance: rebuild of every fabric's usedInProducts view from
// the FabricTransaction log, and replay of dead stock alerts.

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// UsageRebuilder rebuilds the denormalized fabric usage rows.
// Implemented by service.FabricService.
type UsageRebuilder interface {
	RebuildAllUsage(ctx context.Context) (int, error)
}

const (
	reconcileTimeout = 5 * time.Minute
	replayBatch      = 100
)

// StartReconcileCron schedules the usage rebuild on schedule (standard 5-field
// cron syntax) and stops the scheduler when ctx is cancelled.
func StartReconcileCron(ctx context.Context, schedule string, rebuilder UsageRebuilder) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { runReconcile(ctx, rebuilder) }); err != nil {
		return nil, err
	}
	c.Start()
	log.Info().Str("schedule", schedule).Msg("reconcile_cron: started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("reconcile_cron: shutting down")
	}()
	return c, nil
}

func runReconcile(ctx context.Context, rebuilder UsageRebuilder) {
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	start := time.Now()
	n, err := rebuilder.RebuildAllUsage(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: usage rebuild failed")
		return
	}
	log.Info().Int("fabrics", n).Dur("took", time.Since(start)).Msg("reconcile_cron: usage views rebuilt")
}

// ScheduleDLQReplay adds the dead alert replay to a running scheduler.
func ScheduleDLQReplay(ctx context.Context, c *cron.Cron, schedule string, rdb *redis.Client) error {
	_, err := c.AddFunc(schedule, func() { runReplay(ctx, rdb) })
	if err != nil {
		return err
	}
	log.Info().Str("schedule", schedule).Msg("reconcile_cron: dlq replay scheduled")
	return nil
}

func runReplay(ctx context.Context, rdb *redis.Client) {
	n, err := ReplayDLQ(ctx, rdb, QueueStockAlert, replayBatch)
	if err != nil {
		log.Error().Err(err).Int("replayed", n).Msg("reconcile_cron: dlq replay failed")
		return
	}
	if n > 0 {
		log.Info().Int("replayed", n).Msg("reconcile_cron: dead alerts requeued")
	}
}
