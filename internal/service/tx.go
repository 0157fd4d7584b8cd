package service

import (
	"context"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/worker"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// AlertPublisher queues stock alerts for the worker pool.
// Implemented by *worker.Dispatcher.
type AlertPublisher interface {
	EnqueueStockAlert(ctx context.Context, alert worker.StockAlert) error
}

// Clock returns the current time. Overridden in tests.
type Clock func() time.Time

// clampPage applies the transaction-log paging bounds so responses echo the
// page and limit actually used.
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit
}
