package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/infra"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health checks DB and Redis connectivity and reports the embedding circuit
// and the number of dead stock alerts. Neither of the latter fails the check.
func Health(db *gorm.DB, rdb *redis.Client, embeddingCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var deadAlerts int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			deadAlerts, _ = worker.DLQLength(ctx, rdb, worker.QueueStockAlert)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"dead_alerts": deadAlerts,
		}
		if embeddingCB != nil {
			body["embedding"] = embeddingCB.State().String()
		}
		c.JSON(status, body)
	}
}
