package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// DatabaseChecker reports database pool health
type DatabaseChecker interface {
	Health() map[string]string
}

// RedisPinger is satisfied by *redis.Client
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// StorageChecker reports object storage health
type StorageChecker interface {
	Health(ctx context.Context) error
}

// StatsSource returns the outcome counters
type StatsSource interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// Handler serves the notifier's health and stats endpoints
type Handler struct {
	service string
	db      DatabaseChecker
	redis   RedisPinger
	storage StorageChecker
	stats   StatsSource
	logger  *slog.Logger
}

// NewHandler creates a handler. storage may be nil when media links are disabled.
func NewHandler(service string, db DatabaseChecker, redisClient RedisPinger, storage StorageChecker, stats StatsSource, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		db:      db,
		redis:   redisClient,
		storage: storage,
		stats:   stats,
		logger:  logger,
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbHealth := h.db.Health()

	redisStatus := "connected"
	if err := h.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "disconnected"
		h.logger.Error("Redis health check failed", "error", err)
	}

	response := gin.H{
		"service":   h.service,
		"database":  dbHealth,
		"redis":     redisStatus,
		"timestamp": time.Now().UTC(),
	}

	if h.storage != nil {
		storageHealth := gin.H{"status": "up"}
		if err := h.storage.Health(ctx); err != nil {
			storageHealth["status"] = "down"
			storageHealth["error"] = err.Error()
			h.logger.Warn("Storage health check failed", "error", err)
		}
		response["storage"] = storageHealth
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if dbHealth["status"] != "up" || redisStatus != "connected" {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}
	response["status"] = status

	c.JSON(httpStatus, response)
}

// Stats handles GET /stats
func (h *Handler) Stats(c *gin.Context) {
	counters, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"counters": counters,
	})
}
