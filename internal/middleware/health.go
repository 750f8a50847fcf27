package middleware

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker postgresDB y redisDB pueden ser nil (driver memory o Redis deshabilitado)
type HealthChecker struct {
	postgresDB *database.PostgresDB
	redisDB    *database.RedisDB
	logger     *zap.Logger
}

func NewHealthChecker(postgresDB *database.PostgresDB, redisDB *database.RedisDB, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		postgresDB: postgresDB,
		redisDB:    redisDB,
		logger:     logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	services := gin.H{}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Verificar PostgreSQL
	if h.postgresDB == nil {
		services["postgresql"] = gin.H{"status": "disabled", "driver": "memory"}
	} else {
		postgresStatus := "healthy"
		if err := h.postgresDB.Ping(ctx); err != nil {
			postgresStatus = "unhealthy"
			status["status"] = "unhealthy"
			h.logger.Error("PostgreSQL health check failed", zap.Error(err))
		}

		postgresStats := h.postgresDB.GetStats()
		services["postgresql"] = gin.H{
			"status": postgresStatus,
			"stats": gin.H{
				"max_open_connections": postgresStats.MaxOpenConnections,
				"open_connections":     postgresStats.OpenConnections,
				"in_use":               postgresStats.InUse,
				"idle":                 postgresStats.Idle,
			},
		}
	}

	// Redis es opcional: su caída degrada pero no tumba el servicio
	if h.redisDB == nil {
		services["redis"] = gin.H{"status": "disabled"}
	} else {
		redisStatus := "healthy"
		if err := h.redisDB.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			if status["status"] == "healthy" {
				status["status"] = "degraded"
			}
			h.logger.Error("Redis health check failed", zap.Error(err))
		}
		services["redis"] = gin.H{"status": redisStatus}
	}

	status["services"] = services

	httpStatus := http.StatusOK
	if status["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
