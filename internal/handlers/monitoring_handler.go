package handlers

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	pushInterval      time.Duration
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, pushInterval time.Duration, logger *zap.Logger) *MonitoringHandler {
	if pushInterval <= 0 {
		pushInterval = 10 * time.Second
	}
	return &MonitoringHandler{
		monitoringService: monitoringService,
		pushInterval:      pushInterval,
		logger:            logger,
	}
}

// GetMetrics maneja la petición HTTP para obtener métricas
func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_metrics"))

	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	logger.Debug("Métricas obtenidas",
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.Float64("avg_response_time_ms", metrics.Performance.AvgResponseTimeMs))

	c.JSON(http.StatusOK, metrics)
}

// GetMetricsSummary endpoint para métricas resumidas
func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	summary := gin.H{
		"requests": gin.H{
			"total":         metrics.Requests.TotalRequests,
			"errors":        metrics.Requests.ErrorsCount,
			"slow_requests": metrics.Requests.SlowRequestsCount,
		},
		"performance": gin.H{
			"avg_response_time_ms": metrics.Performance.AvgResponseTimeMs,
			"max_response_time_ms": metrics.Performance.MaxResponseTimeMs,
		},
		"ledger": gin.H{
			"commands":  metrics.Ledger.Commands,
			"conflicts": metrics.Ledger.Conflicts,
		},
		"alert_cache": gin.H{
			"hit_rate":   metrics.AlertCache.HitRatePercentage,
			"total_keys": metrics.AlertCache.TotalKeys,
		},
		"database": gin.H{
			"driver": metrics.Database.Driver,
			"status": metrics.Database.Status,
		},
		"redis": gin.H{
			"connected": metrics.Redis.Connected,
			"status":    metrics.Redis.Status,
		},
		"timestamp": metrics.Timestamp,
	}

	c.JSON(http.StatusOK, summary)
}

// WebSocketMetrics envía métricas en tiempo real
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error actualizando a WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("Conexión WebSocket establecida")

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := h.monitoringService.GetMetrics(context.Background())
			if err := conn.WriteJSON(metrics); err != nil {
				logger.Debug("Error enviando métricas por WebSocket", zap.Error(err))
				return
			}
		case <-c.Request.Context().Done():
			logger.Info("Conexión WebSocket cerrada por contexto")
			return
		}
	}
}

// RecordRequestMiddleware middleware para registrar requests
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if shouldSkipMonitoring(path) {
			return
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
		})
	}
}

// shouldSkipMonitoring excluye los endpoints de monitoring y health
func shouldSkipMonitoring(path string) bool {
	switch path {
	case "/api/v1/monitoring/metrics",
		"/api/v1/monitoring/metrics/summary",
		"/api/v1/monitoring/ws",
		"/health",
		"/":
		return true
	}
	return false
}
