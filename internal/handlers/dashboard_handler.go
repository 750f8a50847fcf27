package handlers

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DashboardHandler alertas, estadísticas y conciliación
type DashboardHandler struct {
	dashboard    *services.DashboardAggregator
	alerts       *services.AlertEngine
	pushInterval time.Duration
	logger       *zap.Logger
}

func NewDashboardHandler(dashboard *services.DashboardAggregator, alerts *services.AlertEngine, pushInterval time.Duration, logger *zap.Logger) *DashboardHandler {
	if pushInterval <= 0 {
		pushInterval = 10 * time.Second
	}
	return &DashboardHandler{
		dashboard:    dashboard,
		alerts:       alerts,
		pushInterval: pushInterval,
		logger:       logger.With(zap.String("handler", "dashboard")),
	}
}

// GetAlerts lista alertas activas; include_resolved=true agrega las resueltas
func (h *DashboardHandler) GetAlerts(c *gin.Context) {
	includeResolved, err := queryBool(c, "include_resolved")
	if err != nil {
		respondError(c, h.logger, "Filtro inválido", err)
		return
	}

	alerts, err := h.alerts.List(c.Request.Context(), includeResolved)
	if err != nil {
		respondError(c, h.logger, "Error obteniendo alertas", err)
		return
	}
	respondData(c, alerts)
}

// GetStats agregados del dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Error calculando estadísticas", err)
		return
	}
	respondData(c, stats)
}

// GetReconciliation conciliación por producto; product_id opcional
func (h *DashboardHandler) GetReconciliation(c *gin.Context) {
	productID, err := queryInt64(c, "product_id")
	if err != nil {
		respondError(c, h.logger, "Filtro inválido", err)
		return
	}

	rows, err := h.dashboard.Reconcile(c.Request.Context(), productID)
	if err != nil {
		respondError(c, h.logger, "Error conciliando movimientos", err)
		return
	}

	balanced := true
	for _, row := range rows {
		if !row.Balanced {
			balanced = false
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"balanced":  balanced,
		"data":      rows,
		"timestamp": now(),
	})
}

// StatsFeed envía DashboardStats por WebSocket cada pushInterval
func (h *DashboardHandler) StatsFeed(c *gin.Context) {
	logger := h.logger.With(zap.String("client_ip", c.ClientIP()))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error upgrading to WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("Cliente conectado al feed del dashboard")

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// lector para detectar el cierre del cliente y procesar pongs
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	if !h.pushStats(conn, logger) {
		return
	}

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				logger.Debug("Ping falló", zap.Error(err))
				return
			}
			if !h.pushStats(conn, logger) {
				return
			}
		case <-closed:
			logger.Info("Cliente desconectado del feed del dashboard")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *DashboardHandler) pushStats(conn *websocket.Conn, logger *zap.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.dashboard.GetStats(ctx)
	if err != nil {
		logger.Error("Error calculando estadísticas para el feed", zap.Error(err))
		return true
	}
	if err := conn.WriteJSON(stats); err != nil {
		logger.Debug("Error enviando estadísticas por WebSocket", zap.Error(err))
		return false
	}
	return true
}
