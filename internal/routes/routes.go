package routes

import (
	"inventory-service/internal/handlers"
	"inventory-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers agrupa los handlers que se montan en el router
type Handlers struct {
	Stock       *handlers.StockHandler
	Transfer    *handlers.TransferHandler
	Transaction *handlers.TransactionHandler
	Branch      *handlers.BranchHandler
	Dashboard   *handlers.DashboardHandler
	Monitoring  *handlers.MonitoringHandler
	Health      *middleware.HealthChecker
}

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(router *gin.Engine, h Handlers, identity gin.HandlerFunc) {
	v1 := router.Group("/api/v1")
	{
		api := v1.Group("", identity)

		api.GET("/branches", h.Branch.ListBranches)

		stock := api.Group("/stock")
		{
			stock.POST("/in", h.Stock.StockIn)
			stock.POST("/in/batch", h.Stock.StockInBatch)
			stock.POST("/out", h.Stock.StockOut)
			stock.POST("/out/batch", h.Stock.StockOutBatch)
			stock.POST("/adjustments", h.Stock.Adjust)
			stock.GET("/levels", h.Stock.GetStockLevels)
			stock.PUT("/levels/thresholds", h.Stock.SetThresholds)
		}

		transfers := api.Group("/transfers")
		{
			transfers.POST("", h.Transfer.InitiateTransfer)
			transfers.GET("/stale", h.Transfer.GetStaleTransfers)
			// el código también puede venir solo en el body
			transfers.PUT("/complete", h.Transfer.CompleteTransfer)
			transfers.PUT("/cancel", h.Transfer.CancelTransfer)
			transfers.PUT("/:code/complete", h.Transfer.CompleteTransfer)
			transfers.PUT("/:code/cancel", h.Transfer.CancelTransfer)
		}

		transactions := api.Group("/transactions")
		{
			transactions.GET("", h.Transaction.ListTransactions)
			transactions.GET("/:code", h.Transaction.GetTransaction)
		}

		api.GET("/alerts", h.Dashboard.GetAlerts)

		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/stats", h.Dashboard.GetStats)
			dashboard.GET("/reconciliation", h.Dashboard.GetReconciliation)
			dashboard.GET("/ws", h.Dashboard.StatsFeed)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", h.Monitoring.GetMetrics)
			monitoring.GET("/metrics/summary", h.Monitoring.GetMetricsSummary)
			monitoring.GET("/ws", h.Monitoring.WebSocketMetrics)
		}
	}

	router.GET("/health", h.Health.HealthCheck)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Inventory Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health": "/health",
				"api":    "/api/v1",
				"stock": gin.H{
					"stock_in":    "POST /api/v1/stock/in",
					"stock_out":   "POST /api/v1/stock/out",
					"adjustments": "POST /api/v1/stock/adjustments",
					"levels":      "GET /api/v1/stock/levels",
				},
				"transfers":    "POST /api/v1/transfers",
				"transactions": "GET /api/v1/transactions",
				"dashboard":    "GET /api/v1/dashboard/stats",
			},
		})
	})
}
