package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType tipo de alerta de stock
type AlertType string

const (
	AlertTypeOutOfStock AlertType = "out_of_stock"
	AlertTypeLowStock   AlertType = "low_stock"
	AlertTypeOverstock  AlertType = "overstock"
)

// StockAlert hecho derivado: una fila que hoy rompe un umbral
type StockAlert struct {
	BranchID        int64      `json:"branch_id"`
	ProductID       int64      `json:"product_id"`
	VariationID     *int64     `json:"variation_id"`
	AlertType       AlertType  `json:"alert_type"`
	Quantity        int        `json:"quantity"`
	MinStockLevel   int        `json:"min_stock_level"`
	MaxStockLevel   int        `json:"max_stock_level"`
	FirstDetectedAt time.Time  `json:"first_detected_at"`
	IsResolved      bool       `json:"is_resolved"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// Key clave de la fila a la que pertenece la alerta
func (a *StockAlert) Key() StockKey {
	return NewStockKey(a.BranchID, a.ProductID, a.VariationID)
}

// DashboardStats agregados de solo lectura, calculados a demanda
type DashboardStats struct {
	TotalValue       decimal.Decimal     `json:"total_value"`
	TotalUnits       int64               `json:"total_units"`
	TotalRows        int                 `json:"total_rows"`
	StatusCounts     map[StockStatus]int `json:"status_counts"`
	InStock          int                 `json:"in_stock"`
	LowStock         int                 `json:"low_stock"`
	OutOfStock       int                 `json:"out_of_stock"`
	Overstock        int                 `json:"overstock"`
	ActiveAlerts     int                 `json:"active_alerts"`
	BranchCount      int                 `json:"branch_count"`
	PendingTransfers int                 `json:"pending_transfers"`
	GeneratedAt      string              `json:"generated_at"`
}

// ReconciliationRow conciliación por (product, variation):
// on_hand + in_transit debe igualar received - issued + adjusted
type ReconciliationRow struct {
	ProductID   int64  `json:"product_id"`
	VariationID *int64 `json:"variation_id"`
	OnHand      int64  `json:"on_hand"`
	InTransit   int64  `json:"in_transit"`
	Total       int64  `json:"total"`
	Received    int64  `json:"received"`
	Issued      int64  `json:"issued"`
	Adjusted    int64  `json:"adjusted"`
	Expected    int64  `json:"expected"`
	Drift       int64  `json:"drift"`
	Balanced    bool   `json:"balanced"`
}
