package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DashboardAggregator agregados de solo lectura calculados a demanda
type DashboardAggregator struct {
	store  repository.Store
	logger *zap.Logger
}

// NewDashboardAggregator crea el agregador
func NewDashboardAggregator(store repository.Store, logger *zap.Logger) *DashboardAggregator {
	return &DashboardAggregator{
		store:  store,
		logger: logger.With(zap.String("component", "dashboard")),
	}
}

// GetStats calcula valor total, unidades, conteos por estado y pendientes
func (d *DashboardAggregator) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	levels, err := d.store.ListStockLevels(ctx, models.StockLevelFilter{})
	if err != nil {
		return nil, fmt.Errorf("error listando stock: %w", err)
	}

	ids := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, level := range levels {
		if !seen[level.ProductID] {
			seen[level.ProductID] = true
			ids = append(ids, level.ProductID)
		}
	}
	prices, err := d.store.GetPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo precios: %w", err)
	}

	stats := &models.DashboardStats{
		TotalValue:   decimal.Zero,
		TotalRows:    len(levels),
		StatusCounts: make(map[models.StockStatus]int, 4),
		GeneratedAt:  time.Now().Format(time.RFC3339),
	}
	for _, level := range levels {
		stats.TotalUnits += int64(level.Quantity)
		stats.StatusCounts[level.Status]++
		if price, ok := prices[level.ProductID]; ok {
			stats.TotalValue = stats.TotalValue.Add(price.Mul(decimal.NewFromInt(int64(level.Quantity))))
		}
	}
	stats.InStock = stats.StatusCounts[models.StockStatusInStock]
	stats.LowStock = stats.StatusCounts[models.StockStatusLowStock]
	stats.OutOfStock = stats.StatusCounts[models.StockStatusOutOfStock]
	stats.Overstock = stats.StatusCounts[models.StockStatusOverstock]
	stats.ActiveAlerts = CountActive(levels)

	branches, err := d.store.ListBranches(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("error listando sucursales: %w", err)
	}
	stats.BranchCount = len(branches)

	pending, err := d.store.CountTransactions(ctx, models.TransactionTypeTransfer, models.TransactionStatusInTransit)
	if err != nil {
		return nil, fmt.Errorf("error contando transferencias: %w", err)
	}
	stats.PendingTransfers = pending

	return stats, nil
}

// Reconcile compara existencias (en sucursales + en tránsito) contra el flujo
// neto registrado por (product, variation). drift != 0 indica una descuadratura.
func (d *DashboardAggregator) Reconcile(ctx context.Context, productID *int64) ([]models.ReconciliationRow, error) {
	levels, err := d.store.ListStockLevels(ctx, models.StockLevelFilter{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("error listando stock: %w", err)
	}
	totals, err := d.store.SumMovements(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("error sumando movimientos: %w", err)
	}

	rows := make(map[string]*models.ReconciliationRow)
	row := func(productID int64, variationID *int64) *models.ReconciliationRow {
		k := models.NewStockKey(0, productID, variationID).ItemKey()
		r, ok := rows[k]
		if !ok {
			r = &models.ReconciliationRow{ProductID: productID, VariationID: variationID}
			rows[k] = r
		}
		return r
	}

	for _, level := range levels {
		row(level.ProductID, level.VariationID).OnHand += int64(level.Quantity)
	}
	for _, t := range totals {
		r := row(t.ProductID, t.VariationID)
		r.Received = t.Received
		r.Issued = t.Issued
		r.Adjusted = t.Adjusted
		r.InTransit = t.InTransit
	}

	out := make([]models.ReconciliationRow, 0, len(rows))
	for _, r := range rows {
		r.Total = r.OnHand + r.InTransit
		r.Expected = r.Received - r.Issued + r.Adjusted
		r.Drift = r.Total - r.Expected
		r.Balanced = r.Drift == 0
		if !r.Balanced {
			d.logger.Warn("Descuadre de inventario",
				zap.Int64("product_id", r.ProductID),
				zap.Int64("drift", r.Drift))
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return models.NewStockKey(0, out[i].ProductID, out[i].VariationID).ItemKey() <
			models.NewStockKey(0, out[j].ProductID, out[j].VariationID).ItemKey()
	})
	return out, nil
}
