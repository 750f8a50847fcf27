package cache

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAlertCacheL1Only(t *testing.T) {
	ctx := context.Background()
	ac := NewAlertCache(nil, "inventory:alerts", zap.NewNop())
	key := models.NewStockKey(1, 100, nil)

	_, ok := ac.Get(ctx, key)
	assert.False(t, ok)

	ac.Put(ctx, &models.StockAlert{BranchID: 1, ProductID: 100, AlertType: models.AlertTypeLowStock, Quantity: 3})

	got, ok := ac.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, models.AlertTypeLowStock, got.AlertType)

	// la copia retornada no modifica el caché
	got.Quantity = 99
	again, _ := ac.Get(ctx, key)
	assert.Equal(t, 3, again.Quantity)

	stats := ac.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.TotalKeys)
	assert.False(t, stats.L2Enabled)
	assert.NoError(t, ac.Warm(ctx))
}

func TestAlertCachePruneResolved(t *testing.T) {
	ctx := context.Background()
	ac := NewAlertCache(nil, "inventory:alerts", zap.NewNop())

	old := time.Now().Add(-10 * 24 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	ac.Put(ctx, &models.StockAlert{BranchID: 1, ProductID: 1, IsResolved: true, ResolvedAt: &old})
	ac.Put(ctx, &models.StockAlert{BranchID: 1, ProductID: 2, IsResolved: true, ResolvedAt: &recent})
	ac.Put(ctx, &models.StockAlert{BranchID: 1, ProductID: 3, AlertType: models.AlertTypeOutOfStock})

	removed := ac.Prune(ctx, time.Now().Add(-7*24*time.Hour))
	assert.Equal(t, 1, removed)
	assert.Len(t, ac.List(), 2)
}
