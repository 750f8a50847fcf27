package services

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerApplyDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	key := models.NewStockKey(centerBranchID, coffeeID, models.Int64Ptr(7))

	qty, err := h.ledger.GetQuantity(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	next, err := h.ledger.ApplyDelta(ctx, key, 15, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, next)

	_, err = h.ledger.ApplyDelta(ctx, key, -16, nil)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	_, err = h.ledger.ApplyDelta(ctx, key, -1, models.IntPtr(14))
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)

	next, err = h.ledger.ApplyDelta(ctx, key, -15, models.IntPtr(15))
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	// la variación no se mezcla con el producto base
	base, err := h.ledger.GetQuantity(ctx, models.NewStockKey(centerBranchID, coffeeID, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, base)
}

func TestLedgerSetQuantity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	key := models.NewStockKey(northBranchID, filterID, nil)

	prev, err := h.ledger.SetQuantity(ctx, key, 40)
	require.NoError(t, err)
	assert.Equal(t, 0, prev)

	prev, err = h.ledger.SetQuantity(ctx, key, 12)
	require.NoError(t, err)
	assert.Equal(t, 40, prev)

	_, err = h.ledger.SetQuantity(ctx, key, -1)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestLedgerSetThresholdsStatusBoundaries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	key := models.NewStockKey(centerBranchID, coffeeID, nil)

	_, err := h.ledger.SetThresholds(ctx, key, models.Thresholds{Min: 5, Max: 20})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	h.stockIn(t, centerBranchID, coffeeID, 20)

	level, err := h.ledger.SetThresholds(ctx, key, models.Thresholds{Min: 5, Max: 20})
	require.NoError(t, err)
	assert.Equal(t, models.StockStatusInStock, level.Status, "quantity == max is in stock")

	level, err = h.ledger.SetThresholds(ctx, key, models.Thresholds{Min: 20, Max: 30})
	require.NoError(t, err)
	assert.Equal(t, models.StockStatusLowStock, level.Status, "quantity == min is low stock")

	level, err = h.ledger.SetThresholds(ctx, key, models.Thresholds{Min: 1, Max: 19})
	require.NoError(t, err)
	assert.Equal(t, models.StockStatusOverstock, level.Status)

	_, err = h.ledger.SetThresholds(ctx, key, models.Thresholds{Min: 9, Max: 3})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	bogus := models.StockStatus("sold_out")
	_, err = h.ledger.ListStockLevels(ctx, models.StockLevelFilter{Status: &bogus})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	overstock := models.StockStatusOverstock
	levels, err := h.ledger.ListStockLevels(ctx, models.StockLevelFilter{Status: &overstock})
	require.NoError(t, err)
	assert.Len(t, levels, 1)
}

func TestRowLocksReleased(t *testing.T) {
	locks := newRowLocks()
	a := models.NewStockKey(1, 1, nil)
	b := models.NewStockKey(2, 1, nil)

	unlock := locks.Lock(b, a, a)
	assert.Equal(t, 2, locks.size())
	unlock()
	assert.Equal(t, 0, locks.size())

	done := make(chan struct{})
	unlockA := locks.Lock(a)
	go func() {
		u := locks.Lock(a, b)
		u()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-done
}
