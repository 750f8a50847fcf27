package services

import (
	"context"
	"testing"

	"inventory-service/internal/apperror"
	"inventory-service/internal/events"
	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockInThenStockOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	in := h.stockIn(t, centerBranchID, coffeeID, 50)
	assert.Equal(t, 0, in.PreviousQuantity)
	assert.Equal(t, 50, in.NewQuantity)
	assert.Regexp(t, `^SI-\d{8}-0001$`, in.Transaction.TransactionCode)
	assert.Equal(t, models.TransactionStatusCompleted, in.Transaction.Status)
	assert.NotNil(t, in.Transaction.CompletedAt)

	out, err := h.engine.StockOut(ctx, &models.StockOutRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 20, Reason: "venta", Operator: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, out.NewQuantity)
	assert.Regexp(t, `^SO-\d{8}-0001$`, out.Transaction.TransactionCode)
	assert.Equal(t, centerBranchID, *out.Transaction.SourceBranchID)
	assert.Nil(t, out.Transaction.DestinationBranchID)

	levels, err := h.ledger.ListStockLevels(ctx, models.StockLevelFilter{BranchID: models.Int64Ptr(centerBranchID)})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 30, levels[0].Quantity)
	assert.Equal(t, models.StockStatusInStock, levels[0].Status)
	assert.NotNil(t, levels[0].LastRestocked)

	assert.Len(t, h.events.Events(), 2)
}

func TestStockInCostsAndThresholds(t *testing.T) {
	h := newHarness(t)
	unit := decimal.RequireFromString("3.50")

	result, err := h.engine.StockIn(context.Background(), &models.StockInRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 4, UnitCost: &unit,
		Supplier: "Tostaduría Sur", MinStockLevel: models.IntPtr(5), MaxStockLevel: models.IntPtr(50),
		Operator: admin,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Transaction.TotalCost)
	assert.True(t, decimal.RequireFromString("14").Equal(*result.Transaction.TotalCost))

	level, err := h.store.GetStockLevel(context.Background(), models.NewStockKey(centerBranchID, coffeeID, nil))
	require.NoError(t, err)
	assert.Equal(t, 5, level.MinStockLevel)
	assert.Equal(t, 50, level.MaxStockLevel)
	assert.Equal(t, models.StockStatusLowStock, level.Status)
}

func TestStockInRejectsInvalidThresholdsWithoutWriting(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.StockIn(context.Background(), &models.StockInRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 4,
		MinStockLevel: models.IntPtr(60), MaxStockLevel: models.IntPtr(50), Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	assert.Equal(t, 0, h.countTransactions(t))

	level, err := h.store.GetStockLevel(context.Background(), models.NewStockKey(centerBranchID, coffeeID, nil))
	require.NoError(t, err)
	assert.Nil(t, level)
}

func TestStockOutInsufficientLeavesNoRecord(t *testing.T) {
	h := newHarness(t)
	h.stockIn(t, centerBranchID, coffeeID, 5)

	_, err := h.engine.StockOut(context.Background(), &models.StockOutRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 6, Reason: "venta", Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, 5, h.quantity(t, centerBranchID, coffeeID))
	assert.Equal(t, 1, h.countTransactions(t))
}

func TestStockOutOnMissingRow(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.StockOut(context.Background(), &models.StockOutRequest{
		BranchID: northBranchID, ProductID: coffeeID, Quantity: 1, Reason: "venta", Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
}

func TestStockOutExpectedQuantityGuard(t *testing.T) {
	h := newHarness(t)
	h.stockIn(t, centerBranchID, coffeeID, 10)

	_, err := h.engine.StockOut(context.Background(), &models.StockOutRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 1, Reason: "venta",
		ExpectedQuantity: models.IntPtr(9), Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)
	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, 10, h.quantity(t, centerBranchID, coffeeID))
}

func TestCommandValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clerk := models.Operator{ID: "clerk-1", BranchID: models.Int64Ptr(northBranchID), Role: "clerk"}

	cases := []struct {
		name string
		req  *models.StockInRequest
		want error
	}{
		{"zero quantity", &models.StockInRequest{BranchID: centerBranchID, ProductID: coffeeID, Quantity: 0, Operator: admin}, apperror.ErrInvalidArgument},
		{"unknown branch", &models.StockInRequest{BranchID: 77, ProductID: coffeeID, Quantity: 1, Operator: admin}, apperror.ErrNotFound},
		{"inactive branch", &models.StockInRequest{BranchID: inactiveBranchID, ProductID: coffeeID, Quantity: 1, Operator: admin}, apperror.ErrInvalidArgument},
		{"unknown product", &models.StockInRequest{BranchID: centerBranchID, ProductID: 999, Quantity: 1, Operator: admin}, apperror.ErrNotFound},
		{"other branch operator", &models.StockInRequest{BranchID: centerBranchID, ProductID: coffeeID, Quantity: 1, Operator: clerk}, apperror.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.engine.StockIn(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := h.engine.StockIn(ctx, &models.StockInRequest{BranchID: northBranchID, ProductID: coffeeID, Quantity: 1, Operator: clerk})
	assert.NoError(t, err)

	_, err = h.engine.StockOut(ctx, &models.StockOutRequest{BranchID: northBranchID, ProductID: coffeeID, Quantity: 1, Operator: clerk})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument, "reason is required")
}

func TestAdjustmentAudit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.stockIn(t, centerBranchID, coffeeID, 30)

	result, err := h.engine.Adjust(ctx, &models.AdjustmentRequest{
		BranchID: centerBranchID, ProductID: coffeeID, NewQuantity: models.IntPtr(25),
		Reason: "conteo físico", Operator: admin,
	})
	require.NoError(t, err)
	tx := result.Transaction
	assert.Regexp(t, `^ADJ-\d{8}-0001$`, tx.TransactionCode)
	assert.Equal(t, 5, tx.Quantity)
	assert.Equal(t, 30, *tx.PreviousQuantity)
	assert.Equal(t, 25, *tx.NewQuantity)
	assert.Equal(t, centerBranchID, *tx.DestinationBranchID)
	assert.Equal(t, 25, h.quantity(t, centerBranchID, coffeeID))

	same, err := h.engine.Adjust(ctx, &models.AdjustmentRequest{
		BranchID: centerBranchID, ProductID: coffeeID, NewQuantity: models.IntPtr(25),
		Reason: "conteo confirmado", Operator: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, same.Transaction.Quantity)
	assert.Regexp(t, `^ADJ-\d{8}-0002$`, same.Transaction.TransactionCode)

	_, err = h.engine.Adjust(ctx, &models.AdjustmentRequest{
		BranchID: centerBranchID, ProductID: coffeeID, NewQuantity: models.IntPtr(-1),
		Reason: "x", Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestStockInBatchReportsPerLine(t *testing.T) {
	h := newHarness(t)

	resp, err := h.engine.StockInBatch(context.Background(), &models.StockInBatchRequest{
		BranchID: centerBranchID,
		Items: []models.BatchLine{
			{ProductID: coffeeID, Quantity: 10},
			{ProductID: 999, Quantity: 1},
			{ProductID: filterID, Quantity: 3},
		},
		ReferenceType: "purchase_order", ReferenceNumber: "OC-42", Operator: admin,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalProcessed)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, int64(999), resp.Errors[0].ProductID)
	assert.Equal(t, "not_found", resp.Errors[0].Kind)
	assert.Equal(t, 3, h.quantity(t, centerBranchID, filterID))
}

func TestStockOutBatch(t *testing.T) {
	h := newHarness(t)
	h.stockIn(t, centerBranchID, coffeeID, 5)
	h.stockIn(t, centerBranchID, filterID, 5)

	resp, err := h.engine.StockOutBatch(context.Background(), &models.StockOutBatchRequest{
		BranchID: centerBranchID,
		Items: []models.BatchLine{
			{ProductID: coffeeID, Quantity: 2},
			{ProductID: filterID, Quantity: 9},
		},
		Reason: "venta", Operator: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalProcessed)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "insufficient_stock", resp.Errors[0].Kind)
	assert.Equal(t, 3, h.quantity(t, centerBranchID, coffeeID))
	assert.Equal(t, 5, h.quantity(t, centerBranchID, filterID))
}

func TestListTransactionsFiltersAndLimits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.stockIn(t, centerBranchID, coffeeID, 5)
	h.stockIn(t, northBranchID, coffeeID, 5)
	h.stockIn(t, northBranchID, filterID, 5)

	txs, err := h.engine.ListTransactions(ctx, models.TransactionFilter{BranchID: models.Int64Ptr(northBranchID)})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	txs, err = h.engine.ListTransactions(ctx, models.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, filterID, txs[0].ProductID)

	bogus := models.TransactionType("refund")
	_, err = h.engine.ListTransactions(ctx, models.TransactionFilter{Type: &bogus})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = h.engine.GetTransaction(ctx, "SI-19990101-0001")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLedgerMetricsCountFailures(t *testing.T) {
	h := newHarness(t)
	h.stockIn(t, centerBranchID, coffeeID, 1)
	_, _ = h.engine.StockOut(context.Background(), &models.StockOutRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 2, Reason: "venta", Operator: admin,
	})

	metrics := h.engine.LedgerMetrics()
	assert.Equal(t, int64(1), metrics.Commands["stock_in"])
	assert.Equal(t, int64(1), metrics.Commands["stock_out"])
	assert.Equal(t, int64(1), metrics.Failures["insufficient_stock"])
	assert.Equal(t, events.EventTransactionRecorded, h.events.Events()[0].EventType)
}

func TestStockInBatchAllLinesRejected(t *testing.T) {
	h := newHarness(t)

	resp, err := h.engine.StockInBatch(context.Background(), &models.StockInBatchRequest{
		BranchID: centerBranchID,
		Items: []models.BatchLine{
			{ProductID: 998, Quantity: 1},
			{ProductID: 999, Quantity: 2},
		},
		Operator: admin,
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.TotalProcessed)
	assert.Len(t, resp.Errors, 2)
	assert.Equal(t, 0, h.countTransactions(t))
}

func TestStockInRejectsQuantityAboveColumnRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.StockIn(ctx, &models.StockInRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: models.MaxQuantity + 1, Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	h.stockIn(t, centerBranchID, coffeeID, models.MaxQuantity-5)
	before := h.countTransactions(t)

	_, err = h.engine.StockIn(ctx, &models.StockInRequest{
		BranchID: centerBranchID, ProductID: coffeeID, Quantity: 10, Operator: admin,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "máximo")
	assert.Equal(t, models.MaxQuantity-5, h.quantity(t, centerBranchID, coffeeID))
	assert.Equal(t, before, h.countTransactions(t))
}
