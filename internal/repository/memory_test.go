package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLevel(branchID, productID int64, qty int) *models.StockLevel {
	return &models.StockLevel{
		BranchID: branchID, ProductID: productID, Quantity: qty,
		MinStockLevel: 10, MaxStockLevel: 100,
	}
}

func TestMemoryStoreRollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := models.NewStockKey(1, 100, nil)
	require.NoError(t, store.CreateStockLevel(ctx, newLevel(1, 100, 5)))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.CompareAndSetQuantity(ctx, key, 5, 20, nil))
		require.NoError(t, store.CreateStockLevel(ctx, newLevel(2, 100, 7)))
		require.NoError(t, store.CreateTransaction(ctx, &models.InventoryTransaction{
			TransactionCode: "SI-20261019-0001", Type: models.TransactionTypeStockIn,
			ProductID: 100, Quantity: 15, Status: models.TransactionStatusCompleted,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	level, err := store.GetStockLevel(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 5, level.Quantity)

	missing, err := store.GetStockLevel(ctx, models.NewStockKey(2, 100, nil))
	require.NoError(t, err)
	assert.Nil(t, missing)

	tx, err := store.GetTransactionByCode(ctx, "SI-20261019-0001")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestMemoryStoreRollbackKeepsOtherTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.CreateTransaction(ctx, &models.InventoryTransaction{TransactionCode: "A"}))
		// escritura de otro comando fuera de esta transacción
		require.NoError(t, store.CreateTransaction(context.Background(), &models.InventoryTransaction{TransactionCode: "B"}))
		return errors.New("fail")
	})
	require.Error(t, err)

	a, _ := store.GetTransactionByCode(ctx, "A")
	b, _ := store.GetTransactionByCode(ctx, "B")
	assert.Nil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "B", b.TransactionCode)
}

func TestMemoryStoreCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := models.NewStockKey(1, 100, models.Int64Ptr(3))
	level := newLevel(1, 100, 10)
	level.VariationID = models.Int64Ptr(3)
	require.NoError(t, store.CreateStockLevel(ctx, level))

	err := store.CompareAndSetQuantity(ctx, key, 9, 11, nil)
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)

	now := time.Now()
	require.NoError(t, store.CompareAndSetQuantity(ctx, key, 10, 150, &now))
	got, err := store.GetStockLevel(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 150, got.Quantity)
	assert.Equal(t, models.StockStatusOverstock, got.Status)
	require.NotNil(t, got.LastRestocked)

	err = store.CreateStockLevel(ctx, level)
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)
}

func TestMemoryStoreSequencesPerPrefixAndDay(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, _ := store.NextSequence(ctx, "SI", "20261019")
	second, _ := store.NextSequence(ctx, "SI", "20261019")
	other, _ := store.NextSequence(ctx, "SO", "20261019")
	nextDay, _ := store.NextSequence(ctx, "SI", "20261020")

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 1, other)
	assert.Equal(t, 1, nextDay)
}

func TestMemoryStoreUpdateTransactionStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.CreateTransaction(ctx, &models.InventoryTransaction{
		TransactionCode: "TR-20261019-0001", Type: models.TransactionTypeTransfer,
		Status: models.TransactionStatusInTransit,
	}))

	now := time.Now()
	require.NoError(t, store.UpdateTransactionStatus(ctx, "TR-20261019-0001",
		models.TransactionStatusInTransit, models.TransactionStatusCompleted, &now, "recibido"))

	err := store.UpdateTransactionStatus(ctx, "TR-20261019-0001",
		models.TransactionStatusInTransit, models.TransactionStatusCompleted, &now, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	err = store.UpdateTransactionStatus(ctx, "TR-20261019-9999",
		models.TransactionStatusInTransit, models.TransactionStatusCompleted, &now, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	tx, err := store.GetTransactionByCode(ctx, "TR-20261019-0001")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, "recibido", tx.ResolutionRemarks)
	assert.NotNil(t, tx.CompletedAt)
}

func TestMemoryStoreSumMovements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	txs := []*models.InventoryTransaction{
		{TransactionCode: "1", Type: models.TransactionTypeStockIn, ProductID: 100, Quantity: 50, Status: models.TransactionStatusCompleted},
		{TransactionCode: "2", Type: models.TransactionTypeStockOut, ProductID: 100, Quantity: 5, Status: models.TransactionStatusCompleted},
		{TransactionCode: "3", Type: models.TransactionTypeAdjustment, ProductID: 100, Quantity: 3, Status: models.TransactionStatusCompleted,
			PreviousQuantity: models.IntPtr(45), NewQuantity: models.IntPtr(42)},
		{TransactionCode: "4", Type: models.TransactionTypeTransfer, ProductID: 100, Quantity: 10, Status: models.TransactionStatusInTransit},
		{TransactionCode: "5", Type: models.TransactionTypeTransfer, ProductID: 100, Quantity: 7, Status: models.TransactionStatusCompleted},
		{TransactionCode: "6", Type: models.TransactionTypeStockIn, ProductID: 101, Quantity: 9, Status: models.TransactionStatusCompleted},
	}
	for _, tx := range txs {
		require.NoError(t, store.CreateTransaction(ctx, tx))
	}

	totals, err := store.SumMovements(ctx, models.Int64Ptr(100))
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(50), totals[0].Received)
	assert.Equal(t, int64(5), totals[0].Issued)
	assert.Equal(t, int64(-3), totals[0].Adjusted)
	assert.Equal(t, int64(10), totals[0].InTransit)

	all, err := store.SumMovements(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStoreListTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, code := range []string{"A", "B", "C"} {
		require.NoError(t, store.CreateTransaction(ctx, &models.InventoryTransaction{TransactionCode: code}))
	}

	txs, err := store.ListTransactions(ctx, models.TransactionFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "C", txs[0].TransactionCode)
	assert.Equal(t, "B", txs[1].TransactionCode)
}
