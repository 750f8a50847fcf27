package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStockStatusBoundaries(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		min, max int
		want     StockStatus
	}{
		{"zero is out of stock", 0, 10, 100, StockStatusOutOfStock},
		{"zero with zero min is still out of stock", 0, 0, 100, StockStatusOutOfStock},
		{"one unit under min", 1, 10, 100, StockStatusLowStock},
		{"equal to min is low", 10, 10, 100, StockStatusLowStock},
		{"just above min", 11, 10, 100, StockStatusInStock},
		{"equal to max is in stock", 100, 10, 100, StockStatusInStock},
		{"above max", 101, 10, 100, StockStatusOverstock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStockStatus(tc.quantity, tc.min, tc.max))
		})
	}
}

func TestStockKeyString(t *testing.T) {
	assert.Equal(t, "1:2:nil", NewStockKey(1, 2, nil).String())
	assert.Equal(t, "1:2:3", NewStockKey(1, 2, Int64Ptr(3)).String())
	assert.Equal(t, "2:3", NewStockKey(1, 2, Int64Ptr(3)).ItemKey())
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, Thresholds{Min: 0, Max: 0}.Validate())
	assert.NoError(t, Thresholds{Min: 5, Max: 50}.Validate())
	assert.Error(t, Thresholds{Min: -1, Max: 50}.Validate())
	assert.Error(t, Thresholds{Min: 60, Max: 50}.Validate())
}

func TestTransferModeTransitions(t *testing.T) {
	assert.Equal(t, TransferModeImmediate, TransferModeFor(true))
	assert.Equal(t, TransferModeDeferred, TransferModeFor(false))

	assert.Equal(t, TransactionStatusCompleted, TransferModeImmediate.InitialStatus())
	assert.Equal(t, TransactionStatusInTransit, TransferModeDeferred.InitialStatus())

	assert.True(t, TransferModeDeferred.CanTransition(TransactionStatusInTransit, TransactionStatusCompleted))
	assert.True(t, TransferModeDeferred.CanTransition(TransactionStatusInTransit, TransactionStatusCancelled))
	// sin flujo de aprobación, pending no tiene salidas
	assert.False(t, TransferModeDeferred.CanTransition(TransactionStatusPending, TransactionStatusInTransit))
	assert.False(t, TransferModeDeferred.CanTransition(TransactionStatusPending, TransactionStatusCancelled))
	assert.False(t, TransferModeDeferred.CanTransition(TransactionStatusCompleted, TransactionStatusCancelled))
	assert.False(t, TransferModeDeferred.CanTransition(TransactionStatusCancelled, TransactionStatusCompleted))
	assert.False(t, TransferModeDeferred.CanTransition(TransactionStatusCompleted, TransactionStatusCompleted))

	assert.False(t, TransferModeImmediate.CanTransition(TransactionStatusCompleted, TransactionStatusCancelled))
	assert.False(t, TransferModeImmediate.CanTransition(TransactionStatusInTransit, TransactionStatusCompleted))
}

func TestFormatTransactionCode(t *testing.T) {
	day := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, "SI-20261019-0001", FormatTransactionCode(TransactionTypeStockIn.CodePrefix(), day, 1))
	assert.Equal(t, "ADJ-20261019-0042", FormatTransactionCode(TransactionTypeAdjustment.CodePrefix(), day, 42))
	assert.Equal(t, "TR-20261019-12345", FormatTransactionCode(TransactionTypeTransfer.CodePrefix(), day, 12345))
}

func TestTransactionFilterMatches(t *testing.T) {
	transfer := TransactionTypeTransfer
	inTransit := TransactionStatusInTransit
	tx := &InventoryTransaction{
		Type:                TransactionTypeTransfer,
		Status:              TransactionStatusInTransit,
		ProductID:           9,
		SourceBranchID:      Int64Ptr(1),
		DestinationBranchID: Int64Ptr(2),
		CreatedAt:           time.Now().Add(-time.Hour),
	}

	assert.True(t, TransactionFilter{Type: &transfer, Status: &inTransit}.Matches(tx))
	assert.True(t, TransactionFilter{BranchID: Int64Ptr(2)}.Matches(tx))
	assert.False(t, TransactionFilter{BranchID: Int64Ptr(3)}.Matches(tx))
	assert.False(t, TransactionFilter{ProductID: Int64Ptr(8)}.Matches(tx))

	cutoff := time.Now().Add(-2 * time.Hour)
	assert.False(t, TransactionFilter{CreatedBefore: &cutoff}.Matches(tx))
}

func TestOperatorScope(t *testing.T) {
	clerk := Operator{ID: "u1", BranchID: Int64Ptr(2), Role: "clerk"}

	assert.True(t, clerk.CanOperateOn(2))
	assert.False(t, clerk.CanOperateOn(3))
	assert.True(t, SystemOperator.CanOperateOn(3))
	assert.False(t, Operator{ID: "u2", Role: "clerk"}.CanOperateOn(2))
}
