package services

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSweeperWarnsAboutStaleTransfers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	clock := time.Now().Add(-96 * time.Hour)
	h.ledger.now = func() time.Time { return clock }

	h.stockIn(t, warehouseID, coffeeID, 20)
	_, err := h.engine.InitiateTransfer(ctx, &models.TransferRequest{
		SourceBranchID: warehouseID, DestinationBranchID: centerBranchID,
		ProductID: coffeeID, Quantity: 5, Operator: admin,
	})
	require.NoError(t, err)

	clock = time.Now()

	core, logs := observer.New(zapcore.WarnLevel)
	sweeper := NewSweeper(h.alerts, h.engine, time.Minute, 72*time.Hour, zap.New(core))
	sweeper.RunOnce(ctx)

	stale := logs.FilterMessage("Transferencia en tránsito sin recibir").All()
	require.Len(t, stale, 1)
	assert.Equal(t, int64(5), stale[0].ContextMap()["quantity"])
}

func TestSweeperStartDisabledReturnsImmediately(t *testing.T) {
	h := newHarness(t)
	sweeper := NewSweeper(h.alerts, h.engine, 0, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper deshabilitado no retornó")
	}
}

func TestSweeperStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	sweeper := NewSweeper(h.alerts, h.engine, 10*time.Millisecond, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper no se detuvo al cancelar el contexto")
	}
}
