package services

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/events"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	warehouseID      int64 = 1
	centerBranchID   int64 = 2
	northBranchID    int64 = 3
	inactiveBranchID int64 = 4

	coffeeID int64 = 100
	filterID int64 = 101
)

var admin = models.SystemOperator

type harness struct {
	store     *repository.MemoryStore
	cache     *cache.AlertCache
	alerts    *AlertEngine
	ledger    *Ledger
	engine    TransactionEngine
	dashboard *DashboardAggregator
	events    *events.RecordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := repository.NewMemoryStore()
	store.AddBranch(models.Branch{ID: warehouseID, Name: "Bodega", Code: "WH-01", IsWarehouse: true, IsActive: true})
	store.AddBranch(models.Branch{ID: centerBranchID, Name: "Centro", Code: "BR-01", IsActive: true})
	store.AddBranch(models.Branch{ID: northBranchID, Name: "Norte", Code: "BR-02", IsActive: true})
	store.AddBranch(models.Branch{ID: inactiveBranchID, Name: "Cerrada", Code: "BR-99", IsActive: false})
	store.AddProduct(models.Product{ID: coffeeID, Name: "Café", Price: decimal.RequireFromString("10"), IsActive: true})
	store.AddProduct(models.Product{ID: filterID, Name: "Filtro", Price: decimal.RequireFromString("2.5"), IsActive: true})

	logger := zap.NewNop()
	alertCache := cache.NewAlertCache(nil, "test:alerts", logger)
	alerts := NewAlertEngine(store, alertCache, 7*24*time.Hour, logger)
	ledger := NewLedger(store, alerts, models.Thresholds{Min: 10, Max: 1000}, logger)
	publisher := &events.RecordingPublisher{}
	engine := NewTransactionEngine(store, ledger, publisher, EngineLimits{DefaultLimit: 50, MaxLimit: 500}, logger)

	return &harness{
		store:     store,
		cache:     alertCache,
		alerts:    alerts,
		ledger:    ledger,
		engine:    engine,
		dashboard: NewDashboardAggregator(store, logger),
		events:    publisher,
	}
}

func (h *harness) stockIn(t *testing.T, branchID, productID int64, qty int) *models.MovementResult {
	t.Helper()
	result, err := h.engine.StockIn(context.Background(), &models.StockInRequest{
		BranchID: branchID, ProductID: productID, Quantity: qty, Operator: admin,
	})
	require.NoError(t, err)
	return result
}

func (h *harness) quantity(t *testing.T, branchID, productID int64) int {
	t.Helper()
	qty, err := h.ledger.GetQuantity(context.Background(), models.NewStockKey(branchID, productID, nil))
	require.NoError(t, err)
	return qty
}

func (h *harness) countTransactions(t *testing.T) int {
	t.Helper()
	txs, err := h.store.ListTransactions(context.Background(), models.TransactionFilter{})
	require.NoError(t, err)
	return len(txs)
}

// systemUnits suma de todas las filas más lo que está en tránsito
func (h *harness) systemUnits(t *testing.T, productID int64) int {
	t.Helper()
	ctx := context.Background()
	levels, err := h.store.ListStockLevels(ctx, models.StockLevelFilter{ProductID: &productID})
	require.NoError(t, err)
	total := 0
	for _, l := range levels {
		total += l.Quantity
	}
	stale, err := h.store.ListTransactions(ctx, models.TransactionFilter{})
	require.NoError(t, err)
	for _, tx := range stale {
		if tx.Type == models.TransactionTypeTransfer && tx.Status == models.TransactionStatusInTransit && tx.ProductID == productID {
			total += tx.Quantity
		}
	}
	return total
}
