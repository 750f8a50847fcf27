package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
)

type memTxKey struct{}

// memTx guarda los deshacer de una transacción en curso
type memTx struct {
	undo []func()
}

// MemoryStore implementa Store en memoria. Se usa en desarrollo (DB_DRIVER=memory)
// y en tests. Las escrituras hechas dentro de WithinTx se revierten si fn falla.
type MemoryStore struct {
	mu sync.RWMutex

	branches  map[int64]*models.Branch
	products  map[int64]*models.Product
	levels    map[string]*models.StockLevel
	txs       []*models.InventoryTransaction
	txByCode  map[string]int
	sequences map[string]int
	nextID    int64
}

// NewMemoryStore crea un store vacío
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		branches:  make(map[int64]*models.Branch),
		products:  make(map[int64]*models.Product),
		levels:    make(map[string]*models.StockLevel),
		txByCode:  make(map[string]int),
		sequences: make(map[string]int),
	}
}

// AddBranch registra una sucursal
func (m *MemoryStore) AddBranch(b models.Branch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	m.branches[b.ID] = &b
}

// AddProduct registra un producto en el catálogo
func (m *MemoryStore) AddProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

// WithinTx ejecuta fn y revierte sus escrituras si retorna error
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// journal registra un deshacer; se llama con m.mu tomado
func (m *MemoryStore) journal(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (m *MemoryStore) GetStockLevel(ctx context.Context, key models.StockKey) (*models.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	level, ok := m.levels[key.String()]
	if !ok {
		return nil, nil
	}
	c := level.Clone()
	c.RefreshStatus()
	return c, nil
}

func (m *MemoryStore) CreateStockLevel(ctx context.Context, level *models.StockLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := level.Key().String()
	if _, exists := m.levels[k]; exists {
		return apperror.ConcurrentModification("la fila %s fue creada por otra escritura", k)
	}
	if level.Quantity < 0 {
		return apperror.InvalidArgument("cantidad negativa para %s", k)
	}

	m.nextID++
	now := time.Now()
	level.ID = m.nextID
	level.CreatedAt = now
	level.UpdatedAt = now
	level.RefreshStatus()
	m.levels[k] = level.Clone()

	m.journal(ctx, func() { delete(m.levels, k) })
	return nil
}

func (m *MemoryStore) CompareAndSetQuantity(ctx context.Context, key models.StockKey, expected, newQty int, restockedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	level, ok := m.levels[key.String()]
	if !ok || level.Quantity != expected {
		return apperror.ConcurrentModification("la cantidad de %s cambió (esperada %d)", key, expected)
	}
	if newQty < 0 {
		return apperror.InvalidArgument("cantidad negativa para %s", key)
	}

	prev := level.Clone()
	level.Quantity = newQty
	if restockedAt != nil {
		t := *restockedAt
		level.LastRestocked = &t
	}
	level.UpdatedAt = time.Now()
	level.RefreshStatus()

	k := key.String()
	m.journal(ctx, func() { m.levels[k] = prev })
	return nil
}

func (m *MemoryStore) UpdateThresholds(ctx context.Context, key models.StockKey, t models.Thresholds) (*models.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	level, ok := m.levels[key.String()]
	if !ok {
		return nil, apperror.NotFound("no existe stock para %s", key)
	}

	prev := level.Clone()
	level.MinStockLevel = t.Min
	level.MaxStockLevel = t.Max
	level.UpdatedAt = time.Now()
	level.RefreshStatus()

	k := key.String()
	m.journal(ctx, func() { m.levels[k] = prev })
	return level.Clone(), nil
}

func (m *MemoryStore) ListStockLevels(ctx context.Context, filter models.StockLevelFilter) ([]*models.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	levels := make([]*models.StockLevel, 0, len(m.levels))
	for _, level := range m.levels {
		c := level.Clone()
		c.RefreshStatus()
		if filter.Matches(c) {
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	return levels, nil
}

// NextSequence no se revierte con la transacción; un rollback deja un hueco en los códigos
func (m *MemoryStore) NextSequence(ctx context.Context, prefix, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := prefix + "-" + day
	m.sequences[k]++
	return m.sequences[k], nil
}

func (m *MemoryStore) CreateTransaction(ctx context.Context, tx *models.InventoryTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.txByCode[tx.TransactionCode]; exists {
		return apperror.ConcurrentModification("código %s duplicado", tx.TransactionCode)
	}

	m.nextID++
	tx.ID = m.nextID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	m.txByCode[tx.TransactionCode] = len(m.txs)
	m.txs = append(m.txs, tx.Clone())

	code := tx.TransactionCode
	m.journal(ctx, func() { m.removeTransaction(code) })
	return nil
}

// removeTransaction quita un registro no confirmado; se llama con m.mu tomado
func (m *MemoryStore) removeTransaction(code string) {
	idx, ok := m.txByCode[code]
	if !ok {
		return
	}
	m.txs = append(m.txs[:idx], m.txs[idx+1:]...)
	delete(m.txByCode, code)
	for i := idx; i < len(m.txs); i++ {
		m.txByCode[m.txs[i].TransactionCode] = i
	}
}

func (m *MemoryStore) GetTransactionByCode(ctx context.Context, code string) (*models.InventoryTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.txByCode[code]
	if !ok {
		return nil, nil
	}
	return m.txs[idx].Clone(), nil
}

func (m *MemoryStore) UpdateTransactionStatus(ctx context.Context, code string, from, to models.TransactionStatus, completedAt *time.Time, remarks string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.txByCode[code]
	if !ok {
		return apperror.NotFound("transacción %s no encontrada", code)
	}
	tx := m.txs[idx]
	if tx.Status != from {
		return apperror.InvalidState("la transacción %s está en estado %s (se esperaba %s)", code, tx.Status, from)
	}

	prev := tx.Clone()
	tx.Status = to
	tx.ResolutionRemarks = remarks
	if completedAt != nil {
		t := *completedAt
		tx.CompletedAt = &t
	}

	m.journal(ctx, func() { m.txs[m.txByCode[code]] = prev })
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.InventoryTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.InventoryTransaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Matches(m.txs[i]) {
			out = append(out, m.txs[i].Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) CountTransactions(ctx context.Context, txType models.TransactionType, status models.TransactionStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, tx := range m.txs {
		if tx.Type == txType && tx.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) SumMovements(ctx context.Context, productID *int64) ([]models.MovementTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byItem := make(map[string]*models.MovementTotals)
	var order []string
	for _, tx := range m.txs {
		if productID != nil && tx.ProductID != *productID {
			continue
		}
		k := models.NewStockKey(0, tx.ProductID, tx.VariationID).ItemKey()
		totals, ok := byItem[k]
		if !ok {
			totals = &models.MovementTotals{ProductID: tx.ProductID, VariationID: tx.VariationID}
			byItem[k] = totals
			order = append(order, k)
		}

		switch {
		case tx.Type == models.TransactionTypeStockIn && tx.Status == models.TransactionStatusCompleted:
			totals.Received += int64(tx.Quantity)
		case tx.Type == models.TransactionTypeStockOut && tx.Status == models.TransactionStatusCompleted:
			totals.Issued += int64(tx.Quantity)
		case tx.Type == models.TransactionTypeAdjustment && tx.Status == models.TransactionStatusCompleted:
			if tx.PreviousQuantity != nil && tx.NewQuantity != nil {
				totals.Adjusted += int64(*tx.NewQuantity - *tx.PreviousQuantity)
			}
		case tx.Type == models.TransactionTypeTransfer && tx.Status == models.TransactionStatusInTransit:
			totals.InTransit += int64(tx.Quantity)
		}
	}

	out := make([]models.MovementTotals, 0, len(order))
	for _, k := range order {
		out = append(out, *byItem[k])
	}
	return out, nil
}

func (m *MemoryStore) ListBranches(ctx context.Context, activeOnly bool) ([]*models.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	branches := make([]*models.Branch, 0, len(m.branches))
	for _, b := range m.branches {
		if activeOnly && !b.IsActive {
			continue
		}
		c := *b
		branches = append(branches, &c)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Code < branches[j].Code })
	return branches, nil
}

func (m *MemoryStore) GetBranch(ctx context.Context, id int64) (*models.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.branches[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *MemoryStore) GetPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prices := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			prices[id] = p.Price
		}
	}
	return prices, nil
}

// SeedDemo carga sucursales y productos de ejemplo para DB_DRIVER=memory
func SeedDemo(m *MemoryStore) {
	m.AddBranch(models.Branch{ID: 1, Name: "Bodega Central", Code: "WH-01", IsWarehouse: true, IsActive: true})
	m.AddBranch(models.Branch{ID: 2, Name: "Sucursal Centro", Code: "BR-01", IsActive: true})
	m.AddBranch(models.Branch{ID: 3, Name: "Sucursal Norte", Code: "BR-02", IsActive: true})

	m.AddProduct(models.Product{ID: 100, Name: "Café en grano 1kg", Price: decimal.RequireFromString("12990"), IsActive: true})
	m.AddProduct(models.Product{ID: 101, Name: "Filtro de papel x100", Price: decimal.RequireFromString("2490"), IsActive: true})
	m.AddProduct(models.Product{ID: 102, Name: "Taza cerámica", Price: decimal.RequireFromString("4990"), IsActive: true})
}
