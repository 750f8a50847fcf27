package repository

import (
	"context"
	"time"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
)

// TxRunner ejecuta fn dentro de una transacción del store. Las llamadas
// anidadas reutilizan la transacción que ya viaja en el contexto.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockRepository define las operaciones sobre stock_levels
type StockRepository interface {
	// GetStockLevel retorna nil, nil cuando la fila no existe
	GetStockLevel(ctx context.Context, key models.StockKey) (*models.StockLevel, error)
	// CreateStockLevel retorna ErrConcurrentModification si otra escritura creó la fila antes
	CreateStockLevel(ctx context.Context, level *models.StockLevel) error
	// CompareAndSetQuantity escribe newQty solo si la cantidad actual es expected
	CompareAndSetQuantity(ctx context.Context, key models.StockKey, expected, newQty int, restockedAt *time.Time) error
	UpdateThresholds(ctx context.Context, key models.StockKey, t models.Thresholds) (*models.StockLevel, error)
	ListStockLevels(ctx context.Context, filter models.StockLevelFilter) ([]*models.StockLevel, error)
}

// TransactionRepository define las operaciones sobre inventory_transactions
type TransactionRepository interface {
	// NextSequence entrega el siguiente correlativo para prefix+day (YYYYMMDD)
	NextSequence(ctx context.Context, prefix, day string) (int, error)
	CreateTransaction(ctx context.Context, tx *models.InventoryTransaction) error
	// GetTransactionByCode retorna nil, nil cuando el código no existe
	GetTransactionByCode(ctx context.Context, code string) (*models.InventoryTransaction, error)
	// UpdateTransactionStatus cambia el estado solo si el actual es from
	UpdateTransactionStatus(ctx context.Context, code string, from, to models.TransactionStatus, completedAt *time.Time, remarks string) error
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.InventoryTransaction, error)
	CountTransactions(ctx context.Context, txType models.TransactionType, status models.TransactionStatus) (int, error)
	SumMovements(ctx context.Context, productID *int64) ([]models.MovementTotals, error)
}

// BranchRepository lectura de sucursales
type BranchRepository interface {
	ListBranches(ctx context.Context, activeOnly bool) ([]*models.Branch, error)
	// GetBranch retorna nil, nil cuando la sucursal no existe
	GetBranch(ctx context.Context, id int64) (*models.Branch, error)
}

// ProductCatalog colaborador externo: existencia y precio de productos
type ProductCatalog interface {
	// GetProduct retorna nil, nil cuando el producto no existe o está inactivo
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
}

// Store agrupa todo lo que necesita el motor de inventario
type Store interface {
	TxRunner
	StockRepository
	TransactionRepository
	BranchRepository
	ProductCatalog
}
