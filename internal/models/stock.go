package models

import (
	"fmt"
	"time"
)

// StockStatus estado derivado de un registro de stock
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusOverstock  StockStatus = "overstock"
)

// IsValid retorna true si el estado es conocido
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock, StockStatusOverstock:
		return true
	}
	return false
}

// DeriveStockStatus calcula el estado a partir de la cantidad y los umbrales.
// quantity == min es low_stock; quantity == max sigue siendo in_stock.
func DeriveStockStatus(quantity, minStock, maxStock int) StockStatus {
	switch {
	case quantity == 0:
		return StockStatusOutOfStock
	case quantity <= minStock:
		return StockStatusLowStock
	case quantity > maxStock:
		return StockStatusOverstock
	default:
		return StockStatusInStock
	}
}

// StockKey identifica una fila del ledger: (branch, product, variation)
type StockKey struct {
	BranchID    int64  `json:"branch_id"`
	ProductID   int64  `json:"product_id"`
	VariationID *int64 `json:"variation_id,omitempty"`
}

// NewStockKey construye una clave; variationID nil significa producto sin variaciones
func NewStockKey(branchID, productID int64, variationID *int64) StockKey {
	return StockKey{BranchID: branchID, ProductID: productID, VariationID: variationID}
}

func (k StockKey) String() string {
	if k.VariationID != nil {
		return fmt.Sprintf("%d:%d:%d", k.BranchID, k.ProductID, *k.VariationID)
	}
	return fmt.Sprintf("%d:%d:nil", k.BranchID, k.ProductID)
}

// ItemKey identifica un (product, variation) sin importar la sucursal
func (k StockKey) ItemKey() string {
	if k.VariationID != nil {
		return fmt.Sprintf("%d:%d", k.ProductID, *k.VariationID)
	}
	return fmt.Sprintf("%d:nil", k.ProductID)
}

// Thresholds umbrales mínimo y máximo de una fila
type Thresholds struct {
	Min int `json:"min_stock_level"`
	Max int `json:"max_stock_level"`
}

// Validate verifica 0 <= min <= max
func (t Thresholds) Validate() error {
	if t.Min < 0 || t.Max < 0 {
		return fmt.Errorf("los umbrales no pueden ser negativos (min=%d, max=%d)", t.Min, t.Max)
	}
	if t.Min > t.Max {
		return fmt.Errorf("min_stock_level (%d) no puede ser mayor que max_stock_level (%d)", t.Min, t.Max)
	}
	return nil
}

// StockLevel representa la tabla stock_levels
type StockLevel struct {
	ID            int64       `json:"id" db:"id"`
	BranchID      int64       `json:"branch_id" db:"branch_id"`
	ProductID     int64       `json:"product_id" db:"product_id"`
	VariationID   *int64      `json:"variation_id" db:"variation_id"`
	Quantity      int         `json:"quantity" db:"quantity"`
	MinStockLevel int         `json:"min_stock_level" db:"min_stock_level"`
	MaxStockLevel int         `json:"max_stock_level" db:"max_stock_level"`
	LastRestocked *time.Time  `json:"last_restocked" db:"last_restocked"`
	Status        StockStatus `json:"stock_status" db:"-"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Key retorna la clave de la fila
func (s *StockLevel) Key() StockKey {
	return NewStockKey(s.BranchID, s.ProductID, s.VariationID)
}

// RefreshStatus recalcula el estado derivado
func (s *StockLevel) RefreshStatus() {
	s.Status = DeriveStockStatus(s.Quantity, s.MinStockLevel, s.MaxStockLevel)
}

// Clone copia la fila incluyendo punteros
func (s *StockLevel) Clone() *StockLevel {
	c := *s
	if s.VariationID != nil {
		v := *s.VariationID
		c.VariationID = &v
	}
	if s.LastRestocked != nil {
		t := *s.LastRestocked
		c.LastRestocked = &t
	}
	return &c
}

// StockLevelFilter filtros para consultas de stock
type StockLevelFilter struct {
	BranchID  *int64       `json:"branch_id,omitempty"`
	ProductID *int64       `json:"product_id,omitempty"`
	Status    *StockStatus `json:"stock_status,omitempty"`
}

// Matches aplica el filtro a una fila ya con estado calculado
func (f StockLevelFilter) Matches(level *StockLevel) bool {
	if f.BranchID != nil && level.BranchID != *f.BranchID {
		return false
	}
	if f.ProductID != nil && level.ProductID != *f.ProductID {
		return false
	}
	if f.Status != nil && level.Status != *f.Status {
		return false
	}
	return true
}
