package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de movimiento de inventario
type TransactionType string

const (
	TransactionTypeStockIn    TransactionType = "stock_in"
	TransactionTypeStockOut   TransactionType = "stock_out"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// IsValid retorna true si el tipo es conocido
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeStockIn, TransactionTypeStockOut, TransactionTypeTransfer, TransactionTypeAdjustment:
		return true
	}
	return false
}

// CodePrefix prefijo usado en el código legible de la transacción
func (t TransactionType) CodePrefix() string {
	switch t {
	case TransactionTypeStockIn:
		return "SI"
	case TransactionTypeStockOut:
		return "SO"
	case TransactionTypeTransfer:
		return "TR"
	case TransactionTypeAdjustment:
		return "ADJ"
	default:
		return "TX"
	}
}

// TransactionStatus estado del ciclo de vida de una transacción
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusInTransit TransactionStatus = "in_transit"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// IsValid retorna true si el estado es conocido
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusInTransit, TransactionStatusCompleted, TransactionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal completed y cancelled no admiten más transiciones
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusCancelled
}

// FormatTransactionCode arma el código <PREFIX>-<YYYYMMDD>-<NNNN>
func FormatTransactionCode(prefix string, day time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), sequence)
}

// InventoryTransaction representa la tabla inventory_transactions.
// Después de creada solo cambian status, completed_at y resolution_remarks.
type InventoryTransaction struct {
	ID                  int64             `json:"id" db:"id"`
	TransactionCode     string            `json:"transaction_code" db:"transaction_code"`
	Type                TransactionType   `json:"type" db:"type"`
	ProductID           int64             `json:"product_id" db:"product_id"`
	VariationID         *int64            `json:"variation_id" db:"variation_id"`
	Quantity            int               `json:"quantity" db:"quantity"`
	SourceBranchID      *int64            `json:"source_branch_id" db:"source_branch_id"`
	DestinationBranchID *int64            `json:"destination_branch_id" db:"destination_branch_id"`
	ReferenceType       string            `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceNumber     string            `json:"reference_number,omitempty" db:"reference_number"`
	UnitCost            *decimal.Decimal  `json:"unit_cost" db:"unit_cost"`
	TotalCost           *decimal.Decimal  `json:"total_cost" db:"total_cost"`
	Supplier            string            `json:"supplier,omitempty" db:"supplier"`
	Reason              string            `json:"reason,omitempty" db:"reason"`
	Remarks             string            `json:"remarks,omitempty" db:"remarks"`
	Status              TransactionStatus `json:"status" db:"status"`
	TransferMode        TransferMode      `json:"transfer_mode,omitempty" db:"transfer_mode"`
	PreviousQuantity    *int              `json:"previous_quantity,omitempty" db:"previous_quantity"`
	NewQuantity         *int              `json:"new_quantity,omitempty" db:"new_quantity"`
	PerformedBy         string            `json:"performed_by,omitempty" db:"performed_by"`
	ResolutionRemarks   string            `json:"resolution_remarks,omitempty" db:"resolution_remarks"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
	CompletedAt         *time.Time        `json:"completed_at" db:"completed_at"`
}

// SourceKey fila de origen (stock_out, transfer)
func (t *InventoryTransaction) SourceKey() StockKey {
	return NewStockKey(derefID(t.SourceBranchID), t.ProductID, t.VariationID)
}

// DestinationKey fila de destino (stock_in, transfer, adjustment)
func (t *InventoryTransaction) DestinationKey() StockKey {
	return NewStockKey(derefID(t.DestinationBranchID), t.ProductID, t.VariationID)
}

// Clone copia la transacción incluyendo punteros
func (t *InventoryTransaction) Clone() *InventoryTransaction {
	c := *t
	c.VariationID = cloneInt64(t.VariationID)
	c.SourceBranchID = cloneInt64(t.SourceBranchID)
	c.DestinationBranchID = cloneInt64(t.DestinationBranchID)
	if t.UnitCost != nil {
		v := *t.UnitCost
		c.UnitCost = &v
	}
	if t.TotalCost != nil {
		v := *t.TotalCost
		c.TotalCost = &v
	}
	if t.PreviousQuantity != nil {
		v := *t.PreviousQuantity
		c.PreviousQuantity = &v
	}
	if t.NewQuantity != nil {
		v := *t.NewQuantity
		c.NewQuantity = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

// TouchesBranch indica si la transacción involucra la sucursal como origen o destino
func (t *InventoryTransaction) TouchesBranch(branchID int64) bool {
	return (t.SourceBranchID != nil && *t.SourceBranchID == branchID) ||
		(t.DestinationBranchID != nil && *t.DestinationBranchID == branchID)
}

// TransactionFilter filtros para consultas de transacciones
type TransactionFilter struct {
	Type          *TransactionType   `json:"type,omitempty"`
	Status        *TransactionStatus `json:"status,omitempty"`
	BranchID      *int64             `json:"branch_id,omitempty"`
	ProductID     *int64             `json:"product_id,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
	Limit         int                `json:"limit,omitempty"`
}

// Matches aplica el filtro (usado por el store en memoria)
func (f TransactionFilter) Matches(t *InventoryTransaction) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.BranchID != nil && !t.TouchesBranch(*f.BranchID) {
		return false
	}
	if f.ProductID != nil && t.ProductID != *f.ProductID {
		return false
	}
	if f.CreatedBefore != nil && !t.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// MovementTotals sumas de movimientos por (product, variation) para conciliación
type MovementTotals struct {
	ProductID   int64  `json:"product_id" db:"product_id"`
	VariationID *int64 `json:"variation_id" db:"variation_id"`
	Received    int64  `json:"received" db:"received"`
	Issued      int64  `json:"issued" db:"issued"`
	Adjusted    int64  `json:"adjusted" db:"adjusted"`
	InTransit   int64  `json:"in_transit" db:"in_transit"`
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Int64Ptr helper para campos opcionales
func Int64Ptr(v int64) *int64 {
	return &v
}

// IntPtr helper para campos opcionales
func IntPtr(v int) *int {
	return &v
}
