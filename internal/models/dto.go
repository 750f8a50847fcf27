package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity tope de cualquier cantidad; las columnas quantity son INTEGER
const MaxQuantity = math.MaxInt32

// ===== REQUEST DTOs =====

// StockInRequest DTO para entrada de stock
type StockInRequest struct {
	BranchID        int64            `json:"branch_id" validate:"required,gt=0"`
	ProductID       int64            `json:"product_id" validate:"required,gt=0"`
	VariationID     *int64           `json:"variation_id" validate:"omitempty,gt=0"`
	Quantity        int              `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	ReferenceType   string           `json:"reference_type" validate:"max=50"`
	ReferenceNumber string           `json:"reference_number" validate:"max=100"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Supplier        string           `json:"supplier" validate:"max=150"`
	Reason          string           `json:"reason" validate:"max=255"`
	Remarks         string           `json:"remarks"`
	MinStockLevel   *int             `json:"min_stock_level" validate:"omitempty,gte=0,lte=2147483647"`
	MaxStockLevel   *int             `json:"max_stock_level" validate:"omitempty,gte=0,lte=2147483647"`
	Operator        Operator         `json:"-"` // Se obtiene del token del operador
}

// StockOutRequest DTO para salida de stock
type StockOutRequest struct {
	BranchID         int64    `json:"branch_id" validate:"required,gt=0"`
	ProductID        int64    `json:"product_id" validate:"required,gt=0"`
	VariationID      *int64   `json:"variation_id" validate:"omitempty,gt=0"`
	Quantity         int      `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	Reason           string   `json:"reason" validate:"required,max=255"`
	ReferenceType    string   `json:"reference_type" validate:"max=50"`
	ReferenceNumber  string   `json:"reference_number" validate:"max=100"`
	Remarks          string   `json:"remarks"`
	ExpectedQuantity *int     `json:"expected_quantity" validate:"omitempty,gte=0,lte=2147483647"`
	Operator         Operator `json:"-"`
}

// AdjustmentRequest DTO para ajuste manual (conteo físico)
type AdjustmentRequest struct {
	BranchID         int64    `json:"branch_id" validate:"required,gt=0"`
	ProductID        int64    `json:"product_id" validate:"required,gt=0"`
	VariationID      *int64   `json:"variation_id" validate:"omitempty,gt=0"`
	NewQuantity      *int     `json:"new_quantity" validate:"required,gte=0,lte=2147483647"`
	Reason           string   `json:"reason" validate:"required,max=255"`
	Remarks          string   `json:"remarks"`
	ExpectedQuantity *int     `json:"expected_quantity" validate:"omitempty,gte=0,lte=2147483647"`
	Operator         Operator `json:"-"`
}

// TransferRequest DTO para transferencia entre sucursales
type TransferRequest struct {
	SourceBranchID      int64    `json:"source_branch_id" validate:"required,gt=0"`
	DestinationBranchID int64    `json:"destination_branch_id" validate:"required,gt=0"`
	ProductID           int64    `json:"product_id" validate:"required,gt=0"`
	VariationID         *int64   `json:"variation_id" validate:"omitempty,gt=0"`
	Quantity            int      `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	Reason              string   `json:"reason" validate:"max=255"`
	Remarks             string   `json:"remarks"`
	ReferenceNumber     string   `json:"reference_number" validate:"max=100"`
	Immediate           bool     `json:"immediate"`
	Operator            Operator `json:"-"`
}

// CompleteTransferRequest DTO para recepción de transferencia
type CompleteTransferRequest struct {
	TransactionCode string `json:"transaction_code"`
	ReceivedRemarks string `json:"received_remarks"`
}

// CancelTransferRequest DTO para cancelación de transferencia
type CancelTransferRequest struct {
	TransactionCode string `json:"transaction_code"`
	Reason          string `json:"reason" validate:"max=255"`
}

// ThresholdsRequest DTO para actualizar umbrales de una fila
type ThresholdsRequest struct {
	BranchID      int64  `json:"branch_id" validate:"required,gt=0"`
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	VariationID   *int64 `json:"variation_id" validate:"omitempty,gt=0"`
	MinStockLevel *int   `json:"min_stock_level" validate:"required,gte=0,lte=2147483647"`
	MaxStockLevel *int   `json:"max_stock_level" validate:"required,gte=0,lte=2147483647"`
}

// BatchLine línea de una entrada/salida múltiple
type BatchLine struct {
	ProductID   int64            `json:"product_id" validate:"required,gt=0"`
	VariationID *int64           `json:"variation_id" validate:"omitempty,gt=0"`
	Quantity    int              `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
}

// StockInBatchRequest DTO para entrada múltiple (ej. recepción de orden de compra)
type StockInBatchRequest struct {
	BranchID        int64       `json:"branch_id" validate:"required,gt=0"`
	Items           []BatchLine `json:"items" validate:"required,min=1,dive"`
	ReferenceType   string      `json:"reference_type" validate:"max=50"`
	ReferenceNumber string      `json:"reference_number" validate:"max=100"`
	Supplier        string      `json:"supplier" validate:"max=150"`
	Reason          string      `json:"reason" validate:"max=255"`
	Remarks         string      `json:"remarks"`
	Operator        Operator    `json:"-"`
}

// StockOutBatchRequest DTO para salida múltiple
type StockOutBatchRequest struct {
	BranchID        int64       `json:"branch_id" validate:"required,gt=0"`
	Items           []BatchLine `json:"items" validate:"required,min=1,dive"`
	Reason          string      `json:"reason" validate:"required,max=255"`
	ReferenceType   string      `json:"reference_type" validate:"max=50"`
	ReferenceNumber string      `json:"reference_number" validate:"max=100"`
	Remarks         string      `json:"remarks"`
	Operator        Operator    `json:"-"`
}

// ===== RESULTADOS DE SERVICIO =====

// MovementResult resultado de un movimiento sobre una sola fila
type MovementResult struct {
	Transaction      *InventoryTransaction
	PreviousQuantity int
	NewQuantity      int
}

// ===== RESPONSE DTOs =====

// StockInResponse respuesta para entrada de stock
type StockInResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	TransactionCode string `json:"transaction_code"`
	QuantityAdded   int    `json:"quantity_added"`
	NewQuantity     int    `json:"new_quantity"`
	Timestamp       string `json:"timestamp"`
}

// StockOutResponse respuesta para salida de stock
type StockOutResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	TransactionCode string `json:"transaction_code"`
	QuantityRemoved int    `json:"quantity_removed"`
	NewQuantity     int    `json:"new_quantity"`
	Timestamp       string `json:"timestamp"`
}

// AdjustmentResponse respuesta para ajuste
type AdjustmentResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	TransactionCode  string `json:"transaction_code"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	Difference       int    `json:"difference"`
	Timestamp        string `json:"timestamp"`
}

// TransferResponse respuesta para inicio de transferencia
type TransferResponse struct {
	Success             bool              `json:"success"`
	Message             string            `json:"message"`
	TransactionCode     string            `json:"transaction_code"`
	Status              TransactionStatus `json:"status"`
	QuantityTransferred int               `json:"quantity_transferred"`
	Timestamp           string            `json:"timestamp"`
}

// TransferStatusResponse respuesta para completar/cancelar
type TransferStatusResponse struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	TransactionCode string            `json:"transaction_code"`
	Status          TransactionStatus `json:"status"`
	Timestamp       string            `json:"timestamp"`
}

// BatchResponse respuesta para entrada/salida múltiple
type BatchResponse struct {
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
	TotalProcessed int               `json:"total_processed"`
	Results        []BatchLineResult `json:"results"`
	Errors         []BatchLineError  `json:"errors,omitempty"`
	Timestamp      string            `json:"timestamp"`
}

// BatchLineResult resultado de una línea procesada
type BatchLineResult struct {
	ProductID       int64  `json:"product_id"`
	VariationID     *int64 `json:"variation_id,omitempty"`
	TransactionCode string `json:"transaction_code"`
	Quantity        int    `json:"quantity"`
	NewQuantity     int    `json:"new_quantity"`
}

// BatchLineError error de una línea
type BatchLineError struct {
	ProductID   int64  `json:"product_id"`
	VariationID *int64 `json:"variation_id,omitempty"`
	Kind        string `json:"kind"`
	Error       string `json:"error"`
}
