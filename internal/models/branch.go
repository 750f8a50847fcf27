package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Branch representa una sucursal física (incluye la bodega central)
type Branch struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	Address     string    `json:"address" db:"address"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	IsWarehouse bool      `json:"is_warehouse" db:"is_warehouse"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product es la vista mínima del catálogo que necesita el ledger
type Product struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	IsActive bool            `json:"is_active" db:"is_active"`
}

// Operator identidad del operador que ejecuta un comando
type Operator struct {
	ID       string `json:"id"`
	BranchID *int64 `json:"branch_id,omitempty"`
	Role     string `json:"role"`
}

const RoleAdmin = "admin"

// SystemOperator se usa cuando la autenticación está deshabilitada
var SystemOperator = Operator{ID: "system", Role: RoleAdmin}

// CanOperateOn indica si el operador puede mutar stock de la sucursal
func (o Operator) CanOperateOn(branchID int64) bool {
	if o.Role == RoleAdmin {
		return true
	}
	return o.BranchID != nil && *o.BranchID == branchID
}
