package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const transactionColumns = `id, transaction_code, type, product_id, variation_id, quantity,
	source_branch_id, destination_branch_id, reference_type, reference_number, unit_cost,
	total_cost, supplier, reason, remarks, status, transfer_mode, previous_quantity,
	new_quantity, performed_by, resolution_remarks, created_at, completed_at`

var transactionQueries = map[string]string{
	"next_sequence": `
		INSERT INTO transaction_sequences (prefix, day, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, day) DO UPDATE SET last_value = transaction_sequences.last_value + 1
		RETURNING last_value
	`,
	"create": `
		INSERT INTO inventory_transactions
		(transaction_code, type, product_id, variation_id, quantity, source_branch_id,
		 destination_branch_id, reference_type, reference_number, unit_cost, total_cost,
		 supplier, reason, remarks, status, transfer_mode, previous_quantity, new_quantity,
		 performed_by, resolution_remarks, created_at, completed_at)
		VALUES
		(:transaction_code, :type, :product_id, :variation_id, :quantity, :source_branch_id,
		 :destination_branch_id, :reference_type, :reference_number, :unit_cost, :total_cost,
		 :supplier, :reason, :remarks, :status, :transfer_mode, :previous_quantity, :new_quantity,
		 :performed_by, :resolution_remarks, :created_at, :completed_at)
		RETURNING id
	`,
	"get_by_code": `
		SELECT ` + transactionColumns + `
		FROM inventory_transactions
		WHERE transaction_code = $1
	`,
	"update_status": `
		UPDATE inventory_transactions
		SET status = $1, completed_at = $2, resolution_remarks = $3
		WHERE transaction_code = $4 AND status = $5
	`,
	"get_status": `
		SELECT status FROM inventory_transactions WHERE transaction_code = $1
	`,
	"count": `
		SELECT COUNT(*) FROM inventory_transactions WHERE type = $1 AND status = $2
	`,
	"sum_movements": `
		SELECT product_id, variation_id,
			COALESCE(SUM(CASE WHEN type = 'stock_in' AND status = 'completed' THEN quantity END), 0) AS received,
			COALESCE(SUM(CASE WHEN type = 'stock_out' AND status = 'completed' THEN quantity END), 0) AS issued,
			COALESCE(SUM(CASE WHEN type = 'adjustment' AND status = 'completed'
				THEN new_quantity - previous_quantity END), 0) AS adjusted,
			COALESCE(SUM(CASE WHEN type = 'transfer' AND status = 'in_transit' THEN quantity END), 0) AS in_transit
		FROM inventory_transactions
		WHERE $1::bigint IS NULL OR product_id = $1
		GROUP BY product_id, variation_id
		ORDER BY product_id, variation_id NULLS FIRST
	`,
}

// NextSequence incrementa el correlativo diario; la fila queda bloqueada hasta el commit
func (s *PostgresStore) NextSequence(ctx context.Context, prefix, day string) (int, error) {
	var seq int
	if err := sqlx.GetContext(ctx, s.ext(ctx), &seq, transactionQueries["next_sequence"], prefix, day); err != nil {
		return 0, fmt.Errorf("failed to get next sequence for %s-%s: %w", prefix, day, err)
	}
	return seq, nil
}

// CreateTransaction inserta una transacción y completa su ID
func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *models.InventoryTransaction) error {
	query, args, err := sqlx.Named(transactionQueries["create"], tx)
	if err != nil {
		return fmt.Errorf("failed to bind transaction: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if err := sqlx.GetContext(ctx, s.ext(ctx), &tx.ID, query, args...); err != nil {
		return fmt.Errorf("failed to create transaction %s: %w", tx.TransactionCode, err)
	}
	return nil
}

// GetTransactionByCode obtiene una transacción por su código
func (s *PostgresStore) GetTransactionByCode(ctx context.Context, code string) (*models.InventoryTransaction, error) {
	var tx models.InventoryTransaction
	err := sqlx.GetContext(ctx, s.ext(ctx), &tx, transactionQueries["get_by_code"], code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", code, err)
	}
	return &tx, nil
}

// UpdateTransactionStatus aplica from → to con check-and-set sobre el estado
func (s *PostgresStore) UpdateTransactionStatus(ctx context.Context, code string, from, to models.TransactionStatus, completedAt *time.Time, remarks string) error {
	result, err := s.ext(ctx).ExecContext(ctx, transactionQueries["update_status"],
		to, completedAt, remarks, code, from)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var current models.TransactionStatus
	err = sqlx.GetContext(ctx, s.ext(ctx), &current, transactionQueries["get_status"], code)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("transacción %s no encontrada", code)
	}
	if err != nil {
		return fmt.Errorf("failed to read transaction status: %w", err)
	}
	return apperror.InvalidState("la transacción %s está en estado %s (se esperaba %s)", code, current, from)
}

// ListTransactions lista transacciones recientes primero
func (s *PostgresStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.InventoryTransaction, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		conds = append(conds, fmt.Sprintf("(source_branch_id = $%d OR destination_branch_id = $%d)", len(args), len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := "SELECT " + transactionColumns + " FROM inventory_transactions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var txs []*models.InventoryTransaction
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &txs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// CountTransactions cuenta transacciones por tipo y estado
func (s *PostgresStore) CountTransactions(ctx context.Context, txType models.TransactionType, status models.TransactionStatus) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, s.ext(ctx), &count, transactionQueries["count"], txType, status); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SumMovements totales por (product, variation) para conciliación
func (s *PostgresStore) SumMovements(ctx context.Context, productID *int64) ([]models.MovementTotals, error) {
	var totals []models.MovementTotals
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &totals, transactionQueries["sum_movements"], productID); err != nil {
		return nil, fmt.Errorf("failed to sum movements: %w", err)
	}
	return totals, nil
}
