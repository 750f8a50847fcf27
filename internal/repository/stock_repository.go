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

const stockColumns = `id, branch_id, product_id, variation_id, quantity, min_stock_level,
	max_stock_level, last_restocked, created_at, updated_at`

var stockQueries = map[string]string{
	"get": `
		SELECT ` + stockColumns + `
		FROM stock_levels
		WHERE branch_id = $1 AND product_id = $2 AND variation_id IS NOT DISTINCT FROM $3
	`,
	"create": `
		INSERT INTO stock_levels
		(branch_id, product_id, variation_id, quantity, min_stock_level, max_stock_level, last_restocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (branch_id, product_id, COALESCE(variation_id, 0)) DO NOTHING
		RETURNING id, created_at, updated_at
	`,
	"cas_quantity": `
		UPDATE stock_levels
		SET quantity = $1, last_restocked = COALESCE($2, last_restocked), updated_at = NOW()
		WHERE branch_id = $3 AND product_id = $4 AND variation_id IS NOT DISTINCT FROM $5
		  AND quantity = $6
	`,
	"update_thresholds": `
		UPDATE stock_levels
		SET min_stock_level = $1, max_stock_level = $2, updated_at = NOW()
		WHERE branch_id = $3 AND product_id = $4 AND variation_id IS NOT DISTINCT FROM $5
		RETURNING ` + stockColumns,
}

// GetStockLevel obtiene la fila de una clave
func (s *PostgresStore) GetStockLevel(ctx context.Context, key models.StockKey) (*models.StockLevel, error) {
	var level models.StockLevel
	err := sqlx.GetContext(ctx, s.ext(ctx), &level, stockQueries["get"],
		key.BranchID, key.ProductID, key.VariationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock level %s: %w", key, err)
	}

	level.RefreshStatus()
	return &level, nil
}

// CreateStockLevel inserta una fila nueva
func (s *PostgresStore) CreateStockLevel(ctx context.Context, level *models.StockLevel) error {
	row := s.ext(ctx).QueryRowxContext(ctx, stockQueries["create"],
		level.BranchID, level.ProductID, level.VariationID, level.Quantity,
		level.MinStockLevel, level.MaxStockLevel, level.LastRestocked,
	)
	err := row.Scan(&level.ID, &level.CreatedAt, &level.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ConcurrentModification("la fila %s fue creada por otra escritura", level.Key())
	}
	if err != nil {
		return fmt.Errorf("failed to create stock level: %w", err)
	}

	level.RefreshStatus()
	return nil
}

// CompareAndSetQuantity actualiza la cantidad solo si no cambió desde la lectura
func (s *PostgresStore) CompareAndSetQuantity(ctx context.Context, key models.StockKey, expected, newQty int, restockedAt *time.Time) error {
	result, err := s.ext(ctx).ExecContext(ctx, stockQueries["cas_quantity"],
		newQty, restockedAt, key.BranchID, key.ProductID, key.VariationID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ConcurrentModification("la cantidad de %s cambió (esperada %d)", key, expected)
	}
	return nil
}

// UpdateThresholds cambia min/max de una fila existente
func (s *PostgresStore) UpdateThresholds(ctx context.Context, key models.StockKey, t models.Thresholds) (*models.StockLevel, error) {
	var level models.StockLevel
	err := sqlx.GetContext(ctx, s.ext(ctx), &level, stockQueries["update_thresholds"],
		t.Min, t.Max, key.BranchID, key.ProductID, key.VariationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("no existe stock para %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update thresholds: %w", err)
	}

	level.RefreshStatus()
	return &level, nil
}

// ListStockLevels lista filas; el estado se filtra después de derivarlo
func (s *PostgresStore) ListStockLevels(ctx context.Context, filter models.StockLevelFilter) ([]*models.StockLevel, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		conds = append(conds, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}

	query := "SELECT " + stockColumns + " FROM stock_levels"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY branch_id, product_id, variation_id NULLS FIRST"

	var rows []*models.StockLevel
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list stock levels: %w", err)
	}

	levels := make([]*models.StockLevel, 0, len(rows))
	for _, level := range rows {
		level.RefreshStatus()
		if filter.Matches(level) {
			levels = append(levels, level)
		}
	}
	return levels, nil
}
