package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const branchColumns = `id, name, code, address, phone, email, is_warehouse, is_active, created_at, updated_at`

// ListBranches lista sucursales ordenadas por código
func (s *PostgresStore) ListBranches(ctx context.Context, activeOnly bool) ([]*models.Branch, error) {
	query := "SELECT " + branchColumns + " FROM branches"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY code"

	var branches []*models.Branch
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &branches, query); err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

// GetBranch obtiene una sucursal por ID
func (s *PostgresStore) GetBranch(ctx context.Context, id int64) (*models.Branch, error) {
	var branch models.Branch
	err := sqlx.GetContext(ctx, s.ext(ctx), &branch,
		"SELECT "+branchColumns+" FROM branches WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get branch %d: %w", id, err)
	}
	return &branch, nil
}

// GetProduct consulta el catálogo; productos inactivos cuentan como inexistentes
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := sqlx.GetContext(ctx, s.ext(ctx), &product,
		"SELECT id, name, price, is_active FROM products WHERE id = $1 AND is_active = TRUE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// GetPrices precios de catálogo para un conjunto de productos
func (s *PostgresStore) GetPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	prices := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	rows, err := s.ext(ctx).QueryxContext(ctx,
		"SELECT id, price FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			price decimal.Decimal
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices[id] = price
	}
	return prices, rows.Err()
}
