package services

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"go.uber.org/zap"
)

// StockLedger tabla autoritativa (branch, product, variation) → cantidad
type StockLedger interface {
	GetQuantity(ctx context.Context, key models.StockKey) (int, error)
	ApplyDelta(ctx context.Context, key models.StockKey, delta int, expectedOld *int) (int, error)
	SetQuantity(ctx context.Context, key models.StockKey, newQuantity int) (int, error)
	SetThresholds(ctx context.Context, key models.StockKey, t models.Thresholds) (*models.StockLevel, error)
	ListStockLevels(ctx context.Context, filter models.StockLevelFilter) ([]*models.StockLevel, error)
}

// Ledger implementa StockLedger. Toda escritura pasa por withRows, que toma
// los locks de fila, abre la transacción del store y refresca alertas al confirmar.
type Ledger struct {
	store    repository.Store
	locks    *rowLocks
	alerts   *AlertEngine
	defaults models.Thresholds
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedger crea el ledger con los umbrales por defecto para filas nuevas
func NewLedger(store repository.Store, alerts *AlertEngine, defaults models.Thresholds, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:    store,
		locks:    alerts.locks,
		alerts:   alerts,
		defaults: defaults,
		logger:   logger.With(zap.String("component", "stock_ledger")),
		now:      time.Now,
	}
}

// GetQuantity retorna 0 cuando la fila no existe
func (l *Ledger) GetQuantity(ctx context.Context, key models.StockKey) (int, error) {
	_, qty, err := l.read(ctx, key)
	return qty, err
}

// ApplyDelta suma delta a la fila, creándola si hace falta
func (l *Ledger) ApplyDelta(ctx context.Context, key models.StockKey, delta int, expectedOld *int) (int, error) {
	var next int
	err := l.withRows(ctx, []models.StockKey{key}, func(ctx context.Context) error {
		level, current, err := l.read(ctx, key)
		if err != nil {
			return err
		}
		if err := checkExpected(key, current, expectedOld); err != nil {
			return err
		}
		next = current + delta
		if next < 0 {
			return apperror.InsufficientStock("stock insuficiente en %s: disponible %d, solicitado %d", key, current, -delta)
		}
		return l.write(ctx, key, level, next, delta, nil)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// SetQuantity fija la cantidad y retorna la anterior
func (l *Ledger) SetQuantity(ctx context.Context, key models.StockKey, newQuantity int) (int, error) {
	if newQuantity < 0 {
		return 0, apperror.InvalidArgument("la cantidad no puede ser negativa: %d", newQuantity)
	}

	var previous int
	err := l.withRows(ctx, []models.StockKey{key}, func(ctx context.Context) error {
		level, current, err := l.read(ctx, key)
		if err != nil {
			return err
		}
		previous = current
		return l.write(ctx, key, level, newQuantity, newQuantity-current, nil)
	})
	if err != nil {
		return 0, err
	}
	return previous, nil
}

// SetThresholds cambia min/max de una fila existente y reevalúa su alerta
func (l *Ledger) SetThresholds(ctx context.Context, key models.StockKey, t models.Thresholds) (*models.StockLevel, error) {
	if err := t.Validate(); err != nil {
		return nil, apperror.InvalidArgument("%v", err)
	}

	var level *models.StockLevel
	err := l.withRows(ctx, []models.StockKey{key}, func(ctx context.Context) error {
		var err error
		level, err = l.store.UpdateThresholds(ctx, key, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// ListStockLevels lista filas con su estado derivado
func (l *Ledger) ListStockLevels(ctx context.Context, filter models.StockLevelFilter) ([]*models.StockLevel, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, apperror.InvalidArgument("stock_status inválido: %s", *filter.Status)
	}
	return l.store.ListStockLevels(ctx, filter)
}

// withRows serializa el comando sobre las filas dadas y lo ejecuta en una transacción
func (l *Ledger) withRows(ctx context.Context, keys []models.StockKey, fn func(ctx context.Context) error) error {
	unlock := l.locks.Lock(keys...)
	defer unlock()

	if err := l.store.WithinTx(ctx, fn); err != nil {
		return err
	}
	l.alerts.Refresh(ctx, keys...)
	return nil
}

// read retorna la fila (nil si no existe) y su cantidad.
// read y write son las primitivas de ApplyDelta/SetQuantity; los comandos del
// engine las llaman dentro de su propio withRows para que la lectura, el asiento
// en el log y la escritura queden en la misma transacción del store.
func (l *Ledger) read(ctx context.Context, key models.StockKey) (*models.StockLevel, int, error) {
	level, err := l.store.GetStockLevel(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("error leyendo stock: %w", err)
	}
	if level == nil {
		return nil, 0, nil
	}
	return level, level.Quantity, nil
}

// write persiste next para la fila leída. level nil crea la fila con
// thresholds o los umbrales por defecto; si la fila existe y thresholds
// no es nil, también los actualiza.
func (l *Ledger) write(ctx context.Context, key models.StockKey, level *models.StockLevel, next, delta int, thresholds *models.Thresholds) error {
	if next > models.MaxQuantity {
		return apperror.InvalidArgument("%s superaría el máximo de %d unidades", key, models.MaxQuantity)
	}

	var restockedAt *time.Time
	if delta > 0 {
		now := l.now()
		restockedAt = &now
	}

	if level == nil {
		t := l.defaults
		if thresholds != nil {
			t = *thresholds
		}
		return l.store.CreateStockLevel(ctx, &models.StockLevel{
			BranchID:      key.BranchID,
			ProductID:     key.ProductID,
			VariationID:   key.VariationID,
			Quantity:      next,
			MinStockLevel: t.Min,
			MaxStockLevel: t.Max,
			LastRestocked: restockedAt,
		})
	}

	if err := l.store.CompareAndSetQuantity(ctx, key, level.Quantity, next, restockedAt); err != nil {
		return err
	}
	if thresholds != nil {
		if _, err := l.store.UpdateThresholds(ctx, key, *thresholds); err != nil {
			return err
		}
	}
	return nil
}

// thresholdsFor combina los umbrales pedidos con los actuales de la fila
func (l *Ledger) thresholdsFor(level *models.StockLevel, minStock, maxStock *int) (*models.Thresholds, error) {
	if minStock == nil && maxStock == nil {
		return nil, nil
	}

	t := l.defaults
	if level != nil {
		t = models.Thresholds{Min: level.MinStockLevel, Max: level.MaxStockLevel}
	}
	if minStock != nil {
		t.Min = *minStock
	}
	if maxStock != nil {
		t.Max = *maxStock
	}
	if err := t.Validate(); err != nil {
		return nil, apperror.InvalidArgument("%v", err)
	}
	return &t, nil
}

func checkExpected(key models.StockKey, current int, expected *int) error {
	if expected != nil && *expected != current {
		return apperror.ConcurrentModification("la cantidad de %s es %d, se esperaba %d", key, current, *expected)
	}
	return nil
}
