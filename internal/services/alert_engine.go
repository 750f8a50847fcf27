package services

import (
	"context"
	"sort"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"go.uber.org/zap"
)

// Evaluate deriva la alerta de una fila; nil cuando la fila está en rango
func Evaluate(level *models.StockLevel) *models.StockAlert {
	if level == nil {
		return nil
	}

	var alertType models.AlertType
	switch models.DeriveStockStatus(level.Quantity, level.MinStockLevel, level.MaxStockLevel) {
	case models.StockStatusOutOfStock:
		alertType = models.AlertTypeOutOfStock
	case models.StockStatusLowStock:
		alertType = models.AlertTypeLowStock
	case models.StockStatusOverstock:
		alertType = models.AlertTypeOverstock
	default:
		return nil
	}

	return &models.StockAlert{
		BranchID:      level.BranchID,
		ProductID:     level.ProductID,
		VariationID:   level.VariationID,
		AlertType:     alertType,
		Quantity:      level.Quantity,
		MinStockLevel: level.MinStockLevel,
		MaxStockLevel: level.MaxStockLevel,
	}
}

// AlertEngine mantiene el caché de alertas al día con las filas afectadas.
// Sus locks de fila son los mismos que usa el Ledger.
type AlertEngine struct {
	store     repository.StockRepository
	cache     *cache.AlertCache
	locks     *rowLocks
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertEngine crea el motor; retention define cuánto se conservan las alertas resueltas
func NewAlertEngine(store repository.StockRepository, alertCache *cache.AlertCache, retention time.Duration, logger *zap.Logger) *AlertEngine {
	return &AlertEngine{
		store:     store,
		cache:     alertCache,
		locks:     newRowLocks(),
		retention: retention,
		logger:    logger.With(zap.String("component", "alert_engine")),
		now:       time.Now,
	}
}

// Refresh reevalúa solo las filas dadas. Los errores se registran; las alertas
// son derivadas y se regeneran en el próximo listado.
func (a *AlertEngine) Refresh(ctx context.Context, keys ...models.StockKey) {
	for _, key := range keys {
		level, err := a.store.GetStockLevel(ctx, key)
		if err != nil {
			a.logger.Warn("No se pudo reevaluar alerta", zap.String("key", key.String()), zap.Error(err))
			continue
		}
		a.refreshLevel(ctx, key, level)
	}
}

func (a *AlertEngine) refreshLevel(ctx context.Context, key models.StockKey, level *models.StockLevel) *models.StockAlert {
	candidate := Evaluate(level)
	existing, ok := a.cache.Get(ctx, key)
	now := a.now()

	if candidate != nil {
		if ok && !existing.IsResolved && existing.AlertType == candidate.AlertType {
			candidate.FirstDetectedAt = existing.FirstDetectedAt
			if existing.Quantity == candidate.Quantity &&
				existing.MinStockLevel == candidate.MinStockLevel &&
				existing.MaxStockLevel == candidate.MaxStockLevel {
				return candidate
			}
		} else {
			candidate.FirstDetectedAt = now
			a.logger.Info("Alerta de stock",
				zap.String("key", key.String()),
				zap.String("alert_type", string(candidate.AlertType)),
				zap.Int("quantity", candidate.Quantity))
		}
		a.cache.Put(ctx, candidate)
		return candidate
	}

	if ok && !existing.IsResolved {
		existing.IsResolved = true
		existing.ResolvedAt = &now
		if level != nil {
			existing.Quantity = level.Quantity
			existing.MinStockLevel = level.MinStockLevel
			existing.MaxStockLevel = level.MaxStockLevel
		}
		a.cache.Put(ctx, existing)
		a.logger.Info("Alerta resuelta", zap.String("key", key.String()))
	}
	return nil
}

// List regenera las alertas activas desde las filas de stock; con includeResolved
// agrega las resueltas que aún conserva el caché
func (a *AlertEngine) List(ctx context.Context, includeResolved bool) ([]*models.StockAlert, error) {
	levels, err := a.store.ListStockLevels(ctx, models.StockLevelFilter{})
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool)
	alerts := make([]*models.StockAlert, 0)
	for _, level := range levels {
		key := level.Key()
		alert, err := a.refreshLocked(ctx, key)
		if err != nil {
			return nil, err
		}
		if alert != nil {
			active[key.String()] = true
			alerts = append(alerts, alert)
		}
	}

	if includeResolved {
		for _, alert := range a.cache.List() {
			if alert.IsResolved && !active[alert.Key().String()] {
				alerts = append(alerts, alert)
			}
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].IsResolved != alerts[j].IsResolved {
			return !alerts[i].IsResolved
		}
		if alerts[i].BranchID != alerts[j].BranchID {
			return alerts[i].BranchID < alerts[j].BranchID
		}
		if alerts[i].ProductID != alerts[j].ProductID {
			return alerts[i].ProductID < alerts[j].ProductID
		}
		return alerts[i].Key().String() < alerts[j].Key().String()
	})
	return alerts, nil
}

// refreshLocked relee la fila con su lock tomado; la foto del listado puede
// ser más vieja que el último Refresh de un comando
func (a *AlertEngine) refreshLocked(ctx context.Context, key models.StockKey) (*models.StockAlert, error) {
	unlock := a.locks.Lock(key)
	defer unlock()

	level, err := a.store.GetStockLevel(ctx, key)
	if err != nil {
		return nil, err
	}
	return a.refreshLevel(ctx, key, level), nil
}

// CountActive cantidad de filas que hoy rompen un umbral
func CountActive(levels []*models.StockLevel) int {
	count := 0
	for _, level := range levels {
		if Evaluate(level) != nil {
			count++
		}
	}
	return count
}

// Sweep reevalúa todas las filas y purga alertas resueltas más viejas que la retención
func (a *AlertEngine) Sweep(ctx context.Context) (active, pruned int, err error) {
	alerts, err := a.List(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if a.retention > 0 {
		pruned = a.cache.Prune(ctx, a.now().Add(-a.retention))
	}
	return len(alerts), pruned, nil
}
