package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"inventory-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheStats estadísticas del caché
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
	L2Enabled     bool
}

// AlertCache guarda las alertas derivadas por fila en dos niveles.
// L1 es un mapa en memoria; L2 es un hash de Redis opcional que sobrevive
// reinicios y conserva first_detected_at y resolved_at.
type AlertCache struct {
	l1Cache map[string]*models.StockAlert
	l1Mutex sync.RWMutex

	redisClient *redis.Client
	hashKey     string

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64
}

// NewAlertCache crea el caché; redisClient nil deja solo el L1
func NewAlertCache(redisClient *redis.Client, hashKey string, logger *zap.Logger) *AlertCache {
	return &AlertCache{
		l1Cache:     make(map[string]*models.StockAlert),
		redisClient: redisClient,
		hashKey:     hashKey,
		logger:      logger.With(zap.String("component", "alert_cache")),
	}
}

// Warm carga el L2 en el L1 al arrancar
func (ac *AlertCache) Warm(ctx context.Context) error {
	if ac.redisClient == nil {
		return nil
	}

	entries, err := ac.redisClient.HGetAll(ctx, ac.hashKey).Result()
	if err != nil {
		return fmt.Errorf("failed to load alerts from redis: %w", err)
	}

	ac.l1Mutex.Lock()
	defer ac.l1Mutex.Unlock()
	for field, data := range entries {
		var alert models.StockAlert
		if err := json.Unmarshal([]byte(data), &alert); err != nil {
			ac.logger.Warn("Alerta corrupta en redis", zap.String("field", field), zap.Error(err))
			continue
		}
		ac.l1Cache[field] = &alert
	}
	ac.logger.Info("Alert cache warmed", zap.Int("alerts", len(entries)))
	return nil
}

// Get busca la alerta de una fila
func (ac *AlertCache) Get(ctx context.Context, key models.StockKey) (*models.StockAlert, bool) {
	field := key.String()

	if alert := ac.getFromL1(field); alert != nil {
		ac.recordHit()
		return alert, true
	}

	if alert, err := ac.getFromL2(ctx, field); err == nil && alert != nil {
		ac.setToL1(field, alert)
		ac.recordHit()
		return copyAlert(alert), true
	}

	ac.recordMiss()
	return nil, false
}

// Put almacena la alerta en ambos niveles. Un fallo del L2 se registra y no se propaga.
func (ac *AlertCache) Put(ctx context.Context, alert *models.StockAlert) {
	field := alert.Key().String()
	ac.setToL1(field, copyAlert(alert))

	if err := ac.setToL2(ctx, field, alert); err != nil {
		ac.logger.Warn("No se pudo escribir alerta en redis", zap.String("key", field), zap.Error(err))
	}
}

// List retorna una copia de todas las alertas conocidas
func (ac *AlertCache) List() []*models.StockAlert {
	ac.l1Mutex.RLock()
	defer ac.l1Mutex.RUnlock()

	alerts := make([]*models.StockAlert, 0, len(ac.l1Cache))
	for _, alert := range ac.l1Cache {
		alerts = append(alerts, copyAlert(alert))
	}
	return alerts
}

// Prune elimina alertas resueltas antes de cutoff; retorna cuántas quitó
func (ac *AlertCache) Prune(ctx context.Context, cutoff time.Time) int {
	ac.l1Mutex.Lock()
	var fields []string
	for field, alert := range ac.l1Cache {
		if alert.IsResolved && alert.ResolvedAt != nil && alert.ResolvedAt.Before(cutoff) {
			delete(ac.l1Cache, field)
			fields = append(fields, field)
		}
	}
	ac.l1Mutex.Unlock()

	if len(fields) > 0 && ac.redisClient != nil {
		if err := ac.redisClient.HDel(ctx, ac.hashKey, fields...).Err(); err != nil {
			ac.logger.Warn("No se pudieron borrar alertas de redis", zap.Error(err))
		}
	}
	return len(fields)
}

// GetStats retorna estadísticas del caché
func (ac *AlertCache) GetStats() CacheStats {
	ac.statsMutex.RLock()
	defer ac.statsMutex.RUnlock()

	ac.l1Mutex.RLock()
	totalKeys := len(ac.l1Cache)
	ac.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          ac.hits,
		Misses:        ac.misses,
		TotalRequests: ac.hits + ac.misses,
		TotalKeys:     totalKeys,
		L2Enabled:     ac.redisClient != nil,
	}
}

func (ac *AlertCache) recordHit() {
	ac.statsMutex.Lock()
	ac.hits++
	ac.statsMutex.Unlock()
}

func (ac *AlertCache) recordMiss() {
	ac.statsMutex.Lock()
	ac.misses++
	ac.statsMutex.Unlock()
}

func (ac *AlertCache) getFromL1(field string) *models.StockAlert {
	ac.l1Mutex.RLock()
	defer ac.l1Mutex.RUnlock()
	if alert, ok := ac.l1Cache[field]; ok {
		return copyAlert(alert)
	}
	return nil
}

func (ac *AlertCache) setToL1(field string, alert *models.StockAlert) {
	ac.l1Mutex.Lock()
	defer ac.l1Mutex.Unlock()
	ac.l1Cache[field] = alert
}

func (ac *AlertCache) getFromL2(ctx context.Context, field string) (*models.StockAlert, error) {
	if ac.redisClient == nil {
		return nil, nil
	}

	data, err := ac.redisClient.HGet(ctx, ac.hashKey, field).Result()
	if err != nil {
		return nil, err
	}

	var alert models.StockAlert
	if err := json.Unmarshal([]byte(data), &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (ac *AlertCache) setToL2(ctx context.Context, field string, alert *models.StockAlert) error {
	if ac.redisClient == nil {
		return nil
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return ac.redisClient.HSet(ctx, ac.hashKey, field, data).Err()
}

func copyAlert(a *models.StockAlert) *models.StockAlert {
	c := *a
	if a.VariationID != nil {
		v := *a.VariationID
		c.VariationID = &v
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
