package services

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/config"
	"inventory-service/internal/database"
	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	slowRequestThreshold = time.Second
	maxTrackedEntries    = 100
)

type MonitoringService interface {
	GetMetrics(ctx context.Context) *models.MonitoringResponse
	RecordRequest(data models.RequestData)
}

type monitoringService struct {
	logger     *zap.Logger
	config     *config.Config
	redisDB    *database.RedisDB
	db         *sqlx.DB
	alertCache *cache.AlertCache
	engine     TransactionEngine

	requestsMutex sync.RWMutex
	requests      map[string]*models.EndpointMetrics
	slowRequests  []models.SlowRequest
	errors        []models.RequestError
	totalRequests int64

	startTime time.Time
}

// NewMonitoringService redisDB y db pueden ser nil (driver memory o Redis deshabilitado)
func NewMonitoringService(
	logger *zap.Logger,
	config *config.Config,
	redisDB *database.RedisDB,
	db *sqlx.DB,
	alertCache *cache.AlertCache,
	engine TransactionEngine,
) MonitoringService {
	return &monitoringService{
		logger:     logger,
		config:     config,
		redisDB:    redisDB,
		db:         db,
		alertCache: alertCache,
		engine:     engine,
		requests:   make(map[string]*models.EndpointMetrics),
		startTime:  time.Now(),
	}
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	s.requestsMutex.Lock()
	defer s.requestsMutex.Unlock()

	endpointKey := fmt.Sprintf("%s %s", data.Method, data.Endpoint)
	metrics, exists := s.requests[endpointKey]
	if !exists {
		metrics = &models.EndpointMetrics{}
		s.requests[endpointKey] = metrics
	}

	durationMs := data.Duration.Milliseconds()
	metrics.Count++
	metrics.TotalTime += durationMs
	metrics.AvgTimeMs = float64(metrics.TotalTime) / float64(metrics.Count)
	if durationMs > metrics.MaxTimeMs {
		metrics.MaxTimeMs = durationMs
	}
	s.totalRequests++

	if data.Duration > slowRequestThreshold {
		s.slowRequests = appendBounded(s.slowRequests, models.SlowRequest{
			Endpoint:  endpointKey,
			Duration:  durationMs,
			Timestamp: data.Timestamp,
		})
	}

	if data.StatusCode >= 400 {
		s.errors = appendBounded(s.errors, models.RequestError{
			Endpoint:   endpointKey,
			StatusCode: data.StatusCode,
			Timestamp:  data.Timestamp,
		})
	}
}

func appendBounded[T any](list []T, item T) []T {
	list = append(list, item)
	if len(list) > maxTrackedEntries {
		list = list[len(list)-maxTrackedEntries:]
	}
	return list
}

func (s *monitoringService) GetMetrics(ctx context.Context) *models.MonitoringResponse {
	s.requestsMutex.RLock()
	requestMetrics := s.calculateRequestMetrics()
	performanceMetrics := s.calculatePerformanceMetrics()
	s.requestsMutex.RUnlock()

	return &models.MonitoringResponse{
		Requests:    requestMetrics,
		Performance: performanceMetrics,
		Ledger:      s.engine.LedgerMetrics(),
		AlertCache:  s.getCacheStats(),
		Database:    s.getDatabaseStats(),
		Redis:       s.getRedisStats(ctx),
		Runtime:     s.getRuntimeStats(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     "1.0",
	}
}

func (s *monitoringService) calculateRequestMetrics() models.RequestMetrics {
	keys := make([]string, 0, len(s.requests))
	byEndpoint := make(map[string]models.EndpointMetrics, len(s.requests))
	for key, metrics := range s.requests {
		keys = append(keys, key)
		byEndpoint[key] = *metrics
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.requests[keys[i]].Count > s.requests[keys[j]].Count
	})

	topEndpoints := make([]models.TopEndpoint, 0, 10)
	for i, key := range keys {
		if i >= 10 {
			break
		}
		topEndpoints = append(topEndpoints, models.TopEndpoint{
			Endpoint:  key,
			Count:     s.requests[key].Count,
			AvgTimeMs: fmt.Sprintf("%.2fms", s.requests[key].AvgTimeMs),
		})
	}

	return models.RequestMetrics{
		TotalRequests:     int(s.totalRequests),
		ByEndpoint:        byEndpoint,
		SlowRequests:      append([]models.SlowRequest(nil), s.slowRequests...),
		Errors:            append([]models.RequestError(nil), s.errors...),
		SlowRequestsCount: len(s.slowRequests),
		ErrorsCount:       len(s.errors),
		TopEndpoints:      topEndpoints,
	}
}

func (s *monitoringService) calculatePerformanceMetrics() models.PerformanceMetrics {
	var (
		totalTime int64
		maxTime   int64
		count     int
	)
	for _, metrics := range s.requests {
		totalTime += metrics.TotalTime
		count += metrics.Count
		if metrics.MaxTimeMs > maxTime {
			maxTime = metrics.MaxTimeMs
		}
	}

	var avgTime float64
	if count > 0 {
		avgTime = float64(totalTime) / float64(count)
	}
	return models.PerformanceMetrics{
		AvgResponseTimeMs: avgTime,
		MaxResponseTimeMs: maxTime,
	}
}

func (s *monitoringService) getCacheStats() models.CacheMetrics {
	stats := s.alertCache.GetStats()

	var hitRate float64
	if stats.TotalRequests > 0 {
		hitRate = float64(stats.Hits) / float64(stats.TotalRequests)
	}
	return models.CacheMetrics{
		Connected:         stats.L2Enabled,
		TotalKeys:         stats.TotalKeys,
		HitRatePercentage: fmt.Sprintf("%.2f%%", hitRate*100),
		TotalHits:         stats.Hits,
		TotalMisses:       stats.Misses,
	}
}

func (s *monitoringService) getDatabaseStats() models.DatabaseMetrics {
	if s.db == nil {
		return models.DatabaseMetrics{Driver: s.config.Database.Driver, Status: "in-memory"}
	}

	stats := s.db.Stats()
	return models.DatabaseMetrics{
		Driver:          s.config.Database.Driver,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
		Status:          "online",
	}
}

func (s *monitoringService) getRuntimeStats() models.RuntimeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	environment := "production"
	if s.config.Server.GinMode == "debug" {
		environment = "development"
	}
	return models.RuntimeMetrics{
		GoVersion:   runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: fmt.Sprintf("%.2f", float64(m.HeapAlloc)/1024/1024),
		UptimeHours: fmt.Sprintf("%.2fh", time.Since(s.startTime).Hours()),
		Environment: environment,
	}
}

func (s *monitoringService) getRedisStats(ctx context.Context) models.RedisMetrics {
	if s.redisDB == nil {
		return models.RedisMetrics{Status: "disabled"}
	}

	if err := s.redisDB.Ping(ctx); err != nil {
		return models.RedisMetrics{Status: "offline"}
	}

	metrics := models.RedisMetrics{Connected: true, Status: "online"}
	stats, err := s.redisDB.GetStats(ctx)
	if err != nil {
		s.logger.Warn("Failed to read Redis stats", zap.Error(err))
		return metrics
	}
	metrics.Keys = int(stats.Keys)
	metrics.MemoryMB = stats.UsedMemoryMB()
	return metrics
}
