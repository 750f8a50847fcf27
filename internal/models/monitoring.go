package models

import "time"

// MonitoringResponse respuesta completa del sistema de monitoring
type MonitoringResponse struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Ledger      LedgerMetrics      `json:"ledger"`
	AlertCache  CacheMetrics       `json:"alert_cache"`
	Database    DatabaseMetrics    `json:"database"`
	Redis       RedisMetrics       `json:"redis"`
	Runtime     RuntimeMetrics     `json:"runtime"`
	Timestamp   string             `json:"timestamp"`
	Version     string             `json:"version"`
}

// RequestMetrics métricas de requests
type RequestMetrics struct {
	TotalRequests     int                        `json:"total_requests"`
	ByEndpoint        map[string]EndpointMetrics `json:"by_endpoint"`
	SlowRequests      []SlowRequest              `json:"slow_requests"`
	Errors            []RequestError             `json:"errors"`
	SlowRequestsCount int                        `json:"slow_requests_count"`
	ErrorsCount       int                        `json:"errors_count"`
	TopEndpoints      []TopEndpoint              `json:"top_endpoints"`
}

// EndpointMetrics métricas por endpoint
type EndpointMetrics struct {
	Count     int     `json:"count"`
	AvgTimeMs float64 `json:"avg_time_ms"`
	TotalTime int64   `json:"total_time_ms"`
	MaxTimeMs int64   `json:"max_time_ms"`
}

// SlowRequest request lento
type SlowRequest struct {
	Endpoint  string    `json:"endpoint"`
	Duration  int64     `json:"duration_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestError request con status >= 400
type RequestError struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// TopEndpoint endpoint más usado
type TopEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	AvgTimeMs string `json:"avg_time_ms"`
}

// PerformanceMetrics métricas de rendimiento
type PerformanceMetrics struct {
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	MaxResponseTimeMs int64   `json:"max_response_time_ms"`
}

// LedgerMetrics contadores de comandos de inventario por tipo de resultado
type LedgerMetrics struct {
	Commands  map[string]int64 `json:"commands"`
	Failures  map[string]int64 `json:"failures"`
	Conflicts int64            `json:"conflicts"`
}

// CacheMetrics métricas del caché de alertas
type CacheMetrics struct {
	Connected         bool   `json:"connected"`
	TotalKeys         int    `json:"total_keys"`
	HitRatePercentage string `json:"hit_rate_percentage"`
	TotalHits         int64  `json:"total_hits"`
	TotalMisses       int64  `json:"total_misses"`
}

// DatabaseMetrics métricas de base de datos
type DatabaseMetrics struct {
	Driver          string `json:"driver"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	Status          string `json:"status"`
}

// RedisMetrics métricas de Redis
type RedisMetrics struct {
	Connected bool   `json:"connected"`
	Keys      int    `json:"keys"`
	MemoryMB  string `json:"memory_mb"`
	Status    string `json:"status"`
}

// RuntimeMetrics métricas del proceso Go
type RuntimeMetrics struct {
	GoVersion   string `json:"go_version"`
	Goroutines  int    `json:"goroutines"`
	HeapAllocMB string `json:"heap_alloc_mb"`
	UptimeHours string `json:"uptime_hours"`
	Environment string `json:"environment"`
}

// RequestData datos de un request individual
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}
