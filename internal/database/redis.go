package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisDB conexión opcional usada por el caché L2 de alertas
type RedisDB struct {
	Client *redis.Client
}

// RedisStats lo que el monitoring necesita de INFO y DBSIZE
type RedisStats struct {
	Keys            int64
	UsedMemoryBytes int64
}

// UsedMemoryMB memoria usada formateada para el dashboard de monitoring
func (s RedisStats) UsedMemoryMB() string {
	return fmt.Sprintf("%.2f MB", float64(s.UsedMemoryBytes)/1024/1024)
}

func NewRedisDB(cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	opt.DB = cfg.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis connection established",
		zap.String("addr", opt.Addr),
		zap.Int("db", cfg.DB),
		zap.String("alert_hash", cfg.AlertHashKey),
	)

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	return r.Client.Close()
}

func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// GetStats cantidad de claves y memoria usada
func (r *RedisDB) GetStats(ctx context.Context) (RedisStats, error) {
	var stats RedisStats

	keys, err := r.Client.DBSize(ctx).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to read Redis DBSIZE: %w", err)
	}
	stats.Keys = keys

	info, err := r.Client.Info(ctx, "memory").Result()
	if err != nil {
		return stats, fmt.Errorf("failed to read Redis INFO: %w", err)
	}
	if raw, ok := infoField(info, "used_memory"); ok {
		stats.UsedMemoryBytes, _ = strconv.ParseInt(raw, 10, 64)
	}
	return stats, nil
}

// infoField busca "field:valor" en la salida de INFO
func infoField(info, field string) (string, bool) {
	prefix := field + ":"
	for _, line := range strings.Split(info, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}
