package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorly/billing-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Префиксы ключей кешированных метрик соцсетей. Сам кеш наполняет внешний
// воркер синхронизации, этот сервис только сбрасывает его.
const (
	socialMetricsKeyPrefix = "social_metrics:"
	lastSyncKeyPrefix      = "last_sync:"
)

// MetricsCache операции сброса кеша метрик соцсетей
type MetricsCache interface {
	// ResetLastSync сбрасывает отметку последней синхронизации
	ResetLastSync(ctx context.Context, userID string) error

	// ResetAllMetrics удаляет все кешированные метрики пользователя
	ResetAllMetrics(ctx context.Context, userID string) error

	// Close закрывает соединение
	Close() error
}

// RedisMetricsCache реализация кеша метрик через Redis
type RedisMetricsCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisMetricsCache создает новый Redis кеш метрик
func NewRedisMetricsCache(addr, password string, db int, log *logger.Logger) (*RedisMetricsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis: %v", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connected to Redis at %s", addr)
	return &RedisMetricsCache{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (c *RedisMetricsCache) Close() error {
	return c.client.Close()
}

// ResetLastSync сбрасывает отметку последней синхронизации
func (c *RedisMetricsCache) ResetLastSync(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, lastSyncKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to reset last sync: %w", err)
	}
	c.log.Debug("Last sync reset for user %s", userID)
	return nil
}

// ResetAllMetrics удаляет все кешированные метрики пользователя
func (c *RedisMetricsCache) ResetAllMetrics(ctx context.Context, userID string) error {
	pattern := socialMetricsKeyPrefix + userID + ":*"

	// Итерируемся по ключам через SCAN, чтобы не блокировать Redis
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan metrics keys: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete metrics keys: %w", err)
		}
	}

	// Сбрасываем и отметку синхронизации
	if err := c.ResetLastSync(ctx, userID); err != nil {
		return err
	}

	c.log.Info("Reset %d cached metric keys for user %s", len(keys), userID)
	return nil
}
