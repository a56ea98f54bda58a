package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultReportKeyPrefix = "risk:report:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisReportStore keeps reports as JSON snapshots in Redis.
// This is suitable for deployments where several instances serve the same reports.
type RedisReportStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisReportStore connects to Redis and creates a store whose reports expire after ttl
func NewRedisReportStore(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisReportStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisReportStoreWithClient(client, "", ttl), nil
}

// NewRedisReportStoreWithClient creates a store with an existing Redis client
func NewRedisReportStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisReportStore {
	if keyPrefix == "" {
		keyPrefix = defaultReportKeyPrefix
	}
	return &RedisReportStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisReportStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}

// Save writes the report snapshot, replacing any report with the same ID.
// The TTL restarts on every save.
func (s *RedisReportStore) Save(ctx context.Context, report *risk.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(report.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get reads a report snapshot
func (s *RedisReportStore) Get(ctx context.Context, id uuid.UUID) (*risk.Report, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, risk.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var report risk.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if report.Rows == nil {
		report.Rows = []risk.ReportRow{}
	}
	return &report, nil
}

// Delete removes a report. Deleting an unknown report is not an error.
func (s *RedisReportStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisReportStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisReportStore) GetClient() *redis.Client {
	return s.client
}
