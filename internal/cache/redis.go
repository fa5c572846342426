package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/wavecore/masterstream/internal/logger"
	"github.com/wavecore/masterstream/internal/metrics"
	"github.com/wavecore/masterstream/internal/middleware"
)

// RedisClient is the T2 warm-tier store: encoded chunk bytes only, keyed by
// ChunkDescriptor, with a TTL so abandoned tracks age out on their own
// (spec.md §4.5 "Warm (T2): ... holds the encoded bytes of completed
// chunks").
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient dials Redis with the pooling settings the rest of the
// stack expects from a shared connection.
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("failed to connect to redis", err)
		return nil, err
	}

	logger.Log.Info("redis client connected", zap.String("address", addr))
	middleware.SetRedisConnections(addr, int(client.PoolStats().TotalConns))
	return &RedisClient{client: client}, nil
}

// Close releases the underlying connection pool.
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// getChunk fetches encoded chunk bytes for desc. A miss returns redis.Nil.
func (rc *RedisClient) getChunk(ctx context.Context, desc ChunkDescriptor) ([]byte, error) {
	_, span := otel.Tracer("cache").Start(ctx, "cache.t2.get")
	defer span.End()
	span.SetAttributes(attribute.String("cache.tier", "t2"))

	start := time.Now()
	result, err := rc.client.Get(ctx, desc.redisKey()).Bytes()
	metrics.Get().RedisOperationDuration.WithLabelValues("get", "chunk:*").Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
		if err == redis.Nil {
			status = "miss"
		} else {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}
	}
	metrics.Get().RedisOperationsTotal.WithLabelValues("get", status).Inc()
	return result, err
}

// setChunk stores encoded chunk bytes for desc with the warm-tier TTL.
func (rc *RedisClient) setChunk(ctx context.Context, desc ChunkDescriptor, encoded []byte, ttl time.Duration) error {
	_, span := otel.Tracer("cache").Start(ctx, "cache.t2.set")
	defer span.End()
	span.SetAttributes(attribute.String("cache.tier", "t2"))

	start := time.Now()
	err := rc.client.Set(ctx, desc.redisKey(), encoded, ttl).Err()
	metrics.Get().RedisOperationDuration.WithLabelValues("set", "chunk:*").Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	metrics.Get().RedisOperationsTotal.WithLabelValues("set", status).Inc()
	return err
}

// deleteTrack removes every warm-tier entry belonging to trackID.
func (rc *RedisClient) deleteTrack(ctx context.Context, trackID string) error {
	pattern := fmt.Sprintf("chunk:%s:*", trackID)
	keys, err := rc.client.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return err
	}
	return rc.client.Del(ctx, keys...).Err()
}
