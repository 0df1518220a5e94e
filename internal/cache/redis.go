package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/andreajoa/linktree/backend/internal/logger"
	"github.com/andreajoa/linktree/backend/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisClient implements Client on top of a pooled go-redis connection.
type redisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis-backed cache client with
// connection pooling, verifying connectivity before returning.
func NewRedisClient(host, port, password string) (Client, error) {
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
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	logger.Log.Info("Redis cache connected",
		zap.String("address", addr),
	)

	return &redisClient{client: client}, nil
}

// NewRedisClientFromRaw wraps an existing go-redis client. Used by tests to
// point the cache at a miniredis instance.
func NewRedisClientFromRaw(client *redis.Client) Client {
	return &redisClient{client: client}
}

func (rc *redisClient) Close() error {
	return rc.client.Close()
}

func (rc *redisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// set stores a JSON blob with a TTL, dropping errors after logging them.
func (rc *redisClient) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := rc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.Get().CacheErrorsTotal.WithLabelValues("set").Inc()
		logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// get retrieves a JSON blob. A backend error counts as a miss.
func (rc *redisClient) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.Get().CacheMissesTotal.WithLabelValues(keyLabel(key)).Inc()
		return nil, false
	}
	if err != nil {
		metrics.Get().CacheErrorsTotal.WithLabelValues("get").Inc()
		logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	metrics.Get().CacheHitsTotal.WithLabelValues(keyLabel(key)).Inc()
	return data, true
}

func (rc *redisClient) del(ctx context.Context, keys ...string) {
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		metrics.Get().CacheErrorsTotal.WithLabelValues("del").Inc()
		logger.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (rc *redisClient) CacheUser(ctx context.Context, userID string, data []byte) {
	rc.set(ctx, userKeyPrefix+userID, data, UserTTL)
}

func (rc *redisClient) GetCachedUser(ctx context.Context, userID string) ([]byte, bool) {
	return rc.get(ctx, userKeyPrefix+userID)
}

func (rc *redisClient) CacheUserLinks(ctx context.Context, userID string, data []byte) {
	rc.set(ctx, linksKeyPrefix+userID, data, LinksTTL)
}

func (rc *redisClient) GetCachedUserLinks(ctx context.Context, userID string) ([]byte, bool) {
	return rc.get(ctx, linksKeyPrefix+userID)
}

func (rc *redisClient) CachePublicProfile(ctx context.Context, username string, data []byte) {
	rc.set(ctx, profileKeyPrefix+username, data, ProfileTTL)
}

func (rc *redisClient) GetCachedPublicProfile(ctx context.Context, username string) ([]byte, bool) {
	return rc.get(ctx, profileKeyPrefix+username)
}

// InvalidateUserCache drops both the user document and the user's link list
// in one round trip.
func (rc *redisClient) InvalidateUserCache(ctx context.Context, userID string) {
	rc.del(ctx, userKeyPrefix+userID, linksKeyPrefix+userID)
}

func (rc *redisClient) InvalidateProfileCache(ctx context.Context, username string) {
	rc.del(ctx, profileKeyPrefix+username)
}

// CheckRateLimit increments the fixed-window counter for key, starting the
// window on the first hit. Allowed iff the post-increment count is within
// limit.
//
// Fail-open: a Redis error allows the request instead of blocking traffic.
// Availability over strictness — during a cache outage the ingestion path
// is effectively unthrottled.
func (rc *redisClient) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) bool {
	count, err := rc.client.Incr(ctx, key).Result()
	if err != nil {
		metrics.Get().CacheErrorsTotal.WithLabelValues("incr").Inc()
		logger.Warn("Rate limit check failed, allowing request",
			zap.String("key", key), zap.Error(err))
		return true
	}

	if count == 1 {
		if err := rc.client.Expire(ctx, key, window).Err(); err != nil {
			logger.Warn("Failed to set rate limit window",
				zap.String("key", key), zap.Error(err))
		}
	}

	allowed := count <= int64(limit)
	if !allowed {
		metrics.Get().RateLimitExceededTotal.WithLabelValues(keyLabel(key)).Inc()
	}
	return allowed
}

// keyLabel maps a cache key to its prefix for metric labels, keeping label
// cardinality bounded.
func keyLabel(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return "other"
}
