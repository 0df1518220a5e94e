package cache

import (
	"context"
	"time"
)

// Key prefixes and TTLs for the hot documents the profile surface serves.
const (
	userKeyPrefix    = "user:"
	linksKeyPrefix   = "links:"
	profileKeyPrefix = "profile:"

	UserTTL    = time.Hour
	LinksTTL   = 30 * time.Minute
	ProfileTTL = 30 * time.Minute
)

// Client is the cache layer contract. A component either receives a working
// Redis-backed client or the Disabled variant; call sites never nil-check.
//
// Every operation degrades rather than fails: reads return ("", false) on
// miss or backend error, writes and invalidations log and drop errors. The
// system stays correct with no cache at all, just slower.
type Client interface {
	// Read-through document cache. Values are opaque JSON blobs.
	CacheUser(ctx context.Context, userID string, data []byte)
	GetCachedUser(ctx context.Context, userID string) ([]byte, bool)
	CacheUserLinks(ctx context.Context, userID string, data []byte)
	GetCachedUserLinks(ctx context.Context, userID string) ([]byte, bool)
	CachePublicProfile(ctx context.Context, username string, data []byte)
	GetCachedPublicProfile(ctx context.Context, username string) ([]byte, bool)

	// Invalidation runs synchronously before a mutating request returns.
	InvalidateUserCache(ctx context.Context, userID string)
	InvalidateProfileCache(ctx context.Context, username string)

	// CheckRateLimit increments the fixed-window counter for key and
	// reports whether the caller is still under limit.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) bool

	// Ping reports backend health. The disabled variant always succeeds.
	Ping(ctx context.Context) error

	Close() error
}

// Disabled returns a no-op Client for deployments without a Redis backend.
func Disabled() Client {
	return disabledClient{}
}

type disabledClient struct{}

func (disabledClient) CacheUser(ctx context.Context, userID string, data []byte)      {}
func (disabledClient) CacheUserLinks(ctx context.Context, userID string, data []byte) {}
func (disabledClient) CachePublicProfile(ctx context.Context, username string, data []byte) {
}

func (disabledClient) GetCachedUser(ctx context.Context, userID string) ([]byte, bool) {
	return nil, false
}

func (disabledClient) GetCachedUserLinks(ctx context.Context, userID string) ([]byte, bool) {
	return nil, false
}

func (disabledClient) GetCachedPublicProfile(ctx context.Context, username string) ([]byte, bool) {
	return nil, false
}

func (disabledClient) InvalidateUserCache(ctx context.Context, userID string)      {}
func (disabledClient) InvalidateProfileCache(ctx context.Context, username string) {}

// CheckRateLimit allows everything when no counter store exists. Same
// fail-open posture as the Redis variant on backend errors.
func (disabledClient) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) bool {
	return true
}

func (disabledClient) Ping(ctx context.Context) error { return nil }
func (disabledClient) Close() error                   { return nil }
