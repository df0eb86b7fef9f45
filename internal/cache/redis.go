package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key prefixes
const (
	ProductListKey = "products:list"
	ProductKeyFmt  = "products:id:"
)

var client *redis.Client

// Init initializes the Redis connection. The app degrades gracefully
// when Redis is unreachable, so callers treat an error as advisory.
func Init() error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client (nil when unavailable)
func GetClient() *redis.Client {
	return client
}

// authPhonePrefix buckets all cached credentials for one phone number
// so a password change can wipe them without knowing the old password
func authPhonePrefix(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return "auth:" + hex.EncodeToString(sum[:])[:16]
}

// authKey creates the cache key for one phone+password pair
func authKey(phone, password string) string {
	sum := sha256.Sum256([]byte(phone + ":" + password))
	return authPhonePrefix(phone) + ":" + hex.EncodeToString(sum[:])[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, phone, password string) (int, bool) {
	if client == nil {
		return 0, false
	}
	userID, err := client.Get(ctx, authKey(phone, password)).Int()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches valid credentials for 15 minutes
func CacheAuth(ctx context.Context, phone, password string, userID int) {
	if client == nil {
		return
	}
	client.Set(ctx, authKey(phone, password), userID, 15*time.Minute)
}

// InvalidateAuth removes every cached credential for a phone number.
// Called on password change and password reset; the old password must
// stop logging in immediately, not when the TTL runs out.
func InvalidateAuth(ctx context.Context, phone string) {
	InvalidatePattern(ctx, authPhonePrefix(phone)+":*")
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateProductCaches clears all product-related caches
// Called when: CreateProduct, UpdateProduct, DeleteProduct
func InvalidateProductCaches(ctx context.Context) {
	InvalidatePattern(ctx, "products:*")
}

// IsHealthy returns true if the Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
