package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	ChecklistSummaryKeyFmt = "checklist:summary:%d"
	LotListKey             = "lots:all"
)

var client *redis.Client

// Init initializes the Redis connection. The service degrades gracefully
// without Redis: every helper no-ops when client is nil.
func Init() error {
	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
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
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// hashCredentials creates a hash of email+password for cache key
func hashCredentials(email, password string) string {
	h := sha256.New()
	h.Write([]byte(email + ":" + password))
	return "auth:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, email, password string) (int, bool) {
	if client == nil {
		return 0, false
	}
	key := hashCredentials(email, password)
	userID, err := client.Get(ctx, key).Int()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches valid credentials for 15 minutes
func CacheAuth(ctx context.Context, email, password string, userID int) {
	if client == nil {
		return
	}
	key := hashCredentials(email, password)
	client.Set(ctx, key, userID, 15*time.Minute)
}

// InvalidateAuth removes cached auth for a user (on password change/logout)
func InvalidateAuth(ctx context.Context, email, password string) {
	if client == nil {
		return
	}
	key := hashCredentials(email, password)
	client.Del(ctx, key)
}

// ============================================
// Checklist Summary Cache Functions
// ============================================

// GetCachedSummary returns the cached summary JSON for a checklist
func GetCachedSummary(ctx context.Context, checklistID int) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	key := fmt.Sprintf(ChecklistSummaryKeyFmt, checklistID)
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheSummary caches a checklist summary for 5 minutes. Every mutation path
// invalidates it first, so the TTL is only a backstop.
func CacheSummary(ctx context.Context, checklistID int, data []byte) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(ChecklistSummaryKeyFmt, checklistID)
	client.Set(ctx, key, data, 5*time.Minute)
}

// InvalidateSummary removes the cached summary for a checklist
func InvalidateSummary(ctx context.Context, checklistID int) {
	if client == nil {
		return
	}
	client.Del(ctx, fmt.Sprintf(ChecklistSummaryKeyFmt, checklistID))
}

// ============================================
// Lot Cache Functions
// ============================================

// GetCachedLots returns the cached lot list if available
func GetCachedLots(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, LotListKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheLots caches the lot list for one minute; lot counters move often.
func CacheLots(ctx context.Context, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, LotListKey, data, time.Minute)
}

// InvalidateLots clears the lot list cache
func InvalidateLots(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, LotListKey)
}
