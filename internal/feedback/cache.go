package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTimeout is how long evaluated feedback stays valid.
const DefaultCacheTimeout = 30 * time.Minute

// Cache stores evaluated feedback keyed by user and lesson. A cached entry is
// only served when the response text is identical to the one it was computed
// for; a changed response invalidates the entry.
type Cache interface {
	Get(ctx context.Context, userID int64, lessonID, responseText string) ([]string, bool)
	Set(ctx context.Context, userID int64, lessonID, responseText string, messages []string)
}

type cachedFeedback struct {
	ResponseText string    `json:"response_text"`
	Messages     []string  `json:"messages"`
	StoredAt     time.Time `json:"stored_at"`
}

func cacheKey(userID int64, lessonID string) string {
	return fmt.Sprintf("feedback:%d:%s", userID, lessonID)
}

// MemoryCache is the default in-process cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cachedFeedback
	timeout time.Duration
}

// NewMemoryCache creates an in-process feedback cache.
func NewMemoryCache(timeout time.Duration) *MemoryCache {
	if timeout <= 0 {
		timeout = DefaultCacheTimeout
	}
	return &MemoryCache{
		entries: make(map[string]cachedFeedback),
		timeout: timeout,
	}
}

// Get returns the cached messages for an identical response.
func (c *MemoryCache) Get(_ context.Context, userID int64, lessonID, responseText string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, lessonID)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.StoredAt) > c.timeout {
		delete(c.entries, key)
		return nil, false
	}
	if entry.ResponseText != responseText {
		delete(c.entries, key)
		return nil, false
	}
	return entry.Messages, true
}

// Set stores feedback for a response.
func (c *MemoryCache) Set(_ context.Context, userID int64, lessonID, responseText string, messages []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(userID, lessonID)] = cachedFeedback{
		ResponseText: responseText,
		Messages:     messages,
		StoredAt:     time.Now(),
	}
}

// RedisCache shares evaluated feedback between instances.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCache creates a Redis-backed feedback cache.
func NewRedisCache(client *redis.Client, timeout time.Duration) *RedisCache {
	if timeout <= 0 {
		timeout = DefaultCacheTimeout
	}
	return &RedisCache{client: client, timeout: timeout}
}

// Get returns the cached messages for an identical response. Redis errors are
// treated as cache misses.
func (c *RedisCache) Get(ctx context.Context, userID int64, lessonID, responseText string) ([]string, bool) {
	raw, err := c.client.Get(ctx, cacheKey(userID, lessonID)).Bytes()
	if err != nil {
		return nil, false
	}

	var entry cachedFeedback
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.ResponseText != responseText {
		c.client.Del(ctx, cacheKey(userID, lessonID))
		return nil, false
	}
	return entry.Messages, true
}

// Set stores feedback for a response with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, userID int64, lessonID, responseText string, messages []string) {
	raw, err := json.Marshal(cachedFeedback{
		ResponseText: responseText,
		Messages:     messages,
		StoredAt:     time.Now(),
	})
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(userID, lessonID), raw, c.timeout)
}
