package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics receives hit and miss notifications
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data        []byte    `json:"data"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL
type Cache struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
	ttl   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a new cache with the specified TTL and starts a cleanup
// loop that runs every cleanupInterval until Close
func NewCache(ttl, cleanupInterval time.Duration) *Cache {
	cache := &Cache{
		items: make(map[string]*CacheItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cache.cleanup(cleanupInterval)
	}

	return cache
}

func (c *Cache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			for key, item := range c.items {
				if item.IsExpired() {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup loop
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Key hashes input into a fixed-length cache key
func Key(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	item, ok := c.getItem(key)
	if !ok {
		return nil, false
	}
	return item.Data, true
}

func (c *Cache) getItem(key string) (*CacheItem, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if item.IsExpired() {
		c.Delete(key)
		return nil, false
	}
	return item, true
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	c.SetTyped(key, data, "")
}

// SetTyped stores an item together with the content type it should be served as
func (c *Cache) SetTyped(key string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		Data:        data,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(c.ttl),
	}
}

// GetOrCompute returns the cached value for key or stores the result of fn.
// The boolean reports a cache hit. Errors from fn are not cached.
func (c *Cache) GetOrCompute(key string, metrics Metrics, fn func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok := c.Get(key); ok {
		if metrics != nil {
			metrics.IncrementCacheHit()
		}
		return data, true, nil
	}
	if metrics != nil {
		metrics.IncrementCacheMiss()
	}

	data, err := fn()
	if err != nil {
		return nil, false, err
	}
	c.Set(key, data)
	return data, false, nil
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// DeletePrefix removes every item whose key starts with prefix and returns
// how many were removed
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*CacheItem)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0
	for _, item := range c.items {
		if item.IsExpired() {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware caches successful responses to POST requests on path, keyed by
// the request body. Only use it for handlers whose output depends on the body
// alone.
func (c *Cache) Middleware(path string, metrics Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || ctx.Request.URL.Path != path {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		cacheKey := "body:" + path + ":" + Key(string(body))

		if item, found := c.getItem(cacheKey); found {
			slog.Debug("Cache hit", "key", cacheKey)
			metrics.IncrementCacheHit()
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, item.ContentType, item.Data)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey)
		metrics.IncrementCacheMiss()
		ctx.Header("X-Cache", "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.SetTyped(cacheKey, wrapper.body.Bytes(), ctx.Writer.Header().Get("Content-Type"))
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
