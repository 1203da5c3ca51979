package mw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// KeyFunc extracts the rate limiting key from a request.
type KeyFunc func(c *gin.Context) string

// ByClientIP keys requests by the client IP address.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByFormValue keys requests by a form field, falling back to the client IP
// when the field is absent. Used to limit webhook traffic per sender.
func ByFormValue(field string) KeyFunc {
	return func(c *gin.Context) string {
		if v := c.PostForm(field); v != "" {
			return v
		}
		return c.ClientIP()
	}
}

// limiterIdleTTL is how long an unused key keeps its limiter.
const limiterIdleTTL = 10 * time.Minute

// KeyedRateLimiter stores a rate limiter for each key. Limiters of keys
// not seen for the idle TTL are evicted.
type KeyedRateLimiter struct {
	keys *cache.Cache
	r    rate.Limit
	b    int
}

// NewKeyedRateLimiter creates a new KeyedRateLimiter.
func NewKeyedRateLimiter(r rate.Limit, b int, idle time.Duration) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys: cache.New(idle, idle),
		r:    r,
		b:    b,
	}
}

// AddKey creates a new rate limiter for a key, or returns the one that
// won a concurrent creation.
func (k *KeyedRateLimiter) AddKey(key string) *rate.Limiter {
	limiter := rate.NewLimiter(k.r, k.b)
	if err := k.keys.Add(key, limiter, cache.DefaultExpiration); err != nil {
		if existing, found := k.keys.Get(key); found {
			return existing.(*rate.Limiter)
		}
		k.keys.SetDefault(key, limiter)
	}
	return limiter
}

// GetLimiter returns the rate limiter for a key and extends its lifetime.
func (k *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	if existing, found := k.keys.Get(key); found {
		limiter := existing.(*rate.Limiter)
		k.keys.SetDefault(key, limiter)
		return limiter
	}
	return k.AddKey(key)
}

// Len reports how many keys currently hold a limiter.
func (k *KeyedRateLimiter) Len() int {
	return k.keys.ItemCount()
}

// RateLimiter is a middleware for keyed rate limiting.
func RateLimiter(r rate.Limit, b int, key KeyFunc) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b, limiterIdleTTL)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(key(c)).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
