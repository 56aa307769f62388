package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

// ErrTooManyRequests is returned when a client exceeds its request budget.
var ErrTooManyRequests = appErrors.New("RateLimitError", http.StatusTooManyRequests, "Too many requests, please try again later.")

// ipRateLimiter keeps one token bucket per client address. Idle buckets expire from the cache.
type ipRateLimiter struct {
	limiters *cache.Cache
	every    time.Duration
	burst    int
}

func newIPRateLimiter(requestsPerMinute, burst int, idle time.Duration) *ipRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters: cache.New(idle, 2*idle),
		every:    time.Minute / time.Duration(requestsPerMinute),
		burst:    burst,
	}
}

func (i *ipRateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := i.limiters.Get(ip); ok {
		l := v.(*rate.Limiter)
		i.limiters.SetDefault(ip, l)
		return l
	}
	l := rate.NewLimiter(rate.Every(i.every), i.burst)
	if err := i.limiters.Add(ip, l, cache.DefaultExpiration); err != nil {
		if v, ok := i.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// RateLimit limits each client address to requestsPerMinute with the given burst.
func RateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	limiter := newIPRateLimiter(requestsPerMinute, burst, 10*time.Minute)

	return func(c *gin.Context) {
		if !limiter.limiter(c.ClientIP()).Allow() {
			response.Error(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
