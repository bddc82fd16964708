// File: internal/middleware/ratelimit.go
package middleware

import (
	"sync"
	"time"

	"campus_lostfound_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// UserRateLimiter hands out one token bucket per authenticated user.
// Idle buckets are swept so the map does not grow without bound.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*userLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastGC   time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter creates a limiter allowing perSecond events with the given burst.
func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{
		limiters: make(map[uuid.UUID]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		lastGC:   time.Now(),
	}
}

// Allow reports whether userID may perform one more event now.
func (l *UserRateLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > l.idleTTL {
		for id, ul := range l.limiters {
			if now.Sub(ul.lastSeen) > l.idleTTL {
				delete(l.limiters, id)
			}
		}
		l.lastGC = now
	}

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.Allow()
}

// Middleware rejects requests over the per-user rate with 429. It must run after AuthMiddleware.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := common.GetUserIDFromContext(c)
		if userID == uuid.Nil {
			c.Next()
			return
		}
		if !l.Allow(userID) {
			common.RespondWithError(c, common.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
