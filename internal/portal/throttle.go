package portal

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Throttle limits how often one key may perform a ledger-touching action.
// Each key owns a token bucket holding up to burst tokens, refilled at burst per period.
type Throttle struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   float64
	rate    float64 // tokens per second
	now     func() time.Time
}

// maxBuckets bounds the key set; idle keys are pruned once it is exceeded
const maxBuckets = 10000

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewThrottle creates a throttle admitting burst actions per period per key
func NewThrottle(burst int, period time.Duration) *Throttle {
	return &Throttle{
		buckets: make(map[string]*bucket),
		burst:   float64(burst),
		rate:    float64(burst) / period.Seconds(),
		now:     time.Now,
	}
}

// Allow takes one token for key. When empty it reports how long until the next token.
func (t *Throttle) Allow(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		if len(t.buckets) >= maxBuckets {
			t.pruneLocked(now, time.Hour)
		}
		b = &bucket{tokens: t.burst, seen: now}
		t.buckets[key] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * t.rate
	if b.tokens > t.burst {
		b.tokens = t.burst
	}
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / t.rate * float64(time.Second))
	return false, wait
}

// Prune forgets keys idle for longer than idle
func (t *Throttle) Prune(idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pruneLocked(t.now(), idle)
}

func (t *Throttle) pruneLocked(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)
	removed := 0
	for key, b := range t.buckets {
		if b.seen.Before(cutoff) {
			delete(t.buckets, key)
			removed++
		}
	}
	return removed
}

// throttled rejects requests from a profile that exhausted its bucket
func (s *Server) throttled() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.throttle == nil {
			c.Next()
			return
		}

		key := profileID(c)
		if key == "" {
			key = c.ClientIP()
		}

		ok, wait := s.throttle.Allow(key)
		if !ok {
			s.logger.Security("rate_limited", "", map[string]interface{}{
				"profile_id": key,
				"path":       c.FullPath(),
			})
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
