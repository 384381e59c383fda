package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// loginLimiter: token bucket на IP для попыток входа.
type loginLimiter struct {
	capacity int
	perMin   int
	now      func() time.Time

	mu        sync.Mutex
	state     map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

func newLoginLimiter(capacity, perMinute int) *loginLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &loginLimiter{capacity: capacity, perMin: perMinute, now: time.Now, state: make(map[string]*bucket)}
}

func (l *loginLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Terlalu banyak percobaan, coba lagi nanti"})
			return
		}
		c.Next()
	}
}

func (l *loginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	if refill := int(now.Sub(b.last).Minutes() * float64(l.perMin)); refill > 0 {
		b.tokens = min(b.tokens+refill, l.capacity)
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep раз в минуту выкидывает вёдра, которые уже наполнились бы до capacity:
// новое ведро для того же IP ведёт себя так же.
func (l *loginLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for k, b := range l.state {
		if b.tokens+int(now.Sub(b.last).Minutes()*float64(l.perMin)) >= l.capacity {
			delete(l.state, k)
		}
	}
}
