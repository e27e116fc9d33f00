package ingest

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter 按来源 IP 限制连接速率
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter 创建限流器，perMinute 为每个 IP 每分钟允许的连接数
func NewIPLimiter(perMinute int) *IPLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &IPLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow 检查指定 IP 是否允许建立新连接
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[ip]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = e
	}
	e.lastSeen = time.Now()

	// 顺手清理十分钟未活动的条目
	if len(l.limiters) > 1000 {
		cutoff := time.Now().Add(-10 * time.Minute)
		for key, v := range l.limiters {
			if v.lastSeen.Before(cutoff) {
				delete(l.limiters, key)
			}
		}
	}

	return e.limiter.Allow()
}
