package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/storage"
	"github.com/prince62058/Unstop-Challange/internal/storage/postgres"
	"github.com/prince62058/Unstop-Challange/internal/storage/redis"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	db     *postgres.Client
	cache  *redis.Cache
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器，db 和 cache 可以为 nil
func NewHealthChecker(store storage.Store, db *postgres.Client, cache *redis.Cache, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		db:     db,
		cache:  cache,
		logger: logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// goroutine 数量检查
	hc.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))

	// 存储检查
	hc.health.AddReadinessCheck("storage", func() error {
		return hc.store.Health()
	})

	// 数据库连接检查
	if hc.db != nil {
		hc.health.AddReadinessCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hc.db.Ping(ctx)
		})
	}

	// Redis 连接检查
	if hc.cache != nil {
		hc.health.AddReadinessCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hc.cache.Ping(ctx)
		})
	}
}

// LiveEndpoint 存活检查处理器
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪检查处理器
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// CheckHealth 执行健康检查并返回各组件状态
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.store.Health(); err != nil {
		results["storage"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["storage"] = "OK"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if hc.db != nil {
		if err := hc.db.Ping(ctx); err != nil {
			results["postgres"] = fmt.Sprintf("ERROR: %v", err)
		} else {
			results["postgres"] = "OK"
		}
	}

	if hc.cache != nil {
		if err := hc.cache.Ping(ctx); err != nil {
			results["redis"] = fmt.Sprintf("ERROR: %v", err)
		} else {
			results["redis"] = "OK"
		}
	}

	results["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	return results
}
