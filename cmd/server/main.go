package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prince62058/Unstop-Challange/internal/ai"
	"github.com/prince62058/Unstop-Challange/internal/config"
	"github.com/prince62058/Unstop-Challange/internal/health"
	"github.com/prince62058/Unstop-Challange/internal/ingest"
	"github.com/prince62058/Unstop-Challange/internal/logger"
	"github.com/prince62058/Unstop-Challange/internal/monitoring"
	"github.com/prince62058/Unstop-Challange/internal/service"
	"github.com/prince62058/Unstop-Challange/internal/storage"
	"github.com/prince62058/Unstop-Challange/internal/storage/fallback"
	"github.com/prince62058/Unstop-Challange/internal/storage/hybrid"
	"github.com/prince62058/Unstop-Challange/internal/storage/memory"
	"github.com/prince62058/Unstop-Challange/internal/storage/postgres"
	"github.com/prince62058/Unstop-Challange/internal/storage/redis"
	httptransport "github.com/prince62058/Unstop-Challange/internal/transport/http"
	"github.com/prince62058/Unstop-Challange/internal/websocket"
)

// main 启动邮件分流服务：HTTP API、WebSocket 推送与可选的 SMTP 接收。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting triage server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化存储层
	store, dbClient, cache := initializeStorage(cfg, metrics, log)
	defer store.Close()
	if dbClient != nil {
		defer dbClient.Close()
	}

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, dbClient, cache, log)

	// 初始化 AI 客户端
	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, log)
	aiClient.OnDefault = metrics.RecordAIFallback
	aiClient.OnRequest = metrics.RecordAIRequest
	if cfg.AI.APIKey == "" {
		log.Warn("AI api key not configured, all analysis will use defaults")
	}

	// 创建 WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, log)
	wsHub.OnClientCountChange = func(count int) {
		metrics.WebsocketClients.Set(float64(count))
	}

	// 初始化服务层
	pipelineService := service.NewPipelineService(store, aiClient, log)
	pipelineService.SetNotifier(wsHub)
	pipelineService.OnProcessed = metrics.RecordEmailProcessed
	pipelineService.OnDraftCreated = metrics.RecordResponseGenerated
	pipelineService.OnResponseSent = metrics.RecordResponseSent
	analyticsService := service.NewAnalyticsService(store, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:           cfg,
		PipelineService:  pipelineService,
		AnalyticsService: analyticsService,
		WebSocketHub:     wsHub,
		HealthChecker:    healthChecker,
		Metrics:          metrics,
		Logger:           log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// WebSocket Hub goroutine
	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 周期性刷新统计，预热分析缓存
	group.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if _, err := analyticsService.GetEmailStats(); err != nil {
					log.Warn("periodic stats refresh failed", zap.Error(err))
				}
			}
		}
	})

	// 可选的 SMTP 接收服务
	var smtpServer interface{ Close() error }
	if cfg.Ingest.Enabled {
		backend := ingest.NewBackend(&cfg.Ingest, pipelineService, log)
		backend.OnIngest = func() {
			metrics.RecordEmailIngested("smtp")
		}
		srv := ingest.NewServer(&cfg.Ingest, backend)
		smtpServer = srv

		group.Go(func() error {
			log.Info("starting SMTP ingest server",
				zap.String("address", cfg.Ingest.BindAddr),
				zap.String("domain", cfg.Ingest.Domain),
			)
			if err := srv.ListenAndServe(); err != nil {
				log.Error("SMTP server error", zap.Error(err))
				return err
			}
			return nil
		})
	}

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		if smtpServer != nil {
			if err := smtpServer.Close(); err != nil {
				log.Warn("SMTP server close warning", zap.Error(err))
			}
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// initializeStorage 根据配置选择存储后端。
// 配置了数据库时使用持久化存储并叠加备用降级层；
// 否则使用带演示数据的内存存储（开发环境）。
// 数据库在启动时就连不上同样降级到演示数据，仪表盘保持可用。
func initializeStorage(cfg *config.Config, metrics *monitoring.Metrics, log *zap.Logger) (storage.Store, *postgres.Client, *redis.Cache) {
	if !cfg.UseDatabase() {
		log.Info("using in-memory storage with demo data (development mode)")
		return memory.NewSeededStore(), nil, nil
	}

	var primary storage.Store
	var err error

	if cfg.Redis.Enabled {
		log.Info("initializing hybrid storage",
			zap.String("database_type", cfg.Database.Type),
			zap.String("redis_address", cfg.Redis.Address),
		)
		primary, err = hybrid.NewStoreWithType(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
	} else {
		log.Info("initializing database storage", zap.String("database_type", cfg.Database.Type))
		switch cfg.Database.Type {
		case "mysql":
			primary, err = postgres.NewMySQLStore(cfg.Database.DSN)
		default:
			primary, err = postgres.NewStore(cfg.Database.DSN)
		}
	}
	if err != nil {
		log.Warn("primary storage unavailable, serving seeded demo data", zap.Error(err))
		metrics.RecordStorageFallback("init")
		return memory.NewSeededStore(), nil, nil
	}

	// 运行期的数据库故障由降级层逐操作兜底
	wrapped := fallback.NewStore(primary, log)
	wrapped.OnFallback = metrics.RecordStorageFallback

	var cache *redis.Cache
	if cfg.Redis.Enabled {
		cache, err = redis.NewCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("failed to create redis health probe", zap.Error(err))
			cache = nil
		}
	}

	// 健康检查使用独立的连接池探测数据库
	var dbClient *postgres.Client
	if cfg.Database.Type != "mysql" {
		dbClient, err = postgres.NewClient(&cfg.Database, log)
		if err != nil {
			log.Warn("failed to create database health probe", zap.Error(err))
			dbClient = nil
		}
	}

	return wrapped, dbClient, cache
}
