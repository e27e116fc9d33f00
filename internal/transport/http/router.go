package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/config"
	"github.com/prince62058/Unstop-Challange/internal/health"
	"github.com/prince62058/Unstop-Challange/internal/middleware"
	"github.com/prince62058/Unstop-Challange/internal/monitoring"
	"github.com/prince62058/Unstop-Challange/internal/service"
	"github.com/prince62058/Unstop-Challange/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config           *config.Config
	PipelineService  *service.PipelineService
	AnalyticsService *service.AnalyticsService
	WebSocketHub     *websocket.Hub
	HealthChecker    *health.HealthChecker
	Metrics          *monitoring.Metrics
	Logger           *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
		router.Use(mm.PanicRecovery())
		router.Use(mm.HTTPMetrics())
	} else {
		router.Use(gin.Recovery())
	}
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())

	// 邮件正文可能较长，限制为 1MB
	router.Use(middleware.BodySizeLimit(1 * 1024 * 1024))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	emailHandler := NewEmailHandler(deps.PipelineService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
	router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	api := router.Group("/api")
	{
		// ========== Email Routes ==========
		emailRoutes := api.Group("/emails")
		{
			emailRoutes.POST("", emailHandler.createEmail)
			emailRoutes.GET("", emailHandler.listEmails)
			emailRoutes.GET("/with-responses", emailHandler.listEmailsWithResponses)
			emailRoutes.GET("/:id", emailHandler.getEmail)
			emailRoutes.POST("/:id/generate-response", emailHandler.generateResponse)
			emailRoutes.POST("/:id/send-response", emailHandler.sendResponse)
		}

		// ========== Analytics Routes ==========
		analyticsRoutes := api.Group("/analytics")
		{
			analyticsRoutes.GET("/stats", analyticsHandler.getStats)
			analyticsRoutes.GET("/sentiment", analyticsHandler.getSentimentDistribution)
			analyticsRoutes.GET("/categories", analyticsHandler.getCategoryBreakdown)
		}
	}

	// ========== WebSocket Routes ==========
	if deps.WebSocketHub != nil {
		router.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
	}

	return router
}
