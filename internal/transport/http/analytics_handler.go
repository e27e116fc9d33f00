package httptransport

import (
	"github.com/gin-gonic/gin"

	"github.com/prince62058/Unstop-Challange/internal/service"
)

// AnalyticsHandler 处理仪表盘统计端点
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler 创建统计处理器
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// getStats godoc
// @Summary 获取邮件总体统计
// @Description 返回邮件总数、紧急数、已解决数与待处理数
// @Tags Analytics
// @Produce json
// @Success 200 {object} Response{data=domain.EmailStats}
// @Failure 500 {object} Response
// @Router /api/analytics/stats [get]
func (h *AnalyticsHandler) getStats(c *gin.Context) {
	stats, err := h.analytics.GetEmailStats()
	if err != nil {
		InternalError(c, MsgStatsGetFailed)
		return
	}
	Success(c, stats)
}

// getSentimentDistribution godoc
// @Summary 获取情感分布
// @Description 返回各情感类别的整数百分比
// @Tags Analytics
// @Produce json
// @Success 200 {object} Response{data=domain.SentimentDistribution}
// @Failure 500 {object} Response
// @Router /api/analytics/sentiment [get]
func (h *AnalyticsHandler) getSentimentDistribution(c *gin.Context) {
	dist, err := h.analytics.GetSentimentDistribution()
	if err != nil {
		InternalError(c, MsgSentimentGetFailed)
		return
	}
	Success(c, dist)
}

// getCategoryBreakdown godoc
// @Summary 获取分类统计
// @Description 返回各类别的邮件数量，按数量倒序
// @Tags Analytics
// @Produce json
// @Success 200 {object} Response{data=[]domain.CategoryCount}
// @Failure 500 {object} Response
// @Router /api/analytics/categories [get]
func (h *AnalyticsHandler) getCategoryBreakdown(c *gin.Context) {
	categories, err := h.analytics.GetCategoryBreakdown()
	if err != nil {
		InternalError(c, MsgCategoriesGetFailed)
		return
	}
	Success(c, categories)
}
