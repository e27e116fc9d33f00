package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

// AnalyticsService 提供仪表盘的聚合统计数据。
type AnalyticsService struct {
	stats storage.StatsRepository
	log   *zap.Logger
}

// NewAnalyticsService 创建分析统计服务。
func NewAnalyticsService(stats storage.StatsRepository, log *zap.Logger) *AnalyticsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalyticsService{stats: stats, log: log}
}

// GetEmailStats 返回总量、紧急、已解决与待处理统计。
func (s *AnalyticsService) GetEmailStats() (*domain.EmailStats, error) {
	stats, err := s.stats.GetEmailStats()
	if err != nil {
		return nil, fmt.Errorf("failed to compute email stats: %w", err)
	}
	return stats, nil
}

// GetSentimentDistribution 返回情感分布百分比。
func (s *AnalyticsService) GetSentimentDistribution() (*domain.SentimentDistribution, error) {
	dist, err := s.stats.GetSentimentDistribution()
	if err != nil {
		return nil, fmt.Errorf("failed to compute sentiment distribution: %w", err)
	}
	return dist, nil
}

// GetCategoryBreakdown 返回类别统计，按数量倒序。
func (s *AnalyticsService) GetCategoryBreakdown() ([]domain.CategoryCount, error) {
	categories, err := s.stats.GetCategoryBreakdown()
	if err != nil {
		return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
	}
	return categories, nil
}
