package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage/memory"
)

// MockStatsRepository 模拟统计存储接口
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) GetEmailStats() (*domain.EmailStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailStats), args.Error(1)
}

func (m *MockStatsRepository) GetSentimentDistribution() (*domain.SentimentDistribution, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SentimentDistribution), args.Error(1)
}

func (m *MockStatsRepository) GetCategoryBreakdown() ([]domain.CategoryCount, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryCount), args.Error(1)
}

func TestAnalyticsWithSeededData(t *testing.T) {
	svc := NewAnalyticsService(memory.NewSeededStore(), zap.NewNop())

	t.Run("总体统计自洽", func(t *testing.T) {
		stats, err := svc.GetEmailStats()
		require.NoError(t, err)
		assert.Equal(t, stats.TotalEmails-stats.ResolvedEmails, stats.PendingEmails)
		assert.Equal(t, 5, stats.TotalEmails)
	})

	t.Run("情感分布", func(t *testing.T) {
		dist, err := svc.GetSentimentDistribution()
		require.NoError(t, err)
		assert.Equal(t, 20, dist.Positive)
		assert.Equal(t, 40, dist.Neutral)
		assert.Equal(t, 40, dist.Negative)
	})

	t.Run("类别统计倒序", func(t *testing.T) {
		categories, err := svc.GetCategoryBreakdown()
		require.NoError(t, err)
		require.NotEmpty(t, categories)
		for i := 1; i < len(categories); i++ {
			assert.GreaterOrEqual(t, categories[i-1].Count, categories[i].Count)
		}
	})
}

func TestAnalyticsEmptyStore(t *testing.T) {
	svc := NewAnalyticsService(memory.NewStore(), zap.NewNop())

	stats, err := svc.GetEmailStats()
	require.NoError(t, err)
	assert.Equal(t, &domain.EmailStats{}, stats)

	dist, err := svc.GetSentimentDistribution()
	require.NoError(t, err)
	assert.Equal(t, &domain.SentimentDistribution{}, dist)
}

func TestAnalyticsWrapsStorageErrors(t *testing.T) {
	repo := new(MockStatsRepository)
	repo.On("GetEmailStats").Return(nil, errors.New("db down"))
	svc := NewAnalyticsService(repo, zap.NewNop())

	_, err := svc.GetEmailStats()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compute email stats")
	repo.AssertExpectations(t)
}
