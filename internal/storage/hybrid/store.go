package hybrid

import (
	"fmt"
	"time"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage/postgres"
	"github.com/prince62058/Unstop-Challange/internal/storage/redis"
)

// 缓存过期时间
const (
	emailTTL     = 10 * time.Minute
	responsesTTL = 5 * time.Minute
	analyticsTTL = time.Minute
)

// Store 混合存储实现，结合 PostgreSQL 和 Redis
type Store struct {
	postgres *postgres.Store
	redis    *redis.Cache
}

// NewStore 创建混合存储实例 (PostgreSQL)
func NewStore(postgresDSN, redisAddr, redisPassword string, redisDB int) (*Store, error) {
	return NewStoreWithType("postgres", postgresDSN, redisAddr, redisPassword, redisDB)
}

// NewStoreWithType 创建混合存储实例（指定数据库类型）
func NewStoreWithType(dbType, dsn, redisAddr, redisPassword string, redisDB int) (*Store, error) {
	var dbStore *postgres.Store
	var err error

	// 根据数据库类型创建存储
	switch dbType {
	case "mysql":
		dbStore, err = postgres.NewMySQLStore(dsn)
	case "postgres", "postgresql":
		dbStore, err = postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported: mysql, postgres)", dbType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 初始化 Redis
	redisCache, err := redis.NewCache(redisAddr, redisPassword, redisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	return &Store{
		postgres: dbStore,
		redis:    redisCache,
	}, nil
}

// ========== Email Repository ==========

// ListEmails 按条件查询邮件（列表查询不缓存，过滤组合过多）
func (s *Store) ListEmails(filter domain.EmailFilter) ([]domain.Email, error) {
	return s.postgres.ListEmails(filter)
}

// GetEmail 根据 ID 获取邮件
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	// 先尝试从 Redis 获取
	if email, err := s.redis.GetCachedEmail(id); err == nil {
		return email, nil
	}

	// 从 PostgreSQL 获取
	email, err := s.postgres.GetEmail(id)
	if err != nil {
		return nil, err
	}

	// 回填缓存
	s.redis.CacheEmail(email, emailTTL)
	return email, nil
}

// CreateEmail 保存新邮件
func (s *Store) CreateEmail(email *domain.Email) error {
	if err := s.postgres.CreateEmail(email); err != nil {
		return err
	}

	s.redis.CacheEmail(email, emailTTL)
	s.redis.InvalidateAnalytics()
	return nil
}

// UpdateEmail 部分更新邮件
func (s *Store) UpdateEmail(id string, update domain.EmailUpdate) (*domain.Email, error) {
	email, err := s.postgres.UpdateEmail(id, update)
	if err != nil {
		return nil, err
	}

	s.redis.CacheEmail(email, emailTTL)
	s.redis.InvalidateAnalytics()
	return email, nil
}

// ========== EmailResponse Repository ==========

// ListResponsesByEmail 返回某邮件的全部回复
func (s *Store) ListResponsesByEmail(emailID string) ([]domain.EmailResponse, error) {
	// 先尝试从 Redis 获取
	if responses, err := s.redis.GetCachedResponses(emailID); err == nil {
		return responses, nil
	}

	responses, err := s.postgres.ListResponsesByEmail(emailID)
	if err != nil {
		return nil, err
	}

	s.redis.CacheResponses(emailID, responses, responsesTTL)
	return responses, nil
}

// CreateResponse 保存回复草稿
func (s *Store) CreateResponse(response *domain.EmailResponse) error {
	if err := s.postgres.CreateResponse(response); err != nil {
		return err
	}

	s.redis.DeleteCachedResponses(response.EmailID)
	return nil
}

// UpdateResponse 部分更新回复
func (s *Store) UpdateResponse(id string, update domain.EmailResponseUpdate) (*domain.EmailResponse, error) {
	response, err := s.postgres.UpdateResponse(id, update)
	if err != nil {
		return nil, err
	}

	s.redis.DeleteCachedResponses(response.EmailID)
	s.redis.InvalidateAnalytics() // 发送回复会改变已解决统计
	return response, nil
}

// ========== User Repository ==========

// CreateUser 保存用户
func (s *Store) CreateUser(user *domain.User) error {
	return s.postgres.CreateUser(user)
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	return s.postgres.GetUserByUsername(username)
}

// ========== Stats Repository ==========

// GetEmailStats 获取总体统计
func (s *Store) GetEmailStats() (*domain.EmailStats, error) {
	if stats, err := s.redis.GetCachedEmailStats(); err == nil {
		return stats, nil
	}

	stats, err := s.postgres.GetEmailStats()
	if err != nil {
		return nil, err
	}

	s.redis.CacheEmailStats(stats, analyticsTTL)
	return stats, nil
}

// GetSentimentDistribution 获取情感分布
func (s *Store) GetSentimentDistribution() (*domain.SentimentDistribution, error) {
	if dist, err := s.redis.GetCachedSentimentDistribution(); err == nil {
		return dist, nil
	}

	dist, err := s.postgres.GetSentimentDistribution()
	if err != nil {
		return nil, err
	}

	s.redis.CacheSentimentDistribution(dist, analyticsTTL)
	return dist, nil
}

// GetCategoryBreakdown 获取类别统计
func (s *Store) GetCategoryBreakdown() ([]domain.CategoryCount, error) {
	if categories, err := s.redis.GetCachedCategoryBreakdown(); err == nil {
		return categories, nil
	}

	categories, err := s.postgres.GetCategoryBreakdown()
	if err != nil {
		return nil, err
	}

	s.redis.CacheCategoryBreakdown(categories, analyticsTTL)
	return categories, nil
}

// ========== 工具方法 ==========

// Close 关闭底层连接
func (s *Store) Close() error {
	if err := s.redis.Close(); err != nil {
		return err
	}
	return s.postgres.Close()
}

// Health 检查底层存储健康状态
func (s *Store) Health() error {
	return s.postgres.Health()
}
