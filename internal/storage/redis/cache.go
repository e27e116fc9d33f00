package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// 分析数据缓存键
const (
	keyEmailStats    = "analytics:stats"
	keySentiment     = "analytics:sentiment"
	keyCategories    = "analytics:categories"
	keyEmailPrefix   = "email:"
	keyResponsesPref = "responses:"
)

// Cache Redis 缓存实现
type Cache struct {
	client *goredis.Client
	ctx    context.Context
}

// NewCache 创建 Redis 缓存实例
func NewCache(addr, password string, db int) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx := context.Background()

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		ctx:    ctx,
	}, nil
}

// ========== 邮件缓存 ==========

// CacheEmail 缓存单封邮件
func (c *Cache) CacheEmail(email *domain.Email, ttl time.Duration) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, keyEmailPrefix+email.ID, data, ttl).Err()
}

// GetCachedEmail 获取缓存的邮件
func (c *Cache) GetCachedEmail(id string) (*domain.Email, error) {
	data, err := c.client.Get(c.ctx, keyEmailPrefix+id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var email domain.Email
	if err := json.Unmarshal([]byte(data), &email); err != nil {
		return nil, err
	}
	return &email, nil
}

// DeleteCachedEmail 删除缓存的邮件
func (c *Cache) DeleteCachedEmail(id string) error {
	return c.client.Del(c.ctx, keyEmailPrefix+id).Err()
}

// ========== 回复缓存 ==========

// CacheResponses 缓存某邮件的回复列表
func (c *Cache) CacheResponses(emailID string, responses []domain.EmailResponse, ttl time.Duration) error {
	data, err := json.Marshal(responses)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, keyResponsesPref+emailID, data, ttl).Err()
}

// GetCachedResponses 获取缓存的回复列表
func (c *Cache) GetCachedResponses(emailID string) ([]domain.EmailResponse, error) {
	data, err := c.client.Get(c.ctx, keyResponsesPref+emailID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var responses []domain.EmailResponse
	if err := json.Unmarshal([]byte(data), &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// DeleteCachedResponses 删除缓存的回复列表
func (c *Cache) DeleteCachedResponses(emailID string) error {
	return c.client.Del(c.ctx, keyResponsesPref+emailID).Err()
}

// ========== 分析数据缓存 ==========

// CacheEmailStats 缓存总体统计
func (c *Cache) CacheEmailStats(stats *domain.EmailStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, keyEmailStats, data, ttl).Err()
}

// GetCachedEmailStats 获取缓存的总体统计
func (c *Cache) GetCachedEmailStats() (*domain.EmailStats, error) {
	data, err := c.client.Get(c.ctx, keyEmailStats).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var stats domain.EmailStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CacheSentimentDistribution 缓存情感分布
func (c *Cache) CacheSentimentDistribution(dist *domain.SentimentDistribution, ttl time.Duration) error {
	data, err := json.Marshal(dist)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, keySentiment, data, ttl).Err()
}

// GetCachedSentimentDistribution 获取缓存的情感分布
func (c *Cache) GetCachedSentimentDistribution() (*domain.SentimentDistribution, error) {
	data, err := c.client.Get(c.ctx, keySentiment).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var dist domain.SentimentDistribution
	if err := json.Unmarshal([]byte(data), &dist); err != nil {
		return nil, err
	}
	return &dist, nil
}

// CacheCategoryBreakdown 缓存类别统计
func (c *Cache) CacheCategoryBreakdown(categories []domain.CategoryCount, ttl time.Duration) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, keyCategories, data, ttl).Err()
}

// GetCachedCategoryBreakdown 获取缓存的类别统计
func (c *Cache) GetCachedCategoryBreakdown() ([]domain.CategoryCount, error) {
	data, err := c.client.Get(c.ctx, keyCategories).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var categories []domain.CategoryCount
	if err := json.Unmarshal([]byte(data), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// InvalidateAnalytics 写操作后失效全部分析缓存
func (c *Cache) InvalidateAnalytics() error {
	return c.client.Del(c.ctx, keyEmailStats, keySentiment, keyCategories).Err()
}

// ========== 工具方法 ==========

// Ping 测试 Redis 连接
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Cache) Close() error {
	return c.client.Close()
}
