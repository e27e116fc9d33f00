package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

// Store PostgreSQL 存储实现
type Store struct {
	db *gorm.DB
}

// NewStore 创建 PostgreSQL 存储实例
func NewStore(dsn string) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(dsn))
}

// NewMySQLStore 创建 MySQL 存储实例
func NewMySQLStore(dsn string) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(dsn))
}

// NewStoreWithDialector 使用指定的GORM dialector创建存储实例
func NewStoreWithDialector(dialector gorm.Dialector) (*Store, error) {
	// 配置 GORM
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // 静默模式
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	// 连接数据库
	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	store := &Store{db: db}

	// 自动迁移数据库表
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate 自动迁移数据库表结构
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.User{},
		&domain.Email{},
		&domain.EmailResponse{},
	)
}

// ========== Email Repository ==========

// ListEmails 按条件查询邮件，按接收时间倒序
func (s *Store) ListEmails(filter domain.EmailFilter) ([]domain.Email, error) {
	query := s.db.Model(&domain.Email{})

	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Sentiment != "" {
		query = query.Where("sentiment = ?", filter.Sentiment)
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(subject) LIKE ? OR LOWER(body) LIKE ? OR LOWER(sender) LIKE ? OR LOWER(sender_email) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var emails []domain.Email
	if err := query.Order("received_at DESC").Find(&emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}

// GetEmail 根据 ID 获取邮件
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	var email domain.Email
	err := s.db.Where("id = ?", id).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrEmailNotFound
		}
		return nil, err
	}
	return &email, nil
}

// CreateEmail 保存新邮件
func (s *Store) CreateEmail(email *domain.Email) error {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	return s.db.Create(email).Error
}

// UpdateEmail 部分更新邮件并返回更新后的记录
func (s *Store) UpdateEmail(id string, update domain.EmailUpdate) (*domain.Email, error) {
	updates := map[string]interface{}{}
	if update.Priority != nil {
		updates["priority"] = *update.Priority
	}
	if update.Sentiment != nil {
		updates["sentiment"] = *update.Sentiment
	}
	if update.Category != nil {
		updates["category"] = *update.Category
	}
	if update.ExtractedInfo != nil {
		updates["extracted_info"] = update.ExtractedInfo
	}
	if update.Status != nil {
		updates["status"] = *update.Status
	}

	var email domain.Email
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&email).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrEmailNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&email).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&email).Error
	})
	if err != nil {
		return nil, err
	}
	return &email, nil
}

// ========== EmailResponse Repository ==========

// ListResponsesByEmail 返回某邮件的全部回复，按创建时间倒序
func (s *Store) ListResponsesByEmail(emailID string) ([]domain.EmailResponse, error) {
	var responses []domain.EmailResponse
	err := s.db.Where("email_id = ?", emailID).Order("created_at DESC").Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// CreateResponse 保存回复草稿
func (s *Store) CreateResponse(response *domain.EmailResponse) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	return s.db.Create(response).Error
}

// UpdateResponse 部分更新回复并返回更新后的记录
func (s *Store) UpdateResponse(id string, update domain.EmailResponseUpdate) (*domain.EmailResponse, error) {
	updates := map[string]interface{}{}
	if update.FinalResponse != nil {
		updates["final_response"] = *update.FinalResponse
	}
	if update.IsEdited != nil {
		updates["is_edited"] = *update.IsEdited
	}
	if update.SentAt != nil {
		updates["sent_at"] = *update.SentAt
	}

	var response domain.EmailResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&response).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrResponseNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&response).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&response).Error
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ========== User Repository ==========

// CreateUser 保存用户
func (s *Store) CreateUser(user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	var count int64
	if err := s.db.Model(&domain.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrUserExists
	}
	return s.db.Create(user).Error
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ========== Stats Repository ==========

// GetEmailStats 聚合计算邮件总体统计
func (s *Store) GetEmailStats() (*domain.EmailStats, error) {
	var total, urgent, resolved int64

	if err := s.db.Model(&domain.Email{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&domain.Email{}).Where("priority = ?", domain.PriorityUrgent).Count(&urgent).Error; err != nil {
		return nil, err
	}
	// 已解决 = 存在已发送回复的去重邮件数
	if err := s.db.Model(&domain.EmailResponse{}).
		Where("sent_at IS NOT NULL").
		Distinct("email_id").
		Count(&resolved).Error; err != nil {
		return nil, err
	}

	return &domain.EmailStats{
		TotalEmails:    int(total),
		UrgentEmails:   int(urgent),
		ResolvedEmails: int(resolved),
		PendingEmails:  int(total - resolved),
	}, nil
}

// GetSentimentDistribution 计算情感分布的整数百分比
func (s *Store) GetSentimentDistribution() (*domain.SentimentDistribution, error) {
	var total int64
	if err := s.db.Model(&domain.Email{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Sentiment string
		Count     int64
	}
	err := s.db.Model(&domain.Email{}).
		Select("sentiment, COUNT(*) AS count").
		Where("sentiment IS NOT NULL").
		Group("sentiment").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dist := &domain.SentimentDistribution{}
	for _, row := range rows {
		percent := roundPercent(row.Count, total)
		switch domain.Sentiment(row.Sentiment) {
		case domain.SentimentPositive:
			dist.Positive = percent
		case domain.SentimentNeutral:
			dist.Neutral = percent
		case domain.SentimentNegative:
			dist.Negative = percent
		}
	}
	return dist, nil
}

// GetCategoryBreakdown 按类别统计邮件数，排除未分类邮件，按数量倒序
func (s *Store) GetCategoryBreakdown() ([]domain.CategoryCount, error) {
	var result []domain.CategoryCount
	err := s.db.Model(&domain.Email{}).
		Select("category, COUNT(*) AS count").
		Where("category IS NOT NULL AND category <> ''").
		Group("category").
		Order("count DESC, category ASC").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ========== 工具方法 ==========

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 检查数据库连接状态
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// roundPercent 独立四舍五入的整数百分比，total 为 0 时返回 0
func roundPercent(count, total int64) int {
	if total == 0 {
		return 0
	}
	return int(float64(count)/float64(total)*100 + 0.5)
}
