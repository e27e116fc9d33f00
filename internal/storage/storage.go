package storage

import (
	"errors"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

var (
	// ErrEmailNotFound 邮件未找到错误
	ErrEmailNotFound = errors.New("email not found")
	// ErrResponseNotFound 回复未找到错误
	ErrResponseNotFound = errors.New("email response not found")
	// ErrUserNotFound 用户未找到错误
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 用户名已存在错误
	ErrUserExists = errors.New("username already exists")
)

// IsNotFound 判断错误是否为"资源不存在"类哨兵错误。
// 回退装饰器依赖该判断：不存在是正常答案，不触发降级。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmailNotFound) ||
		errors.Is(err, ErrResponseNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// EmailRepository 定义邮件数据存取操作。
type EmailRepository interface {
	ListEmails(filter domain.EmailFilter) ([]domain.Email, error) // 按 receivedAt 倒序
	GetEmail(id string) (*domain.Email, error)
	CreateEmail(email *domain.Email) error
	UpdateEmail(id string, update domain.EmailUpdate) (*domain.Email, error)
}

// EmailResponseRepository 定义回复数据存取操作。
type EmailResponseRepository interface {
	ListResponsesByEmail(emailID string) ([]domain.EmailResponse, error) // 按 createdAt 倒序
	CreateResponse(response *domain.EmailResponse) error
	UpdateResponse(id string, update domain.EmailResponseUpdate) (*domain.EmailResponse, error)
}

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByUsername(username string) (*domain.User, error)
}

// StatsRepository 定义分析统计操作。
type StatsRepository interface {
	GetEmailStats() (*domain.EmailStats, error)
	GetSentimentDistribution() (*domain.SentimentDistribution, error)
	GetCategoryBreakdown() ([]domain.CategoryCount, error)
}

// Store 定义完整的存储接口。
type Store interface {
	EmailRepository
	EmailResponseRepository
	UserRepository
	StatsRepository

	// 工具方法
	Close() error
	Health() error
}
