package fallback

import (
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
	"github.com/prince62058/Unstop-Challange/internal/storage/memory"
)

// Store 为主存储提供自动降级：任一操作在主存储上失败时，
// 改用预置示例数据的内存兜底存储重试，保证仪表盘始终有数据可展示。
// "资源不存在"哨兵错误是正常业务答案，原样透传，不触发降级。
type Store struct {
	primary storage.Store
	standby *memory.Store
	log     *zap.Logger

	// OnFallback 在每次降级时回调，参数为操作名，用于指标上报
	OnFallback func(op string)
}

// NewStore 创建带兜底的存储装饰器
func NewStore(primary storage.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		primary: primary,
		standby: memory.NewSeededStore(),
		log:     log,
	}
}

// fallthroughErr 判断错误是否应该原样返回给调用方
func fallthroughErr(err error) bool {
	return err == nil || storage.IsNotFound(err)
}

func (s *Store) degraded(op string, err error) {
	s.log.Warn("primary storage failed, serving from standby",
		zap.String("op", op),
		zap.Error(err),
	)
	if s.OnFallback != nil {
		s.OnFallback(op)
	}
}

// ========== Email Repository ==========

// ListEmails 按条件查询邮件
func (s *Store) ListEmails(filter domain.EmailFilter) ([]domain.Email, error) {
	emails, err := s.primary.ListEmails(filter)
	if fallthroughErr(err) {
		return emails, err
	}
	s.degraded("ListEmails", err)
	return s.standby.ListEmails(filter)
}

// GetEmail 根据 ID 获取邮件
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	email, err := s.primary.GetEmail(id)
	if fallthroughErr(err) {
		return email, err
	}
	s.degraded("GetEmail", err)
	return s.standby.GetEmail(id)
}

// CreateEmail 保存新邮件。降级写入时由兜底存储生成本地 ID。
func (s *Store) CreateEmail(email *domain.Email) error {
	err := s.primary.CreateEmail(email)
	if err == nil {
		return nil
	}
	s.degraded("CreateEmail", err)
	return s.standby.CreateEmail(email)
}

// UpdateEmail 部分更新邮件
func (s *Store) UpdateEmail(id string, update domain.EmailUpdate) (*domain.Email, error) {
	email, err := s.primary.UpdateEmail(id, update)
	if fallthroughErr(err) {
		return email, err
	}
	s.degraded("UpdateEmail", err)
	return s.standby.UpdateEmail(id, update)
}

// ========== EmailResponse Repository ==========

// ListResponsesByEmail 返回某邮件的全部回复
func (s *Store) ListResponsesByEmail(emailID string) ([]domain.EmailResponse, error) {
	responses, err := s.primary.ListResponsesByEmail(emailID)
	if fallthroughErr(err) {
		return responses, err
	}
	s.degraded("ListResponsesByEmail", err)
	return s.standby.ListResponsesByEmail(emailID)
}

// CreateResponse 保存回复草稿
func (s *Store) CreateResponse(response *domain.EmailResponse) error {
	err := s.primary.CreateResponse(response)
	if err == nil {
		return nil
	}
	s.degraded("CreateResponse", err)
	return s.standby.CreateResponse(response)
}

// UpdateResponse 部分更新回复
func (s *Store) UpdateResponse(id string, update domain.EmailResponseUpdate) (*domain.EmailResponse, error) {
	response, err := s.primary.UpdateResponse(id, update)
	if fallthroughErr(err) {
		return response, err
	}
	s.degraded("UpdateResponse", err)
	return s.standby.UpdateResponse(id, update)
}

// ========== User Repository ==========

// CreateUser 保存用户
func (s *Store) CreateUser(user *domain.User) error {
	err := s.primary.CreateUser(user)
	if err == nil || err == storage.ErrUserExists {
		return err
	}
	s.degraded("CreateUser", err)
	return s.standby.CreateUser(user)
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	user, err := s.primary.GetUserByUsername(username)
	if fallthroughErr(err) {
		return user, err
	}
	s.degraded("GetUserByUsername", err)
	return s.standby.GetUserByUsername(username)
}

// ========== Stats Repository ==========

// GetEmailStats 获取总体统计
func (s *Store) GetEmailStats() (*domain.EmailStats, error) {
	stats, err := s.primary.GetEmailStats()
	if err == nil {
		return stats, nil
	}
	s.degraded("GetEmailStats", err)
	return s.standby.GetEmailStats()
}

// GetSentimentDistribution 获取情感分布
func (s *Store) GetSentimentDistribution() (*domain.SentimentDistribution, error) {
	dist, err := s.primary.GetSentimentDistribution()
	if err == nil {
		return dist, nil
	}
	s.degraded("GetSentimentDistribution", err)
	return s.standby.GetSentimentDistribution()
}

// GetCategoryBreakdown 获取类别统计
func (s *Store) GetCategoryBreakdown() ([]domain.CategoryCount, error) {
	categories, err := s.primary.GetCategoryBreakdown()
	if err == nil {
		return categories, nil
	}
	s.degraded("GetCategoryBreakdown", err)
	return s.standby.GetCategoryBreakdown()
}

// ========== 工具方法 ==========

// Close 关闭主存储连接
func (s *Store) Close() error {
	return s.primary.Close()
}

// Health 报告主存储健康状态。兜底存储恒可用，
// 此处仍返回主存储的错误以便监控感知降级。
func (s *Store) Health() error {
	return s.primary.Health()
}
