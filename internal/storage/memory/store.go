package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

// Store 使用内存保存邮件与回复数据，用于开发验证和主存储故障时的兜底数据源。
type Store struct {
	mu         sync.RWMutex
	emails     map[string]*domain.Email
	responses  map[string]*domain.EmailResponse
	byEmailID  map[string][]string // emailID -> responseID 列表（插入序）
	users      map[string]*domain.User
	byUsername map[string]string // username -> userID
}

// NewStore 创建一个空的内存存储实例。
func NewStore() *Store {
	return &Store{
		emails:     make(map[string]*domain.Email),
		responses:  make(map[string]*domain.EmailResponse),
		byEmailID:  make(map[string][]string),
		users:      make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

// NewSeededStore 创建预置示例数据的内存存储实例，供兜底数据源使用。
func NewSeededStore() *Store {
	s := NewStore()
	s.seed()
	return s
}

// ListEmails 按条件查询邮件，结果按接收时间倒序。
func (s *Store) ListEmails(filter domain.EmailFilter) ([]domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Email, 0, len(s.emails))
	for _, e := range s.emails {
		if !matchesFilter(e, filter) {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []domain.Email{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetEmail 根据 ID 获取邮件。
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.emails[id]
	if !ok {
		return nil, storage.ErrEmailNotFound
	}
	copied := *e
	return &copied, nil
}

// CreateEmail 保存新邮件。ID 为空时生成基于时间戳的本地 ID。
func (s *Store) CreateEmail(email *domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email.ID == "" {
		email.ID = fmt.Sprintf("email-%d", time.Now().UnixNano())
	}
	copied := *email
	s.emails[email.ID] = &copied
	return nil
}

// UpdateEmail 部分更新邮件，nil 字段保持原值。
func (s *Store) UpdateEmail(id string, update domain.EmailUpdate) (*domain.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.emails[id]
	if !ok {
		return nil, storage.ErrEmailNotFound
	}
	if update.Priority != nil {
		e.Priority = update.Priority
	}
	if update.Sentiment != nil {
		e.Sentiment = update.Sentiment
	}
	if update.Category != nil {
		e.Category = update.Category
	}
	if update.ExtractedInfo != nil {
		e.ExtractedInfo = update.ExtractedInfo
	}
	if update.Status != nil {
		e.Status = *update.Status
	}
	e.UpdatedAt = time.Now().UTC()

	copied := *e
	return &copied, nil
}

// ListResponsesByEmail 返回某邮件的全部回复，按创建时间倒序。
func (s *Store) ListResponsesByEmail(emailID string) ([]domain.EmailResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byEmailID[emailID]
	result := make([]domain.EmailResponse, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.responses[id]; ok {
			result = append(result, *r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CreateResponse 保存回复草稿。ID 为空时生成基于时间戳的本地 ID。
func (s *Store) CreateResponse(response *domain.EmailResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if response.ID == "" {
		response.ID = fmt.Sprintf("response-%d", time.Now().UnixNano())
	}
	copied := *response
	s.responses[response.ID] = &copied
	s.byEmailID[response.EmailID] = append(s.byEmailID[response.EmailID], response.ID)
	return nil
}

// UpdateResponse 部分更新回复。
func (s *Store) UpdateResponse(id string, update domain.EmailResponseUpdate) (*domain.EmailResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.responses[id]
	if !ok {
		return nil, storage.ErrResponseNotFound
	}
	if update.FinalResponse != nil {
		r.FinalResponse = update.FinalResponse
	}
	if update.IsEdited != nil {
		r.IsEdited = *update.IsEdited
	}
	if update.SentAt != nil {
		r.SentAt = update.SentAt
	}
	r.UpdatedAt = time.Now().UTC()

	copied := *r
	return &copied, nil
}

// CreateUser 保存用户。
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return storage.ErrUserExists
	}
	copied := *user
	s.users[user.ID] = &copied
	s.byUsername[user.Username] = user.ID
	return nil
}

// GetUserByUsername 根据用户名获取用户。
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

// GetEmailStats 遍历计算邮件总体统计。
func (s *Store) GetEmailStats() (*domain.EmailStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.EmailStats{}
	for _, e := range s.emails {
		stats.TotalEmails++
		if e.IsUrgent() {
			stats.UrgentEmails++
		}
		if s.resolvedLocked(e.ID) {
			stats.ResolvedEmails++
		}
	}
	stats.PendingEmails = stats.TotalEmails - stats.ResolvedEmails
	return stats, nil
}

// GetSentimentDistribution 计算情感分布的整数百分比。
func (s *Store) GetSentimentDistribution() (*domain.SentimentDistribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var positive, neutral, negative int
	for _, e := range s.emails {
		if e.Sentiment == nil {
			continue
		}
		switch *e.Sentiment {
		case domain.SentimentPositive:
			positive++
		case domain.SentimentNeutral:
			neutral++
		case domain.SentimentNegative:
			negative++
		}
	}
	total := len(s.emails)
	return &domain.SentimentDistribution{
		Positive: roundPercent(positive, total),
		Neutral:  roundPercent(neutral, total),
		Negative: roundPercent(negative, total),
	}, nil
}

// GetCategoryBreakdown 按类别统计邮件数，排除未分类邮件，按数量倒序。
func (s *Store) GetCategoryBreakdown() ([]domain.CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.emails {
		if e.Category == nil || *e.Category == "" {
			continue
		}
		counts[*e.Category]++
	}
	result := make([]domain.CategoryCount, 0, len(counts))
	for category, count := range counts {
		result = append(result, domain.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// Close 关闭存储（内存实现无操作）。
func (s *Store) Close() error {
	return nil
}

// Health 健康检查（内存实现恒为健康）。
func (s *Store) Health() error {
	return nil
}

// resolvedLocked 判断邮件是否存在已发送的回复，调用方需持有读锁。
func (s *Store) resolvedLocked(emailID string) bool {
	for _, id := range s.byEmailID[emailID] {
		if r, ok := s.responses[id]; ok && r.SentAt != nil {
			return true
		}
	}
	return false
}

// roundPercent 独立四舍五入的整数百分比，total 为 0 时返回 0。
func roundPercent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(count)/float64(total)*100 + 0.5)
}

// matchesFilter 按查询条件过滤邮件。
func matchesFilter(e *domain.Email, filter domain.EmailFilter) bool {
	if filter.Priority != "" {
		if e.Priority == nil || string(*e.Priority) != filter.Priority {
			return false
		}
	}
	if filter.Sentiment != "" {
		if e.Sentiment == nil || string(*e.Sentiment) != filter.Sentiment {
			return false
		}
	}
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		if !containsIgnoreCase(e.Subject, q) &&
			!containsIgnoreCase(e.Body, q) &&
			!containsIgnoreCase(e.Sender, q) &&
			!containsIgnoreCase(e.SenderEmail, q) {
			return false
		}
	}
	return true
}

// containsIgnoreCase 大小写不敏感的子串匹配，needle 需预先转为小写。
func containsIgnoreCase(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
