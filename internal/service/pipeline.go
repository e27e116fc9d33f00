package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/ai"
	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

// 列表分页约束
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// AIClassifier 定义流水线依赖的 AI 分析能力。
// 实现必须是全函数：失败时返回保守默认值而非错误。
type AIClassifier interface {
	AnalyzeSentiment(ctx context.Context, subject, body string) ai.SentimentResult
	DeterminePriority(ctx context.Context, subject, body string) ai.PriorityResult
	ExtractInformation(ctx context.Context, subject, body string) domain.ExtractedInfo
	GenerateResponse(ctx context.Context, email *domain.Email) ai.ResponseResult
}

// Notifier 向仪表盘推送实时事件（可选依赖）。
type Notifier interface {
	NotifyEmailReceived(email *domain.Email)
	NotifyEmailProcessed(email *domain.Email)
	NotifyResponseSent(response *domain.EmailResponse)
}

// PipelineService 封装邮件接收、AI 分析与回复处理的完整流水线。
type PipelineService struct {
	store    storage.Store
	ai       AIClassifier
	notifier Notifier // 可选
	log      *zap.Logger

	// 指标钩子，未设置时不上报
	OnProcessed    func(status string, duration time.Duration)
	OnDraftCreated func()
	OnResponseSent func()
}

// NewPipelineService 创建邮件处理流水线。
func NewPipelineService(store storage.Store, classifier AIClassifier, log *zap.Logger) *PipelineService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PipelineService{
		store: store,
		ai:    classifier,
		log:   log,
	}
}

// SetNotifier 设置实时事件推送
func (s *PipelineService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// CreateEmailInput 定义新邮件的输入。
type CreateEmailInput struct {
	Sender      string
	SenderEmail string
	Subject     string
	Body        string
	ReceivedAt  time.Time
}

// IngestEmail 校验、入库并同步处理一封新邮件。
func (s *PipelineService) IngestEmail(ctx context.Context, input CreateEmailInput) (*domain.Email, error) {
	if err := domain.ValidateNewEmail(input.SenderEmail, input.Subject, input.Body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if input.ReceivedAt.IsZero() {
		input.ReceivedAt = now
	}

	email := &domain.Email{
		ID:          uuid.NewString(),
		Sender:      strings.TrimSpace(input.Sender),
		SenderEmail: strings.TrimSpace(input.SenderEmail),
		Subject:     input.Subject,
		Body:        input.Body,
		ReceivedAt:  input.ReceivedAt,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateEmail(email); err != nil {
		return nil, fmt.Errorf("failed to persist email: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyEmailReceived(email)
	}

	return s.ProcessEmail(ctx, email)
}

// ProcessEmail 对一封已入库邮件执行 AI 分析并保存结果。
// 三个分析任务并发执行；AI 降级不会使邮件进入失败状态，
// 只有分析结果持久化失败才会标记 failed。
func (s *PipelineService) ProcessEmail(ctx context.Context, email *domain.Email) (*domain.Email, error) {
	start := time.Now()
	var (
		wg        sync.WaitGroup
		sentiment ai.SentimentResult
		priority  ai.PriorityResult
		info      domain.ExtractedInfo
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		sentiment = s.ai.AnalyzeSentiment(ctx, email.Subject, email.Body)
	}()
	go func() {
		defer wg.Done()
		priority = s.ai.DeterminePriority(ctx, email.Subject, email.Body)
	}()
	go func() {
		defer wg.Done()
		info = s.ai.ExtractInformation(ctx, email.Subject, email.Body)
	}()
	wg.Wait()

	category := info.StringField("category")
	if category == "" {
		category = "General"
	}
	status := domain.StatusProcessed

	update := domain.EmailUpdate{
		Priority:      &priority.Priority,
		Sentiment:     &sentiment.Sentiment,
		Category:      &category,
		ExtractedInfo: info,
		Status:        &status,
	}

	updated, err := s.store.UpdateEmail(email.ID, update)
	if err != nil {
		failed := domain.StatusFailed
		if _, markErr := s.store.UpdateEmail(email.ID, domain.EmailUpdate{Status: &failed}); markErr != nil {
			s.log.Error("failed to mark email as failed", zap.String("email_id", email.ID), zap.Error(markErr))
		}
		if s.OnProcessed != nil {
			s.OnProcessed(string(domain.StatusFailed), time.Since(start))
		}
		return nil, fmt.Errorf("failed to persist classification: %w", err)
	}

	if s.OnProcessed != nil {
		s.OnProcessed(string(domain.StatusProcessed), time.Since(start))
	}

	s.log.Info("email processed",
		zap.String("email_id", updated.ID),
		zap.String("priority", string(priority.Priority)),
		zap.String("sentiment", string(sentiment.Sentiment)),
		zap.String("category", category),
	)

	// 紧急邮件自动生成回复草稿；草稿失败不影响邮件本身
	if updated.IsUrgent() {
		if _, err := s.createDraft(ctx, updated); err != nil {
			s.log.Warn("failed to create auto draft for urgent email",
				zap.String("email_id", updated.ID),
				zap.Error(err),
			)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyEmailProcessed(updated)
	}

	return updated, nil
}

// createDraft 生成并保存一份回复草稿。
func (s *PipelineService) createDraft(ctx context.Context, email *domain.Email) (*domain.EmailResponse, error) {
	result := s.ai.GenerateResponse(ctx, email)
	now := time.Now().UTC()

	response := &domain.EmailResponse{
		ID:                uuid.NewString(),
		EmailID:           email.ID,
		GeneratedResponse: result.Text,
		Confidence:        int(math.Round(result.Confidence * 100)),
		Tone:              result.Tone,
		IsEdited:          false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.CreateResponse(response); err != nil {
		return nil, fmt.Errorf("failed to persist response draft: %w", err)
	}
	if s.OnDraftCreated != nil {
		s.OnDraftCreated()
	}
	return response, nil
}

// GenerateResponseForEmail 为邮件生成回复草稿。幂等：已有草稿时返回最新一份。
func (s *PipelineService) GenerateResponseForEmail(ctx context.Context, emailID string) (*domain.EmailResponse, error) {
	existing, err := s.store.ListResponsesByEmail(emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	email, err := s.store.GetEmail(emailID)
	if err != nil {
		return nil, err
	}
	return s.createDraft(ctx, email)
}

// SendResponse 发送回复：记录最终文本与发送时间。
// finalText 与草稿不一致时标记为已编辑。
func (s *PipelineService) SendResponse(ctx context.Context, emailID, finalText string) (*domain.EmailResponse, error) {
	if strings.TrimSpace(finalText) == "" {
		return nil, domain.ErrFinalResponseEmpty
	}

	responses, err := s.store.ListResponsesByEmail(emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	if len(responses) == 0 {
		return nil, storage.ErrResponseNotFound
	}
	latest := responses[0]

	now := time.Now().UTC()
	edited := finalText != latest.GeneratedResponse
	update := domain.EmailResponseUpdate{
		FinalResponse: &finalText,
		IsEdited:      &edited,
		SentAt:        &now,
	}

	sent, err := s.store.UpdateResponse(latest.ID, update)
	if err != nil {
		return nil, err
	}

	s.log.Info("response sent",
		zap.String("email_id", emailID),
		zap.String("response_id", sent.ID),
		zap.Bool("is_edited", sent.IsEdited),
	)

	if s.OnResponseSent != nil {
		s.OnResponseSent()
	}
	if s.notifier != nil {
		s.notifier.NotifyResponseSent(sent)
	}
	return sent, nil
}

// ListEmails 查询邮件列表，应用默认分页与上限。
func (s *PipelineService) ListEmails(filter domain.EmailFilter) ([]domain.Email, error) {
	if err := domain.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListEmails(filter)
}

// GetEmail 查询单封邮件。
func (s *PipelineService) GetEmail(id string) (*domain.Email, error) {
	return s.store.GetEmail(id)
}

// GetEmailsWithResponses 返回邮件及其最新回复的组合视图，
// 紧急邮件排在最前，同优先级内按接收时间倒序。
// 分页在排序之后应用，保证紧急邮件不会被翻页截断。
func (s *PipelineService) GetEmailsWithResponses(limit, offset int) ([]domain.EmailWithResponse, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	emails, err := s.store.ListEmails(domain.EmailFilter{})
	if err != nil {
		return nil, err
	}

	// 输入已按接收时间倒序，稳定排序保持该次序
	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].IsUrgent() && !emails[j].IsUrgent()
	})

	if offset >= len(emails) {
		return []domain.EmailWithResponse{}, nil
	}
	end := offset + limit
	if end > len(emails) {
		end = len(emails)
	}
	emails = emails[offset:end]

	result := make([]domain.EmailWithResponse, 0, len(emails))
	for _, email := range emails {
		responses, err := s.store.ListResponsesByEmail(email.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list responses for email %s: %w", email.ID, err)
		}
		item := domain.EmailWithResponse{Email: email}
		if len(responses) > 0 {
			item.Response = &responses[0]
		}
		result = append(result, item)
	}
	return result, nil
}
