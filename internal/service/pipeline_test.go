package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/ai"
	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
	"github.com/prince62058/Unstop-Challange/internal/storage/memory"
)

// stubAI 可配置结果的确定性 AI 实现
type stubAI struct {
	sentiment ai.SentimentResult
	priority  ai.PriorityResult
	info      domain.ExtractedInfo
	response  ai.ResponseResult

	generateCalls int
}

func (s *stubAI) AnalyzeSentiment(ctx context.Context, subject, body string) ai.SentimentResult {
	return s.sentiment
}

func (s *stubAI) DeterminePriority(ctx context.Context, subject, body string) ai.PriorityResult {
	return s.priority
}

func (s *stubAI) ExtractInformation(ctx context.Context, subject, body string) domain.ExtractedInfo {
	return s.info
}

func (s *stubAI) GenerateResponse(ctx context.Context, email *domain.Email) ai.ResponseResult {
	s.generateCalls++
	return s.response
}

// degradedAI 模拟 AI 服务完全不可用时的全默认值行为
type degradedAI struct{}

func (degradedAI) AnalyzeSentiment(ctx context.Context, subject, body string) ai.SentimentResult {
	return ai.DefaultSentiment()
}

func (degradedAI) DeterminePriority(ctx context.Context, subject, body string) ai.PriorityResult {
	return ai.DefaultPriority()
}

func (degradedAI) ExtractInformation(ctx context.Context, subject, body string) domain.ExtractedInfo {
	return ai.DefaultExtraction(subject)
}

func (degradedAI) GenerateResponse(ctx context.Context, email *domain.Email) ai.ResponseResult {
	return ai.ResponseResult{Text: "fallback text", Confidence: 0.3, Tone: domain.ToneProfessional}
}

// recordingNotifier 记录推送事件
type recordingNotifier struct {
	received  []string
	processed []string
	sent      []string
}

func (n *recordingNotifier) NotifyEmailReceived(email *domain.Email) {
	n.received = append(n.received, email.ID)
}

func (n *recordingNotifier) NotifyEmailProcessed(email *domain.Email) {
	n.processed = append(n.processed, email.ID)
}

func (n *recordingNotifier) NotifyResponseSent(response *domain.EmailResponse) {
	n.sent = append(n.sent, response.ID)
}

func urgentNegativeAI() *stubAI {
	return &stubAI{
		sentiment: ai.SentimentResult{Sentiment: domain.SentimentNegative, Confidence: 0.93},
		priority:  ai.PriorityResult{Priority: domain.PriorityUrgent, Confidence: 0.88},
		info: domain.ExtractedInfo{
			domain.InfoIssueSummary: "duplicate charge",
			"category":              "Billing",
		},
		response: ai.ResponseResult{Text: "We are sorry about the duplicate charge.", Confidence: 0.87, Tone: domain.ToneEmpathetic},
	}
}

func normalAI() *stubAI {
	return &stubAI{
		sentiment: ai.SentimentResult{Sentiment: domain.SentimentNeutral, Confidence: 0.7},
		priority:  ai.PriorityResult{Priority: domain.PriorityNormal, Confidence: 0.8},
		info:      domain.ExtractedInfo{domain.InfoIssueSummary: "plan question"},
		response:  ai.ResponseResult{Text: "Here are the plan details.", Confidence: 0.76, Tone: domain.ToneProfessional},
	}
}

func TestIngestEmailUrgentFlow(t *testing.T) {
	store := memory.NewStore()
	classifier := urgentNegativeAI()
	svc := NewPipelineService(store, classifier, zap.NewNop())
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	email, err := svc.IngestEmail(context.Background(), CreateEmailInput{
		Sender:      "Sarah Johnson",
		SenderEmail: "sarah@example.com",
		Subject:     "Charged twice!",
		Body:        "Please refund immediately.",
	})
	require.NoError(t, err)

	t.Run("分类结果完整持久化", func(t *testing.T) {
		assert.Equal(t, domain.StatusProcessed, email.Status)
		require.NotNil(t, email.Priority)
		assert.Equal(t, domain.PriorityUrgent, *email.Priority)
		require.NotNil(t, email.Sentiment)
		assert.Equal(t, domain.SentimentNegative, *email.Sentiment)
		require.NotNil(t, email.Category)
		assert.Equal(t, "Billing", *email.Category)
		assert.Equal(t, "duplicate charge", email.ExtractedInfo.StringField(domain.InfoIssueSummary))
	})

	t.Run("紧急邮件自动生成草稿", func(t *testing.T) {
		responses, err := store.ListResponsesByEmail(email.ID)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		draft := responses[0]
		assert.Equal(t, "We are sorry about the duplicate charge.", draft.GeneratedResponse)
		assert.Equal(t, 87, draft.Confidence) // round(0.87 * 100)
		assert.Equal(t, domain.ToneEmpathetic, draft.Tone)
		assert.False(t, draft.IsEdited)
		assert.Nil(t, draft.FinalResponse)
		assert.Nil(t, draft.SentAt)
	})

	t.Run("推送接收与处理完成事件", func(t *testing.T) {
		assert.Equal(t, []string{email.ID}, notifier.received)
		assert.Equal(t, []string{email.ID}, notifier.processed)
	})
}

func TestIngestEmailNormalFlow(t *testing.T) {
	store := memory.NewStore()
	classifier := normalAI()
	svc := NewPipelineService(store, classifier, zap.NewNop())

	email, err := svc.IngestEmail(context.Background(), CreateEmailInput{
		SenderEmail: "anna@example.com",
		Subject:     "Plan question",
		Body:        "How many seats?",
	})
	require.NoError(t, err)

	t.Run("普通邮件不自动生成草稿", func(t *testing.T) {
		responses, err := store.ListResponsesByEmail(email.ID)
		require.NoError(t, err)
		assert.Empty(t, responses)
		assert.Zero(t, classifier.generateCalls)
	})

	t.Run("抽取结果缺少类别时使用General", func(t *testing.T) {
		require.NotNil(t, email.Category)
		assert.Equal(t, "General", *email.Category)
	})
}

func TestIngestEmailValidation(t *testing.T) {
	svc := NewPipelineService(memory.NewStore(), normalAI(), zap.NewNop())

	_, err := svc.IngestEmail(context.Background(), CreateEmailInput{SenderEmail: "bad", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, domain.ErrInvalidSenderEmail)

	_, err = svc.IngestEmail(context.Background(), CreateEmailInput{SenderEmail: "ok@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailContentEmpty)
}

func TestProcessEmailWithDegradedAI(t *testing.T) {
	// AI 整体不可用时邮件仍然处理完成，使用保守默认分类
	store := memory.NewStore()
	svc := NewPipelineService(store, degradedAI{}, zap.NewNop())

	email, err := svc.IngestEmail(context.Background(), CreateEmailInput{
		SenderEmail: "x@example.com",
		Subject:     "Anything",
		Body:        "Some body",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProcessed, email.Status)
	require.NotNil(t, email.Priority)
	assert.Equal(t, domain.PriorityNormal, *email.Priority)
	require.NotNil(t, email.Sentiment)
	assert.Equal(t, domain.SentimentNeutral, *email.Sentiment)
	assert.Equal(t, "Anything", email.ExtractedInfo.StringField(domain.InfoIssueSummary))

	// 默认优先级为普通，不触发自动草稿
	responses, err := store.ListResponsesByEmail(email.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestGenerateResponseForEmail(t *testing.T) {
	store := memory.NewStore()
	classifier := normalAI()
	svc := NewPipelineService(store, classifier, zap.NewNop())

	email, err := svc.IngestEmail(context.Background(), CreateEmailInput{
		SenderEmail: "bob@example.com",
		Subject:     "Question",
		Body:        "Details please",
	})
	require.NoError(t, err)

	t.Run("首次调用生成草稿", func(t *testing.T) {
		draft, err := svc.GenerateResponseForEmail(context.Background(), email.ID)
		require.NoError(t, err)
		assert.Equal(t, "Here are the plan details.", draft.GeneratedResponse)
		assert.Equal(t, 76, draft.Confidence)
		assert.Equal(t, 1, classifier.generateCalls)
	})

	t.Run("重复调用幂等返回已有草稿", func(t *testing.T) {
		first, err := svc.GenerateResponseForEmail(context.Background(), email.ID)
		require.NoError(t, err)
		second, err := svc.GenerateResponseForEmail(context.Background(), email.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, classifier.generateCalls) // 不再调用 AI
	})

	t.Run("邮件不存在返回哨兵错误", func(t *testing.T) {
		_, err := svc.GenerateResponseForEmail(context.Background(), "missing")
		assert.ErrorIs(t, err, storage.ErrEmailNotFound)
	})
}

func TestSendResponse(t *testing.T) {
	setup := func(t *testing.T) (*PipelineService, *memory.Store, *domain.Email, *recordingNotifier) {
		store := memory.NewStore()
		svc := NewPipelineService(store, urgentNegativeAI(), zap.NewNop())
		notifier := &recordingNotifier{}
		svc.SetNotifier(notifier)
		email, err := svc.IngestEmail(context.Background(), CreateEmailInput{
			SenderEmail: "sarah@example.com",
			Subject:     "Charged twice!",
			Body:        "Refund please.",
		})
		require.NoError(t, err)
		return svc, store, email, notifier
	}

	t.Run("原文发送不算编辑", func(t *testing.T) {
		svc, _, email, notifier := setup(t)
		sent, err := svc.SendResponse(context.Background(), email.ID, "We are sorry about the duplicate charge.")
		require.NoError(t, err)
		assert.False(t, sent.IsEdited)
		require.NotNil(t, sent.SentAt)
		assert.WithinDuration(t, time.Now().UTC(), *sent.SentAt, 5*time.Second)
		require.NotNil(t, sent.FinalResponse)
		assert.Equal(t, "We are sorry about the duplicate charge.", *sent.FinalResponse)
		assert.Len(t, notifier.sent, 1)
	})

	t.Run("修改后发送标记为已编辑", func(t *testing.T) {
		svc, _, email, _ := setup(t)
		sent, err := svc.SendResponse(context.Background(), email.ID, "Edited final text.")
		require.NoError(t, err)
		assert.True(t, sent.IsEdited)
		require.NotNil(t, sent.FinalResponse)
		assert.Equal(t, "Edited final text.", *sent.FinalResponse)
	})

	t.Run("空文本拒绝发送", func(t *testing.T) {
		svc, _, email, _ := setup(t)
		_, err := svc.SendResponse(context.Background(), email.ID, "   ")
		assert.ErrorIs(t, err, domain.ErrFinalResponseEmpty)
	})

	t.Run("无草稿的邮件返回哨兵错误", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewPipelineService(store, normalAI(), zap.NewNop())
		email, err := svc.IngestEmail(context.Background(), CreateEmailInput{
			SenderEmail: "a@example.com", Subject: "s", Body: "b",
		})
		require.NoError(t, err)
		_, err = svc.SendResponse(context.Background(), email.ID, "text")
		assert.ErrorIs(t, err, storage.ErrResponseNotFound)
	})

	t.Run("发送后统计计入已解决", func(t *testing.T) {
		svc, store, email, _ := setup(t)
		_, err := svc.SendResponse(context.Background(), email.ID, "final")
		require.NoError(t, err)
		stats, err := store.GetEmailStats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ResolvedEmails)
		assert.Equal(t, 0, stats.PendingEmails)
	})
}

func TestListEmails(t *testing.T) {
	store := memory.NewSeededStore()
	svc := NewPipelineService(store, normalAI(), zap.NewNop())

	t.Run("非法过滤值返回校验错误", func(t *testing.T) {
		_, err := svc.ListEmails(domain.EmailFilter{Priority: "critical"})
		assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	})

	t.Run("按优先级过滤", func(t *testing.T) {
		emails, err := svc.ListEmails(domain.EmailFilter{Priority: "urgent"})
		require.NoError(t, err)
		assert.Len(t, emails, 2)
	})

	t.Run("limit上限被收紧", func(t *testing.T) {
		emails, err := svc.ListEmails(domain.EmailFilter{Limit: 100000})
		require.NoError(t, err)
		assert.Len(t, emails, 5)
	})
}

func TestGetEmailsWithResponses(t *testing.T) {
	store := memory.NewSeededStore()
	svc := NewPipelineService(store, normalAI(), zap.NewNop())

	items, err := svc.GetEmailsWithResponses(0, 0)
	require.NoError(t, err)
	require.Len(t, items, 5)

	t.Run("紧急邮件排在最前且保持时间倒序", func(t *testing.T) {
		assert.Equal(t, "sample-email-1", items[0].Email.ID)
		assert.Equal(t, "sample-email-4", items[1].Email.ID)
		for _, item := range items[2:] {
			assert.False(t, item.Email.IsUrgent())
		}
		// 非紧急部分仍按接收时间倒序
		assert.Equal(t, "sample-email-2", items[2].Email.ID)
		assert.Equal(t, "sample-email-3", items[3].Email.ID)
		assert.Equal(t, "sample-email-5", items[4].Email.ID)
	})

	t.Run("携带最新回复", func(t *testing.T) {
		var withResponse int
		for _, item := range items {
			if item.Response != nil {
				withResponse++
				assert.Equal(t, item.Email.ID, item.Response.EmailID)
			}
		}
		assert.Equal(t, 1, withResponse)
	})

	t.Run("分页在紧急优先排序之后应用", func(t *testing.T) {
		page, err := svc.GetEmailsWithResponses(2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "sample-email-1", page[0].Email.ID)
		assert.Equal(t, "sample-email-4", page[1].Email.ID)

		next, err := svc.GetEmailsWithResponses(2, 2)
		require.NoError(t, err)
		require.Len(t, next, 2)
		assert.Equal(t, "sample-email-2", next[0].Email.ID)
		assert.Equal(t, "sample-email-3", next[1].Email.ID)
	})

	t.Run("偏移越界返回空列表", func(t *testing.T) {
		page, err := svc.GetEmailsWithResponses(10, 100)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
