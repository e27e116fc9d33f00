package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

func newTestEmail(id, sender, senderEmail, subject, body string, receivedAt time.Time) *domain.Email {
	return &domain.Email{
		ID:          id,
		Sender:      sender,
		SenderEmail: senderEmail,
		Subject:     subject,
		Body:        body,
		ReceivedAt:  receivedAt,
		Status:      domain.StatusPending,
		CreatedAt:   receivedAt,
		UpdatedAt:   receivedAt,
	}
}

func TestEmailCRUD(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()

	t.Run("创建并查询邮件", func(t *testing.T) {
		email := newTestEmail("e1", "张三", "zhangsan@example.com", "退款申请", "请帮我处理退款", now)
		require.NoError(t, s.CreateEmail(email))

		got, err := s.GetEmail("e1")
		require.NoError(t, err)
		assert.Equal(t, "退款申请", got.Subject)
		assert.Equal(t, domain.StatusPending, got.Status)
	})

	t.Run("查询不存在的邮件返回哨兵错误", func(t *testing.T) {
		_, err := s.GetEmail("missing")
		assert.ErrorIs(t, err, storage.ErrEmailNotFound)
	})

	t.Run("部分更新只覆盖非nil字段", func(t *testing.T) {
		p := domain.PriorityUrgent
		st := domain.StatusProcessed
		updated, err := s.UpdateEmail("e1", domain.EmailUpdate{Priority: &p, Status: &st})
		require.NoError(t, err)
		require.NotNil(t, updated.Priority)
		assert.Equal(t, domain.PriorityUrgent, *updated.Priority)
		assert.Equal(t, domain.StatusProcessed, updated.Status)
		assert.Nil(t, updated.Sentiment) // 未更新的字段保持原值
		assert.Equal(t, "退款申请", updated.Subject)
	})

	t.Run("更新不存在的邮件返回哨兵错误", func(t *testing.T) {
		_, err := s.UpdateEmail("missing", domain.EmailUpdate{})
		assert.ErrorIs(t, err, storage.ErrEmailNotFound)
	})
}

func TestListEmailsOrderAndFilter(t *testing.T) {
	s := NewStore()
	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	urgent := domain.PriorityUrgent
	normal := domain.PriorityNormal
	negative := domain.SentimentNegative
	positive := domain.SentimentPositive

	e1 := newTestEmail("e1", "Alice", "alice@example.com", "Invoice problem", "My INVOICE is wrong", base)
	e1.Priority = &urgent
	e1.Sentiment = &negative
	e2 := newTestEmail("e2", "Bob", "bob@example.com", "Great service", "Thanks for the help", base.Add(time.Hour))
	e2.Priority = &normal
	e2.Sentiment = &positive
	e3 := newTestEmail("e3", "Carol", "carol@invoices.example.com", "Question", "About my plan", base.Add(2*time.Hour))

	for _, e := range []*domain.Email{e1, e2, e3} {
		require.NoError(t, s.CreateEmail(e))
	}

	t.Run("默认按接收时间倒序", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{})
		require.NoError(t, err)
		require.Len(t, emails, 3)
		assert.Equal(t, "e3", emails[0].ID)
		assert.Equal(t, "e2", emails[1].ID)
		assert.Equal(t, "e1", emails[2].ID)
	})

	t.Run("搜索大小写不敏感且覆盖主题正文与发件人", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{Query: "invoice"})
		require.NoError(t, err)
		// e1 命中主题/正文，e3 命中发件人邮箱域名
		require.Len(t, emails, 2)
		assert.Equal(t, "e3", emails[0].ID)
		assert.Equal(t, "e1", emails[1].ID)
	})

	t.Run("优先级过滤排除未分类邮件", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{Priority: "urgent"})
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "e1", emails[0].ID)
	})

	t.Run("情感过滤", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{Sentiment: "positive"})
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "e2", emails[0].ID)
	})

	t.Run("组合过滤取交集", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{Query: "invoice", Priority: "urgent"})
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "e1", emails[0].ID)
	})

	t.Run("limit与offset分页", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "e2", emails[0].ID)

		emails, err = s.ListEmails(domain.EmailFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, emails)
	})
}

func TestResponses(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()
	require.NoError(t, s.CreateEmail(newTestEmail("e1", "A", "a@example.com", "s", "b", now)))

	r1 := &domain.EmailResponse{ID: "r1", EmailID: "e1", GeneratedResponse: "早期草稿", CreatedAt: now}
	r2 := &domain.EmailResponse{ID: "r2", EmailID: "e1", GeneratedResponse: "最新草稿", CreatedAt: now.Add(time.Minute)}
	require.NoError(t, s.CreateResponse(r1))
	require.NoError(t, s.CreateResponse(r2))

	t.Run("回复列表按创建时间倒序", func(t *testing.T) {
		responses, err := s.ListResponsesByEmail("e1")
		require.NoError(t, err)
		require.Len(t, responses, 2)
		assert.Equal(t, "r2", responses[0].ID)
	})

	t.Run("无回复的邮件返回空列表", func(t *testing.T) {
		responses, err := s.ListResponsesByEmail("other")
		require.NoError(t, err)
		assert.Empty(t, responses)
	})

	t.Run("更新回复发送状态", func(t *testing.T) {
		final := "最终回复内容"
		edited := true
		sentAt := now.Add(2 * time.Minute)
		updated, err := s.UpdateResponse("r2", domain.EmailResponseUpdate{
			FinalResponse: &final,
			IsEdited:      &edited,
			SentAt:        &sentAt,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsSent())
		assert.True(t, updated.IsEdited)
		require.NotNil(t, updated.FinalResponse)
		assert.Equal(t, final, *updated.FinalResponse)
	})

	t.Run("更新不存在的回复返回哨兵错误", func(t *testing.T) {
		_, err := s.UpdateResponse("missing", domain.EmailResponseUpdate{})
		assert.ErrorIs(t, err, storage.ErrResponseNotFound)
	})
}

func TestStatistics(t *testing.T) {
	t.Run("空存储返回全零", func(t *testing.T) {
		s := NewStore()
		stats, err := s.GetEmailStats()
		require.NoError(t, err)
		assert.Equal(t, &domain.EmailStats{}, stats)

		dist, err := s.GetSentimentDistribution()
		require.NoError(t, err)
		assert.Equal(t, &domain.SentimentDistribution{}, dist)

		categories, err := s.GetCategoryBreakdown()
		require.NoError(t, err)
		assert.Empty(t, categories)
	})

	t.Run("示例数据统计", func(t *testing.T) {
		s := NewSeededStore()
		stats, err := s.GetEmailStats()
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalEmails)
		assert.Equal(t, 2, stats.UrgentEmails)
		assert.Equal(t, 1, stats.ResolvedEmails)
		assert.Equal(t, 4, stats.PendingEmails)
	})

	t.Run("情感分布为独立取整的百分比", func(t *testing.T) {
		s := NewSeededStore()
		dist, err := s.GetSentimentDistribution()
		require.NoError(t, err)
		// 5 封：2 负面 / 2 中性 / 1 正面
		assert.Equal(t, 20, dist.Positive)
		assert.Equal(t, 40, dist.Neutral)
		assert.Equal(t, 40, dist.Negative)
	})

	t.Run("三等分时百分比之和不强制为100", func(t *testing.T) {
		s := NewStore()
		base := time.Now().UTC()
		sentiments := []domain.Sentiment{domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative}
		for i, sentiment := range sentiments {
			e := newTestEmail(string(rune('a'+i)), "X", "x@example.com", "s", "b", base)
			sv := sentiment
			e.Sentiment = &sv
			require.NoError(t, s.CreateEmail(e))
		}
		dist, err := s.GetSentimentDistribution()
		require.NoError(t, err)
		// 1/3 各自独立取整为 33，总和 99
		assert.Equal(t, 33, dist.Positive)
		assert.Equal(t, 33, dist.Neutral)
		assert.Equal(t, 33, dist.Negative)
	})

	t.Run("类别统计排除未分类并按数量倒序", func(t *testing.T) {
		s := NewSeededStore()
		categories, err := s.GetCategoryBreakdown()
		require.NoError(t, err)
		require.Len(t, categories, 4)
		assert.Equal(t, "Technical Support", categories[0].Category)
		assert.Equal(t, 2, categories[0].Count)
	})
}

func TestSeededStore(t *testing.T) {
	s := NewSeededStore()

	t.Run("示例邮件按接收时间倒序", func(t *testing.T) {
		emails, err := s.ListEmails(domain.EmailFilter{})
		require.NoError(t, err)
		require.Len(t, emails, 5)
		assert.Equal(t, "sample-email-1", emails[0].ID)
		assert.Equal(t, "sample-email-5", emails[4].ID)
	})

	t.Run("示例数据已分类完成", func(t *testing.T) {
		for _, id := range []string{"sample-email-1", "sample-email-2", "sample-email-3", "sample-email-4", "sample-email-5"} {
			e, err := s.GetEmail(id)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusProcessed, e.Status)
			assert.NotNil(t, e.Priority)
			assert.NotNil(t, e.Sentiment)
			assert.NotNil(t, e.Category)
		}
	})
}

func TestUsers(t *testing.T) {
	s := NewStore()
	user := &domain.User{ID: "u1", Username: "agent", PasswordHash: "hash"}

	require.NoError(t, s.CreateUser(user))

	t.Run("按用户名查询", func(t *testing.T) {
		got, err := s.GetUserByUsername("agent")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)
	})

	t.Run("重复用户名返回冲突错误", func(t *testing.T) {
		err := s.CreateUser(&domain.User{ID: "u2", Username: "agent"})
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := s.GetUserByUsername("nobody")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}
