package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

// newMockServer 返回一个固定回复指定 content 的 chat completions 服务
func newMockServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		body := fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
		w.Write([]byte(body))
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestAnalyzeSentiment(t *testing.T) {
	t.Run("解析正常JSON输出", func(t *testing.T) {
		srv := newMockServer(t, `{"sentiment": "negative", "confidence": 0.92}`)
		defer srv.Close()

		result := newTestClient(srv.URL).AnalyzeSentiment(context.Background(), "退款", "非常失望")
		assert.Equal(t, domain.SentimentNegative, result.Sentiment)
		assert.InDelta(t, 0.92, result.Confidence, 1e-9)
	})

	t.Run("容忍Markdown代码块包裹", func(t *testing.T) {
		srv := newMockServer(t, "```json\n{\"sentiment\": \"positive\", \"confidence\": 0.8}\n```")
		defer srv.Close()

		result := newTestClient(srv.URL).AnalyzeSentiment(context.Background(), "s", "b")
		assert.Equal(t, domain.SentimentPositive, result.Sentiment)
	})

	t.Run("非法取值降级为中性", func(t *testing.T) {
		srv := newMockServer(t, `{"sentiment": "furious", "confidence": 0.9}`)
		defer srv.Close()

		result := newTestClient(srv.URL).AnalyzeSentiment(context.Background(), "s", "b")
		assert.Equal(t, DefaultSentiment(), result)
	})

	t.Run("置信度越界时被截断", func(t *testing.T) {
		srv := newMockServer(t, `{"sentiment": "neutral", "confidence": 1.7}`)
		defer srv.Close()

		result := newTestClient(srv.URL).AnalyzeSentiment(context.Background(), "s", "b")
		assert.Equal(t, 1.0, result.Confidence)
	})
}

func TestDeterminePriority(t *testing.T) {
	srv := newMockServer(t, `{"priority": "URGENT", "confidence": 0.85}`)
	defer srv.Close()

	// 大小写归一化
	result := newTestClient(srv.URL).DeterminePriority(context.Background(), "宕机", "生产环境不可用")
	assert.Equal(t, domain.PriorityUrgent, result.Priority)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
}

func TestExtractInformation(t *testing.T) {
	t.Run("完整抽取结果", func(t *testing.T) {
		srv := newMockServer(t, `{"issueSummary":"API 故障","productMentions":["API"],"urgencyIndicators":["blocked"],"category":"Technical Support"}`)
		defer srv.Close()

		info := newTestClient(srv.URL).ExtractInformation(context.Background(), "API down", "blocked")
		assert.Equal(t, "API 故障", info.StringField(domain.InfoIssueSummary))
		assert.Equal(t, []string{"API"}, info.ListField(domain.InfoProductMentions))
		assert.Equal(t, "Technical Support", info.StringField("category"))
	})

	t.Run("缺失问题概要时回填主题", func(t *testing.T) {
		srv := newMockServer(t, `{"productMentions":[]}`)
		defer srv.Close()

		info := newTestClient(srv.URL).ExtractInformation(context.Background(), "subject here", "b")
		assert.Equal(t, "subject here", info.StringField(domain.InfoIssueSummary))
	})

	t.Run("模型输出null时降级为默认值", func(t *testing.T) {
		srv := newMockServer(t, `null`)
		defer srv.Close()

		c := newTestClient(srv.URL)
		var tasks []string
		c.OnDefault = func(task string) { tasks = append(tasks, task) }

		info := c.ExtractInformation(context.Background(), "subject here", "b")
		assert.NotNil(t, info)
		assert.Equal(t, "subject here", info.StringField(domain.InfoIssueSummary))
		assert.Equal(t, []string{"extraction"}, tasks)
	})
}

func TestClientNeverFails(t *testing.T) {
	email := &domain.Email{Sender: "Alice", SenderEmail: "a@example.com", Subject: "Help", Body: "b"}

	t.Run("无API密钥时直接返回默认值", func(t *testing.T) {
		c := NewClient(Config{}, zap.NewNop())
		var tasks []string
		c.OnDefault = func(task string) { tasks = append(tasks, task) }

		assert.Equal(t, DefaultSentiment(), c.AnalyzeSentiment(context.Background(), "s", "b"))
		assert.Equal(t, DefaultPriority(), c.DeterminePriority(context.Background(), "s", "b"))
		assert.Equal(t, "s", c.ExtractInformation(context.Background(), "s", "b").StringField(domain.InfoIssueSummary))
		result := c.GenerateResponse(context.Background(), email)
		assert.NotEmpty(t, result.Text)
		assert.InDelta(t, 0.3, result.Confidence, 1e-9)
		assert.Equal(t, []string{"sentiment", "priority", "extraction", "response"}, tasks)
	})

	t.Run("服务端500降级为默认值", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		assert.Equal(t, DefaultSentiment(), c.AnalyzeSentiment(context.Background(), "s", "b"))
	})

	t.Run("模型输出不是JSON时降级", func(t *testing.T) {
		srv := newMockServer(t, "Sorry, I cannot help with that.")
		defer srv.Close()

		c := newTestClient(srv.URL)
		assert.Equal(t, DefaultPriority(), c.DeterminePriority(context.Background(), "s", "b"))
	})

	t.Run("服务端挂起时按超时降级", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: 50 * time.Millisecond}, zap.NewNop())
		start := time.Now()
		result := c.AnalyzeSentiment(context.Background(), "s", "b")
		assert.Less(t, time.Since(start), 400*time.Millisecond)
		assert.Equal(t, DefaultSentiment(), result)
	})

	t.Run("网络不可达时降级", func(t *testing.T) {
		c := NewClient(Config{BaseURL: "http://127.0.0.1:1", APIKey: "test-key", Timeout: time.Second}, zap.NewNop())
		assert.Equal(t, DefaultSentiment(), c.AnalyzeSentiment(context.Background(), "s", "b"))
	})
}

func TestGenerateResponseTone(t *testing.T) {
	negative := domain.SentimentNegative
	positive := domain.SentimentPositive
	urgent := domain.PriorityUrgent
	normal := domain.PriorityNormal

	t.Run("负面情绪使用安抚语气", func(t *testing.T) {
		srv := newMockServer(t, `{"response": "We are so sorry.", "confidence": 0.9}`)
		defer srv.Close()

		email := &domain.Email{Sender: "A", Subject: "s", Sentiment: &negative, Priority: &urgent}
		result := newTestClient(srv.URL).GenerateResponse(context.Background(), email)
		assert.Equal(t, domain.ToneEmpathetic, result.Tone)
		assert.Equal(t, "We are so sorry.", result.Text)
	})

	t.Run("紧急非负面使用紧急确认语气", func(t *testing.T) {
		srv := newMockServer(t, `{"response": "On it right away.", "confidence": 0.9}`)
		defer srv.Close()

		email := &domain.Email{Sender: "A", Subject: "s", Sentiment: &positive, Priority: &urgent}
		result := newTestClient(srv.URL).GenerateResponse(context.Background(), email)
		assert.Equal(t, domain.ToneUrgentReassure, result.Tone)
	})

	t.Run("其余情况使用专业语气", func(t *testing.T) {
		srv := newMockServer(t, `{"response": "Here is the answer.", "confidence": 0.9}`)
		defer srv.Close()

		email := &domain.Email{Sender: "A", Subject: "s", Sentiment: &positive, Priority: &normal}
		result := newTestClient(srv.URL).GenerateResponse(context.Background(), email)
		assert.Equal(t, domain.ToneProfessional, result.Tone)
	})

	t.Run("未分类邮件也能生成草稿", func(t *testing.T) {
		srv := newMockServer(t, `{"response": "Thanks for writing in.", "confidence": 0.7}`)
		defer srv.Close()

		email := &domain.Email{Sender: "A", Subject: "s"}
		result := newTestClient(srv.URL).GenerateResponse(context.Background(), email)
		assert.Equal(t, domain.ToneProfessional, result.Tone)
	})

	t.Run("模型输出为空串时使用兜底文本", func(t *testing.T) {
		srv := newMockServer(t, `{"response": "  ", "confidence": 0.7}`)
		defer srv.Close()

		email := &domain.Email{Sender: "Alice", Subject: "Billing issue"}
		result := newTestClient(srv.URL).GenerateResponse(context.Background(), email)
		assert.Contains(t, result.Text, "Alice")
		assert.Contains(t, result.Text, "Billing issue")
		assert.InDelta(t, 0.3, result.Confidence, 1e-9)
	})
}
