package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

// Config AI 客户端配置
type Config struct {
	BaseURL string // OpenAI 兼容接口地址，如 https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration // 单次调用超时
}

// Client 调用 OpenAI 兼容的 chat completions 接口完成邮件分析。
// 所有方法都是全函数：任何失败（无密钥、网络错误、超时、解析失败）
// 一律降级为保守默认值，绝不向调用方返回错误，邮件流水线因此不会被
// AI 故障阻塞。
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.Logger

	// OnDefault 在任一任务降级为默认值时回调，参数为任务名，用于指标上报
	OnDefault func(task string)
	// OnRequest 在每次模型调用结束后回调，上报任务名与耗时
	OnRequest func(task string, duration time.Duration)
}

// NewClient 创建 AI 客户端
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// ========== chat completions 协议 ==========

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// complete 发起一次 chat completions 调用，返回首个回复内容
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

// observe 上报一次模型调用的耗时
func (c *Client) observe(task string, start time.Time) {
	if c.OnRequest != nil {
		c.OnRequest(task, time.Since(start))
	}
}

// fallback 记录降级并回调指标钩子
func (c *Client) fallback(task string, err error) {
	c.log.Warn("AI call degraded to default result",
		zap.String("task", task),
		zap.Error(err),
	)
	if c.OnDefault != nil {
		c.OnDefault(task)
	}
}

// stripFences 去掉模型偶尔包裹的 Markdown 代码块标记
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// clampConfidence 将置信度限制在 [0,1]
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ========== 分析任务 ==========

// AnalyzeSentiment 分析邮件情感。失败时返回中性默认值。
func (c *Client) AnalyzeSentiment(ctx context.Context, subject, body string) SentimentResult {
	if c.apiKey == "" {
		c.fallback("sentiment", fmt.Errorf("api key not configured"))
		return DefaultSentiment()
	}

	start := time.Now()
	content, err := c.complete(ctx, sentimentSystemPrompt, analysisUserPrompt(subject, body))
	c.observe("sentiment", start)
	if err != nil {
		c.fallback("sentiment", err)
		return DefaultSentiment()
	}

	var parsed struct {
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		c.fallback("sentiment", fmt.Errorf("unparseable model output: %w", err))
		return DefaultSentiment()
	}

	sentiment := strings.ToLower(strings.TrimSpace(parsed.Sentiment))
	if !domain.ValidSentiment(sentiment) {
		c.fallback("sentiment", fmt.Errorf("unexpected sentiment value: %q", parsed.Sentiment))
		return DefaultSentiment()
	}
	return SentimentResult{
		Sentiment:  domain.Sentiment(sentiment),
		Confidence: clampConfidence(parsed.Confidence),
	}
}

// DeterminePriority 判定邮件优先级。失败时返回普通优先级默认值。
func (c *Client) DeterminePriority(ctx context.Context, subject, body string) PriorityResult {
	if c.apiKey == "" {
		c.fallback("priority", fmt.Errorf("api key not configured"))
		return DefaultPriority()
	}

	start := time.Now()
	content, err := c.complete(ctx, prioritySystemPrompt, analysisUserPrompt(subject, body))
	c.observe("priority", start)
	if err != nil {
		c.fallback("priority", err)
		return DefaultPriority()
	}

	var parsed struct {
		Priority   string  `json:"priority"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		c.fallback("priority", fmt.Errorf("unparseable model output: %w", err))
		return DefaultPriority()
	}

	priority := strings.ToLower(strings.TrimSpace(parsed.Priority))
	if !domain.ValidPriority(priority) {
		c.fallback("priority", fmt.Errorf("unexpected priority value: %q", parsed.Priority))
		return DefaultPriority()
	}
	return PriorityResult{
		Priority:   domain.Priority(priority),
		Confidence: clampConfidence(parsed.Confidence),
	}
}

// ExtractInformation 抽取邮件关键信息。失败时仅保留主题作为问题概要。
func (c *Client) ExtractInformation(ctx context.Context, subject, body string) domain.ExtractedInfo {
	if c.apiKey == "" {
		c.fallback("extraction", fmt.Errorf("api key not configured"))
		return DefaultExtraction(subject)
	}

	start := time.Now()
	content, err := c.complete(ctx, extractionSystemPrompt, analysisUserPrompt(subject, body))
	c.observe("extraction", start)
	if err != nil {
		c.fallback("extraction", err)
		return DefaultExtraction(subject)
	}

	var info domain.ExtractedInfo
	if err := json.Unmarshal([]byte(stripFences(content)), &info); err != nil {
		c.fallback("extraction", fmt.Errorf("unparseable model output: %w", err))
		return DefaultExtraction(subject)
	}
	// JSON 字面量 null 解析成功但得到 nil map，同样视为解析失败
	if info == nil {
		c.fallback("extraction", fmt.Errorf("model returned null extraction"))
		return DefaultExtraction(subject)
	}
	if info.StringField(domain.InfoIssueSummary) == "" {
		info[domain.InfoIssueSummary] = subject
	}
	return info
}

// GenerateResponse 生成回复草稿。失败时返回固定格式的兜底回复。
func (c *Client) GenerateResponse(ctx context.Context, email *domain.Email) ResponseResult {
	var sentiment domain.Sentiment
	if email.Sentiment != nil {
		sentiment = *email.Sentiment
	}
	var priority domain.Priority
	if email.Priority != nil {
		priority = *email.Priority
	}
	tone := ToneFor(sentiment, priority)

	if c.apiKey == "" {
		c.fallback("response", fmt.Errorf("api key not configured"))
		return ResponseResult{Text: cannedResponse(email), Confidence: 0.3, Tone: tone}
	}

	start := time.Now()
	content, err := c.complete(ctx, responseSystemPrompt, responseUserPrompt(email, tone))
	c.observe("response", start)
	if err != nil {
		c.fallback("response", err)
		return ResponseResult{Text: cannedResponse(email), Confidence: 0.3, Tone: tone}
	}

	var parsed struct {
		Response   string  `json:"response"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil || strings.TrimSpace(parsed.Response) == "" {
		c.fallback("response", fmt.Errorf("unparseable model output"))
		return ResponseResult{Text: cannedResponse(email), Confidence: 0.3, Tone: tone}
	}

	return ResponseResult{
		Text:       parsed.Response,
		Confidence: clampConfidence(parsed.Confidence),
		Tone:       tone,
	}
}
