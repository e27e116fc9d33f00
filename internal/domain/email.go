package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Priority 邮件优先级
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
)

// Sentiment 邮件情感倾向
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// EmailStatus 邮件处理状态
type EmailStatus string

const (
	StatusPending   EmailStatus = "pending"   // 已入库，等待 AI 分析
	StatusProcessed EmailStatus = "processed" // 分析完成
	StatusFailed    EmailStatus = "failed"    // 分析结果持久化失败
)

// ValidPriority 判断优先级取值是否合法
func ValidPriority(p string) bool {
	return p == string(PriorityUrgent) || p == string(PriorityNormal)
}

// ValidSentiment 判断情感取值是否合法
func ValidSentiment(s string) bool {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// ExtractedInfo 表示 AI 从邮件中抽取的关键信息，按 JSON 对象整体存储。
type ExtractedInfo map[string]interface{}

// 抽取结果的约定字段名
const (
	InfoContactDetails       = "contactDetails"
	InfoProductMentions      = "productMentions"
	InfoIssueSummary         = "issueSummary"
	InfoUrgencyIndicators    = "urgencyIndicators"
	InfoCustomerRequirements = "customerRequirements"
)

// Value 实现 driver.Valuer，序列化为 JSON 存入单列
func (e ExtractedInfo) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

// Scan 实现 sql.Scanner
func (e *ExtractedInfo) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ExtractedInfo: %T", value)
	}
	return json.Unmarshal(data, e)
}

// StringField 读取字符串字段，不存在时返回空串
func (e ExtractedInfo) StringField(key string) string {
	if e == nil {
		return ""
	}
	if s, ok := e[key].(string); ok {
		return s
	}
	return ""
}

// ListField 读取字符串列表字段
func (e ExtractedInfo) ListField(key string) []string {
	if e == nil {
		return nil
	}
	raw, ok := e[key].([]interface{})
	if !ok {
		return nil
	}
	items := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			items = append(items, s)
		}
	}
	return items
}

// Email 表示一封待分流的客服邮件
type Email struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Sender      string    `json:"sender" gorm:"type:varchar(255)"`
	SenderEmail string    `json:"senderEmail" gorm:"type:varchar(255);index;not null"`
	Subject     string    `json:"subject" gorm:"type:varchar(500)"`
	Body        string    `json:"body" gorm:"type:text"`
	ReceivedAt  time.Time `json:"receivedAt" gorm:"index"`
	// AI 分析结果，处理完成前为空
	Priority      *Priority     `json:"priority" gorm:"type:varchar(20);index"`
	Sentiment     *Sentiment    `json:"sentiment" gorm:"type:varchar(20);index"`
	Category      *string       `json:"category" gorm:"type:varchar(100);index"`
	ExtractedInfo ExtractedInfo `json:"extractedInfo" gorm:"type:jsonb"`
	Status        EmailStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsUrgent 判断邮件是否为紧急优先级
func (e *Email) IsUrgent() bool {
	return e.Priority != nil && *e.Priority == PriorityUrgent
}

// EmailUpdate 部分更新载荷，nil 字段保持原值
type EmailUpdate struct {
	Priority      *Priority
	Sentiment     *Sentiment
	Category      *string
	ExtractedInfo ExtractedInfo
	Status        *EmailStatus
}

// EmailFilter 邮件列表查询条件
type EmailFilter struct {
	Query     string // 主题/正文/发件人模糊搜索，大小写不敏感
	Priority  string
	Sentiment string
	Limit     int
	Offset    int
}

// EmailWithResponse 邮件及其最新回复的组合视图
type EmailWithResponse struct {
	Email    Email          `json:"email"`
	Response *EmailResponse `json:"response,omitempty"`
}
