package domain

import "time"

// ResponseTone 回复语气
type ResponseTone string

const (
	ToneEmpathetic     ResponseTone = "empathetic"        // 负面情绪客户
	ToneUrgentReassure ResponseTone = "urgent-reassuring" // 紧急但非负面
	ToneProfessional   ResponseTone = "professional"
)

// EmailResponse 表示 AI 生成的回复草稿及其发送状态
type EmailResponse struct {
	ID                string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EmailID           string       `json:"emailId" gorm:"type:varchar(36);index;not null"`
	GeneratedResponse string       `json:"generatedResponse" gorm:"type:text"`
	FinalResponse     *string      `json:"finalResponse" gorm:"type:text"`
	Confidence        int          `json:"confidence"` // 0-100
	Tone              ResponseTone `json:"tone" gorm:"type:varchar(30)"`
	IsEdited          bool         `json:"isEdited" gorm:"default:false"`
	SentAt            *time.Time   `json:"sentAt"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// IsSent 判断回复是否已发送
func (r *EmailResponse) IsSent() bool {
	return r.SentAt != nil
}

// EmailResponseUpdate 回复的部分更新载荷
type EmailResponseUpdate struct {
	FinalResponse *string
	IsEdited      *bool
	SentAt        *time.Time
}
