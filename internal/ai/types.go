package ai

import "github.com/prince62058/Unstop-Challange/internal/domain"

// SentimentResult 情感分析结果
type SentimentResult struct {
	Sentiment  domain.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
}

// PriorityResult 优先级判定结果
type PriorityResult struct {
	Priority   domain.Priority `json:"priority"`
	Confidence float64         `json:"confidence"`
}

// ResponseResult 回复草稿生成结果
type ResponseResult struct {
	Text       string              `json:"text"`
	Confidence float64             `json:"confidence"`
	Tone       domain.ResponseTone `json:"tone"`
}

// DefaultSentiment AI 不可用时的保守情感结果
func DefaultSentiment() SentimentResult {
	return SentimentResult{Sentiment: domain.SentimentNeutral, Confidence: 0.5}
}

// DefaultPriority AI 不可用时的保守优先级结果
func DefaultPriority() PriorityResult {
	return PriorityResult{Priority: domain.PriorityNormal, Confidence: 0.5}
}

// DefaultExtraction AI 不可用时的最小抽取结果
func DefaultExtraction(subject string) domain.ExtractedInfo {
	return domain.ExtractedInfo{domain.InfoIssueSummary: subject}
}

// ToneFor 根据情感与优先级选定回复语气。
// 负面情绪优先安抚；紧急但非负面用紧急确认语气；其余保持专业。
func ToneFor(sentiment domain.Sentiment, priority domain.Priority) domain.ResponseTone {
	if sentiment == domain.SentimentNegative {
		return domain.ToneEmpathetic
	}
	if priority == domain.PriorityUrgent {
		return domain.ToneUrgentReassure
	}
	return domain.ToneProfessional
}
