package ai

import (
	"fmt"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

// 各分析任务的系统提示词。全部要求模型仅输出 JSON，便于解析。
const (
	sentimentSystemPrompt = `You are a customer support email analyst. Classify the sentiment of the email.
Respond with JSON only, no other text: {"sentiment": "positive"|"neutral"|"negative", "confidence": 0.0-1.0}`

	prioritySystemPrompt = `You are a customer support email analyst. Decide whether the email needs urgent handling.
An email is urgent when the customer is blocked, losing money, mentions deadlines, or threatens to churn.
Respond with JSON only, no other text: {"priority": "urgent"|"normal", "confidence": 0.0-1.0}`

	extractionSystemPrompt = `You are a customer support email analyst. Extract key information from the email.
Respond with JSON only, no other text:
{"contactDetails": string, "productMentions": [string], "issueSummary": string, "urgencyIndicators": [string], "customerRequirements": string, "category": string}
Use a short category label such as "Billing", "Technical Support", "Feedback" or "General".`

	responseSystemPrompt = `You are a senior customer support agent drafting a reply to a customer email.
Write a complete, ready-to-send reply. Do not invent order numbers or commitments you cannot verify.
Respond with JSON only, no other text: {"response": string, "confidence": 0.0-1.0}`
)

// analysisUserPrompt 组装情感/优先级/抽取任务的用户消息
func analysisUserPrompt(subject, body string) string {
	return fmt.Sprintf("Subject: %s\n\nBody:\n%s", subject, body)
}

// responseUserPrompt 组装回复生成的用户消息，带入已知分类与期望语气
func responseUserPrompt(email *domain.Email, tone domain.ResponseTone) string {
	priority := "unknown"
	if email.Priority != nil {
		priority = string(*email.Priority)
	}
	sentiment := "unknown"
	if email.Sentiment != nil {
		sentiment = string(*email.Sentiment)
	}
	return fmt.Sprintf(
		"Customer: %s <%s>\nPriority: %s\nSentiment: %s\nDesired tone: %s\n\nSubject: %s\n\nBody:\n%s",
		email.Sender, email.SenderEmail, priority, sentiment, tone, email.Subject, email.Body,
	)
}

// cannedResponse AI 不可用时的兜底回复文本
func cannedResponse(email *domain.Email) string {
	name := email.Sender
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"Hi %s,\n\nThank you for reaching out about \"%s\". We have received your message and a member of our support team is reviewing it now. We will get back to you with a full answer as soon as possible.\n\nBest regards,\nCustomer Support Team",
		name, email.Subject,
	)
}
