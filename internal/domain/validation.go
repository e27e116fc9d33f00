package domain

import (
	"errors"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrSenderEmailRequired = errors.New("sender email is required")
	ErrInvalidSenderEmail  = errors.New("invalid sender email format")
	ErrEmailContentEmpty   = errors.New("subject and body are both empty")
	ErrInvalidPriority     = errors.New("invalid priority value")
	ErrInvalidSentiment    = errors.New("invalid sentiment value")
	ErrFinalResponseEmpty  = errors.New("final response is empty")
)

// 验证常量
const (
	MaxSubjectLength = 500
	MaxSenderLength  = 255
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateNewEmail 校验新建邮件的必填字段
func ValidateNewEmail(senderEmail, subject, body string) error {
	senderEmail = strings.TrimSpace(senderEmail)
	if senderEmail == "" {
		return ErrSenderEmailRequired
	}
	if !emailRegex.MatchString(senderEmail) {
		return ErrInvalidSenderEmail
	}
	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		return ErrEmailContentEmpty
	}
	return nil
}

// ValidateFilter 校验列表查询的枚举参数
func ValidateFilter(f EmailFilter) error {
	if f.Priority != "" && !ValidPriority(f.Priority) {
		return ErrInvalidPriority
	}
	if f.Sentiment != "" && !ValidSentiment(f.Sentiment) {
		return ErrInvalidSentiment
	}
	return nil
}
