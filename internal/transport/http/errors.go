package httptransport

import (
	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 校验错误
	domain.ErrSenderEmailRequired: "发件人邮箱不能为空",
	domain.ErrInvalidSenderEmail:  "发件人邮箱格式无效",
	domain.ErrEmailContentEmpty:   "邮件主题和正文不能同时为空",
	domain.ErrInvalidPriority:     "优先级取值无效",
	domain.ErrInvalidSentiment:    "情感取值无效",
	domain.ErrFinalResponseEmpty:  "回复内容不能为空",

	// 存储错误
	storage.ErrEmailNotFound:    "邮件不存在",
	storage.ErrResponseNotFound: "回复不存在",
	storage.ErrUserNotFound:     "用户不存在",
	storage.ErrUserExists:       "用户名已存在",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest   = "请求参数格式错误"
	MsgRequestBodyEmpty = "请求体不能为空"

	// 邮件相关
	MsgEmailCreateFailed = "接收邮件失败"
	MsgEmailNotFound     = "邮件不存在"
	MsgEmailListFailed   = "获取邮件列表失败"
	MsgEmailGetFailed    = "获取邮件详情失败"

	// 回复相关
	MsgResponseGenerateFailed = "生成回复失败"
	MsgResponseSendFailed     = "发送回复失败"
	MsgResponseNotFound       = "回复不存在"

	// 分析相关
	MsgStatsGetFailed      = "获取统计数据失败"
	MsgSentimentGetFailed  = "获取情感分布失败"
	MsgCategoriesGetFailed = "获取分类统计失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
