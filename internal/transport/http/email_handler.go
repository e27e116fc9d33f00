package httptransport

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prince62058/Unstop-Challange/internal/domain"
	"github.com/prince62058/Unstop-Challange/internal/service"
	"github.com/prince62058/Unstop-Challange/internal/storage"
)

// EmailHandler 处理邮件相关端点
type EmailHandler struct {
	pipeline *service.PipelineService
}

// NewEmailHandler 创建邮件处理器
func NewEmailHandler(pipeline *service.PipelineService) *EmailHandler {
	return &EmailHandler{pipeline: pipeline}
}

type createEmailRequest struct {
	Sender      string `json:"sender"`
	SenderEmail string `json:"senderEmail"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	ReceivedAt  string `json:"receivedAt"`
}

type emailResponse struct {
	ID            string               `json:"id"`
	Sender        string               `json:"sender"`
	SenderEmail   string               `json:"senderEmail"`
	Subject       string               `json:"subject"`
	Body          string               `json:"body"`
	ReceivedAt    time.Time            `json:"receivedAt"`
	Priority      *string              `json:"priority"`
	Sentiment     *string              `json:"sentiment"`
	Category      *string              `json:"category"`
	ExtractedInfo domain.ExtractedInfo `json:"extractedInfo,omitempty"`
	Status        string               `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type emailListResponse struct {
	Items []emailResponse `json:"items"`
	Count int             `json:"count"`
}

type responseBody struct {
	ID                string     `json:"id"`
	EmailID           string     `json:"emailId"`
	GeneratedResponse string     `json:"generatedResponse"`
	FinalResponse     *string    `json:"finalResponse"`
	Confidence        int        `json:"confidence"`
	Tone              string     `json:"tone"`
	IsEdited          bool       `json:"isEdited"`
	SentAt            *time.Time `json:"sentAt"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type emailWithResponseBody struct {
	Email    emailResponse `json:"email"`
	Response *responseBody `json:"response,omitempty"`
}

type sendResponseRequest struct {
	FinalResponse string `json:"finalResponse"`
}

// createEmail godoc
// @Summary 接收新邮件
// @Description 接收一封客服邮件并同步完成 AI 分类
// @Tags Emails
// @Accept json
// @Produce json
// @Param request body createEmailRequest true "邮件内容"
// @Success 201 {object} Response{data=emailResponse}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /api/emails [post]
func (h *EmailHandler) createEmail(c *gin.Context) {
	var req createEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	var receivedAt time.Time
	if req.ReceivedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ReceivedAt)
		if err != nil {
			BadRequest(c, "接收时间格式无效，请使用 RFC3339 格式")
			return
		}
		receivedAt = t
	}

	email, err := h.pipeline.IngestEmail(c.Request.Context(), service.CreateEmailInput{
		Sender:      req.Sender,
		SenderEmail: req.SenderEmail,
		Subject:     req.Subject,
		Body:        req.Body,
		ReceivedAt:  receivedAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSenderEmailRequired),
			errors.Is(err, domain.ErrInvalidSenderEmail),
			errors.Is(err, domain.ErrEmailContentEmpty):
			BadRequest(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgEmailCreateFailed)
		}
		return
	}

	Created(c, toEmailResponse(email))
}

// listEmails godoc
// @Summary 获取邮件列表
// @Description 按条件筛选邮件，按接收时间倒序返回
// @Tags Emails
// @Produce json
// @Param q query string false "主题/正文/发件人模糊搜索"
// @Param priority query string false "优先级筛选（urgent/normal）"
// @Param sentiment query string false "情感筛选（positive/neutral/negative）"
// @Param limit query int false "每页数量（默认50，最大200）"
// @Param offset query int false "偏移量"
// @Success 200 {object} Response{data=emailListResponse}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /api/emails [get]
func (h *EmailHandler) listEmails(c *gin.Context) {
	var input struct {
		Query     string `form:"q"`
		QueryAlt  string `form:"query"`
		Priority  string `form:"priority"`
		Sentiment string `form:"sentiment"`
		Limit     int    `form:"limit"`
		Offset    int    `form:"offset"`
	}

	if err := c.ShouldBindQuery(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	query := input.Query
	if query == "" {
		query = input.QueryAlt
	}

	emails, err := h.pipeline.ListEmails(domain.EmailFilter{
		Query:     query,
		Priority:  input.Priority,
		Sentiment: input.Sentiment,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPriority), errors.Is(err, domain.ErrInvalidSentiment):
			BadRequest(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgEmailListFailed)
		}
		return
	}

	items := make([]emailResponse, 0, len(emails))
	for i := range emails {
		items = append(items, toEmailResponse(&emails[i]))
	}

	Success(c, emailListResponse{
		Items: items,
		Count: len(items),
	})
}

// listEmailsWithResponses godoc
// @Summary 获取邮件及回复的组合视图
// @Description 返回邮件及其最新回复，紧急邮件排在最前
// @Tags Emails
// @Produce json
// @Param limit query int false "每页数量（默认50，最大200）"
// @Param offset query int false "偏移量"
// @Success 200 {object} Response{data=[]emailWithResponseBody}
// @Failure 500 {object} Response
// @Router /api/emails/with-responses [get]
func (h *EmailHandler) listEmailsWithResponses(c *gin.Context) {
	var input struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	items, err := h.pipeline.GetEmailsWithResponses(input.Limit, input.Offset)
	if err != nil {
		InternalError(c, MsgEmailListFailed)
		return
	}

	result := make([]emailWithResponseBody, 0, len(items))
	for i := range items {
		entry := emailWithResponseBody{
			Email: toEmailResponse(&items[i].Email),
		}
		if items[i].Response != nil {
			body := toResponseBody(items[i].Response)
			entry.Response = &body
		}
		result = append(result, entry)
	}

	Success(c, result)
}

// getEmail godoc
// @Summary 获取邮件详情
// @Description 查看单封邮件及其分析结果
// @Tags Emails
// @Produce json
// @Param id path string true "邮件ID"
// @Success 200 {object} Response{data=emailResponse}
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/emails/{id} [get]
func (h *EmailHandler) getEmail(c *gin.Context) {
	email, err := h.pipeline.GetEmail(c.Param("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			NotFound(c, MsgEmailNotFound)
			return
		}
		InternalError(c, MsgEmailGetFailed)
		return
	}

	Success(c, toEmailResponse(email))
}

// generateResponse godoc
// @Summary 生成回复草稿
// @Description 为邮件生成 AI 回复草稿，已有草稿时返回最新一份
// @Tags Responses
// @Produce json
// @Param id path string true "邮件ID"
// @Success 200 {object} Response{data=responseBody}
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/emails/{id}/generate-response [post]
func (h *EmailHandler) generateResponse(c *gin.Context) {
	response, err := h.pipeline.GenerateResponseForEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			NotFound(c, MsgEmailNotFound)
			return
		}
		InternalError(c, MsgResponseGenerateFailed)
		return
	}

	Success(c, toResponseBody(response))
}

// sendResponse godoc
// @Summary 发送回复
// @Description 记录最终回复文本与发送时间
// @Tags Responses
// @Accept json
// @Produce json
// @Param id path string true "邮件ID"
// @Param request body sendResponseRequest true "最终回复文本"
// @Success 200 {object} Response{data=responseBody}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /api/emails/{id}/send-response [post]
func (h *EmailHandler) sendResponse(c *gin.Context) {
	var req sendResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	sent, err := h.pipeline.SendResponse(c.Request.Context(), c.Param("id"), req.FinalResponse)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFinalResponseEmpty):
			BadRequest(c, GetErrorMessage(err))
		case errors.Is(err, storage.ErrResponseNotFound):
			NotFound(c, MsgResponseNotFound)
		case storage.IsNotFound(err):
			NotFound(c, MsgEmailNotFound)
		default:
			InternalError(c, MsgResponseSendFailed)
		}
		return
	}

	Success(c, toResponseBody(sent))
}

// toEmailResponse 转换邮件实体为响应体。
func toEmailResponse(email *domain.Email) emailResponse {
	resp := emailResponse{
		ID:            email.ID,
		Sender:        email.Sender,
		SenderEmail:   email.SenderEmail,
		Subject:       email.Subject,
		Body:          email.Body,
		ReceivedAt:    email.ReceivedAt,
		Category:      email.Category,
		ExtractedInfo: email.ExtractedInfo,
		Status:        string(email.Status),
		CreatedAt:     email.CreatedAt,
		UpdatedAt:     email.UpdatedAt,
	}
	if email.Priority != nil {
		p := string(*email.Priority)
		resp.Priority = &p
	}
	if email.Sentiment != nil {
		s := string(*email.Sentiment)
		resp.Sentiment = &s
	}
	return resp
}

// toResponseBody 转换回复实体为响应体。
func toResponseBody(response *domain.EmailResponse) responseBody {
	return responseBody{
		ID:                response.ID,
		EmailID:           response.EmailID,
		GeneratedResponse: response.GeneratedResponse,
		FinalResponse:     response.FinalResponse,
		Confidence:        response.Confidence,
		Tone:              string(response.Tone),
		IsEdited:          response.IsEdited,
		SentAt:            response.SentAt,
		CreatedAt:         response.CreatedAt,
	}
}
