package ingest

import (
	"context"
	"io"
	"net"
	"strings"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/config"
	"github.com/prince62058/Unstop-Challange/internal/service"
)

const maxMessageBytes = 10 * 1024 * 1024 // 10MB

// Backend 实现 go-smtp 的 Backend 接口，把收到的邮件交给处理管线。
//
// 这是一个只接收邮件的 SMTP 入口：
// - 只接收发往配置域名的邮件（AllowedDomains 为空时接收全部）
// - 不支持对外发送邮件，不会成为开放中继
type Backend struct {
	pipeline *service.PipelineService
	limiter  *IPLimiter
	allowed  []string
	logger   *zap.Logger

	// OnIngest 在每封邮件入库后调用，用于接入监控指标
	OnIngest func()
}

// NewBackend 创建 SMTP Backend。
func NewBackend(cfg *config.IngestConfig, pipeline *service.PipelineService, logger *zap.Logger) *Backend {
	return &Backend{
		pipeline: pipeline,
		limiter:  NewIPLimiter(cfg.RatePerMinute),
		allowed:  cfg.AllowedDomains,
		logger:   logger,
	}
}

// NewSession 创建新的 SMTP 会话。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	ip := remoteIP(c)
	if !b.limiter.Allow(ip) {
		b.logger.Warn("smtp connection rate limited", zap.String("ip", ip))
		return nil, &gosmtp.SMTPError{
			Code:         421,
			EnhancedCode: gosmtp.EnhancedCode{4, 7, 0},
			Message:      "too many connections, try again later",
		}
	}
	return &session{backend: b}, nil
}

// NewServer 创建配置好的 SMTP 服务器。
func NewServer(cfg *config.IngestConfig, backend *Backend) *gosmtp.Server {
	srv := gosmtp.NewServer(backend)
	srv.Addr = cfg.BindAddr
	srv.Domain = cfg.Domain
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.MaxMessageBytes = maxMessageBytes
	srv.MaxRecipients = 10
	return srv
}

type session struct {
	backend     *Backend
	fromAddress string
	accepted    bool
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.fromAddress = normalizeAddress(from)
	return nil
}

// Rcpt 处理 RCPT 命令。
//
// 只接受发往配置域名的邮件，其余一律返回 550，
// 避免服务器被当作垃圾邮件中继。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeAddress(to)

	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return &gosmtp.SMTPError{
			Code:         501,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
			Message:      "invalid recipient address",
		}
	}

	if len(s.backend.allowed) > 0 {
		allowed := false
		for _, d := range s.backend.allowed {
			if strings.EqualFold(d, parts[1]) {
				allowed = true
				break
			}
		}
		if !allowed {
			return &gosmtp.SMTPError{
				Code:         550,
				EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
				Message:      "relay access denied - domain not managed by this server",
			}
		}
	}

	s.accepted = true
	return nil
}

// Data 处理邮件内容，解析后交给处理管线。
// 没有任何收件人通过 Rcpt 校验时拒绝内容。
func (s *session) Data(r io.Reader) error {
	if !s.accepted {
		return &gosmtp.SMTPError{
			Code:         554,
			EnhancedCode: gosmtp.EnhancedCode{5, 5, 1},
			Message:      "no valid recipients",
		}
	}

	rawBytes, err := io.ReadAll(io.LimitReader(r, maxMessageBytes))
	if err != nil {
		return err
	}

	parsed, err := ParseEmail(rawBytes)
	if err != nil {
		s.backend.logger.Warn("failed to parse incoming mail",
			zap.String("from", s.fromAddress),
			zap.Error(err),
		)
		return &gosmtp.SMTPError{
			Code:         554,
			EnhancedCode: gosmtp.EnhancedCode{5, 6, 0},
			Message:      "message could not be parsed",
		}
	}

	senderEmail := parsed.FromAddr
	if senderEmail == "" {
		senderEmail = s.fromAddress
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	email, err := s.backend.pipeline.IngestEmail(ctx, service.CreateEmailInput{
		Sender:      parsed.FromName,
		SenderEmail: senderEmail,
		Subject:     parsed.Subject,
		Body:        strings.TrimSpace(parsed.Text),
		ReceivedAt:  time.Now().UTC(),
	})
	if err != nil {
		s.backend.logger.Warn("failed to ingest incoming mail",
			zap.String("from", senderEmail),
			zap.Error(err),
		)
		return &gosmtp.SMTPError{
			Code:         554,
			EnhancedCode: gosmtp.EnhancedCode{5, 6, 0},
			Message:      "message rejected",
		}
	}

	s.backend.logger.Info("mail ingested",
		zap.String("email_id", email.ID),
		zap.String("from", senderEmail),
	)

	if s.backend.OnIngest != nil {
		s.backend.OnIngest()
	}

	return nil
}

// Reset 重置状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.accepted = false
}

// Logout 会话结束。
func (s *session) Logout() error {
	return nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}

func remoteIP(c *gosmtp.Conn) string {
	if c == nil || c.Conn() == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(c.Conn().RemoteAddr().String())
	if err != nil {
		return c.Conn().RemoteAddr().String()
	}
	return host
}
