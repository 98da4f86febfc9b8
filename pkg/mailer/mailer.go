// Package mailer 通过 SMTP 发送纯文本邮件
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/shyamsasidharan1/eventbuddy/config"
)

// Message 一封待发送邮件
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SMTPMailer 基于 mailyak 的 SMTP 发送器
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
}

// NewSMTPMailer 根据邮件配置创建发送器；未配置用户名时不做认证
func NewSMTPMailer(cfg *config.MailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:     auth,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (m *SMTPMailer) build(msg Message) *mailyak.MailYak {
	mail := mailyak.New(m.addr, m.auth)
	mail.To(msg.To)
	mail.From(m.from)
	mail.FromName(m.fromName)
	mail.Subject(msg.Subject)
	mail.Plain().Set(msg.Body)
	return mail
}

// Send 发送邮件；mailyak 不支持 ctx，仅在发送前检查取消
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("收件人不能为空")
	}
	if err := m.build(msg).Send(); err != nil {
		return fmt.Errorf("SMTP 发送失败: %w", err)
	}
	return nil
}

// Render 生成 MIME 报文但不发送
func (m *SMTPMailer) Render(msg Message) (*bytes.Buffer, error) {
	return m.build(msg).MimeBuf()
}
