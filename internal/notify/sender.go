package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/pkg/mailer"
)

// RoutingKeyEmail 邮件任务的路由键，cmd/mailer 以此绑定队列
const RoutingKeyEmail = "notification.email"

// Sender 邮件投递通道
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// LogSender 仅打印日志，未配置 SMTP 与队列时使用
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender 创建 LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg mailer.Message) error {
	s.logger.Info("邮件（未发送）",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_len", len(msg.Body)),
	)
	return nil
}

// Publisher 消息发布接口，由 rabbitmq.Publisher 实现
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// EmailJob 投递到队列中的邮件任务
type EmailJob struct {
	Message mailer.Message `json:"message"`
}

// QueueSender 将邮件作为任务发布到 RabbitMQ，由 cmd/mailer 异步发送
type QueueSender struct {
	publisher Publisher
}

// NewQueueSender 创建 QueueSender
func NewQueueSender(p Publisher) *QueueSender {
	return &QueueSender{publisher: p}
}

func (s *QueueSender) Send(ctx context.Context, msg mailer.Message) error {
	return s.publisher.Publish(ctx, RoutingKeyEmail, EmailJob{Message: msg})
}
