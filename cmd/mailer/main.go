// mailer 消费通知队列并通过 SMTP 发送邮件
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/notify"
	applogger "github.com/shyamsasidharan1/eventbuddy/pkg/logger"
	"github.com/shyamsasidharan1/eventbuddy/pkg/mailer"
	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
	"github.com/shyamsasidharan1/eventbuddy/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "mailer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.AMQP.Enabled {
		logger.Fatal("amqp.enabled 未开启，mailer 无队列可消费")
	}
	if !cfg.Mail.Enabled() {
		logger.Fatal("未配置 mail.smtp_host")
	}

	consumer, err := rabbitmq.NewConsumer(&cfg.AMQP, notify.RoutingKeyEmail, logger)
	if err != nil {
		logger.Fatal("RabbitMQ 连接失败", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	smtp := mailer.NewSMTPMailer(&cfg.Mail)
	handle := func(ctx context.Context, _ string, body []byte) error {
		var job notify.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("解析邮件任务失败: %w", err)
		}
		err := smtp.Send(ctx, job.Message)
		metrics.ObserveNotification("smtp", err)
		if err == nil {
			logger.Info("邮件已发送", zap.String("to", job.Message.To), zap.String("subject", job.Message.Subject))
		}
		return err
	}

	if err := consumer.Run(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("队列消费异常退出", zap.Error(err))
		return
	}
	logger.Info("mailer 已停止")
}
