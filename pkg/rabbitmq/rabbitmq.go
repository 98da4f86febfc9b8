// Package rabbitmq 封装 topic 交换机上的 JSON 消息发布与消费
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
)

const exchangeKind = "topic"

func dial(cfg *config.AMQPConfig) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return conn, ch, nil
}

// Publisher 消息发布者；amqp.Channel 非并发安全，发布时加锁
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewPublisher 连接 RabbitMQ 并声明交换机
func NewPublisher(cfg *config.AMQPConfig, logger *zap.Logger) (*Publisher, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: cfg.Exchange, logger: logger}, nil
}

// Publish 以 JSON 发布持久化消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Debug("消息已发布", zap.String("exchange", p.exchange), zap.String("routing_key", routingKey))
	return nil
}

// Close 关闭连接
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Consumer 队列消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
}

// NewConsumer 声明持久化队列并绑定 bindingKey
func NewConsumer(cfg *config.AMQPConfig, bindingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, bindingKey, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	if err := ch.Qos(8, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, queue: q.Name, logger: logger}, nil
}

// Handler 处理一条消息；返回错误时消息被拒绝且不重新入队
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Run 消费直到 ctx 结束或通道关闭，手动 ack
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}
	c.logger.Info("开始消费队列", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq 消费通道已关闭")
			}
			if err := handle(ctx, d.RoutingKey, d.Body); err != nil {
				c.logger.Error("消息处理失败", zap.String("routing_key", d.RoutingKey), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Close 关闭连接
func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
