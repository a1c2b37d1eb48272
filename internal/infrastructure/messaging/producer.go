// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parithera-api/internal/config"
	"parithera-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer AMQP 消息生产者
type Producer struct {
	cfg *config.AMQPConfig

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewProducer 创建消息生产者并建立连接
func NewProducer(cfg *config.AMQPConfig) (*Producer, error) {
	p := &Producer{cfg: cfg}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect 建立连接与通道，并声明调度队列。调用方需持有锁或在构造期调用。
func (p *Producer) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		string(QueueDispatcherPython),
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// HealthCheck 检查 AMQP 连接是否可用
func (p *Producer) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("amqp connection closed")
	}
	return nil
}

// Close 关闭连接
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Publish 发布消息到指定队列
func (p *Producer) Publish(ctx context.Context, queue Queue, body interface{}) error {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(attribute.String("queue", string(queue))))
	defer span.End()

	data, err := json.Marshal(body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// 连接断开时重连一次
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			metrics.QueuePublishTotal.WithLabelValues(string(queue), "error").Inc()
			span.RecordError(err)
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx,
		"",            // exchange
		string(queue), // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         data,
		},
	)
	if err != nil {
		metrics.QueuePublishTotal.WithLabelValues(string(queue), "error").Inc()
		span.RecordError(err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.QueuePublishTotal.WithLabelValues(string(queue), "ok").Inc()
	return nil
}

// PublishDispatch 发布分析调度消息
func (p *Producer) PublishDispatch(ctx context.Context, msg *DispatcherPluginMessage) error {
	ctx, span := tracer.Start(ctx, "producer.PublishDispatch",
		trace.WithAttributes(
			attribute.String("analysis_id", msg.AnalysisID),
			attribute.String("project_id", msg.ProjectID),
		))
	defer span.End()

	queue := Queue(p.cfg.DispatcherQueue)
	if queue == "" {
		queue = QueueDispatcherPython
	}
	return p.Publish(ctx, queue, msg)
}
