package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
)

var ErrUnknownMailType = errors.New("不支持的邮件类型")

// Dial 连接 RabbitMQ，建立通道并声明邮件队列和排座队列
// 调用方负责关闭返回的连接和通道
func Dial(cfg *config.Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := Declare(ch, cfg.RabbitMQ.MailQueue, cfg.RabbitMQ.SeatingQueue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, ch, nil
}

// Declare 声明持久化的队列，api、worker 和 mail 启动时都会调用，以免因启动顺序不同而丢消息
func Declare(ch *amqp.Channel, names ...string) error {
	for _, name := range names {
		_, err := ch.QueueDeclare(
			name,  // 队列名称
			true,  // 是否持久化
			false, // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
			false, // 是否独占，即是否允许多个消费者访问这个队列
			false, // 是否不等待，设置为 false，即等待 RabbitMQ 确认队列是否创建成功
			nil,   // 额外参数
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Consume 以手动确认的方式消费队列，prefetch 大于 0 时限制未确认消息的数量
func Consume(ch *amqp.Channel, name string, prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return nil, err
		}
	}

	return ch.Consume(
		name,  // 队列
		"",    // 消费者标识，由 RabbitMQ 自动分配
		false, // 手动确认
		false, // 是否独占队列
		false, // RabbitMQ 不支持 noLocal
		false, // 等待 RabbitMQ 响应
		nil,   // 额外参数
	)
}

// Publisher 将消息序列化为 JSON 后投递到默认交换机
type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
