// Package publisher 提供领域事件发布的基础设施实现。
package publisher

import (
	"context"
	"time"

	"github.com/wyfcoding/decisionsim/pkg/mq"
)

// eventEnvelope 事件信封，统一携带事件类型与时间戳
type eventEnvelope struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// KafkaEventPublisher 基于 Kafka 的事件发布器
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// Publish 发布事件到统一主题，key 用于分区内有序
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType string, key string, payload any) error {
	return p.producer.SendMessage(ctx, p.topic, key, eventEnvelope{
		EventType: eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
