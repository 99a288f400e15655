package publisher

import (
	"context"
	"sync"
)

// PublishedEvent 记录一次发布调用
type PublishedEvent struct {
	EventType string
	Key       string
	Payload   any
}

// MockEventPublisher 内存事件发布器，用于测试与未配置 Kafka 的部署
type MockEventPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockEventPublisher 创建内存事件发布器
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish 记录事件
func (p *MockEventPublisher) Publish(_ context.Context, eventType string, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{EventType: eventType, Key: key, Payload: payload})
	return nil
}

// Events 返回已发布事件的副本
func (p *MockEventPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}
