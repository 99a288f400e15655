package domain

import (
	"context"
	"time"
)

// SimulationSnapshot 一次模拟运行的持久化快照，按运行指纹识别重复输入。
type SimulationSnapshot struct {
	RunID       string             `json:"run_id"`
	DecisionID  string             `json:"decision_id"`
	Fingerprint string             `json:"fingerprint"`
	Seed        int64              `json:"seed"`
	Runs        int                `json:"runs"`
	Results     []SimulationResult `json:"results"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SnapshotRepository 快照仓储接口，由基础设施层实现。
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *SimulationSnapshot) error
	// GetByRunID 未找到时返回 (nil, nil)
	GetByRunID(ctx context.Context, runID string) (*SimulationSnapshot, error)
	// GetByFingerprint 返回该决策下同一指纹的最近一次快照，未找到时返回 (nil, nil)
	GetByFingerprint(ctx context.Context, decisionID, fingerprint string) (*SimulationSnapshot, error)
	ListByDecision(ctx context.Context, decisionID string) ([]*SimulationSnapshot, error)
}

// EventPublisher 领域事件发布接口。
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, payload any) error
}
