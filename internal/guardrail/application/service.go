// Package application 护栏上下文的应用层。
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/decisionsim/internal/guardrail/domain"
	"github.com/wyfcoding/decisionsim/pkg/logger"
)

// 每次校准最多回看的观测条数
const adjustWindowSize = 200

// GuardrailService 护栏管理与自动校准
type GuardrailService struct {
	repo domain.Repository
}

// NewGuardrailService 创建护栏服务
func NewGuardrailService(repo domain.Repository) *GuardrailService {
	return &GuardrailService{repo: repo}
}

// CreateGuardrail 创建或更新护栏
func (s *GuardrailService) CreateGuardrail(ctx context.Context, g domain.Guardrail) (*domain.Guardrail, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.UpdatedAt = time.Now()
	if err := s.repo.SaveGuardrail(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGuardrail 查询护栏
func (s *GuardrailService) GetGuardrail(ctx context.Context, id string) (*domain.Guardrail, error) {
	g, err := s.repo.GetGuardrail(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrGuardrailNotFound, id)
	}
	return g, nil
}

// RecordOutcome 记录一次实际观测
func (s *GuardrailService) RecordOutcome(ctx context.Context, record domain.OutcomeRecord) error {
	g, err := s.repo.GetGuardrail(ctx, record.GuardrailID)
	if err != nil {
		return err
	}
	if g == nil {
		return fmt.Errorf("%w: %s", domain.ErrGuardrailNotFound, record.GuardrailID)
	}

	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}
	if err := s.repo.AppendOutcome(ctx, &record); err != nil {
		return err
	}

	deviation := record.Deviation()
	if g.Threshold > 0 && (deviation > g.Threshold || deviation < -g.Threshold) {
		logger.Warn(ctx, "Guardrail breached",
			"guardrail_id", g.ID,
			"decision_id", g.DecisionID,
			"deviation", deviation,
			"threshold", g.Threshold,
		)
	}
	return nil
}

// AdjustGuardrail 根据最近观测校准阈值并持久化
func (s *GuardrailService) AdjustGuardrail(ctx context.Context, id string) (*domain.Adjustment, error) {
	g, err := s.GetGuardrail(ctx, id)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListOutcomes(ctx, id, adjustWindowSize)
	if err != nil {
		return nil, err
	}

	adjustment, err := domain.Adjust(*g, records)
	if err != nil {
		return nil, err
	}

	g.Threshold = adjustment.NewThreshold
	g.UpdatedAt = time.Now()
	if err := s.repo.SaveGuardrail(ctx, g); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Guardrail threshold adjusted",
		"guardrail_id", g.ID,
		"old_threshold", adjustment.OldThreshold,
		"new_threshold", adjustment.NewThreshold,
		"sample_size", adjustment.SampleSize,
	)
	return adjustment, nil
}
