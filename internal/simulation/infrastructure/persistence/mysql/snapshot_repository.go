// Package mysql 提供快照仓储的 GORM 实现。
package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// SnapshotModel 模拟快照的数据库模型
type SnapshotModel struct {
	gorm.Model
	RunID       string `gorm:"type:varchar(64);uniqueIndex;not null"`
	DecisionID  string `gorm:"type:varchar(64);index:idx_decision_fingerprint;not null"`
	Fingerprint string `gorm:"type:varchar(64);index:idx_decision_fingerprint;not null"`
	Seed        int64  `gorm:"not null"`
	Runs        int    `gorm:"not null"`
	// Results 每个选项的指标结果，JSON 序列化存储
	Results string `gorm:"type:json;not null"`
}

// TableName 指定表名
func (SnapshotModel) TableName() string {
	return "simulation_snapshots"
}

// SnapshotRepository 快照仓储的 MySQL 实现
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save 保存快照，RunID 冲突时更新结果字段
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.SimulationSnapshot) error {
	results, err := json.Marshal(snapshot.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot results: %w", err)
	}

	model := &SnapshotModel{
		RunID:       snapshot.RunID,
		DecisionID:  snapshot.DecisionID,
		Fingerprint: snapshot.Fingerprint,
		Seed:        snapshot.Seed,
		Runs:        snapshot.Runs,
		Results:     string(results),
	}
	model.CreatedAt = snapshot.CreatedAt

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"decision_id", "fingerprint", "seed", "runs", "results"}),
	}).Create(model).Error
}

// GetByRunID 按运行 ID 查询，未找到时返回 (nil, nil)
func (r *SnapshotRepository) GetByRunID(ctx context.Context, runID string) (*domain.SimulationSnapshot, error) {
	var model SnapshotModel
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model)
}

// GetByFingerprint 返回该决策下同一指纹的最近一次快照，未找到时返回 (nil, nil)
func (r *SnapshotRepository) GetByFingerprint(ctx context.Context, decisionID, fingerprint string) (*domain.SimulationSnapshot, error) {
	var model SnapshotModel
	err := r.db.WithContext(ctx).
		Where("decision_id = ? AND fingerprint = ?", decisionID, fingerprint).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model)
}

// ListByDecision 返回该决策的全部快照，按创建时间降序
func (r *SnapshotRepository) ListByDecision(ctx context.Context, decisionID string) ([]*domain.SimulationSnapshot, error) {
	var models []SnapshotModel
	err := r.db.WithContext(ctx).
		Where("decision_id = ?", decisionID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	snapshots := make([]*domain.SimulationSnapshot, 0, len(models))
	for i := range models {
		snap, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func toDomain(model *SnapshotModel) (*domain.SimulationSnapshot, error) {
	var results []domain.SimulationResult
	if err := json.Unmarshal([]byte(model.Results), &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot results for run %s: %w", model.RunID, err)
	}
	return &domain.SimulationSnapshot{
		RunID:       model.RunID,
		DecisionID:  model.DecisionID,
		Fingerprint: model.Fingerprint,
		Seed:        model.Seed,
		Runs:        model.Runs,
		Results:     results,
		CreatedAt:   model.CreatedAt,
	}, nil
}
