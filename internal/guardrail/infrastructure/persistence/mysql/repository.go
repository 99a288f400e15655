// Package mysql 护栏仓储的 GORM 实现。
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/decisionsim/internal/guardrail/domain"
)

// GuardrailModel 护栏的数据库模型
type GuardrailModel struct {
	gorm.Model
	GuardrailID string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	DecisionID  string  `gorm:"type:varchar(64);index;not null"`
	Name        string  `gorm:"type:varchar(255)"`
	Threshold   float64 `gorm:"not null"`
	Quantile    float64
	Smoothing   float64
}

// TableName 指定表名
func (GuardrailModel) TableName() string {
	return "guardrails"
}

// OutcomeModel 观测记录的数据库模型
type OutcomeModel struct {
	gorm.Model
	GuardrailID string  `gorm:"type:varchar(64);index;not null"`
	Observed    float64 `gorm:"not null"`
	Expected    float64 `gorm:"not null"`
	RecordedAt  time.Time
}

// TableName 指定表名
func (OutcomeModel) TableName() string {
	return "guardrail_outcomes"
}

// Repository 护栏仓储的 MySQL 实现
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建护栏仓储
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveGuardrail 保存护栏，ID 冲突时更新阈值与校准参数
func (r *Repository) SaveGuardrail(ctx context.Context, g *domain.Guardrail) error {
	model := &GuardrailModel{
		GuardrailID: g.ID,
		DecisionID:  g.DecisionID,
		Name:        g.Name,
		Threshold:   g.Threshold,
		Quantile:    g.Quantile,
		Smoothing:   g.Smoothing,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guardrail_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "threshold", "quantile", "smoothing", "updated_at"}),
	}).Create(model).Error
}

// GetGuardrail 查询护栏，未找到时返回 (nil, nil)
func (r *Repository) GetGuardrail(ctx context.Context, id string) (*domain.Guardrail, error) {
	var model GuardrailModel
	err := r.db.WithContext(ctx).Where("guardrail_id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Guardrail{
		ID:         model.GuardrailID,
		DecisionID: model.DecisionID,
		Name:       model.Name,
		Threshold:  model.Threshold,
		Quantile:   model.Quantile,
		Smoothing:  model.Smoothing,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

// AppendOutcome 追加观测记录
func (r *Repository) AppendOutcome(ctx context.Context, record *domain.OutcomeRecord) error {
	return r.db.WithContext(ctx).Create(&OutcomeModel{
		GuardrailID: record.GuardrailID,
		Observed:    record.Observed,
		Expected:    record.Expected,
		RecordedAt:  record.RecordedAt,
	}).Error
}

// ListOutcomes 返回最近 limit 条观测，按记录时间升序返回
func (r *Repository) ListOutcomes(ctx context.Context, guardrailID string, limit int) ([]domain.OutcomeRecord, error) {
	query := r.db.WithContext(ctx).
		Where("guardrail_id = ?", guardrailID).
		Order("recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []OutcomeModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domain.OutcomeRecord, len(models))
	for i := range models {
		m := models[len(models)-1-i]
		records[i] = domain.OutcomeRecord{
			GuardrailID: m.GuardrailID,
			Observed:    m.Observed,
			Expected:    m.Expected,
			RecordedAt:  m.RecordedAt,
		}
	}
	return records, nil
}
