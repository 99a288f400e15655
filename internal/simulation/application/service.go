package application

import (
	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
	"github.com/wyfcoding/decisionsim/pkg/metrics"
)

// Service 模拟服务门面，聚合写路径与读路径。
type Service struct {
	*SimulationManager
	*SimulationQuery
}

// NewService 创建模拟服务
func NewService(repo domain.SnapshotRepository, publisher domain.EventPublisher, m *metrics.Metrics) *Service {
	engine := domain.NewEngine()
	return &Service{
		SimulationManager: NewSimulationManager(engine, repo, publisher, m),
		SimulationQuery:   NewSimulationQuery(repo),
	}
}
