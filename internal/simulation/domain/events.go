package domain

import "time"

const (
	SimulationCompletedEventType = "decisionsim.simulation.completed"
	SimulationReusedEventType    = "decisionsim.simulation.reused"
)

// SimulationCompletedEvent 模拟完成事件
type SimulationCompletedEvent struct {
	RunID       string    `json:"run_id"`
	DecisionID  string    `json:"decision_id"`
	Fingerprint string    `json:"fingerprint"`
	Runs        int       `json:"runs"`
	Seed        int64     `json:"seed"`
	OptionCount int       `json:"option_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// SimulationReusedEvent 相同输入命中既有快照事件
type SimulationReusedEvent struct {
	RunID       string    `json:"run_id"`
	DecisionID  string    `json:"decision_id"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}
