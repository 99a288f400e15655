// Package metrics 提供 Prometheus helper，覆盖模拟服务的业务与 HTTP 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 模拟运行计数
	SimulationsTotal prometheus.Counter
	// 相同输入命中既有快照的计数
	SimulationReuseTotal prometheus.Counter
	// 模拟拒绝/失败计数
	SimulationErrorsTotal prometheus.Counter
	// 单次模拟耗时
	SimulationDuration prometheus.Histogram
	// 单次模拟请求的抽样次数分布
	SimulationRuns prometheus.Histogram
	// 敏感性分析计数
	SensitivityTotal prometheus.Counter
	// 快照读缓存命中
	SnapshotCacheHits prometheus.Counter
	// 快照读落库
	SnapshotCacheMisses prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		SimulationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "simulations_total",
			Help:      "Total simulation runs executed",
		}),
		SimulationReuseTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "simulation_reuse_total",
			Help:      "Simulations answered from an existing snapshot with identical inputs",
		}),
		SimulationErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "simulation_errors_total",
			Help:      "Simulation runs rejected or failed",
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time per simulation run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		SimulationRuns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "simulation_sample_count",
			Help:      "Requested Monte Carlo sample count per simulation",
			Buckets:   []float64{100, 1000, 5000, 10000, 50000, 100000},
		}),
		SensitivityTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "sensitivity_runs_total",
			Help:      "Total tornado sensitivity analyses",
		}),
		SnapshotCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "snapshot_cache_hits_total",
			Help:      "Snapshot reads served from cache",
		}),
		SnapshotCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decisionsim",
			Subsystem: serviceName,
			Name:      "snapshot_cache_misses_total",
			Help:      "Snapshot reads that fell through to the database",
		}),
	}
}

// Register 注册全部指标到默认 registry
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SimulationsTotal,
		m.SimulationReuseTotal,
		m.SimulationErrorsTotal,
		m.SimulationDuration,
		m.SimulationRuns,
		m.SensitivityTotal,
		m.SnapshotCacheHits,
		m.SnapshotCacheMisses,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler 返回暴露 /metrics 的 HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
