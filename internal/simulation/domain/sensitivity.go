package domain

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// TargetMetric 敏感性分析的目标指标。
type TargetMetric string

const (
	MetricEV    TargetMetric = "ev"
	MetricRAROC TargetMetric = "raroc"
	MetricCE    TargetMetric = "ce"
)

// 敏感性分析默认配置：步长 10%（限制在 1–50%），
// 缩减样本上限 2000 次且不超过基线运行次数。
// 缩减样本换速度是刻意取舍，结果与全量基线存在轻微偏差属预期行为。
const (
	DefaultStepPercent     = 10.0
	MinStepPercent         = 1.0
	MaxStepPercent         = 50.0
	DefaultSensitivityRuns = 2000
	sensitivityParallelism = 4
)

// SensitivityInput 龙卷风分析输入。
type SensitivityInput struct {
	Base SimulationInput `json:"base"`
	// StepPercent 扰动步长百分比，越界时截断到 [1, 50]，0 取默认值
	StepPercent float64 `json:"step_percent,omitempty"`
	// Metric 目标指标，默认 raroc；ce 需要配置效用参数
	Metric TargetMetric `json:"metric,omitempty"`
	// OptionID 目标选项，默认第一个选项
	OptionID string `json:"option_id,omitempty"`
	// MaxRuns 缩减样本上限，0 取默认值
	MaxRuns int `json:"max_runs,omitempty"`
}

// SensitivityRow 单个参数的敏感性记录。
type SensitivityRow struct {
	// Parameter 参数类别：option_return / option_cost / var_weight / var_location
	Parameter string `json:"parameter"`
	// Subject 参数归属的选项或变量 ID
	Subject string `json:"subject"`
	Label   string `json:"label"`
	// Baseline 未扰动基线的目标指标值
	Baseline      float64 `json:"baseline"`
	DeltaPlus     float64 `json:"delta_plus"`
	DeltaMinus    float64 `json:"delta_minus"`
	DeltaPlusPct  float64 `json:"delta_plus_pct"`
	DeltaMinusPct float64 `json:"delta_minus_pct"`
	// Impact 排序键：max(|delta_plus|, |delta_minus|)
	Impact float64 `json:"impact"`
}

type sensitivityParam struct {
	kind    string
	subject string
	label   string
	mutate  func(SimulationInput, float64) SimulationInput
}

// RunSensitivity 单参数轮换（OAT）扰动分析：对每个可测参数按 ±step 扰动，
// 用缩减样本重跑模拟并记录目标指标相对基线的变化，按影响降序返回。
// 正负方向分别使用 seed+11 / seed+13，保证两个方向去相关且整体可复现。
func (e *Engine) RunSensitivity(ctx context.Context, in SensitivityInput) ([]SensitivityRow, error) {
	step := in.StepPercent
	if step == 0 {
		step = DefaultStepPercent
	}
	step = math.Min(math.Max(step, MinStepPercent), MaxStepPercent)

	maxRuns := in.MaxRuns
	if maxRuns <= 0 {
		maxRuns = DefaultSensitivityRuns
	}

	metric := in.Metric
	if metric == "" {
		metric = MetricRAROC
	}
	if metric == MetricCE && in.Base.Utility == nil {
		return nil, fmt.Errorf("%w: ce metric requires utility params", ErrInvalidParams)
	}

	reduced := cloneInput(in.Base)
	if reduced.Runs > maxRuns {
		reduced.Runs = maxRuns
	}

	optionID := in.OptionID
	if optionID == "" {
		if len(reduced.Options) == 0 {
			return nil, ErrNoOptions
		}
		optionID = reduced.Options[0].ID
	}

	baseline, err := e.metricValue(ctx, reduced, optionID, metric)
	if err != nil {
		return nil, err
	}

	params := enumerateParams(reduced, optionID)
	rows := make([]SensitivityRow, len(params))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sensitivityParallelism)
	for i, p := range params {
		g.Go(func() error {
			plusIn := p.mutate(reduced, 1+step/100)
			plusIn.Seed = reduced.Seed + SeedOffsetPlus
			plus, err := e.metricValue(gctx, plusIn, optionID, metric)
			if err != nil {
				return err
			}

			minusIn := p.mutate(reduced, 1-step/100)
			minusIn.Seed = reduced.Seed + SeedOffsetMinus
			minus, err := e.metricValue(gctx, minusIn, optionID, metric)
			if err != nil {
				return err
			}

			dPlus := plus - baseline
			dMinus := minus - baseline
			rows[i] = SensitivityRow{
				Parameter:     p.kind,
				Subject:       p.subject,
				Label:         p.label,
				Baseline:      baseline,
				DeltaPlus:     dPlus,
				DeltaMinus:    dMinus,
				DeltaPlusPct:  pctOf(dPlus, baseline),
				DeltaMinusPct: pctOf(dMinus, baseline),
				Impact:        math.Max(math.Abs(dPlus), math.Abs(dMinus)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Impact != rows[b].Impact {
			return rows[a].Impact > rows[b].Impact
		}
		return rows[a].Label < rows[b].Label
	})
	return rows, nil
}

func (e *Engine) metricValue(ctx context.Context, in SimulationInput, optionID string, metric TargetMetric) (float64, error) {
	results, err := e.Run(ctx, in)
	if err != nil {
		return 0, err
	}
	for _, r := range results {
		if r.OptionID != optionID {
			continue
		}
		switch metric {
		case MetricEV:
			return r.EV.InexactFloat64(), nil
		case MetricRAROC:
			return r.RAROC.InexactFloat64(), nil
		case MetricCE:
			if r.CertaintyEquivalent == nil {
				return 0, fmt.Errorf("%w: ce metric requires utility params", ErrInvalidParams)
			}
			return r.CertaintyEquivalent.InexactFloat64(), nil
		default:
			return 0, fmt.Errorf("%w: unknown target metric %q", ErrInvalidParams, metric)
		}
	}
	return 0, fmt.Errorf("%w: option %q not found in results", ErrInvalidParams, optionID)
}

// enumerateParams 可测参数集合：目标选项的成本与收益、每个变量的权重、
// 每个 normal/lognormal 变量的位置参数（mean/mu）。
func enumerateParams(in SimulationInput, optionID string) []sensitivityParam {
	var params []sensitivityParam
	for _, opt := range in.Options {
		if opt.ID != optionID {
			continue
		}
		params = append(params,
			sensitivityParam{
				kind: "option_return", subject: opt.ID,
				label:  fmt.Sprintf("Option Return (%s)", opt.Label),
				mutate: optionFieldMutator(opt.ID, func(o *DecisionOption, f float64) { o.ExpectedReturn *= f }),
			},
			sensitivityParam{
				kind: "option_cost", subject: opt.ID,
				label:  fmt.Sprintf("Option Cost (%s)", opt.Label),
				mutate: optionFieldMutator(opt.ID, func(o *DecisionOption, f float64) { o.Cost *= f }),
			},
		)
	}
	for _, v := range in.ScenarioVars {
		params = append(params, sensitivityParam{
			kind: "var_weight", subject: v.ID,
			label: fmt.Sprintf("Weight (%s)", v.Name),
			mutate: varFieldMutator(v.ID, func(sv *ScenarioVar, f float64) {
				sv.Weight = sv.EffectiveWeight() * f
			}),
		})
		switch v.Dist {
		case DistNormal:
			params = append(params, sensitivityParam{
				kind: "var_location", subject: v.ID,
				label:  fmt.Sprintf("Mean (%s)", v.Name),
				mutate: varFieldMutator(v.ID, func(sv *ScenarioVar, f float64) { sv.Params.Mean *= f }),
			})
		case DistLognormal:
			params = append(params, sensitivityParam{
				kind: "var_location", subject: v.ID,
				label:  fmt.Sprintf("Mu (%s)", v.Name),
				mutate: varFieldMutator(v.ID, func(sv *ScenarioVar, f float64) { sv.Params.Mu *= f }),
			})
		}
	}
	return params
}

// optionFieldMutator 返回不可变更新函数：深拷贝输入后仅修改目标选项。
func optionFieldMutator(optionID string, apply func(*DecisionOption, float64)) func(SimulationInput, float64) SimulationInput {
	return func(in SimulationInput, factor float64) SimulationInput {
		out := cloneInput(in)
		for i := range out.Options {
			if out.Options[i].ID == optionID {
				apply(&out.Options[i], factor)
			}
		}
		return out
	}
}

// varFieldMutator 返回不可变更新函数：深拷贝输入后仅修改目标变量。
func varFieldMutator(varID string, apply func(*ScenarioVar, float64)) func(SimulationInput, float64) SimulationInput {
	return func(in SimulationInput, factor float64) SimulationInput {
		out := cloneInput(in)
		for i := range out.ScenarioVars {
			if out.ScenarioVars[i].ID == varID {
				apply(&out.ScenarioVars[i], factor)
			}
		}
		return out
	}
}

// cloneInput 深拷贝模拟输入，后续修改不影响原值。
func cloneInput(in SimulationInput) SimulationInput {
	out := in
	out.Options = make([]DecisionOption, len(in.Options))
	copy(out.Options, in.Options)
	out.ScenarioVars = make([]ScenarioVar, len(in.ScenarioVars))
	copy(out.ScenarioVars, in.ScenarioVars)
	if in.OptionStrategies != nil {
		out.OptionStrategies = make(map[string]string, len(in.OptionStrategies))
		for k, v := range in.OptionStrategies {
			out.OptionStrategies[k] = v
		}
	}
	if in.Copula != nil {
		matrix := make([][]float64, len(in.Copula.Matrix))
		for i, row := range in.Copula.Matrix {
			matrix[i] = append([]float64(nil), row...)
		}
		c := CopulaConfig{Matrix: matrix}
		out.Copula = &c
	}
	return out
}

func pctOf(delta, baseline float64) float64 {
	if math.Abs(baseline) < 1e-12 {
		return 0
	}
	return delta / math.Abs(baseline) * 100
}
