// Package domain 决策场景模拟服务的领域模型与模拟引擎核心。
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Distribution 场景变量的分布类型
type Distribution string

const (
	DistNormal     Distribution = "normal"     // 正态分布
	DistLognormal  Distribution = "lognormal"  // 对数正态分布
	DistTriangular Distribution = "triangular" // 三角分布
	DistUniform    Distribution = "uniform"    // 均匀分布
)

// AppliesTo 变量作用方向
type AppliesTo string

const (
	AppliesToReturn AppliesTo = "return" // 作用于收益
	AppliesToCost   AppliesTo = "cost"   // 作用于成本
)

// DistParams 分布参数。字段按分布类型取用：
// normal: mean/sd; lognormal: mu/sigma; triangular: min/mode/max; uniform: min/max.
type DistParams struct {
	Mean  float64 `json:"mean,omitempty"`
	Sd    float64 `json:"sd,omitempty"`
	Mu    float64 `json:"mu,omitempty"`
	Sigma float64 `json:"sigma,omitempty"`
	Min   float64 `json:"min,omitempty"`
	Mode  float64 `json:"mode,omitempty"`
	Max   float64 `json:"max,omitempty"`
}

// ScenarioVar 不确定性驱动变量。引擎按值接收，绝不原地修改。
type ScenarioVar struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	AppliesTo AppliesTo    `json:"applies_to"`
	Dist      Distribution `json:"dist"`
	Params    DistParams   `json:"params"`
	// Weight 扰动强度乘数，0 视为默认值 1
	Weight float64 `json:"weight,omitempty"`
}

// Validate 校验分布参数与 dist 的约束是否匹配。sd/sigma <= 0 一律拒绝，不做截断。
func (v ScenarioVar) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: scenario var missing id", ErrInvalidParams)
	}
	switch v.AppliesTo {
	case AppliesToReturn, AppliesToCost:
	default:
		return fmt.Errorf("%w: var %s has unknown applies_to %q", ErrInvalidParams, v.ID, v.AppliesTo)
	}
	switch v.Dist {
	case DistNormal:
		if v.Params.Sd <= 0 {
			return fmt.Errorf("%w: var %s requires sd > 0", ErrInvalidParams, v.ID)
		}
	case DistLognormal:
		if v.Params.Sigma <= 0 {
			return fmt.Errorf("%w: var %s requires sigma > 0", ErrInvalidParams, v.ID)
		}
	case DistTriangular:
		if v.Params.Min >= v.Params.Max {
			return fmt.Errorf("%w: var %s requires min < max", ErrInvalidParams, v.ID)
		}
		if v.Params.Mode < v.Params.Min || v.Params.Mode > v.Params.Max {
			return fmt.Errorf("%w: var %s requires min <= mode <= max", ErrInvalidParams, v.ID)
		}
	case DistUniform:
		if v.Params.Min >= v.Params.Max {
			return fmt.Errorf("%w: var %s requires min < max", ErrInvalidParams, v.ID)
		}
	default:
		return fmt.Errorf("%w: var %s has unknown dist %q", ErrInvalidDistribution, v.ID, v.Dist)
	}
	return nil
}

// EffectiveWeight 返回归一化后的权重，未设置时为 1。
func (v ScenarioVar) EffectiveWeight() float64 {
	if v.Weight == 0 {
		return 1
	}
	return v.Weight
}

// DecisionOption 待评估的候选决策
type DecisionOption struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	ExpectedReturn float64 `json:"expected_return"`
	Cost           float64 `json:"cost"`
	MitigationCost float64 `json:"mitigation_cost,omitempty"`
	// HorizonMonths 选项级时间跨度（月），0 表示继承全局配置
	HorizonMonths float64 `json:"horizon_months,omitempty"`
}

// UtilityParams 风险厌恶效用配置
type UtilityParams struct {
	// Mode 效用模式，目前支持 CARA（指数效用）
	Mode string `json:"mode"`
	// A 风险厌恶系数，必须非负
	A float64 `json:"a"`
	// Scale 结果归一化比例，0 视为 1
	Scale float64 `json:"scale,omitempty"`
}

// UtilityModeCARA 指数效用
const UtilityModeCARA = "CARA"

// Validate 校验效用配置。
func (u UtilityParams) Validate() error {
	if u.Mode != UtilityModeCARA {
		return fmt.Errorf("%w: unknown utility mode %q", ErrInvalidParams, u.Mode)
	}
	if u.A < 0 {
		return fmt.Errorf("%w: risk aversion coefficient must be >= 0", ErrInvalidParams)
	}
	return nil
}

// TCORParams 总风险成本配置
type TCORParams struct {
	// InsuranceRate 保险费率，按经济资本计提
	InsuranceRate float64 `json:"insurance_rate"`
	// ContingencyRate 应急准备金费率，按经济资本计提
	ContingencyRate float64 `json:"contingency_rate"`
}

// DependenceConfig 两变量之间的目标 Spearman 秩相关
type DependenceConfig struct {
	VarA           string  `json:"var_a"`
	VarB           string  `json:"var_b"`
	TargetSpearman float64 `json:"target_spearman"`
}

// CopulaConfig 全量高斯 Copula 目标相关矩阵。
// Matrix 的行列顺序与 SimulationInput.ScenarioVars 一致。
type CopulaConfig struct {
	Matrix [][]float64 `json:"matrix"`
}

// BayesianPriorOverride 贝叶斯后验覆盖：仅本次运行内替换目标变量的抽样参数。
type BayesianPriorOverride struct {
	TargetVarID   string  `json:"target_var_id"`
	PosteriorMean float64 `json:"posterior_mean"`
	PosteriorSd   float64 `json:"posterior_sd"`
}

// SimulationInput 一次模拟运行的全部输入。可选子配置为 nil 时取各自默认行为。
type SimulationInput struct {
	DecisionID       string                 `json:"decision_id"`
	Options          []DecisionOption       `json:"options"`
	ScenarioVars     []ScenarioVar          `json:"scenario_vars"`
	Runs             int                    `json:"runs"`
	Seed             int64                  `json:"seed"`
	Utility          *UtilityParams         `json:"utility,omitempty"`
	TCOR             *TCORParams            `json:"tcor,omitempty"`
	Game             *GameConfig            `json:"game,omitempty"`
	OptionStrategies map[string]string      `json:"option_strategies,omitempty"`
	Dependence       *DependenceConfig      `json:"dependence,omitempty"`
	Bayesian         *BayesianPriorOverride `json:"bayesian,omitempty"`
	Copula           *CopulaConfig          `json:"copula,omitempty"`
	// HorizonMonths 全局时间跨度（月），0 表示不做期限缩放
	HorizonMonths float64 `json:"horizon_months,omitempty"`
}

// Validate 在采样前拒绝退化输入与非法配置。
func (in SimulationInput) Validate() error {
	if len(in.Options) == 0 {
		return ErrNoOptions
	}
	if len(in.ScenarioVars) == 0 && in.Dependence != nil {
		return fmt.Errorf("%w: dependence config without scenario vars", ErrInvalidParams)
	}
	if in.Runs <= 0 {
		return ErrNoRuns
	}
	for _, v := range in.ScenarioVars {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if in.Utility != nil {
		if err := in.Utility.Validate(); err != nil {
			return err
		}
	}
	if in.Game != nil {
		if err := in.Game.Validate(); err != nil {
			return err
		}
	}
	if in.Dependence != nil {
		if err := in.validateDependence(); err != nil {
			return err
		}
	}
	if in.Copula != nil {
		if err := validateCopulaTarget(in.Copula.Matrix, len(in.ScenarioVars)); err != nil {
			return err
		}
	}
	if in.Bayesian != nil {
		if err := in.validateBayesian(); err != nil {
			return err
		}
	}
	return nil
}

func (in SimulationInput) validateDependence() error {
	d := in.Dependence
	if d.VarA == d.VarB {
		return fmt.Errorf("%w: pairwise dependence needs two distinct vars", ErrDependenceTarget)
	}
	if d.TargetSpearman < -1 || d.TargetSpearman > 1 {
		return fmt.Errorf("%w: target spearman %v outside [-1, 1]", ErrDependenceTarget, d.TargetSpearman)
	}
	if in.varIndex(d.VarA) < 0 || in.varIndex(d.VarB) < 0 {
		return fmt.Errorf("%w: dependence references unknown var", ErrDependenceTarget)
	}
	return nil
}

func (in SimulationInput) validateBayesian() error {
	b := in.Bayesian
	idx := in.varIndex(b.TargetVarID)
	if idx < 0 {
		return fmt.Errorf("%w: bayesian override targets unknown var %q", ErrOverrideUnsupported, b.TargetVarID)
	}
	switch in.ScenarioVars[idx].Dist {
	case DistNormal, DistLognormal:
	default:
		return fmt.Errorf("%w: bayesian override only applies to normal/lognormal, var %s is %s",
			ErrOverrideUnsupported, b.TargetVarID, in.ScenarioVars[idx].Dist)
	}
	if b.PosteriorSd <= 0 {
		return fmt.Errorf("%w: posterior sd must be > 0", ErrInvalidParams)
	}
	return nil
}

func (in SimulationInput) varIndex(id string) int {
	for i, v := range in.ScenarioVars {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// CopulaSnapshot 采样后实际达到的相关结构诊断
type CopulaSnapshot struct {
	// Order 矩阵行列对应的变量 ID 顺序
	Order []string `json:"order"`
	// Achieved 实际达到的 Spearman 相关矩阵
	Achieved [][]float64 `json:"achieved"`
	// FroErr 与目标矩阵的 Frobenius 范数拟合误差
	FroErr float64 `json:"fro_err"`
	// Repaired 目标矩阵非半正定时是否做过修复
	Repaired bool `json:"repaired,omitempty"`
}

// SimulationResult 每个选项一行的模拟输出，返回后不可变。
type SimulationResult struct {
	OptionID    string          `json:"option_id"`
	OptionLabel string          `json:"option_label"`
	EV          decimal.Decimal `json:"ev"`
	VaR95       decimal.Decimal `json:"var95"`
	CVaR95      decimal.Decimal `json:"cvar95"`
	EconomicCapital decimal.Decimal `json:"economic_capital"`
	RAROC           decimal.Decimal `json:"raroc"`
	// CertaintyEquivalent 仅在配置效用参数时出现
	CertaintyEquivalent *decimal.Decimal `json:"certainty_equivalent,omitempty"`
	// TCOR 仅在配置 TCOR 参数时出现
	TCOR *decimal.Decimal `json:"tcor,omitempty"`
	// AchievedSpearman 成对依赖模式下实际达到的秩相关
	AchievedSpearman *float64 `json:"achieved_spearman,omitempty"`
	// Copula 全量 Copula 模式下的诊断快照
	Copula *CopulaSnapshot `json:"copula_snapshot,omitempty"`
}
