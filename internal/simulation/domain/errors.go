package domain

import "errors"

// 错误分类：非法配置在采样前拒绝，数值不稳定在计算点兜底，
// 退化输入在边界拒绝。引擎绝不向下游静默传播 NaN。
var (
	// ErrNoOptions 没有候选选项
	ErrNoOptions = errors.New("simulation requires at least one option")
	// ErrNoRuns 运行次数非正
	ErrNoRuns = errors.New("simulation requires runs > 0")
	// ErrInvalidDistribution 未知分布类型
	ErrInvalidDistribution = errors.New("invalid distribution")
	// ErrInvalidParams 参数与分布/配置约束不匹配
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrOverrideUnsupported 贝叶斯覆盖应用于不支持的分布或未知变量
	ErrOverrideUnsupported = errors.New("bayesian override unsupported")
	// ErrDependenceTarget 成对相关目标非法
	ErrDependenceTarget = errors.New("invalid dependence target")
	// ErrCopulaMatrix Copula 目标矩阵非法（非方阵/不对称/对角非 1）
	ErrCopulaMatrix = errors.New("invalid copula matrix")
	// ErrNumericalInstability 聚合过程中出现 NaN/Inf
	ErrNumericalInstability = errors.New("numerical instability")
)
