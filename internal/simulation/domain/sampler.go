package domain

import (
	"fmt"
	"math"
	"math/rand"
)

// 敏感性分析正/负扰动方向使用的种子偏移量，
// 使两个方向的流相互独立但整体仍可复现。
const (
	SeedOffsetPlus  = 11
	SeedOffsetMinus = 13
)

// Stream 确定性随机数流：同一种子永远产生同一序列。
// 这是"相同输入检测"复现保证与敏感性对比的基础。
type Stream struct {
	rng *rand.Rand
}

// NewStream 以给定种子创建随机数流。
func NewStream(seed int64) *Stream {
	return &Stream{rng: rand.New(rand.NewSource(seed))}
}

// Uniform01 返回 [0, 1) 上的均匀抽样。
func (s *Stream) Uniform01() float64 {
	return s.rng.Float64()
}

// StdNormal 返回标准正态抽样。
func (s *Stream) StdNormal() float64 {
	return s.rng.NormFloat64()
}

// Draw 按变量的分布定义独立抽取一个样本。
// 调用前变量必须已通过 Validate。
func (s *Stream) Draw(v ScenarioVar) (float64, error) {
	switch v.Dist {
	case DistNormal:
		return v.Params.Mean + v.Params.Sd*s.StdNormal(), nil
	case DistLognormal:
		return math.Exp(v.Params.Mu + v.Params.Sigma*s.StdNormal()), nil
	case DistTriangular:
		return triangularQuantile(v.Params.Min, v.Params.Mode, v.Params.Max, s.Uniform01()), nil
	case DistUniform:
		return v.Params.Min + (v.Params.Max-v.Params.Min)*s.Uniform01(), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistribution, v.Dist)
	}
}

// Quantile 分布的反累积分布函数，Copula 模式下用于边缘分布还原。
func (v ScenarioVar) Quantile(p float64) (float64, error) {
	switch v.Dist {
	case DistNormal:
		return v.Params.Mean + v.Params.Sd*normQuantile(p), nil
	case DistLognormal:
		return math.Exp(v.Params.Mu + v.Params.Sigma*normQuantile(p)), nil
	case DistTriangular:
		return triangularQuantile(v.Params.Min, v.Params.Mode, v.Params.Max, p), nil
	case DistUniform:
		return v.Params.Min + (v.Params.Max-v.Params.Min)*p, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistribution, v.Dist)
	}
}

// triangularQuantile 三角分布反 CDF 采样。
func triangularQuantile(min, mode, max, p float64) float64 {
	if max <= min {
		return min
	}
	fc := (mode - min) / (max - min)
	if p < fc {
		return min + math.Sqrt(p*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-p)*(max-min)*(max-mode))
}

// normCDF 标准正态累积分布函数 Φ。
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normQuantile 标准正态反 CDF（Acklam 有理逼近，绝对误差 < 1.15e-9）。
func normQuantile(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}

	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const pLow = 0.02425
	const pHigh = 1 - pLow

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= pHigh:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}
