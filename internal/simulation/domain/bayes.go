package domain

import (
	"fmt"
	"math"
)

// Posterior 正态-正态共轭更新得到的后验分布。
type Posterior struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Sd       float64 `json:"sd"`
}

// NormalPosterior 闭式正态-正态共轭更新：
//
//	τn² = 1 / (1/τ0² + n/σL²)
//	μn  = τn² · (μ0/τ0² + n·x̄/σL²)
//
// 纯函数，不触碰任何变量定义。
func NormalPosterior(priorMean, priorSd, evidenceMean float64, evidenceN int, likelihoodSd float64) (Posterior, error) {
	if priorSd <= 0 {
		return Posterior{}, fmt.Errorf("%w: prior sd must be > 0", ErrInvalidParams)
	}
	if likelihoodSd <= 0 {
		return Posterior{}, fmt.Errorf("%w: likelihood sd must be > 0", ErrInvalidParams)
	}
	if evidenceN <= 0 {
		return Posterior{}, fmt.Errorf("%w: evidence count must be > 0", ErrInvalidParams)
	}

	priorVar := priorSd * priorSd
	likeVar := likelihoodSd * likelihoodSd
	n := float64(evidenceN)

	precision := 1/priorVar + n/likeVar
	postVar := 1 / precision
	postMean := postVar * (priorMean/priorVar + n*evidenceMean/likeVar)

	return Posterior{Mean: postMean, Variance: postVar, Sd: math.Sqrt(postVar)}, nil
}

// applyBayesianOverride 返回应用了覆盖参数的变量副本切片。
// 覆盖仅对本次运行生效，lognormal 在 log 空间使用同一公式，
// 其余分布在 Validate 阶段已被拒绝。原始切片不被修改。
func applyBayesianOverride(vars []ScenarioVar, override *BayesianPriorOverride) []ScenarioVar {
	out := make([]ScenarioVar, len(vars))
	copy(out, vars)
	if override == nil {
		return out
	}
	for i, v := range out {
		if v.ID != override.TargetVarID {
			continue
		}
		switch v.Dist {
		case DistNormal:
			v.Params.Mean = override.PosteriorMean
			v.Params.Sd = override.PosteriorSd
		case DistLognormal:
			v.Params.Mu = override.PosteriorMean
			v.Params.Sigma = override.PosteriorSd
		}
		out[i] = v
	}
	return out
}
