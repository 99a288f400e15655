package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// 指标约定：
//   - VaR95 取结果分布第 5 百分位的最近秩值 sorted[int(0.05*n)]，
//     以结果值（而非取负的损失额）表示，亏损为负值。
//   - CVaR95 为不高于该分位点的全部结果的均值，因此恒有 CVaR95 <= VaR95。
//   - economicCapital = max(0, ev - cvar95)。
//   - raroc = (ev - expectedDownside) / capital，capital 接近 0 时固定返回 0。
const capitalEpsilon = 1e-9

// aggregate 将单个选项的原始结果数组归约为 SimulationResult。
// 任何中间 NaN/Inf 都会作为 ErrNumericalInstability 上报，绝不静默返回。
func aggregate(opt DecisionOption, outcomes []float64, utility *UtilityParams, tcor *TCORParams) (SimulationResult, error) {
	n := len(outcomes)
	sorted := make([]float64, n)
	copy(sorted, outcomes)
	sort.Float64s(sorted)

	ev, err := stats.Mean(outcomes)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("%w: option %s: %v", ErrNumericalInstability, opt.ID, err)
	}

	idx := int(0.05 * float64(n))
	if idx >= n {
		idx = n - 1
	}
	var95 := sorted[idx]

	var tailSum float64
	for i := 0; i <= idx; i++ {
		tailSum += sorted[i]
	}
	cvar95 := tailSum / float64(idx+1)

	capital := ev - cvar95
	if capital < 0 {
		capital = 0
	}

	var downside float64
	for _, x := range outcomes {
		if x < 0 {
			downside += -x
		}
	}
	downside /= float64(n)

	raroc := 0.0
	if capital > capitalEpsilon {
		raroc = (ev - downside) / capital
	}

	res := SimulationResult{
		OptionID:        opt.ID,
		OptionLabel:     opt.Label,
		EV:              decimal.NewFromFloat(ev),
		VaR95:           decimal.NewFromFloat(var95),
		CVaR95:          decimal.NewFromFloat(cvar95),
		EconomicCapital: decimal.NewFromFloat(capital),
		RAROC:           decimal.NewFromFloat(raroc),
	}

	finite := []float64{ev, var95, cvar95, capital, raroc}

	if utility != nil {
		ce := certaintyEquivalent(outcomes, ev, *utility)
		finite = append(finite, ce)
		d := decimal.NewFromFloat(ce)
		res.CertaintyEquivalent = &d
	}
	if tcor != nil {
		t := opt.MitigationCost + tcor.InsuranceRate*capital + tcor.ContingencyRate*capital
		finite = append(finite, t)
		d := decimal.NewFromFloat(t)
		res.TCOR = &d
	}

	for _, x := range finite {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return SimulationResult{}, fmt.Errorf("%w: option %s produced non-finite metric", ErrNumericalInstability, opt.ID)
		}
	}
	return res, nil
}

// certaintyEquivalent CARA 确定性等价：CE = -(1/a)·ln(E[exp(-a·scale·x)])。
// 指数项用 log-sum-exp 平移防止大 a 或极端结果下的上溢。
func certaintyEquivalent(outcomes []float64, ev float64, u UtilityParams) float64 {
	if u.A == 0 {
		// 风险中性极限
		return ev
	}
	scale := u.Scale
	if scale == 0 {
		scale = 1
	}

	maxExp := math.Inf(-1)
	for _, x := range outcomes {
		if e := -u.A * scale * x; e > maxExp {
			maxExp = e
		}
	}
	var sum float64
	for _, x := range outcomes {
		sum += math.Exp(-u.A*scale*x - maxExp)
	}
	lnMean := maxExp + math.Log(sum/float64(len(outcomes)))
	return -lnMean / u.A
}
