package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// validateCopulaTarget 校验目标相关矩阵：n×n 方阵、对称、单位对角、元素在 [-1,1]。
// 半正定性不在此校验：非 PSD 的目标会在采样时被修复并反映到拟合误差中。
func validateCopulaTarget(m [][]float64, n int) error {
	if len(m) != n {
		return fmt.Errorf("%w: expected %dx%d matrix, got %d rows", ErrCopulaMatrix, n, n, len(m))
	}
	const tol = 1e-9
	for i := range m {
		if len(m[i]) != n {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrCopulaMatrix, i, len(m[i]), n)
		}
		if math.Abs(m[i][i]-1) > tol {
			return fmt.Errorf("%w: diagonal element [%d][%d] must be 1", ErrCopulaMatrix, i, i)
		}
		for j := range m[i] {
			if m[i][j] < -1-tol || m[i][j] > 1+tol {
				return fmt.Errorf("%w: element [%d][%d] outside [-1, 1]", ErrCopulaMatrix, i, j)
			}
			if math.Abs(m[i][j]-m[j][i]) > tol {
				return fmt.Errorf("%w: matrix not symmetric at [%d][%d]", ErrCopulaMatrix, i, j)
			}
		}
	}
	return nil
}

// cholesky 下三角 Cholesky 分解，矩阵非正定时返回 false。
func cholesky(m [][]float64) ([][]float64, bool) {
	n := len(m)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := m[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, true
}

// repairPSD 将非半正定目标矩阵修复到最近的可分解矩阵：
// 逐步向单位矩阵收缩 (1-ε)·M + ε·I，保持单位对角，直到 Cholesky 成功。
// 修复量最终体现在报告的 Frobenius 拟合误差里，绝不让模拟崩溃。
func repairPSD(m [][]float64) ([][]float64, [][]float64) {
	n := len(m)
	eps := 1e-8
	for eps < 1 {
		repaired := make([][]float64, n)
		for i := range m {
			repaired[i] = make([]float64, n)
			for j := range m[i] {
				if i == j {
					repaired[i][j] = 1
				} else {
					repaired[i][j] = (1 - eps) * m[i][j]
				}
			}
		}
		if l, ok := cholesky(repaired); ok {
			return repaired, l
		}
		eps *= 10
	}
	// 完全收缩到独立结构，总是可分解
	ident := identityMatrix(n)
	l, _ := cholesky(ident)
	return ident, l
}

func identityMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// sampleCopula 按高斯 Copula 生成具有目标相关结构的抽样矩阵 draws[run][var]：
// 相关标准正态（Cholesky）→ Φ 转均匀 → 边缘分布反 CDF 还原。
func sampleCopula(stream *Stream, vars []ScenarioVar, runs int, target [][]float64) ([][]float64, *CopulaSnapshot, error) {
	n := len(vars)
	chol, ok := cholesky(target)
	repaired := false
	if !ok {
		_, chol = repairPSD(target)
		repaired = true
	}

	draws := make([][]float64, runs)
	z := make([]float64, n)
	for r := 0; r < runs; r++ {
		for j := 0; j < n; j++ {
			z[j] = stream.StdNormal()
		}
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			var y float64
			for k := 0; k <= j; k++ {
				y += chol[j][k] * z[k]
			}
			x, err := vars[j].Quantile(normCDF(y))
			if err != nil {
				return nil, nil, err
			}
			row[j] = x
		}
		draws[r] = row
	}

	achieved, err := spearmanMatrix(draws, n)
	if err != nil {
		return nil, nil, err
	}
	order := make([]string, n)
	for i, v := range vars {
		order[i] = v.ID
	}
	snap := &CopulaSnapshot{
		Order:    order,
		Achieved: achieved,
		FroErr:   frobeniusError(achieved, target),
		Repaired: repaired,
	}
	return draws, snap, nil
}

// samplePairwise 在两个指定变量之间施加目标 Spearman 秩相关，其余变量独立抽样。
// Spearman 目标经 r = 2·sin(π·ρs/6) 映射为高斯 Copula 的 Pearson 相关。
func samplePairwise(stream *Stream, vars []ScenarioVar, runs int, dep *DependenceConfig) ([][]float64, float64, error) {
	n := len(vars)
	first, second := -1, -1
	for i, v := range vars {
		if v.ID == dep.VarA || v.ID == dep.VarB {
			if first < 0 {
				first = i
			} else {
				second = i
			}
		}
	}

	r := 2 * math.Sin(math.Pi*dep.TargetSpearman/6)
	tail := math.Sqrt(1 - r*r)

	draws := make([][]float64, runs)
	for run := 0; run < runs; run++ {
		row := make([]float64, n)
		var zFirst float64
		for j, v := range vars {
			switch j {
			case first:
				zFirst = stream.StdNormal()
				x, err := v.Quantile(normCDF(zFirst))
				if err != nil {
					return nil, 0, err
				}
				row[j] = x
			case second:
				z := r*zFirst + tail*stream.StdNormal()
				x, err := v.Quantile(normCDF(z))
				if err != nil {
					return nil, 0, err
				}
				row[j] = x
			default:
				x, err := stream.Draw(v)
				if err != nil {
					return nil, 0, err
				}
				row[j] = x
			}
		}
		draws[run] = row
	}

	colA := column(draws, first)
	colB := column(draws, second)
	rho, err := SpearmanRho(colA, colB)
	if err != nil {
		return nil, 0, err
	}
	return draws, rho, nil
}

// sampleIndependent 所有变量独立抽样。
func sampleIndependent(stream *Stream, vars []ScenarioVar, runs int) ([][]float64, error) {
	draws := make([][]float64, runs)
	for r := 0; r < runs; r++ {
		row := make([]float64, len(vars))
		for j, v := range vars {
			x, err := stream.Draw(v)
			if err != nil {
				return nil, err
			}
			row[j] = x
		}
		draws[r] = row
	}
	return draws, nil
}

// SpearmanRho 计算两个样本序列的 Spearman 秩相关（秩上的 Pearson，结并列取平均秩）。
func SpearmanRho(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, fmt.Errorf("%w: spearman needs two equal-length samples", ErrInvalidParams)
	}
	return stats.Pearson(ranks(x), ranks(y))
}

// ranks 返回 1 起始的平均秩。
func ranks(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

func spearmanMatrix(draws [][]float64, n int) ([][]float64, error) {
	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = ranks(column(draws, j))
	}
	m := make([][]float64, n)
	for i := 0; i < n; i++ {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			rho, err := stats.Pearson(cols[i], cols[j])
			if err != nil {
				return nil, err
			}
			m[i][j] = rho
			m[j][i] = rho
		}
	}
	return m, nil
}

// frobeniusError 两矩阵之差的 Frobenius 范数。
func frobeniusError(achieved, target [][]float64) float64 {
	var sum float64
	for i := range achieved {
		for j := range achieved[i] {
			d := achieved[i][j] - target[i][j]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

func column(draws [][]float64, j int) []float64 {
	col := make([]float64, len(draws))
	for i := range draws {
		col[i] = draws[i][j]
	}
	return col
}
