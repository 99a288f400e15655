// Package domain 决策知识图谱：把一次模拟配置展开为
// 决策、选项、变量及其依赖关系构成的有向图，供前端可视化。
package domain

import (
	"math"

	simulation "github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// 节点类型
const (
	NodeTypeDecision = "decision"
	NodeTypeOption   = "option"
	NodeTypeVariable = "variable"
)

// 边关系类型
const (
	RelationEvaluates  = "evaluates"   // 决策 -> 选项
	RelationDrivenBy   = "driven_by"   // 选项 -> 变量（按作用方向）
	RelationCorrelates = "correlates"  // 变量 <-> 变量
)

// Node 图节点
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Edge 图边，Weight 语义随 Relation 而异：
// driven_by 为变量权重，correlates 为目标 Spearman 相关。
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight,omitempty"`
}

// Graph 决策知识图谱
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// 低于该绝对值的相关不画边，避免图谱被噪声边淹没
const correlationEdgeFloor = 1e-9

// BuildGraph 从一次模拟配置构建图谱。
// 节点顺序稳定：决策、选项（按输入顺序）、变量（按输入顺序）。
func BuildGraph(in simulation.SimulationInput) Graph {
	var g Graph

	decisionNodeID := "decision:" + in.DecisionID
	g.Nodes = append(g.Nodes, Node{ID: decisionNodeID, Type: NodeTypeDecision, Label: in.DecisionID})

	for _, opt := range in.Options {
		optNodeID := "option:" + opt.ID
		g.Nodes = append(g.Nodes, Node{ID: optNodeID, Type: NodeTypeOption, Label: opt.Label})
		g.Edges = append(g.Edges, Edge{From: decisionNodeID, To: optNodeID, Relation: RelationEvaluates})
	}

	for _, v := range in.ScenarioVars {
		varNodeID := "var:" + v.ID
		g.Nodes = append(g.Nodes, Node{ID: varNodeID, Type: NodeTypeVariable, Label: v.Name})
		// 扰动作用于全部选项，对每个选项画一条 driven_by 边
		for _, opt := range in.Options {
			g.Edges = append(g.Edges, Edge{
				From:     "option:" + opt.ID,
				To:       varNodeID,
				Relation: RelationDrivenBy,
				Weight:   v.EffectiveWeight(),
			})
		}
	}

	if in.Dependence != nil {
		g.Edges = append(g.Edges, Edge{
			From:     "var:" + in.Dependence.VarA,
			To:       "var:" + in.Dependence.VarB,
			Relation: RelationCorrelates,
			Weight:   in.Dependence.TargetSpearman,
		})
	}

	if in.Copula != nil {
		for i := range in.Copula.Matrix {
			for j := i + 1; j < len(in.Copula.Matrix[i]); j++ {
				rho := in.Copula.Matrix[i][j]
				if math.Abs(rho) < correlationEdgeFloor {
					continue
				}
				if i >= len(in.ScenarioVars) || j >= len(in.ScenarioVars) {
					continue
				}
				g.Edges = append(g.Edges, Edge{
					From:     "var:" + in.ScenarioVars[i].ID,
					To:       "var:" + in.ScenarioVars[j].ID,
					Relation: RelationCorrelates,
					Weight:   rho,
				})
			}
		}
	}

	return g
}
