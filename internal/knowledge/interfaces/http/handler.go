// Package http 知识图谱上下文的 HTTP 接口层。
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/decisionsim/internal/knowledge/domain"
	simulation "github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// KnowledgeHandler 知识图谱 HTTP 处理器
type KnowledgeHandler struct{}

// NewKnowledgeHandler 创建处理器
func NewKnowledgeHandler() *KnowledgeHandler {
	return &KnowledgeHandler{}
}

// RegisterRoutes 注册路由
func (h *KnowledgeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/knowledge/graph", h.BuildGraph)
}

// BuildGraph 把一次模拟配置展开为决策知识图谱。
// 图谱构建只读取配置不做采样，输入校验失败时返回 400。
func (h *KnowledgeHandler) BuildGraph(c *gin.Context) {
	var input simulation.SimulationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, domain.BuildGraph(input))
}
