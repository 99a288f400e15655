// Package http 模拟服务的 HTTP 接口层。
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/decisionsim/internal/simulation/application"
	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// SimulationHandler 模拟服务 HTTP 处理器
type SimulationHandler struct {
	service *application.Service
}

// NewSimulationHandler 创建处理器
func NewSimulationHandler(service *application.Service) *SimulationHandler {
	return &SimulationHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *SimulationHandler) RegisterRoutes(router *gin.RouterGroup) {
	sim := router.Group("/simulation")
	{
		sim.POST("/run", h.RunSimulation)
		sim.POST("/sensitivity", h.RunSensitivity)
		sim.GET("/snapshots/:run_id", h.GetSnapshot)
		sim.GET("/decisions/:decision_id/snapshots", h.ListSnapshots)
		sim.GET("/compare", h.CompareSnapshots)
	}
}

// RunSimulation 执行模拟运行
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var input domain.SimulationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.RunSimulation(c.Request.Context(), input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunSensitivity 执行龙卷风敏感性分析
func (h *SimulationHandler) RunSensitivity(c *gin.Context) {
	var input domain.SensitivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.RunSensitivity(c.Request.Context(), input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// GetSnapshot 按运行 ID 查询快照
func (h *SimulationHandler) GetSnapshot(c *gin.Context) {
	runID := c.Param("run_id")

	snap, err := h.service.GetSnapshot(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListSnapshots 查询决策的全部快照
func (h *SimulationHandler) ListSnapshots(c *gin.Context) {
	decisionID := c.Param("decision_id")

	snaps, err := h.service.ListSnapshots(c.Request.Context(), decisionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// CompareSnapshots 对比两次运行快照
func (h *SimulationHandler) CompareSnapshots(c *gin.Context) {
	baseRunID := c.Query("base")
	targetRunID := c.Query("target")
	if baseRunID == "" || targetRunID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base and target query params are required"})
		return
	}

	cmp, err := h.service.CompareSnapshots(c.Request.Context(), baseRunID, targetRunID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// statusFor 领域校验错误映射为 400，其余为 500
func statusFor(err error) int {
	for _, domainErr := range []error{
		domain.ErrNoOptions,
		domain.ErrNoRuns,
		domain.ErrInvalidDistribution,
		domain.ErrInvalidParams,
		domain.ErrOverrideUnsupported,
		domain.ErrDependenceTarget,
		domain.ErrCopulaMatrix,
	} {
		if errors.Is(err, domainErr) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
