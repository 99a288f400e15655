// Package http 护栏上下文的 HTTP 接口层。
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/decisionsim/internal/guardrail/application"
	"github.com/wyfcoding/decisionsim/internal/guardrail/domain"
)

// GuardrailHandler 护栏 HTTP 处理器
type GuardrailHandler struct {
	service *application.GuardrailService
}

// NewGuardrailHandler 创建处理器
func NewGuardrailHandler(service *application.GuardrailService) *GuardrailHandler {
	return &GuardrailHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *GuardrailHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/guardrail")
	{
		g.POST("", h.CreateGuardrail)
		g.GET("/:id", h.GetGuardrail)
		g.POST("/outcomes", h.RecordOutcome)
		g.POST("/:id/adjust", h.AdjustGuardrail)
	}
}

// CreateGuardrail 创建或更新护栏
func (h *GuardrailHandler) CreateGuardrail(c *gin.Context) {
	var input domain.Guardrail
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.service.CreateGuardrail(c.Request.Context(), input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, g)
}

// GetGuardrail 查询护栏
func (h *GuardrailHandler) GetGuardrail(c *gin.Context) {
	g, err := h.service.GetGuardrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, g)
}

// RecordOutcome 记录一次实际观测
func (h *GuardrailHandler) RecordOutcome(c *gin.Context) {
	var record domain.OutcomeRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RecordOutcome(c.Request.Context(), record); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// AdjustGuardrail 根据最近观测校准阈值
func (h *GuardrailHandler) AdjustGuardrail(c *gin.Context) {
	adjustment, err := h.service.AdjustGuardrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, adjustment)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrGuardrailNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidGuardrail), errors.Is(err, domain.ErrNoOutcomes):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
