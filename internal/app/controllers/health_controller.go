package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{Container: container}
}

// Ping 健康检查端点
// @Summary      Ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ping [get]
func (h *HealthCheckController) Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 依赖状态检查
// @Summary      依赖状态
// @Description  检查数据库、Redis和MQTT连接以及事件订阅情况
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  ErrorResponse
// @Router       /health/status [get]
func (h *HealthCheckController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := h.Container.Ping(ctx)

	dbStatus := "up"
	sqlDB, err := h.Container.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		dbStatus = "down: " + err.Error()
	}
	deps["database"] = dbStatus

	data := gin.H{"dependencies": deps}
	if hub, ok := h.Container.GetService("hub").(*services.Hub); ok {
		data["subscribers"] = hub.SubscriberCount()
		data["dropped_events"] = hub.Dropped()
	}

	if dbStatus != "up" {
		response.FailWithMessage(c, code.ErrConnectionFailed, "数据库连接失败", data)
		return
	}
	data["status"] = "healthy"
	response.Success(c, data)
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	controller := NewHealthCheckController(container)
	return func(ctx *gin.Context) {
		switch method {
		case "ping":
			controller.Ping(ctx)
		case "status":
			controller.Status(ctx)
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
