package controllers

import (
	"io"
	"time"

	"sentinel-lockup-service/internal/app/middleware"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"

	"github.com/gin-gonic/gin"
)

// eventKeepAlive 无事件时发送心跳的间隔
var eventKeepAlive = 20 * time.Second

// EventsController 通过SSE推送锁楼事件
type EventsController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEventsController 创建事件控制器
func NewEventsController(ctx *gin.Context, container *container.ServiceContainer) *EventsController {
	return &EventsController{
		Ctx:       ctx,
		Container: container,
	}
}

// Stream 推送锁楼事件，只有管理员能收到锁楼执行明细
// @Summary      订阅锁楼事件
// @Description  Server-Sent Events 流，事件名为主题（lockup/status、lockup/transfer、lockup/execution）
// @Tags         Lockup
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  services.Event
// @Failure      401  {object}  ErrorResponse
// @Router       /lockup/events [get]
func (c *EventsController) Stream() {
	hub := c.Container.GetService("hub").(*services.Hub)
	events, cancel := hub.Subscribe(middleware.IsAdmin(c.Ctx))
	defer cancel()

	ticker := time.NewTicker(eventKeepAlive)
	defer ticker.Stop()

	c.Ctx.Header("Cache-Control", "no-cache")
	c.Ctx.Header("X-Accel-Buffering", "no")

	done := c.Ctx.Request.Context().Done()
	c.Ctx.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-events:
			if !ok {
				return false
			}
			c.Ctx.SSEvent(evt.Topic, evt)
			return true
		case <-ticker.C:
			c.Ctx.SSEvent("ping", time.Now().Unix())
			return true
		case <-done:
			return false
		}
	})
}

// HandleEventsFunc 返回一个处理事件订阅的Gin处理函数
func HandleEventsFunc(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		NewEventsController(ctx, container).Stream()
	}
}
