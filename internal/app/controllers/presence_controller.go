package controllers

import (
	"sentinel-lockup-service/internal/app/middleware"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfacePresenceController 定义签到控制器接口
type InterfacePresenceController interface {
	CheckIn()
	CheckOut()
	SignInVisitor()
	SignOutVisitor()
}

// PresenceController 处理签到签退相关的请求
type PresenceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewPresenceController 创建一个新的签到控制器
func NewPresenceController(ctx *gin.Context, container *container.ServiceContainer) *PresenceController {
	return &PresenceController{
		Ctx:       ctx,
		Container: container,
	}
}

// BadgeScanRequest 表示刷卡请求，member_id和badge_id二选一
type BadgeScanRequest struct {
	MemberID uint   `json:"member_id" example:"12"`
	BadgeID  string `json:"badge_id" example:"0042"`
}

// VisitorRequest 表示访客登记请求
type VisitorRequest struct {
	Name         string `json:"name" binding:"required,max=100" example:"John Smith"`
	Organization string `json:"organization" binding:"max=100" example:"Contractor Ltd"`
	VisitType    string `json:"visit_type" binding:"max=30" example:"contractor"`
}

func (c *PresenceController) presenceService() services.InterfacePresenceService {
	return c.Container.GetService("presence").(services.InterfacePresenceService)
}

func (c *PresenceController) bindScan() (services.BadgeScan, bool) {
	var req BadgeScanRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return services.BadgeScan{}, false
	}
	if req.MemberID == 0 && req.BadgeID == "" {
		response.ParamError(c.Ctx, "member_id或badge_id不能为空")
		return services.BadgeScan{}, false
	}
	return services.BadgeScan{
		MemberID: req.MemberID,
		BadgeID:  req.BadgeID,
		KioskID:  c.Ctx.GetString(middleware.ContextKioskID),
	}, true
}

// CheckIn 成员签到
// @Summary      成员签到
// @Tags         Presence
// @Accept       json
// @Produce      json
// @Param        request body BadgeScanRequest true "刷卡信息"
// @Security     BearerAuth
// @Success      200  {object}  models.CheckinRecord
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /presence/checkin [post]
func (c *PresenceController) CheckIn() {
	scan, ok := c.bindScan()
	if !ok {
		return
	}

	record, err := c.presenceService().CheckIn(c.Ctx.Request.Context(), scan)
	if err != nil {
		failWithServiceError(c.Ctx, err, presenceErrorCodes, "签到")
		return
	}
	response.Success(c.Ctx, record)
}

// CheckOut 成员签退
// @Summary      成员签退
// @Description  锁楼责任持有人不能直接签退，需先移交或执行锁楼
// @Tags         Presence
// @Accept       json
// @Produce      json
// @Param        request body BadgeScanRequest true "刷卡信息"
// @Security     BearerAuth
// @Success      200  {object}  models.CheckinRecord
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /presence/checkout [post]
func (c *PresenceController) CheckOut() {
	scan, ok := c.bindScan()
	if !ok {
		return
	}

	record, err := c.presenceService().MemberCheckOut(c.Ctx.Request.Context(), scan)
	if err != nil {
		failWithServiceError(c.Ctx, err, presenceErrorCodes, "签退")
		return
	}
	response.Success(c.Ctx, record)
}

// SignInVisitor 访客登记
// @Summary      访客登记
// @Tags         Presence
// @Accept       json
// @Produce      json
// @Param        request body VisitorRequest true "访客信息"
// @Security     BearerAuth
// @Success      200  {object}  models.Visitor
// @Failure      400  {object}  ErrorResponse
// @Router       /presence/visitors [post]
func (c *PresenceController) SignInVisitor() {
	var req VisitorRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	visitor := &models.Visitor{
		Name:         req.Name,
		Organization: req.Organization,
		VisitType:    req.VisitType,
	}
	if err := c.presenceService().SignInVisitor(c.Ctx.Request.Context(), visitor); err != nil {
		failWithServiceError(c.Ctx, err, presenceErrorCodes, "访客登记")
		return
	}
	response.Success(c.Ctx, visitor)
}

// SignOutVisitor 访客签退
// @Summary      访客签退
// @Tags         Presence
// @Produce      json
// @Param        id path int true "访客ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /presence/visitors/{id}/signout [post]
func (c *PresenceController) SignOutVisitor() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.presenceService().SignOutVisitor(c.Ctx.Request.Context(), id); err != nil {
		failWithServiceError(c.Ctx, err, presenceErrorCodes, "访客签退")
		return
	}
	response.Success(c.Ctx, nil)
}

// HandlePresenceFunc 返回一个处理签到请求的Gin处理函数
func HandlePresenceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewPresenceController(ctx, container)

		switch method {
		case "checkIn":
			controller.CheckIn()
		case "checkOut":
			controller.CheckOut()
		case "signInVisitor":
			controller.SignInVisitor()
		case "signOutVisitor":
			controller.SignOutVisitor()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
