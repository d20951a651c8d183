package controllers

import (
	"strconv"
	"time"

	"sentinel-lockup-service/internal/app/middleware"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceLockupController 定义锁楼控制器接口
type InterfaceLockupController interface {
	GetStatus()
	GetPresent()
	GetEligible()
	GetCheckoutOptions()
	Acquire()
	Transfer()
	Execute()
	Open()
	GetHistory()
	GetAudit()
	GetAlerts()
	AcknowledgeAlert()
}

// LockupController 处理锁楼责任相关的请求
type LockupController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLockupController 创建一个新的锁楼控制器
func NewLockupController(ctx *gin.Context, container *container.ServiceContainer) *LockupController {
	return &LockupController{
		Ctx:       ctx,
		Container: container,
	}
}

// AcquireLockupRequest 领取锁楼责任请求
type AcquireLockupRequest struct {
	MemberID uint   `json:"member_id" binding:"required" example:"12"`
	Notes    string `json:"notes" binding:"max=255" example:"first in"`
}

// TransferLockupRequest 移交锁楼责任请求
type TransferLockupRequest struct {
	ToMemberID       uint   `json:"to_member_id" binding:"required" example:"14"`
	Reason           string `json:"reason" example:"manual"`
	Notes            string `json:"notes" binding:"max=255" example:"leaving early"`
	ExpectedHolderID uint   `json:"expected_holder_id" binding:"required" example:"12"`
}

// ExecuteLockupRequest 执行锁楼请求
type ExecuteLockupRequest struct {
	PerformerID uint   `json:"performer_id" binding:"required" example:"14"`
	Notes       string `json:"notes" binding:"max=255" example:"all clear"`
}

// OpenBuildingRequest 开楼请求
type OpenBuildingRequest struct {
	MemberID uint   `json:"member_id" binding:"required" example:"12"`
	Notes    string `json:"notes" binding:"max=255"`
}

func (c *LockupController) lockupService() services.InterfaceLockupService {
	return c.Container.GetService("lockup").(services.InterfaceLockupService)
}

// GetStatus 获取锁楼状态
// @Summary      获取锁楼状态
// @Description  返回楼宇状态、当前持有人和最近一次锁楼信息
// @Tags         Lockup
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.LockupStatusView
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /lockup/status [get]
func (c *LockupController) GetStatus() {
	status, err := c.lockupService().GetStatus(c.Ctx.Request.Context())
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "获取锁楼状态")
		return
	}
	response.Success(c.Ctx, status)
}

// GetPresent 获取锁楼时需要签退的人员
// @Summary      获取在楼人员
// @Description  返回当前在楼的成员和访客
// @Tags         Lockup
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.PresentForLockup
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /lockup/present [get]
func (c *LockupController) GetPresent() {
	present, err := c.lockupService().GetPresentForLockup(c.Ctx.Request.Context())
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "获取在楼人员")
		return
	}
	response.Success(c.Ctx, present)
}

// GetEligible 获取有资格接收锁楼责任的成员
// @Summary      获取合格成员
// @Description  返回持有可接收锁楼资格的成员，checked_in=true时只返回在楼成员
// @Tags         Lockup
// @Produce      json
// @Param        checked_in query bool false "只返回在楼成员，默认为true"
// @Security     BearerAuth
// @Success      200  {array}   services.EligibleMember
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /lockup/eligible [get]
func (c *LockupController) GetEligible() {
	checkedInOnly, err := strconv.ParseBool(c.Ctx.DefaultQuery("checked_in", "true"))
	if err != nil {
		response.ParamError(c.Ctx, "checked_in必须是布尔值")
		return
	}

	eligibility := c.Container.GetService("eligibility").(services.InterfaceEligibilityService)
	members, err := eligibility.ListEligibleMembers(c.Ctx.Request.Context(), checkedInOnly)
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "获取合格成员")
		return
	}
	response.Success(c.Ctx, members)
}

// GetCheckoutOptions 获取成员签退选项
// @Summary      获取签退选项
// @Description  持有人签退前必须移交或执行锁楼，返回可选操作和可接收的成员
// @Tags         Lockup
// @Produce      json
// @Param        memberId path int true "成员ID"
// @Security     BearerAuth
// @Success      200  {object}  services.CheckoutOptions
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /lockup/checkout-options/{memberId} [get]
func (c *LockupController) GetCheckoutOptions() {
	memberID, ok := parseIDParam(c.Ctx, "memberId")
	if !ok {
		return
	}

	options, err := c.lockupService().GetCheckoutOptions(c.Ctx.Request.Context(), memberID)
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "获取签退选项")
		return
	}
	response.Success(c.Ctx, options)
}

// Acquire 领取锁楼责任
// @Summary      领取锁楼责任
// @Description  无人持有时，在楼的合格成员可以领取锁楼责任
// @Tags         Lockup
// @Accept       json
// @Produce      json
// @Param        request body AcquireLockupRequest true "领取请求"
// @Security     BearerAuth
// @Success      200  {object}  services.LockupStatusView
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /lockup/acquire [post]
func (c *LockupController) Acquire() {
	var req AcquireLockupRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	status, err := c.lockupService().AcquireLockup(c.Ctx.Request.Context(), services.AcquireLockupRequest{
		MemberID: req.MemberID,
		Notes:    req.Notes,
	})
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "领取锁楼责任")
		return
	}
	response.Success(c.Ctx, status)
}

// Transfer 移交锁楼责任
// @Summary      移交锁楼责任
// @Description  将锁楼责任移交给在楼的合格成员。expected_holder_id必须是当前持有人，否则返回409，客户端应重新读取状态
// @Tags         Lockup
// @Accept       json
// @Produce      json
// @Param        request body TransferLockupRequest true "移交请求"
// @Security     BearerAuth
// @Success      200  {object}  services.TransferLockupResult
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /lockup/transfer [post]
func (c *LockupController) Transfer() {
	var req TransferLockupRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	reason := models.TransferReason(req.Reason)
	if reason == "" {
		reason = models.TransferReasonManual
	}

	result, err := c.lockupService().TransferLockup(c.Ctx.Request.Context(), services.TransferLockupRequest{
		ToMemberID:       req.ToMemberID,
		ExpectedHolderID: req.ExpectedHolderID,
		Reason:           reason,
		Notes:            req.Notes,
		Actor:            c.adminActor(),
	})
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "移交锁楼责任")
		return
	}
	response.Success(c.Ctx, result)
}

// Execute 执行锁楼
// @Summary      执行锁楼
// @Description  持有人签退楼内所有成员和访客，最后签退自己，楼宇变为已锁
// @Tags         Lockup
// @Accept       json
// @Produce      json
// @Param        request body ExecuteLockupRequest true "执行请求"
// @Security     BearerAuth
// @Success      200  {object}  services.ExecuteLockupResult
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /lockup/execute [post]
func (c *LockupController) Execute() {
	var req ExecuteLockupRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	result, err := c.lockupService().ExecuteLockup(c.Ctx.Request.Context(), services.ExecuteLockupRequest{
		PerformerID: req.PerformerID,
		Notes:       req.Notes,
	})
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "执行锁楼")
		return
	}
	response.Success(c.Ctx, result)
}

// Open 开楼
// @Summary      开楼
// @Description  管理员为已锁的楼宇开楼，并指定锁楼责任持有人
// @Tags         Lockup
// @Accept       json
// @Produce      json
// @Param        request body OpenBuildingRequest true "开楼请求"
// @Security     BearerAuth
// @Success      200  {object}  services.LockupStatusView
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /lockup/open [post]
func (c *LockupController) Open() {
	var req OpenBuildingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	status, err := c.lockupService().OpenBuilding(c.Ctx.Request.Context(), services.OpenBuildingRequest{
		MemberID: req.MemberID,
		Actor:    c.adminActor(),
		Notes:    req.Notes,
	})
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "开楼")
		return
	}
	response.Success(c.Ctx, status)
}

// adminActor 管理员操作时记录为system执行人，签到终端操作返回nil
func (c *LockupController) adminActor() *services.Actor {
	if !middleware.IsAdmin(c.Ctx) {
		return nil
	}
	actor := &services.Actor{Type: models.PerformerTypeSystem}
	if adminID, ok := middleware.CurrentUserID(c.Ctx); ok {
		actor.ID = &adminID
	}
	return actor
}

// GetHistory 获取移交和锁楼历史
// @Summary      获取锁楼历史
// @Description  按时间倒序合并返回移交记录和锁楼记录
// @Tags         Lockup
// @Produce      json
// @Param        limit query int false "条数，默认为20"
// @Param        offset query int false "偏移量"
// @Param        start_date query string false "开始日期 (YYYY-MM-DD 或 RFC3339)"
// @Param        end_date query string false "结束日期 (YYYY-MM-DD 或 RFC3339)"
// @Security     BearerAuth
// @Success      200  {object}  services.HistoryPage
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /lockup/history [get]
func (c *LockupController) GetHistory() {
	limit, err := strconv.Atoi(c.Ctx.DefaultQuery("limit", "20"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的limit")
		return
	}
	offset, err := strconv.Atoi(c.Ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.ParamError(c.Ctx, "无效的offset")
		return
	}

	query := services.HistoryQuery{Limit: limit, Offset: offset}
	if query.StartDate, err = parseDateQuery(c.Ctx, "start_date", false); err != nil {
		response.ParamError(c.Ctx, "无效的start_date")
		return
	}
	if query.EndDate, err = parseDateQuery(c.Ctx, "end_date", true); err != nil {
		response.ParamError(c.Ctx, "无效的end_date")
		return
	}

	page, err := c.lockupService().GetHistory(c.Ctx.Request.Context(), query)
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "获取锁楼历史")
		return
	}
	response.Success(c.Ctx, page)
}

// GetAudit 获取锁楼责任审计日志
// @Summary      获取审计日志
// @Description  分页返回锁楼责任变更的审计记录
// @Tags         Lockup
// @Produce      json
// @Param        pageNum query int false "页码，默认为1"
// @Param        pageSize query int false "每页条数，默认为20"
// @Param        member_id query int false "成员ID"
// @Param        action query string false "操作类型 (acquire, transfer, execute_lockup, open_building, daily_reset)"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /lockup/audit [get]
func (c *LockupController) GetAudit() {
	var query services.AuditQuery
	if err := c.Ctx.ShouldBindQuery(&query.PaginationQuery); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}
	query.Normalize()

	if raw := c.Ctx.Query("member_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.ParamError(c.Ctx, "无效的member_id")
			return
		}
		query.MemberID = uint(id)
	}
	query.Action = models.AuditAction(c.Ctx.Query("action"))

	audit := c.Container.GetService("audit").(services.InterfaceAuditService)
	logs, total, err := audit.List(c.Ctx.Request.Context(), query)
	if err != nil {
		failWithServiceError(c.Ctx, err, lockupErrorCodes, "获取审计日志")
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":    total,
		"pageNum":  query.PageNum,
		"pageSize": query.PageSize,
		"data":     logs,
	})
}

// GetAlerts 获取锁楼告警
// @Summary      获取锁楼告警
// @Description  分页返回定时任务产生的锁楼告警，最新在前
// @Tags         Lockup
// @Produce      json
// @Param        pageNum query int false "页码，默认为1"
// @Param        pageSize query int false "每页条数，默认为20"
// @Param        status query string false "告警状态 (active, acknowledged)"
// @Param        type query string false "告警类型 (lockup_reminder, lockup_not_executed, building_not_secured, member_missed_checkout)"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /lockup/alerts [get]
func (c *LockupController) GetAlerts() {
	var query services.AlertQuery
	if err := c.Ctx.ShouldBindQuery(&query.PaginationQuery); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}
	query.Normalize()
	query.Status = models.AlertStatus(c.Ctx.Query("status"))
	query.Type = models.AlertType(c.Ctx.Query("type"))

	alerts, total, err := c.alertService().List(c.Ctx.Request.Context(), query)
	if err != nil {
		failWithServiceError(c.Ctx, err, alertErrorCodes, "获取锁楼告警")
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":    total,
		"pageNum":  query.PageNum,
		"pageSize": query.PageSize,
		"data":     alerts,
	})
}

// AcknowledgeAlert 确认锁楼告警
// @Summary      确认锁楼告警
// @Description  将告警标记为已确认，记录确认的管理员
// @Tags         Lockup
// @Produce      json
// @Param        id path int true "告警ID"
// @Security     BearerAuth
// @Success      200  {object}  models.LockupAlert
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /lockup/alerts/{id}/acknowledge [post]
func (c *LockupController) AcknowledgeAlert() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	var adminID *uint
	if uid, ok := middleware.CurrentUserID(c.Ctx); ok {
		adminID = &uid
	}
	alert, err := c.alertService().Acknowledge(c.Ctx.Request.Context(), id, adminID)
	if err != nil {
		failWithServiceError(c.Ctx, err, alertErrorCodes, "确认锁楼告警")
		return
	}
	response.Success(c.Ctx, alert)
}

func (c *LockupController) alertService() services.InterfaceAlertService {
	return c.Container.GetService("alert").(services.InterfaceAlertService)
}

// parseDateQuery 解析日期参数，仅给出日期的结束时间取当天末尾
func parseDateQuery(ctx *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// HandleLockupFunc 返回一个处理锁楼请求的Gin处理函数
func HandleLockupFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLockupController(ctx, container)

		switch method {
		case "getStatus":
			controller.GetStatus()
		case "getPresent":
			controller.GetPresent()
		case "getEligible":
			controller.GetEligible()
		case "getCheckoutOptions":
			controller.GetCheckoutOptions()
		case "acquire":
			controller.Acquire()
		case "transfer":
			controller.Transfer()
		case "execute":
			controller.Execute()
		case "open":
			controller.Open()
		case "getHistory":
			controller.GetHistory()
		case "getAudit":
			controller.GetAudit()
		case "getAlerts":
			controller.GetAlerts()
		case "acknowledgeAlert":
			controller.AcknowledgeAlert()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
