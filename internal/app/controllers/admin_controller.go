package controllers

import (
	"strconv"
	"strings"

	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

var adminErrorCodes = []errorCode{
	{services.ErrNotFound, code.ErrUserNotFound},
	{services.ErrAlreadyExists, code.ErrUserAlreadyExist},
	{services.ErrInvalidState, code.ErrForbidden},
}

// InterfaceAdminController 定义操作员账号控制器接口
type InterfaceAdminController interface {
	GetAdmins()
	GetAdmin()
	CreateAdmin()
	UpdateAdmin()
	DeleteAdmin()
}

// AdminController 操作员账号控制器，管理管理员和签到终端账号
type AdminController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAdminController 创建一个新的操作员账号控制器
func NewAdminController(ctx *gin.Context, container *container.ServiceContainer) *AdminController {
	return &AdminController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateAdminRequest 创建账号请求
type CreateAdminRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"kiosk-front"`
	Password string `json:"password" binding:"required,min=6" example:"Kiosk@123"`
	Email    string `json:"email" binding:"omitempty,email" example:"ops@example.com"`
	Role     string `json:"role" binding:"omitempty,oneof=admin kiosk" example:"kiosk"`
}

// UpdateAdminRequest 更新账号请求
type UpdateAdminRequest struct {
	Email    string `json:"email" binding:"omitempty,email" example:"ops@example.com"`
	Password string `json:"password" binding:"omitempty,min=6" example:"NewPassword@123"`
	Status   string `json:"status" binding:"omitempty,oneof=active inactive" example:"inactive"`
}

// AdminView 账号信息（不含密码）
type AdminView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func newAdminView(admin *models.Admin) AdminView {
	return AdminView{
		ID:       admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
		Role:     admin.Role,
		Status:   admin.Status,
	}
}

// HandleAdminFunc 返回一个处理账号请求的Gin处理函数
func HandleAdminFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAdminController(ctx, container)

		switch method {
		case "getAdmins":
			controller.GetAdmins()
		case "getAdmin":
			controller.GetAdmin()
		case "createAdmin":
			controller.CreateAdmin()
		case "updateAdmin":
			controller.UpdateAdmin()
		case "deleteAdmin":
			controller.DeleteAdmin()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *AdminController) adminService() services.InterfaceAdminService {
	return c.Container.GetService("admin").(services.InterfaceAdminService)
}

// 1. GetAdmins 获取账号列表
// @Summary      获取账号列表
// @Description  分页获取管理员和签到终端账号
// @Tags         Account
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        search query string false "按用户名或邮箱搜索"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /accounts [get]
// @Security     BearerAuth
func (c *AdminController) GetAdmins() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	admins, total, err := c.adminService().GetAllAdmins(page, pageSize, c.Ctx.Query("search"))
	if err != nil {
		failWithServiceError(c.Ctx, err, adminErrorCodes, "获取账号列表")
		return
	}

	views := make([]AdminView, 0, len(admins))
	for i := range admins {
		views = append(views, newAdminView(&admins[i]))
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        views,
	})
}

// 2. GetAdmin 获取账号详情
// @Summary      获取账号详情
// @Tags         Account
// @Produce      json
// @Param        id path int true "账号ID"
// @Success      200  {object}  AdminView
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /accounts/{id} [get]
// @Security     BearerAuth
func (c *AdminController) GetAdmin() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	admin, err := c.adminService().GetAdminByID(id)
	if err != nil {
		failWithServiceError(c.Ctx, err, adminErrorCodes, "获取账号信息")
		return
	}
	response.Success(c.Ctx, newAdminView(admin))
}

// 3. CreateAdmin 创建账号
// @Summary      创建账号
// @Description  创建管理员或签到终端账号，终端账号的用户名即终端标识
// @Tags         Account
// @Accept       json
// @Produce      json
// @Param        request body CreateAdminRequest true "账号信息"
// @Success      200  {object}  AdminView
// @Failure      400  {object}  ErrorResponse
// @Router       /accounts [post]
// @Security     BearerAuth
func (c *AdminController) CreateAdmin() {
	var req CreateAdminRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	admin := &models.Admin{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password, // 密码加密将在 Service 层处理
		Email:    strings.TrimSpace(req.Email),
		Role:     req.Role,
	}
	if err := c.adminService().CreateAdmin(admin); err != nil {
		failWithServiceError(c.Ctx, err, adminErrorCodes, "创建账号")
		return
	}
	response.Success(c.Ctx, newAdminView(admin))
}

// 4. UpdateAdmin 更新账号
// @Summary      更新账号
// @Tags         Account
// @Accept       json
// @Produce      json
// @Param        id path int true "账号ID"
// @Param        request body UpdateAdminRequest true "更新的账号信息"
// @Success      200  {object}  AdminView
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /accounts/{id} [put]
// @Security     BearerAuth
func (c *AdminController) UpdateAdmin() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateAdminRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 构建更新字段映射
	updates := make(map[string]interface{})
	if req.Email != "" {
		updates["email"] = strings.TrimSpace(req.Email)
	}
	if req.Password != "" {
		updates["password"] = req.Password
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if len(updates) == 0 {
		response.ParamError(c.Ctx, "没有需要更新的字段")
		return
	}

	admin, err := c.adminService().UpdateAdmin(id, updates)
	if err != nil {
		failWithServiceError(c.Ctx, err, adminErrorCodes, "更新账号")
		return
	}
	response.Success(c.Ctx, newAdminView(admin))
}

// 5. DeleteAdmin 删除账号
// @Summary      删除账号
// @Description  删除指定账号，不能删除最后一个管理员
// @Tags         Account
// @Produce      json
// @Param        id path int true "账号ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /accounts/{id} [delete]
// @Security     BearerAuth
func (c *AdminController) DeleteAdmin() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.adminService().DeleteAdmin(id); err != nil {
		failWithServiceError(c.Ctx, err, adminErrorCodes, "删除账号")
		return
	}
	response.Success(c.Ctx, nil)
}
