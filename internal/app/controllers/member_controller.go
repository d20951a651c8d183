package controllers

import (
	"strconv"

	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceMemberController 定义成员控制器接口
type InterfaceMemberController interface {
	GetMembers()
	GetMember()
	CreateMember()
	UpdateMember()
}

// MemberController 处理成员相关的请求
type MemberController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewMemberController 创建一个新的成员控制器
func NewMemberController(ctx *gin.Context, container *container.ServiceContainer) *MemberController {
	return &MemberController{
		Ctx:       ctx,
		Container: container,
	}
}

// MemberRequest 表示创建成员请求
type MemberRequest struct {
	ServiceNumber string `json:"service_number" binding:"required,max=30" example:"A1234567"`
	FirstName     string `json:"first_name" binding:"required,max=50" example:"Jane"`
	LastName      string `json:"last_name" binding:"required,max=50" example:"Doe"`
	Rank          string `json:"rank" binding:"max=30" example:"PO2"`
	BadgeID       string `json:"badge_id" binding:"max=50" example:"0042"`
}

// UpdateMemberRequest 表示更新成员请求
type UpdateMemberRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	Rank      *string `json:"rank" binding:"omitempty,max=30"`
	BadgeID   *string `json:"badge_id" binding:"omitempty,max=50"`
	Status    *string `json:"status" binding:"omitempty,oneof=active inactive"`
}

func (c *MemberController) memberService() services.InterfaceMemberService {
	return c.Container.GetService("member").(services.InterfaceMemberService)
}

// GetMembers 获取成员列表
// @Summary      获取成员列表
// @Tags         Member
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为20"
// @Param        search query string false "按服务编号、姓名或徽章搜索"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members [get]
func (c *MemberController) GetMembers() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	members, total, err := c.memberService().GetMembers(page, pageSize, c.Ctx.Query("search"))
	if err != nil {
		failWithServiceError(c.Ctx, err, memberErrorCodes, "获取成员列表")
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        members,
	})
}

// GetMember 获取单个成员
// @Summary      获取成员详情
// @Tags         Member
// @Produce      json
// @Param        id path int true "成员ID"
// @Security     BearerAuth
// @Success      200  {object}  models.Member
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /members/{id} [get]
func (c *MemberController) GetMember() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	member, err := c.memberService().GetMemberByID(id)
	if err != nil {
		failWithServiceError(c.Ctx, err, memberErrorCodes, "获取成员信息")
		return
	}
	response.Success(c.Ctx, member)
}

// CreateMember 创建成员
// @Summary      创建成员
// @Tags         Member
// @Accept       json
// @Produce      json
// @Param        request body MemberRequest true "成员信息"
// @Security     BearerAuth
// @Success      200  {object}  models.Member
// @Failure      400  {object}  ErrorResponse
// @Router       /members [post]
func (c *MemberController) CreateMember() {
	var req MemberRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	member := &models.Member{
		ServiceNumber: req.ServiceNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Rank:          req.Rank,
		BadgeID:       req.BadgeID,
	}
	if err := c.memberService().CreateMember(member); err != nil {
		failWithServiceError(c.Ctx, err, memberErrorCodes, "创建成员")
		return
	}
	response.Success(c.Ctx, member)
}

// UpdateMember 更新成员
// @Summary      更新成员
// @Tags         Member
// @Accept       json
// @Produce      json
// @Param        id path int true "成员ID"
// @Param        request body UpdateMemberRequest true "更新内容"
// @Security     BearerAuth
// @Success      200  {object}  models.Member
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /members/{id} [put]
func (c *MemberController) UpdateMember() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateMemberRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Rank != nil {
		updates["rank"] = *req.Rank
	}
	if req.BadgeID != nil {
		updates["badge_id"] = *req.BadgeID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		response.ParamError(c.Ctx, "没有需要更新的字段")
		return
	}

	member, err := c.memberService().UpdateMember(id, updates)
	if err != nil {
		failWithServiceError(c.Ctx, err, memberErrorCodes, "更新成员")
		return
	}
	response.Success(c.Ctx, member)
}

// HandleMemberFunc 返回一个处理成员请求的Gin处理函数
func HandleMemberFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewMemberController(ctx, container)

		switch method {
		case "getMembers":
			controller.GetMembers()
		case "getMember":
			controller.GetMember()
		case "createMember":
			controller.CreateMember()
		case "updateMember":
			controller.UpdateMember()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
