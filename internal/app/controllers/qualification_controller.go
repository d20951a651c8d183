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

// InterfaceQualificationController 定义资格控制器接口
type InterfaceQualificationController interface {
	GetQualificationTypes()
	GetQualificationType()
	CreateQualificationType()
	UpdateQualificationType()
	DeleteQualificationType()
	GetMemberQualifications()
	GrantQualification()
	RevokeQualification()
}

// QualificationController 处理资格类型和成员资格相关的请求
type QualificationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewQualificationController 创建一个新的资格控制器
func NewQualificationController(ctx *gin.Context, container *container.ServiceContainer) *QualificationController {
	return &QualificationController{
		Ctx:       ctx,
		Container: container,
	}
}

// QualificationTypeRequest 表示创建资格类型请求
type QualificationTypeRequest struct {
	Code             string `json:"code" binding:"required,max=20" example:"DDS"`
	Name             string `json:"name" binding:"required,max=100" example:"DDS Qualified"`
	Description      string `json:"description" binding:"max=255"`
	CanReceiveLockup bool   `json:"can_receive_lockup" example:"true"`
	DisplayOrder     int    `json:"display_order" example:"1"`
	TagID            *uint  `json:"tag_id"`
}

// UpdateQualificationTypeRequest 表示更新资格类型请求，未提供的字段保持不变
type UpdateQualificationTypeRequest struct {
	Code             *string `json:"code" binding:"omitempty,max=20"`
	Name             *string `json:"name" binding:"omitempty,max=100"`
	Description      *string `json:"description" binding:"omitempty,max=255"`
	CanReceiveLockup *bool   `json:"can_receive_lockup"`
	DisplayOrder     *int    `json:"display_order"`
	TagID            *uint   `json:"tag_id"`
}

// GrantQualificationRequest 表示授予资格请求
type GrantQualificationRequest struct {
	QualificationTypeID uint       `json:"qualification_type_id" binding:"required" example:"1"`
	ExpiresAt           *time.Time `json:"expires_at" example:"2027-01-01T00:00:00Z"`
	Notes               string     `json:"notes" binding:"max=255"`
}

// RevokeQualificationRequest 表示撤销资格请求
type RevokeQualificationRequest struct {
	Reason string `json:"reason" binding:"max=255" example:"course expired"`
}

func (c *QualificationController) qualificationService() services.InterfaceQualificationService {
	return c.Container.GetService("qualification").(services.InterfaceQualificationService)
}

// GetQualificationTypes 获取所有资格类型
// @Summary      获取资格类型列表
// @Description  按显示顺序返回所有资格类型，lockup_only=true时只返回可接收锁楼的类型
// @Tags         Qualification
// @Produce      json
// @Param        lockup_only query bool false "只返回可接收锁楼的类型"
// @Security     BearerAuth
// @Success      200  {array}   models.QualificationType
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /qualification-types [get]
func (c *QualificationController) GetQualificationTypes() {
	var (
		types []models.QualificationType
		err   error
	)
	if lockupOnly, _ := strconv.ParseBool(c.Ctx.Query("lockup_only")); lockupOnly {
		types, err = c.qualificationService().GetLockupEligibleTypes()
	} else {
		types, err = c.qualificationService().GetQualificationTypes()
	}
	if err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "获取资格类型列表")
		return
	}
	response.Success(c.Ctx, types)
}

// GetQualificationType 获取单个资格类型
// @Summary      获取资格类型详情
// @Tags         Qualification
// @Produce      json
// @Param        id path int true "资格类型ID"
// @Security     BearerAuth
// @Success      200  {object}  models.QualificationType
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /qualification-types/{id} [get]
func (c *QualificationController) GetQualificationType() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	qt, err := c.qualificationService().GetQualificationTypeByID(id)
	if err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "获取资格类型")
		return
	}
	response.Success(c.Ctx, qt)
}

// CreateQualificationType 创建资格类型
// @Summary      创建资格类型
// @Tags         Qualification
// @Accept       json
// @Produce      json
// @Param        request body QualificationTypeRequest true "资格类型信息"
// @Security     BearerAuth
// @Success      200  {object}  models.QualificationType
// @Failure      400  {object}  ErrorResponse
// @Router       /qualification-types [post]
func (c *QualificationController) CreateQualificationType() {
	var req QualificationTypeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	qt := &models.QualificationType{
		Code:             req.Code,
		Name:             req.Name,
		Description:      req.Description,
		CanReceiveLockup: req.CanReceiveLockup,
		DisplayOrder:     req.DisplayOrder,
		TagID:            req.TagID,
	}
	if err := c.qualificationService().CreateQualificationType(qt); err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "创建资格类型")
		return
	}
	response.Success(c.Ctx, qt)
}

// UpdateQualificationType 更新资格类型
// @Summary      更新资格类型
// @Description  修改can_receive_lockup会立即影响所有持有该类型资格的成员
// @Tags         Qualification
// @Accept       json
// @Produce      json
// @Param        id path int true "资格类型ID"
// @Param        request body UpdateQualificationTypeRequest true "更新内容"
// @Security     BearerAuth
// @Success      200  {object}  models.QualificationType
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /qualification-types/{id} [put]
func (c *QualificationController) UpdateQualificationType() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateQualificationTypeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	qt, err := c.qualificationService().UpdateQualificationType(id, services.QualificationTypeUpdate{
		Code:             req.Code,
		Name:             req.Name,
		Description:      req.Description,
		CanReceiveLockup: req.CanReceiveLockup,
		DisplayOrder:     req.DisplayOrder,
		TagID:            req.TagID,
	})
	if err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "更新资格类型")
		return
	}
	response.Success(c.Ctx, qt)
}

// DeleteQualificationType 删除资格类型
// @Summary      删除资格类型
// @Description  仍有有效授予记录的类型不能删除
// @Tags         Qualification
// @Produce      json
// @Param        id path int true "资格类型ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /qualification-types/{id} [delete]
func (c *QualificationController) DeleteQualificationType() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.qualificationService().DeleteQualificationType(id); err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "删除资格类型")
		return
	}
	response.Success(c.Ctx, nil)
}

// GetMemberQualifications 获取成员的资格
// @Summary      获取成员资格
// @Tags         Qualification
// @Produce      json
// @Param        id path int true "成员ID"
// @Param        active_only query bool false "只返回有效资格"
// @Security     BearerAuth
// @Success      200  {array}   models.MemberQualification
// @Failure      400  {object}  ErrorResponse
// @Router       /members/{id}/qualifications [get]
func (c *QualificationController) GetMemberQualifications() {
	memberID, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}
	activeOnly, _ := strconv.ParseBool(c.Ctx.Query("active_only"))

	quals, err := c.qualificationService().GetMemberQualifications(memberID, activeOnly)
	if err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "获取成员资格")
		return
	}
	response.Success(c.Ctx, quals)
}

// GrantQualification 授予成员资格
// @Summary      授予资格
// @Tags         Qualification
// @Accept       json
// @Produce      json
// @Param        id path int true "成员ID"
// @Param        request body GrantQualificationRequest true "授予信息"
// @Security     BearerAuth
// @Success      200  {object}  models.MemberQualification
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /members/{id}/qualifications [post]
func (c *QualificationController) GrantQualification() {
	memberID, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req GrantQualificationRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, err.Error())
		return
	}

	grant := services.GrantQualificationRequest{
		MemberID:            memberID,
		QualificationTypeID: req.QualificationTypeID,
		ExpiresAt:           req.ExpiresAt,
		Notes:               req.Notes,
	}
	if adminID, ok := middleware.CurrentUserID(c.Ctx); ok {
		grant.GrantedBy = &adminID
	}

	qual, err := c.qualificationService().GrantQualification(grant)
	if err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "授予资格")
		return
	}
	response.Success(c.Ctx, qual)
}

// RevokeQualification 撤销成员资格
// @Summary      撤销资格
// @Tags         Qualification
// @Accept       json
// @Produce      json
// @Param        id path int true "成员资格ID"
// @Param        request body RevokeQualificationRequest false "撤销原因"
// @Security     BearerAuth
// @Success      200  {object}  models.MemberQualification
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /qualifications/{id}/revoke [post]
func (c *QualificationController) RevokeQualification() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req RevokeQualificationRequest
	if c.Ctx.Request.ContentLength > 0 {
		if err := c.Ctx.ShouldBindJSON(&req); err != nil {
			response.ParamError(c.Ctx, err.Error())
			return
		}
	}

	var revokedBy *uint
	if adminID, ok := middleware.CurrentUserID(c.Ctx); ok {
		revokedBy = &adminID
	}

	qual, err := c.qualificationService().RevokeQualification(id, revokedBy, req.Reason)
	if err != nil {
		failWithServiceError(c.Ctx, err, qualificationErrorCodes, "撤销资格")
		return
	}
	response.Success(c.Ctx, qual)
}

// HandleQualificationFunc 返回一个处理资格请求的Gin处理函数
func HandleQualificationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewQualificationController(ctx, container)

		switch method {
		case "getQualificationTypes":
			controller.GetQualificationTypes()
		case "getQualificationType":
			controller.GetQualificationType()
		case "createQualificationType":
			controller.CreateQualificationType()
		case "updateQualificationType":
			controller.UpdateQualificationType()
		case "deleteQualificationType":
			controller.DeleteQualificationType()
		case "getMemberQualifications":
			controller.GetMemberQualifications()
		case "grantQualification":
			controller.GrantQualification()
		case "revokeQualification":
			controller.RevokeQualification()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}
