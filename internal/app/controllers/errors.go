package controllers

import (
	"errors"
	"strconv"

	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"
	Logger "sentinel-lockup-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorCode 服务层错误到错误码的映射项
type errorCode struct {
	err  error
	code int
}

var lockupErrorCodes = []errorCode{
	{services.ErrConflict, code.ErrLockupConflict},
	{services.ErrInvalidState, code.ErrLockupInvalidState},
	{services.ErrNotEligible, code.ErrLockupNotEligible},
	{services.ErrNotPresent, code.ErrLockupNotPresent},
	{services.ErrNotFound, code.ErrMemberNotFound},
}

var alertErrorCodes = []errorCode{
	{services.ErrNotFound, code.ErrRecordNotFound},
	{services.ErrInvalidState, code.ErrLockupInvalidState},
}

var presenceErrorCodes = []errorCode{
	{services.ErrHolderCheckout, code.ErrPresenceHolderCheckout},
	{services.ErrInvalidState, code.ErrPresenceInvalidState},
	{services.ErrNotPresent, code.ErrPresenceNotPresent},
	{services.ErrConflict, code.ErrLockupConflict},
	{services.ErrNotFound, code.ErrMemberNotFound},
}

var qualificationErrorCodes = []errorCode{
	{services.ErrNotFound, code.ErrQualificationNotFound},
	{services.ErrAlreadyExists, code.ErrQualificationAlreadyExist},
	{services.ErrInUse, code.ErrQualificationInUse},
	{services.ErrInvalidState, code.ErrQualificationState},
	{services.ErrConflict, code.ErrQualificationState},
}

var memberErrorCodes = []errorCode{
	{services.ErrNotFound, code.ErrMemberNotFound},
	{services.ErrAlreadyExists, code.ErrMemberAlreadyExist},
}

// failWithServiceError 按映射表返回错误响应，未识别的错误按数据库错误处理
func failWithServiceError(ctx *gin.Context, err error, table []errorCode, action string) {
	if errors.Is(err, services.ErrInvalidInput) {
		response.FailWithError(ctx, code.ErrValidation, err)
		return
	}
	for _, m := range table {
		if errors.Is(err, m.err) {
			response.FailWithError(ctx, m.code, err)
			return
		}
	}

	Logger.Error("%s失败: %v", action, err)
	response.FailWithMessage(ctx, code.ErrDatabase, action+"失败", nil)
}

// parseIDParam 解析路径中的ID参数
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.ParamError(ctx, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}
