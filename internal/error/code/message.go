package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高，请稍后再试",
	ErrForbidden:       "权限不足",

	// 账号和成员相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户名或密码错误",
	ErrMemberNotFound:        "成员不存在",
	ErrMemberAlreadyExist:    "成员已存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 资格相关错误码
	ErrQualificationNotFound:     "资格不存在",
	ErrQualificationAlreadyExist: "资格已存在",
	ErrQualificationInUse:        "资格类型仍在使用中",
	ErrQualificationState:        "资格状态不允许该操作",

	// Lockup相关错误码
	ErrLockupInvalidState: "当前lockup状态不允许该操作",
	ErrLockupNotEligible:  "成员没有接收lockup的资格",
	ErrLockupNotPresent:   "成员不在楼内",
	ErrLockupConflict:     "lockup状态已被其他操作修改，请刷新后重试",

	// 签到相关错误码
	ErrPresenceHolderCheckout: "lockup持有人必须先移交或执行lockup才能签退",
	ErrPresenceInvalidState:   "签到状态不允许该操作",
	ErrPresenceNotPresent:     "不在楼内",

	// 健康检查相关错误码
	ErrConnectionFailed: "连接失败",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,
	ErrForbidden:       StatusForbidden,

	// 账号和成员相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrMemberNotFound:        StatusNotFound,
	ErrMemberAlreadyExist:    StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 资格相关错误码
	ErrQualificationNotFound:     StatusNotFound,
	ErrQualificationAlreadyExist: StatusBadRequest,
	ErrQualificationInUse:        StatusConflict,
	ErrQualificationState:        StatusConflict,

	// Lockup相关错误码
	ErrLockupInvalidState: StatusConflict,
	ErrLockupNotEligible:  StatusUnprocessableEntity,
	ErrLockupNotPresent:   StatusUnprocessableEntity,
	ErrLockupConflict:     StatusConflict,

	// 签到相关错误码
	ErrPresenceHolderCheckout: StatusConflict,
	ErrPresenceInvalidState:   StatusConflict,
	ErrPresenceNotPresent:     StatusConflict,

	// 健康检查相关错误码
	ErrConnectionFailed: StatusServiceUnavailable,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
