package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusUnprocessableEntity - 422: 前置条件不满足.
	StatusUnprocessableEntity = 422
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusServiceUnavailable - 503: 服务不可用.
	StatusServiceUnavailable = 503
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrForbidden - 403: 权限不足.
	ErrForbidden
)

// 账号和成员相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户名或密码错误.
	ErrUserPasswordIncorrect
	// ErrMemberNotFound - 404: 成员不存在.
	ErrMemberNotFound
	// ErrMemberAlreadyExist - 400: 成员已存在.
	ErrMemberAlreadyExist
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 资格相关错误码 (106xxx).
const (
	// ErrQualificationNotFound - 404: 资格或资格类型不存在.
	ErrQualificationNotFound int = iota + 106000
	// ErrQualificationAlreadyExist - 400: 资格已存在.
	ErrQualificationAlreadyExist
	// ErrQualificationInUse - 409: 资格类型仍有有效授予.
	ErrQualificationInUse
	// ErrQualificationState - 409: 资格状态不允许该操作.
	ErrQualificationState
)

// Lockup相关错误码 (107xxx).
const (
	// ErrLockupInvalidState - 409: 楼宇状态或持有人不允许该操作.
	ErrLockupInvalidState int = iota + 107000
	// ErrLockupNotEligible - 422: 成员没有接收lockup的资格.
	ErrLockupNotEligible
	// ErrLockupNotPresent - 422: 成员不在楼内.
	ErrLockupNotPresent
	// ErrLockupConflict - 409: 并发修改冲突.
	ErrLockupConflict
)

// 签到相关错误码 (108xxx).
const (
	// ErrPresenceHolderCheckout - 409: lockup持有人不能直接签退.
	ErrPresenceHolderCheckout int = iota + 108000
	// ErrPresenceInvalidState - 409: 签到状态不允许该操作.
	ErrPresenceInvalidState
	// ErrPresenceNotPresent - 409: 不在楼内.
	ErrPresenceNotPresent
)

// 健康检查相关错误码 (109xxx).
const (
	// ErrConnectionFailed - 503: 依赖服务连接失败.
	ErrConnectionFailed int = iota + 109000
)
