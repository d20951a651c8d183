package middleware

import (
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/error/code"
	"sentinel-lockup-service/internal/error/response"
	"sentinel-lockup-service/internal/infrastructure/config"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var jwtService services.InterfaceJWTService

// Context keys set by the authentication middleware
const (
	ContextUserID  = "userID"
	ContextRole    = "role"
	ContextKioskID = "kioskID"
	ContextClaims  = "claims"
)

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	jwtService = services.NewJWTService(cfg, db)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// authenticate 校验令牌，并要求角色属于roles之一
func authenticate(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.FailWithMessage(c, code.ErrTokenInvalid, "Authorization header is required", nil)
			c.Abort()
			return
		}

		claims, err := jwtService.ExtractClaims(extractToken(authHeader))
		if err != nil {
			response.FailWithMessage(c, code.ErrTokenInvalid, "Invalid token: "+err.Error(), nil)
			c.Abort()
			return
		}

		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			response.Forbidden(c, "Insufficient permissions: requires role "+strings.Join(roles, " or "))
			c.Abort()
			return
		}

		// 存储claims到上下文
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextKioskID, claims.KioskID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// AuthenticateAdmin 验证管理员权限
func AuthenticateAdmin() gin.HandlerFunc {
	return authenticate(models.AdminRoleAdmin)
}

// AuthenticateKiosk 验证签到终端权限，管理员也可以访问终端接口
func AuthenticateKiosk() gin.HandlerFunc {
	return authenticate(models.AdminRoleKiosk, models.AdminRoleAdmin)
}

// IsAdmin 当前请求是否由管理员发起
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextRole) == models.AdminRoleAdmin
}

// CurrentUserID 当前请求的账号ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
