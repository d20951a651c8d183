package routes

import (
	_ "sentinel-lockup-service/docs"
	"sentinel-lockup-service/internal/app/controllers"
	"sentinel-lockup-service/internal/app/middleware"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 初始化并返回配置好的路由。gatherer为nil时不暴露/metrics
func SetupRouter(serviceContainer *container.ServiceContainer, cfg *config.Config, gatherer prometheus.Gatherer) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, serviceContainer.GetDB())
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	// Prometheus 指标
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// 注册路由
	registerRoutes(r, serviceContainer, cfg)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
	cfg *config.Config,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 设置正确的Content-Type，确保UTF-8编码
	api.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册签到终端路由
	registerKioskRoutes(api, container, cfg)
	// 注册管理员路由
	registerAdminRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	public := api.Group("")
	public.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	public.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	public.GET("/health", controllers.HandleHealthFunc(container, "ping")) // 兼容Docker健康检查的路由
	public.GET("/health/status", controllers.HandleHealthFunc(container, "status"))

	// 认证路由
	public.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
}

// registerKioskRoutes 注册签到终端和管理员都可以访问的路由
func registerKioskRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	cfg *config.Config,
) {
	kiosk := api.Group("")
	kiosk.Use(middleware.AuthenticateKiosk())
	// 按终端限流，防止重复刷卡
	kiosk.Use(middleware.KioskRateLimiter(cfg.ScanRateLimit, cfg.ScanRateBurst))

	// 锁楼路由
	lockupGroup := kiosk.Group("/lockup")
	lockupGroup.GET("/status", controllers.HandleLockupFunc(container, "getStatus"))
	lockupGroup.GET("/present", controllers.HandleLockupFunc(container, "getPresent"))
	lockupGroup.GET("/eligible", controllers.HandleLockupFunc(container, "getEligible"))
	lockupGroup.GET("/checkout-options/:memberId", controllers.HandleLockupFunc(container, "getCheckoutOptions"))
	lockupGroup.POST("/acquire", controllers.HandleLockupFunc(container, "acquire"))
	lockupGroup.POST("/transfer", controllers.HandleLockupFunc(container, "transfer"))
	lockupGroup.POST("/execute", controllers.HandleLockupFunc(container, "execute"))
	lockupGroup.GET("/events", controllers.HandleEventsFunc(container))

	// 签到路由
	presenceGroup := kiosk.Group("/presence")
	presenceGroup.POST("/checkin", controllers.HandlePresenceFunc(container, "checkIn"))
	presenceGroup.POST("/checkout", controllers.HandlePresenceFunc(container, "checkOut"))
	presenceGroup.POST("/visitors", controllers.HandlePresenceFunc(container, "signInVisitor"))
	presenceGroup.POST("/visitors/:id/signout", controllers.HandlePresenceFunc(container, "signOutVisitor"))
}

// registerAdminRoutes 注册仅管理员可以访问的路由
func registerAdminRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	admin := api.Group("")
	admin.Use(middleware.AuthenticateAdmin())
	// 添加通用限流中间件 - 每秒30个请求，最多突发50个请求
	admin.Use(middleware.IPRateLimiter(30, 50))

	// 锁楼管理路由
	admin.POST("/lockup/open", controllers.HandleLockupFunc(container, "open"))
	admin.GET("/lockup/history", controllers.HandleLockupFunc(container, "getHistory"))
	admin.GET("/lockup/audit", controllers.HandleLockupFunc(container, "getAudit"))
	admin.GET("/lockup/alerts", controllers.HandleLockupFunc(container, "getAlerts"))
	admin.POST("/lockup/alerts/:id/acknowledge", controllers.HandleLockupFunc(container, "acknowledgeAlert"))

	// 资格类型路由
	typeGroup := admin.Group("/qualification-types")
	typeGroup.GET("", controllers.HandleQualificationFunc(container, "getQualificationTypes"))
	typeGroup.GET("/:id", controllers.HandleQualificationFunc(container, "getQualificationType"))
	typeGroup.POST("", controllers.HandleQualificationFunc(container, "createQualificationType"))
	typeGroup.PUT("/:id", controllers.HandleQualificationFunc(container, "updateQualificationType"))
	typeGroup.DELETE("/:id", controllers.HandleQualificationFunc(container, "deleteQualificationType"))

	// 成员路由
	memberGroup := admin.Group("/members")
	memberGroup.GET("", controllers.HandleMemberFunc(container, "getMembers"))
	memberGroup.GET("/:id", controllers.HandleMemberFunc(container, "getMember"))
	memberGroup.POST("", controllers.HandleMemberFunc(container, "createMember"))
	memberGroup.PUT("/:id", controllers.HandleMemberFunc(container, "updateMember"))
	memberGroup.GET("/:id/qualifications", controllers.HandleQualificationFunc(container, "getMemberQualifications"))
	memberGroup.POST("/:id/qualifications", controllers.HandleQualificationFunc(container, "grantQualification"))

	admin.POST("/qualifications/:id/revoke", controllers.HandleQualificationFunc(container, "revokeQualification"))

	// 账号路由
	accountGroup := admin.Group("/accounts")
	accountGroup.GET("", controllers.HandleAdminFunc(container, "getAdmins"))
	accountGroup.GET("/:id", controllers.HandleAdminFunc(container, "getAdmin"))
	accountGroup.POST("", controllers.HandleAdminFunc(container, "createAdmin"))
	accountGroup.PUT("/:id", controllers.HandleAdminFunc(container, "updateAdmin"))
	accountGroup.DELETE("/:id", controllers.HandleAdminFunc(container, "deleteAdmin"))
}
