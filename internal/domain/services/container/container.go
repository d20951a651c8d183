package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入，启动时构建一次
type ServiceContainer struct {
	db       *gorm.DB
	config   *config.Config
	building *models.Building

	// 基础服务
	jwtService   services.InterfaceJWTService
	adminService services.InterfaceAdminService
	metrics      *services.LockupMetrics

	// 基础设施
	buildingLock services.InterfaceBuildingLock
	redisLock    *services.RedisBuildingLock
	hub          *services.Hub
	mqtt         *services.MQTTNotifier

	// 业务服务
	memberService        services.InterfaceMemberService
	qualificationService services.InterfaceQualificationService
	presenceService      services.InterfacePresenceService
	eligibilityService   services.InterfaceEligibilityService
	auditService         services.InterfaceAuditService
	lockupStore          *services.LockupStore
	lockupService        services.InterfaceLockupService
	alertService         services.InterfaceAlertService
	jobs                 *services.LockupJobs

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器。reg为nil时指标不注册
func NewServiceContainer(db *gorm.DB, cfg *config.Config, reg prometheus.Registerer) (*ServiceContainer, error) {
	if db == nil {
		return nil, errors.New("数据库连接为空")
	}
	if cfg == nil {
		return nil, errors.New("配置为空")
	}

	building, err := EnsureDefaultBuilding(db, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve default building: %w", err)
	}

	container := &ServiceContainer{
		db:       db,
		config:   cfg,
		building: building,
	}
	container.initializeServices(reg)

	jobs, err := services.NewLockupJobs(cfg, container.lockupService, container.alertService)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("configure lockup jobs: %w", err)
	}
	container.jobs = jobs
	return container, nil
}

// EnsureDefaultBuilding 查找或创建默认楼宇
func EnsureDefaultBuilding(db *gorm.DB, cfg *config.Config) (*models.Building, error) {
	code := cfg.DefaultBuildingCode
	if code == "" {
		code = "MAIN"
	}
	name := cfg.DefaultBuildingName
	if name == "" {
		name = code
	}

	var building models.Building
	err := db.Where(models.Building{BuildingCode: code}).
		Attrs(models.Building{BuildingName: name, Status: "active"}).
		FirstOrCreate(&building).Error
	if err != nil {
		return nil, err
	}
	return &building, nil
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices(reg prometheus.Registerer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buildingID := c.building.ID

	c.jwtService = services.NewJWTService(c.config, c.db)
	c.adminService = services.NewAdminService(c.db, c.config)
	c.metrics = services.NewLockupMetrics(reg)

	c.buildingLock = c.newBuildingLock()
	c.hub = services.NewHub()
	var notifier services.InterfaceNotifier = c.hub
	if c.config.MQTTBrokerURL != "" {
		c.mqtt = services.NewMQTTNotifier(c.config)
		notifier = services.MultiNotifier{c.hub, c.mqtt}

		// 后台连接，broker不可用时不阻塞启动
		go func(n *services.MQTTNotifier) {
			if err := n.Connect(context.Background()); err != nil {
				Logger.Error("[MQTT] %v", err)
			}
		}(c.mqtt)
	}

	// store先于presence创建：presence通过store判断持有人
	c.lockupStore = services.NewLockupStore(c.db, buildingID)
	presence := services.NewPresenceService(c.db, c.config, c.lockupStore, c.buildingLock, buildingID)
	c.presenceService = presence
	c.memberService = services.NewMemberService(c.db, c.config)
	c.qualificationService = services.NewQualificationService(c.db, c.config)
	c.eligibilityService = services.NewEligibilityService(c.db, c.config, c.qualificationService, presence)
	c.auditService = services.NewAuditService(c.db, c.config, buildingID)
	c.alertService = services.NewAlertService(c.db, c.config, buildingID, notifier)

	c.lockupService = services.NewLockupService(c.db, c.config, services.LockupDeps{
		Store:       c.lockupStore,
		Eligibility: c.eligibilityService,
		Presence:    c.presenceService,
		Audit:       c.auditService,
		Notifier:    notifier,
		Lock:        c.buildingLock,
		Metrics:     c.metrics,
	})

	Logger.Info("[Container] services ready for building %s (id %d)", c.building.BuildingCode, buildingID)
}

// newBuildingLock 配置了Redis时使用跨实例锁，Redis不可用时退回进程内锁
func (c *ServiceContainer) newBuildingLock() services.InterfaceBuildingLock {
	wait := c.config.BuildingLockWait
	if wait <= 0 {
		wait = 10 * time.Second
	}

	if c.config.RedisHost == "" {
		return services.NewLocalBuildingLock(wait)
	}

	lock := services.NewRedisBuildingLock(c.config)
	if lock.TTL <= 0 {
		lock.TTL = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lock.Ping(ctx); err != nil {
		Logger.Warning("Redis连接测试失败: %v，将使用进程内楼宇锁", err)
		_ = lock.Close()
		return services.NewLocalBuildingLock(wait)
	}

	c.redisLock = lock
	Logger.Info("[Lockup] using Redis building lock at %s", c.config.GetRedisAddr())
	return lock
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "building":
		return c.building
	case "jwt":
		return c.jwtService
	case "admin":
		return c.adminService
	case "member":
		return c.memberService
	case "qualification":
		return c.qualificationService
	case "presence":
		return c.presenceService
	case "eligibility":
		return c.eligibilityService
	case "audit":
		return c.auditService
	case "lockup":
		return c.lockupService
	case "alert":
		return c.alertService
	case "jobs":
		return c.jobs
	case "hub":
		return c.hub
	case "building_lock":
		return c.buildingLock
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	return c.db
}

// Ping 检查外部依赖（Redis和MQTT）的状态，未配置的依赖不出现在结果中
func (c *ServiceContainer) Ping(ctx context.Context) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := map[string]string{}
	if c.redisLock != nil {
		if err := c.redisLock.Ping(ctx); err != nil {
			status["redis"] = "down: " + err.Error()
		} else {
			status["redis"] = "up"
		}
	}
	if c.mqtt != nil {
		if c.mqtt.Client.IsConnected() {
			status["mqtt"] = "up"
		} else {
			status["mqtt"] = "down"
		}
	}
	return status
}

// Close 释放外部连接
func (c *ServiceContainer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jobs != nil {
		c.jobs.Stop()
	}
	if c.mqtt != nil {
		c.mqtt.Disconnect()
	}
	if c.redisLock != nil {
		if err := c.redisLock.Close(); err != nil {
			Logger.Warning("关闭Redis连接失败: %v", err)
		}
	}
}
