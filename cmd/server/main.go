// @title           Sentinel Lockup Service API
// @version         1.0
// @description     Tracks who is responsible for securing the building and runs the open, transfer and lockup protocols

// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"sentinel-lockup-service/internal/app/routes"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/domain/services/container"
	"sentinel-lockup-service/internal/infrastructure/config"
	"sentinel-lockup-service/internal/infrastructure/database"
	Logger "sentinel-lockup-service/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// 设置最大处理器数量，提高并发性能
	runtime.GOMAXPROCS(runtime.NumCPU())

	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		Logger.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法创建数据库连接池: %v", err)
	}
	db := pool.GetDB()

	// 根据配置执行数据库迁移
	if err := database.Migrate(db, cfg.DBMigrationMode); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 确保系统中有管理员账户
	ensureAdminExists(db, cfg)

	// 创建服务容器
	serviceContainer, err := container.NewServiceContainer(db, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	defer serviceContainer.Close()

	// 启动锁楼定时任务，先补跑错过的日切重置
	if cfg.JobsEnabled {
		startLockupJobs(serviceContainer.GetService("jobs").(*services.LockupJobs))
	} else {
		Logger.Info("锁楼定时任务已禁用")
	}

	// 初始化路由
	r := routes.SetupRouter(serviceContainer, cfg, prometheus.DefaultGatherer)

	// 打印系统信息
	printSystemInfo(pool)

	// 启动服务器 - 监听所有接口(0.0.0.0)而不是只监听localhost
	port := cfg.ServerPort
	Logger.Info("服务器启动在: http://0.0.0.0:%s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		Logger.Error("启动服务器失败: %v", err)
		serviceContainer.Close()
		os.Exit(1)
	}
}

// startLockupJobs 补跑错过的日切重置并启动调度，停止由容器Close负责
func startLockupJobs(jobs *services.LockupJobs) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if ran, err := jobs.CatchUp(ctx); err != nil {
		Logger.Error("补跑日切重置失败: %v", err)
	} else if ran {
		Logger.Info("已补跑错过的日切重置")
	}

	if err := jobs.Start(); err != nil {
		log.Fatalf("启动锁楼定时任务失败: %v", err)
	}
}

// ensureAdminExists 确保系统中有管理员账户
func ensureAdminExists(db *gorm.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.Admin{}).Where("role = ?", models.AdminRoleAdmin).Count(&count)

	if count == 0 {
		// 如果没有管理员，创建默认管理员
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("生成密码哈希失败: %v", err)
		}

		admin := models.Admin{
			Username: "admin",
			Password: string(hashedPassword),
			Role:     models.AdminRoleAdmin,
			Status:   "active",
		}

		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("创建默认管理员失败: %v", err)
		}

		log.Println("已创建默认管理员账户")
	}
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	// 打印数据库连接池信息
	stats, err := pool.Stats()
	if err == nil {
		log.Printf("数据库连接池状态: %+v", stats)
	}

	// 打印系统资源信息
	log.Printf("系统CPU核心数: %d", runtime.NumCPU())
	log.Printf("当前Go协程数: %d", runtime.NumGoroutine())

	// 打印内存信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("系统内存使用: Alloc=%v MiB, TotalAlloc=%v MiB, Sys=%v MiB",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024)
}
