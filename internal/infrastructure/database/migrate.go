package database

import (
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	Logger "sentinel-lockup-service/pkg/logger"

	"gorm.io/gorm"
)

// allModels 迁移顺序：被引用的表在前
func allModels() []interface{} {
	return []interface{}{
		&models.Admin{},
		&models.Building{},
		&models.Member{},
		&models.CheckinRecord{},
		&models.Visitor{},
		&models.QualificationType{},
		&models.MemberQualification{},
		&models.LockupStatus{},
		&models.LockupTransfer{},
		&models.LockupExecution{},
		&models.ResponsibilityAuditLog{},
		&models.LockupDailyReset{},
		&models.LockupAlert{},
	}
}

// AutoMigrate 自动迁移所有模型（只添加新列和新表）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	Logger.Info("[DB] migration completed")
	return nil
}

// DropAndRecreate 删除并重建所有表
func DropAndRecreate(db *gorm.DB) error {
	tables := allModels()
	migrator := db.Migrator()

	// 逆序删除，先删引用方
	for i := len(tables) - 1; i >= 0; i-- {
		if err := migrator.DropTable(tables[i]); err != nil {
			Logger.Warning("[DB] drop table %T failed: %v", tables[i], err)
		}
	}

	return AutoMigrate(db)
}

// Migrate runs the migration selected by mode ("auto" or "drop")
func Migrate(db *gorm.DB, mode string) error {
	switch mode {
	case "drop":
		Logger.Warning("[DB] running in drop mode, all tables will be recreated")
		return DropAndRecreate(db)
	case "auto", "":
		return AutoMigrate(db)
	default:
		return fmt.Errorf("unsupported DB_MIGRATION_MODE %q", mode)
	}
}
