package database

import (
	"testing"

	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestMigrateCreatesTables(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: ":memory:"}
	db, err := Open(cfg, logger.Silent)
	require.NoError(t, err)

	require.NoError(t, Migrate(db, "auto"))

	for _, table := range []interface{}{&models.LockupStatus{}, &models.MemberQualification{}, &models.ResponsibilityAuditLog{}} {
		assert.True(t, db.Migrator().HasTable(table), "%T", table)
	}

	require.NoError(t, db.Create(&models.Building{BuildingName: "HQ", BuildingCode: "HQ"}).Error)
	require.NoError(t, Migrate(db, "drop"))

	var count int64
	require.NoError(t, db.Model(&models.Building{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMigrateRejectsUnknownMode(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: ":memory:"}
	db, err := Open(cfg, logger.Silent)
	require.NoError(t, err)

	assert.Error(t, Migrate(db, "alter"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "postgres"}, logger.Silent)
	assert.Error(t, err)
}
