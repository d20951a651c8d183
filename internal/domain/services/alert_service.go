package services

import (
	"context"
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"
	"time"

	"gorm.io/gorm"
)

// InterfaceAlertService 锁楼告警：持久化并通过特权主题广播
type InterfaceAlertService interface {
	Emit(ctx context.Context, alert *models.LockupAlert) error
	List(ctx context.Context, query AlertQuery) ([]models.LockupAlert, int64, error)
	Acknowledge(ctx context.Context, id uint, adminID *uint) (*models.LockupAlert, error)
}

// AlertQuery filters alert listings; zero values mean "any"
type AlertQuery struct {
	models.PaginationQuery
	Status models.AlertStatus
	Type   models.AlertType
}

// AlertService 告警服务
type AlertService struct {
	DB         *gorm.DB
	Config     *config.Config
	BuildingID uint
	Notifier   InterfaceNotifier
}

// NewAlertService 创建告警服务
func NewAlertService(db *gorm.DB, cfg *config.Config, buildingID uint, notifier InterfaceNotifier) InterfaceAlertService {
	return &AlertService{
		DB:         db,
		Config:     cfg,
		BuildingID: buildingID,
		Notifier:   notifier,
	}
}

// 1 Emit 保存告警并广播到lockup/alert，广播失败只记录日志
func (s *AlertService) Emit(ctx context.Context, alert *models.LockupAlert) error {
	if alert.Type == "" || alert.Title == "" {
		return fmt.Errorf("%w: alert needs a type and a title", ErrInvalidInput)
	}
	if alert.BuildingID == 0 {
		alert.BuildingID = s.BuildingID
	}
	if alert.Severity == "" {
		alert.Severity = models.AlertSeverityWarning
	}
	alert.Status = models.AlertStatusActive

	if err := s.DB.WithContext(ctx).Create(alert).Error; err != nil {
		return err
	}
	Logger.Warning("[Alert] %s %s: %s", alert.Severity, alert.Type, alert.Message)

	if s.Notifier == nil {
		return nil
	}
	timeout := 5 * time.Second
	if s.Config != nil && s.Config.CollaboratorTimeout > 0 {
		timeout = s.Config.CollaboratorTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Notifier.Notify(callCtx, TopicLockupAlert, alert); err != nil {
		Logger.Warning("[Alert] notify %s for alert %d failed: %v", TopicLockupAlert, alert.ID, err)
	}
	return nil
}

// 2 List 分页查询告警，最新在前
func (s *AlertService) List(ctx context.Context, q AlertQuery) ([]models.LockupAlert, int64, error) {
	q.Normalize()

	query := s.DB.WithContext(ctx).Model(&models.LockupAlert{}).Where("building_id = ?", s.BuildingID)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var alerts []models.LockupAlert
	if err := query.Order("id DESC").Offset(q.Offset()).Limit(q.PageSize).Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// 3 Acknowledge 确认告警，已确认的告警不能重复确认
func (s *AlertService) Acknowledge(ctx context.Context, id uint, adminID *uint) (*models.LockupAlert, error) {
	var alert models.LockupAlert
	err := s.DB.WithContext(ctx).Where("id = ? AND building_id = ?", id, s.BuildingID).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: alert %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.DB.WithContext(ctx).Model(&models.LockupAlert{}).
		Where("id = ? AND status = ?", id, models.AlertStatusActive).
		Updates(map[string]interface{}{
			"status":          models.AlertStatusAcknowledged,
			"acknowledged_by": adminID,
			"acknowledged_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: alert %d is already %s", ErrInvalidState, id, alert.Status)
	}

	if err := s.DB.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}
