package services

import (
	"context"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	"time"

	"gorm.io/gorm"
)

// InterfaceAuditService 责任变更审计日志，只追加
type InterfaceAuditService interface {
	Record(ctx context.Context, entry *models.ResponsibilityAuditLog) (uint, error)
	List(ctx context.Context, query AuditQuery) ([]models.ResponsibilityAuditLog, int64, error)
}

// AuditQuery filters audit listings; zero values mean "any"
type AuditQuery struct {
	models.PaginationQuery
	MemberID uint
	Action   models.AuditAction
}

// AuditService 审计服务
type AuditService struct {
	DB         *gorm.DB
	Config     *config.Config
	BuildingID uint
}

// NewAuditService 创建审计服务
func NewAuditService(db *gorm.DB, cfg *config.Config, buildingID uint) InterfaceAuditService {
	return &AuditService{
		DB:         db,
		Config:     cfg,
		BuildingID: buildingID,
	}
}

// 1 Record 写入一条审计记录，返回其ID
func (s *AuditService) Record(ctx context.Context, entry *models.ResponsibilityAuditLog) (uint, error) {
	if entry.ID != 0 {
		return 0, fmt.Errorf("%w: audit entries are write-once", ErrInvalidInput)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.TagName == "" {
		entry.TagName = models.LockupTagName
	}
	if entry.PerformedByType == "" {
		entry.PerformedByType = models.PerformerTypeMember
	}
	if entry.BuildingID == 0 {
		entry.BuildingID = s.BuildingID
	}

	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// 2 List 分页查询审计记录，最新在前
func (s *AuditService) List(ctx context.Context, q AuditQuery) ([]models.ResponsibilityAuditLog, int64, error) {
	q.Normalize()

	query := s.DB.WithContext(ctx).Model(&models.ResponsibilityAuditLog{}).Where("building_id = ?", s.BuildingID)
	if q.MemberID != 0 {
		query = query.Where("member_id = ?", q.MemberID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ResponsibilityAuditLog
	if err := query.Order("id DESC").Offset(q.Offset()).Limit(q.PageSize).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
