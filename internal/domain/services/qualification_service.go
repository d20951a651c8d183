package services

import (
	"context"
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	"strings"
	"time"

	"gorm.io/gorm"
)

// InterfaceQualificationService 资格类型与成员资格授予
type InterfaceQualificationService interface {
	GetQualificationTypes() ([]models.QualificationType, error)
	GetLockupEligibleTypes() ([]models.QualificationType, error)
	GetQualificationTypeByID(id uint) (*models.QualificationType, error)
	CreateQualificationType(qt *models.QualificationType) error
	UpdateQualificationType(id uint, update QualificationTypeUpdate) (*models.QualificationType, error)
	DeleteQualificationType(id uint) error
	GetMemberQualifications(memberID uint, activeOnly bool) ([]models.MemberQualification, error)
	GrantQualification(req GrantQualificationRequest) (*models.MemberQualification, error)
	RevokeQualification(id uint, revokedBy *uint, reason string) (*models.MemberQualification, error)
	CanReceiveLockup(ctx context.Context, memberID uint) (bool, error)
	LockupEligibleMemberIDs(ctx context.Context) ([]uint, error)
}

// QualificationTypeUpdate carries the fields an administrator may change; nil means unchanged
type QualificationTypeUpdate struct {
	Code             *string
	Name             *string
	Description      *string
	CanReceiveLockup *bool
	DisplayOrder     *int
	TagID            *uint
}

// GrantQualificationRequest 授予资格请求
type GrantQualificationRequest struct {
	MemberID            uint
	QualificationTypeID uint
	GrantedBy           *uint
	ExpiresAt           *time.Time
	Notes               string
}

// QualificationService 提供资格相关的服务
type QualificationService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewQualificationService 创建一个新的资格服务
func NewQualificationService(db *gorm.DB, cfg *config.Config) InterfaceQualificationService {
	return &QualificationService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetQualificationTypes 获取所有资格类型，按显示顺序排序
func (s *QualificationService) GetQualificationTypes() ([]models.QualificationType, error) {
	var types []models.QualificationType
	if err := s.DB.Order("display_order ASC, id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// 2 GetLockupEligibleTypes 获取可以接收lockup的资格类型
func (s *QualificationService) GetLockupEligibleTypes() ([]models.QualificationType, error) {
	var types []models.QualificationType
	if err := s.DB.Where("can_receive_lockup = ?", true).Order("display_order ASC, id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// 3 GetQualificationTypeByID 根据ID获取资格类型
func (s *QualificationService) GetQualificationTypeByID(id uint) (*models.QualificationType, error) {
	var qt models.QualificationType
	if err := s.DB.First(&qt, id).Error; err != nil {
		return nil, notFound(err, "qualification type", id)
	}
	return &qt, nil
}

// 4 CreateQualificationType 创建资格类型，code必须唯一
func (s *QualificationService) CreateQualificationType(qt *models.QualificationType) error {
	qt.Code = strings.ToUpper(strings.TrimSpace(qt.Code))
	qt.Name = strings.TrimSpace(qt.Name)
	if qt.Code == "" || qt.Name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidInput)
	}

	var count int64
	if err := s.DB.Model(&models.QualificationType{}).Where("code = ?", qt.Code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: qualification type code %q", ErrAlreadyExists, qt.Code)
	}

	return s.DB.Create(qt).Error
}

// 5 UpdateQualificationType 更新资格类型
func (s *QualificationService) UpdateQualificationType(id uint, update QualificationTypeUpdate) (*models.QualificationType, error) {
	qt, err := s.GetQualificationTypeByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	// 如果更新code，需要检查唯一性
	if update.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*update.Code))
		if code == "" {
			return nil, fmt.Errorf("%w: code cannot be empty", ErrInvalidInput)
		}
		if code != qt.Code {
			var count int64
			if err := s.DB.Model(&models.QualificationType{}).Where("code = ? AND id != ?", code, id).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, fmt.Errorf("%w: qualification type code %q", ErrAlreadyExists, code)
			}
		}
		updates["code"] = code
	}
	if update.Name != nil {
		updates["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.CanReceiveLockup != nil {
		updates["can_receive_lockup"] = *update.CanReceiveLockup
	}
	if update.DisplayOrder != nil {
		updates["display_order"] = *update.DisplayOrder
	}
	if update.TagID != nil {
		updates["tag_id"] = *update.TagID
	}

	if len(updates) > 0 {
		if err := s.DB.Model(qt).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetQualificationTypeByID(id)
}

// 6 DeleteQualificationType 删除资格类型。授予记录是审计依据，只要存在任何授予（含已撤销）就拒绝删除
func (s *QualificationService) DeleteQualificationType(id uint) error {
	if _, err := s.GetQualificationTypeByID(id); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var grants int64
		if err := tx.Model(&models.MemberQualification{}).
			Where("qualification_type_id = ?", id).
			Count(&grants).Error; err != nil {
			return err
		}
		if grants > 0 {
			return fmt.Errorf("%w: qualification type %d is referenced by %d grants", ErrInUse, id, grants)
		}
		return tx.Delete(&models.QualificationType{}, id).Error
	})
}

// 7 GetMemberQualifications 获取成员的资格列表
func (s *QualificationService) GetMemberQualifications(memberID uint, activeOnly bool) ([]models.MemberQualification, error) {
	query := s.DB.Preload("QualificationType").Where("member_id = ?", memberID)
	if activeOnly {
		query = query.Where("status = ?", models.QualificationStatusActive)
	}

	var quals []models.MemberQualification
	if err := query.Order("granted_at DESC").Find(&quals).Error; err != nil {
		return nil, err
	}

	if !activeOnly {
		return quals, nil
	}

	now := time.Now()
	active := quals[:0]
	for _, q := range quals {
		if q.IsActiveAt(now) {
			active = append(active, q)
		}
	}
	return active, nil
}

// 8 GrantQualification 授予资格，同一类型只能有一条有效授予
func (s *QualificationService) GrantQualification(req GrantQualificationRequest) (*models.MemberQualification, error) {
	now := time.Now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrInvalidInput)
	}

	var member models.Member
	if err := s.DB.First(&member, req.MemberID).Error; err != nil {
		return nil, notFound(err, "member", req.MemberID)
	}
	qt, err := s.GetQualificationTypeByID(req.QualificationTypeID)
	if err != nil {
		return nil, err
	}

	var existing []models.MemberQualification
	if err := s.DB.Where("member_id = ? AND qualification_type_id = ? AND status = ?", req.MemberID, req.QualificationTypeID, models.QualificationStatusActive).
		Find(&existing).Error; err != nil {
		return nil, err
	}
	// lapsed grants stay active in the table but no longer block a re-grant
	for _, q := range existing {
		if q.IsActiveAt(now) {
			return nil, fmt.Errorf("%w: member %d already has active qualification %s", ErrAlreadyExists, req.MemberID, qt.Name)
		}
	}

	grant := &models.MemberQualification{
		MemberID:            req.MemberID,
		QualificationTypeID: req.QualificationTypeID,
		Status:              models.QualificationStatusActive,
		GrantedBy:           req.GrantedBy,
		GrantedAt:           now,
		ExpiresAt:           req.ExpiresAt,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		grant.Notes = &notes
	}

	if err := s.DB.Create(grant).Error; err != nil {
		return nil, err
	}
	grant.QualificationType = qt
	return grant, nil
}

// 9 RevokeQualification 撤销资格
func (s *QualificationService) RevokeQualification(id uint, revokedBy *uint, reason string) (*models.MemberQualification, error) {
	var grant models.MemberQualification
	if err := s.DB.Preload("QualificationType").First(&grant, id).Error; err != nil {
		return nil, notFound(err, "qualification", id)
	}
	if grant.Status == models.QualificationStatusRevoked {
		return nil, fmt.Errorf("%w: qualification %d is already revoked", ErrInvalidState, id)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     models.QualificationStatusRevoked,
		"revoked_by": revokedBy,
		"revoked_at": now,
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		updates["revoke_reason"] = reason
	}

	// 条件更新，防止并发撤销
	result := s.DB.Model(&models.MemberQualification{}).
		Where("id = ? AND status = ?", id, models.QualificationStatusActive).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: qualification %d was revoked concurrently", ErrConflict, id)
	}

	if err := s.DB.Preload("QualificationType").First(&grant, id).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// 10 CanReceiveLockup 成员是否拥有可接收lockup的有效资格
func (s *QualificationService) CanReceiveLockup(ctx context.Context, memberID uint) (bool, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).Select("id", "status").First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if member.Status != models.MemberStatusActive {
		return false, nil
	}

	grants, err := s.lockupGrants(ctx, &memberID)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

// 11 LockupEligibleMemberIDs 所有可接收lockup的成员ID
func (s *QualificationService) LockupEligibleMemberIDs(ctx context.Context) ([]uint, error) {
	grants, err := s.lockupGrants(ctx, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(grants))
	ids := make([]uint, 0, len(grants))
	for _, g := range grants {
		if _, ok := seen[g.MemberID]; ok {
			continue
		}
		seen[g.MemberID] = struct{}{}
		ids = append(ids, g.MemberID)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	// 只保留在用成员
	var active []uint
	if err := s.DB.WithContext(ctx).Model(&models.Member{}).
		Where("id IN ? AND status = ?", ids, models.MemberStatusActive).
		Order("id ASC").
		Pluck("id", &active).Error; err != nil {
		return nil, err
	}
	return active, nil
}

// lockupGrants returns active, unexpired grants whose type allows lockup, optionally for one member.
// Expiry is evaluated in Go so that time comparison does not depend on the driver's time encoding.
func (s *QualificationService) lockupGrants(ctx context.Context, memberID *uint) ([]models.MemberQualification, error) {
	query := s.DB.WithContext(ctx).
		Select("member_qualifications.*").
		Joins("JOIN qualification_types ON qualification_types.id = member_qualifications.qualification_type_id").
		Where("member_qualifications.status = ? AND qualification_types.can_receive_lockup = ?", models.QualificationStatusActive, true)
	if memberID != nil {
		query = query.Where("member_qualifications.member_id = ?", *memberID)
	}

	var grants []models.MemberQualification
	if err := query.Find(&grants).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	valid := grants[:0]
	for _, g := range grants {
		if g.IsActiveAt(now) {
			valid = append(valid, g)
		}
	}
	return valid, nil
}
