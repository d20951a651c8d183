package services

import (
	"context"
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	"strings"

	"gorm.io/gorm"
)

// InterfaceMemberService defines the member service interface
type InterfaceMemberService interface {
	GetMembers(page, pageSize int, search string) ([]models.Member, int64, error)
	GetMemberByID(id uint) (*models.Member, error)
	GetMemberByBadge(badgeID string) (*models.Member, error)
	CreateMember(member *models.Member) error
	UpdateMember(id uint, updates map[string]interface{}) (*models.Member, error)
}

// MemberService 提供成员相关的服务
type MemberService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewMemberService 创建一个新的成员服务
func NewMemberService(db *gorm.DB, cfg *config.Config) InterfaceMemberService {
	return &MemberService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetMembers 分页获取成员
func (s *MemberService) GetMembers(page, pageSize int, search string) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	query := s.DB.Model(&models.Member{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("service_number LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR badge_id LIKE ?", like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("last_name ASC, first_name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// 2 GetMemberByID 根据ID获取成员
func (s *MemberService) GetMemberByID(id uint) (*models.Member, error) {
	var member models.Member
	if err := s.DB.First(&member, id).Error; err != nil {
		return nil, notFound(err, "member", id)
	}
	return &member, nil
}

// 3 GetMemberByBadge 根据徽章ID获取成员
func (s *MemberService) GetMemberByBadge(badgeID string) (*models.Member, error) {
	var member models.Member
	if err := s.DB.Where("badge_id = ?", badgeID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no member with badge %q", ErrNotFound, badgeID)
		}
		return nil, err
	}
	return &member, nil
}

// 4 CreateMember 创建新成员，服务编号唯一
func (s *MemberService) CreateMember(member *models.Member) error {
	member.ServiceNumber = strings.TrimSpace(member.ServiceNumber)
	if member.ServiceNumber == "" || member.FirstName == "" || member.LastName == "" {
		return fmt.Errorf("%w: service number and names are required", ErrInvalidInput)
	}
	if member.Status == "" {
		member.Status = models.MemberStatusActive
	}

	var count int64
	if err := s.DB.Model(&models.Member{}).Where("service_number = ?", member.ServiceNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: service number %s", ErrAlreadyExists, member.ServiceNumber)
	}

	if member.BadgeID != "" {
		if err := s.DB.Model(&models.Member{}).Where("badge_id = ?", member.BadgeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: badge %s is assigned to another member", ErrAlreadyExists, member.BadgeID)
		}
	}

	return s.DB.Create(member).Error
}

// 5 UpdateMember 更新成员信息
func (s *MemberService) UpdateMember(id uint, updates map[string]interface{}) (*models.Member, error) {
	member, err := s.GetMemberByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新徽章，需要检查唯一性
	if badge, ok := updates["badge_id"].(string); ok && badge != "" && badge != member.BadgeID {
		var count int64
		if err := s.DB.Model(&models.Member{}).Where("badge_id = ? AND id != ?", badge, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: badge %s is assigned to another member", ErrAlreadyExists, badge)
		}
	}

	if err := s.DB.Model(member).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetMemberByID(id)
}

// memberSummaries loads display summaries for ids; unknown ids are absent from the map
func memberSummaries(ctx context.Context, db *gorm.DB, ids ...uint) (map[uint]*models.MemberSummary, error) {
	out := make(map[uint]*models.MemberSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var members []models.Member
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	for i := range members {
		out[members[i].ID] = members[i].Summary()
	}
	return out, nil
}
