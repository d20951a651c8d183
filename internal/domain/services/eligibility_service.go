package services

import (
	"context"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	"time"

	"gorm.io/gorm"
)

// InterfaceEligibilityService decides who may hold or receive lockup
type InterfaceEligibilityService interface {
	CanReceiveLockup(ctx context.Context, memberID uint) (bool, error)
	ListEligibleMembers(ctx context.Context, checkedInOnly bool) ([]EligibleMember, error)
	ValidateRecipient(ctx context.Context, memberID uint, requireCheckedIn bool) (*EligibleMember, error)
}

// QualificationBadge is the qualification shape shown next to an eligible member
type QualificationBadge struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// EligibleMember is a member allowed to hold lockup, with presence state
type EligibleMember struct {
	models.MemberSummary
	IsCheckedIn    bool                 `json:"is_checked_in"`
	Qualifications []QualificationBadge `json:"qualifications"`
}

// EligibilityService 资格判定服务
type EligibilityService struct {
	DB             *gorm.DB
	Config         *config.Config
	Qualifications InterfaceQualificationService
	Presence       InterfacePresenceService
}

// NewEligibilityService 创建资格判定服务
func NewEligibilityService(db *gorm.DB, cfg *config.Config, quals InterfaceQualificationService, presence InterfacePresenceService) InterfaceEligibilityService {
	return &EligibilityService{
		DB:             db,
		Config:         cfg,
		Qualifications: quals,
		Presence:       presence,
	}
}

// 1 CanReceiveLockup 成员是否至少有一条可接收lockup的有效资格
func (s *EligibilityService) CanReceiveLockup(ctx context.Context, memberID uint) (bool, error) {
	return s.Qualifications.CanReceiveLockup(ctx, memberID)
}

// 2 ListEligibleMembers 列出有资格的成员，checkedInOnly时只保留在场成员
func (s *EligibilityService) ListEligibleMembers(ctx context.Context, checkedInOnly bool) ([]EligibleMember, error) {
	ids, err := s.Qualifications.LockupEligibleMemberIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []EligibleMember{}, nil
	}

	present, err := s.Presence.ListPresentMembers(ctx)
	if err != nil {
		return nil, err
	}
	inside := make(map[uint]bool, len(present))
	for _, p := range present {
		inside[p.ID] = true
	}

	summaries, err := memberSummaries(ctx, s.DB, ids...)
	if err != nil {
		return nil, err
	}
	badges, err := s.badges(ctx, ids)
	if err != nil {
		return nil, err
	}

	members := make([]EligibleMember, 0, len(ids))
	for _, id := range ids {
		summary, ok := summaries[id]
		if !ok {
			continue
		}
		if checkedInOnly && !inside[id] {
			continue
		}
		members = append(members, EligibleMember{
			MemberSummary:  *summary,
			IsCheckedIn:    inside[id],
			Qualifications: badges[id],
		})
	}
	return members, nil
}

// 3 ValidateRecipient 校验接收人：存在、有资格、（可选）在场
func (s *EligibilityService) ValidateRecipient(ctx context.Context, memberID uint, requireCheckedIn bool) (*EligibleMember, error) {
	summaries, err := memberSummaries(ctx, s.DB, memberID)
	if err != nil {
		return nil, err
	}
	summary, ok := summaries[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}

	eligible, err := s.Qualifications.CanReceiveLockup(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, fmt.Errorf("%w: member %d has no active qualification that allows holding lockup", ErrNotEligible, memberID)
	}

	present, err := s.Presence.IsPresent(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if requireCheckedIn && !present {
		return nil, fmt.Errorf("%w: member %d is not currently checked in", ErrNotPresent, memberID)
	}

	badges, err := s.badges(ctx, []uint{memberID})
	if err != nil {
		return nil, err
	}
	return &EligibleMember{
		MemberSummary:  *summary,
		IsCheckedIn:    present,
		Qualifications: badges[memberID],
	}, nil
}

// badges lists each member's active lockup-eligible qualifications
func (s *EligibilityService) badges(ctx context.Context, ids []uint) (map[uint][]QualificationBadge, error) {
	var grants []models.MemberQualification
	err := s.DB.WithContext(ctx).
		Preload("QualificationType").
		Where("member_id IN ? AND status = ?", ids, models.QualificationStatusActive).
		Order("id ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make(map[uint][]QualificationBadge, len(ids))
	for _, g := range grants {
		if !g.IsActiveAt(now) || g.QualificationType == nil || !g.QualificationType.CanReceiveLockup {
			continue
		}
		out[g.MemberID] = append(out[g.MemberID], QualificationBadge{
			Code: g.QualificationType.Code,
			Name: g.QualificationType.Name,
		})
	}
	return out, nil
}
