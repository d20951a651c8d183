package services

import (
	"context"
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LockupCheckoutKioskID marks checkout records written by execute lockup
const LockupCheckoutKioskID = "lockup-checkout"

// HolderChecker answers whether a member currently holds lockup
type HolderChecker interface {
	IsCurrentHolder(ctx context.Context, memberID uint) (bool, error)
}

// InterfacePresenceService is the presence ledger: who is inside the building.
// CheckOut and SignOutVisitor are system operations used by execute lockup;
// MemberCheckOut is the badge-scan path and enforces the holder rule.
type InterfacePresenceService interface {
	ListPresentMembers(ctx context.Context) ([]PresentMember, error)
	ListPresentVisitors(ctx context.Context) ([]models.Visitor, error)
	IsPresent(ctx context.Context, memberID uint) (bool, error)
	CheckOut(ctx context.Context, memberID uint) error
	SignOutVisitor(ctx context.Context, visitorID uint) error
	CheckIn(ctx context.Context, scan BadgeScan) (*models.CheckinRecord, error)
	MemberCheckOut(ctx context.Context, scan BadgeScan) (*models.CheckinRecord, error)
	SignInVisitor(ctx context.Context, visitor *models.Visitor) error
}

// BadgeScan identifies a member by id or by badge at a kiosk
type BadgeScan struct {
	MemberID uint
	BadgeID  string
	KioskID  string
}

// PresentMember is a member whose latest scan is "in"
type PresentMember struct {
	models.MemberSummary
	BadgeID     string    `json:"badge_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
	KioskID     string    `json:"kiosk_id"`
}

// PresenceService 基于签到记录的在场服务
type PresenceService struct {
	DB         *gorm.DB
	Config     *config.Config
	Holders    HolderChecker
	Lock       InterfaceBuildingLock
	BuildingID uint
}

// NewPresenceService 创建在场服务
func NewPresenceService(db *gorm.DB, cfg *config.Config, holders HolderChecker, lock InterfaceBuildingLock, buildingID uint) *PresenceService {
	return &PresenceService{
		DB:         db,
		Config:     cfg,
		Holders:    holders,
		Lock:       lock,
		BuildingID: buildingID,
	}
}

// 1 ListPresentMembers 列出当前在场成员，按签到顺序
func (s *PresenceService) ListPresentMembers(ctx context.Context) ([]PresentMember, error) {
	latest := s.DB.WithContext(ctx).Model(&models.CheckinRecord{}).
		Select("member_id, MAX(id) AS max_id").
		Group("member_id")

	var records []models.CheckinRecord
	err := s.DB.WithContext(ctx).Model(&models.CheckinRecord{}).
		Joins("JOIN (?) AS latest ON latest.max_id = checkin_records.id", latest).
		Where("checkin_records.direction = ?", models.CheckinDirectionIn).
		Order("checkin_records.id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []PresentMember{}, nil
	}

	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.MemberID)
	}
	var members []models.Member
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Member, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}

	present := make([]PresentMember, 0, len(records))
	for _, r := range records {
		m, ok := byID[r.MemberID]
		if !ok {
			continue
		}
		present = append(present, PresentMember{
			MemberSummary: *m.Summary(),
			BadgeID:       m.BadgeID,
			CheckedInAt:   r.Timestamp,
			KioskID:       r.KioskID,
		})
	}
	return present, nil
}

// 2 ListPresentVisitors 列出未签退的访客
func (s *PresenceService) ListPresentVisitors(ctx context.Context) ([]models.Visitor, error) {
	var visitors []models.Visitor
	if err := s.DB.WithContext(ctx).Where("check_out_time IS NULL").Order("id ASC").Find(&visitors).Error; err != nil {
		return nil, err
	}
	return visitors, nil
}

// 3 IsPresent 成员最近一次记录是否为签入
func (s *PresenceService) IsPresent(ctx context.Context, memberID uint) (bool, error) {
	last, err := s.latestRecord(ctx, memberID)
	if err != nil {
		return false, err
	}
	return last != nil && last.Direction == models.CheckinDirectionIn, nil
}

// 4 CheckOut 系统签退（执行lockup时使用），不检查lockup持有人
func (s *PresenceService) CheckOut(ctx context.Context, memberID uint) error {
	last, err := s.latestRecord(ctx, memberID)
	if err != nil {
		return err
	}
	if last == nil || last.Direction != models.CheckinDirectionIn {
		return fmt.Errorf("%w: member %d is not checked in", ErrNotPresent, memberID)
	}

	record := &models.CheckinRecord{
		MemberID:  memberID,
		BadgeID:   last.BadgeID,
		Direction: models.CheckinDirectionOut,
		Timestamp: time.Now(),
		KioskID:   LockupCheckoutKioskID,
	}
	return s.DB.WithContext(ctx).Create(record).Error
}

// 5 SignOutVisitor 访客签退
func (s *PresenceService) SignOutVisitor(ctx context.Context, visitorID uint) error {
	result := s.DB.WithContext(ctx).Model(&models.Visitor{}).
		Where("id = ? AND check_out_time IS NULL", visitorID).
		Update("check_out_time", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var visitor models.Visitor
	if err := s.DB.WithContext(ctx).First(&visitor, visitorID).Error; err != nil {
		return notFound(err, "visitor", visitorID)
	}
	return fmt.Errorf("%w: visitor %d already signed out", ErrNotPresent, visitorID)
}

// 6 CheckIn 成员刷卡签入
func (s *PresenceService) CheckIn(ctx context.Context, scan BadgeScan) (*models.CheckinRecord, error) {
	member, err := s.resolveMember(ctx, scan)
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberStatusActive {
		return nil, fmt.Errorf("%w: member %d is not active", ErrInvalidState, member.ID)
	}

	present, err := s.IsPresent(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	if present {
		return nil, fmt.Errorf("%w: member %d is already checked in", ErrInvalidState, member.ID)
	}

	record := &models.CheckinRecord{
		MemberID:  member.ID,
		BadgeID:   badgeFor(member, scan),
		Direction: models.CheckinDirectionIn,
		Timestamp: time.Now(),
		KioskID:   scan.KioskID,
	}
	if err := s.DB.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}

	Logger.Info("[Presence] member %d checked in at kiosk %s", member.ID, scan.KioskID)
	return record, nil
}

// 7 MemberCheckOut 成员刷卡签退，lockup持有人必须先移交或执行lockup
func (s *PresenceService) MemberCheckOut(ctx context.Context, scan BadgeScan) (*models.CheckinRecord, error) {
	member, err := s.resolveMember(ctx, scan)
	if err != nil {
		return nil, err
	}

	// hold the building lock so a transfer cannot land on this member mid-checkout
	unlock, err := s.Lock.Lock(ctx, s.BuildingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	holds, err := s.Holders.IsCurrentHolder(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	if holds {
		return nil, fmt.Errorf("%w: member %d holds lockup, transfer or execute lockup before checking out", ErrHolderCheckout, member.ID)
	}

	present, err := s.IsPresent(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("%w: member %d is not checked in", ErrNotPresent, member.ID)
	}

	record := &models.CheckinRecord{
		MemberID:  member.ID,
		BadgeID:   badgeFor(member, scan),
		Direction: models.CheckinDirectionOut,
		Timestamp: time.Now(),
		KioskID:   scan.KioskID,
	}
	if err := s.DB.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}

	Logger.Info("[Presence] member %d checked out at kiosk %s", member.ID, scan.KioskID)
	return record, nil
}

// 8 SignInVisitor 访客登记
func (s *PresenceService) SignInVisitor(ctx context.Context, visitor *models.Visitor) error {
	visitor.Name = strings.TrimSpace(visitor.Name)
	if visitor.Name == "" {
		return fmt.Errorf("%w: visitor name is required", ErrInvalidInput)
	}
	visitor.CheckInTime = time.Now()
	visitor.CheckOutTime = nil
	return s.DB.WithContext(ctx).Create(visitor).Error
}

func (s *PresenceService) latestRecord(ctx context.Context, memberID uint) (*models.CheckinRecord, error) {
	var record models.CheckinRecord
	err := s.DB.WithContext(ctx).Where("member_id = ?", memberID).Order("id DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *PresenceService) resolveMember(ctx context.Context, scan BadgeScan) (*models.Member, error) {
	var member models.Member
	switch {
	case scan.MemberID != 0:
		if err := s.DB.WithContext(ctx).First(&member, scan.MemberID).Error; err != nil {
			return nil, notFound(err, "member", scan.MemberID)
		}
	case scan.BadgeID != "":
		if err := s.DB.WithContext(ctx).Where("badge_id = ?", scan.BadgeID).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: no member with badge %q", ErrNotFound, scan.BadgeID)
			}
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: member id or badge id is required", ErrInvalidInput)
	}
	return &member, nil
}

func badgeFor(member *models.Member, scan BadgeScan) string {
	if scan.BadgeID != "" {
		return scan.BadgeID
	}
	return member.BadgeID
}
