package services

import (
	"context"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"
	"strings"
	"time"

	"gorm.io/gorm"
)

// InterfaceLockupService is the lockup responsibility state machine of one building.
// Open, Acquire, Transfer, Execute and the daily reset are the only writers of the status row.
type InterfaceLockupService interface {
	GetStatus(ctx context.Context) (*LockupStatusView, error)
	IsCurrentHolder(ctx context.Context, memberID uint) (bool, error)
	GetPresentForLockup(ctx context.Context) (*PresentForLockup, error)
	GetCheckoutOptions(ctx context.Context, memberID uint) (*CheckoutOptions, error)
	OpenBuilding(ctx context.Context, req OpenBuildingRequest) (*LockupStatusView, error)
	AcquireLockup(ctx context.Context, req AcquireLockupRequest) (*LockupStatusView, error)
	TransferLockup(ctx context.Context, req TransferLockupRequest) (*TransferLockupResult, error)
	ExecuteLockup(ctx context.Context, req ExecuteLockupRequest) (*ExecuteLockupResult, error)
	GetHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error)
	ResetDay(ctx context.Context) (*DailyResetResult, error)
	LastDailyReset(ctx context.Context) (*models.LockupDailyReset, error)
}

// LockupStatusView is the status row with member summaries resolved
type LockupStatusView struct {
	BuildingID     uint                  `json:"building_id"`
	BuildingStatus models.BuildingStatus `json:"building_status"`
	CurrentHolder  *models.MemberSummary `json:"current_holder"`
	AcquiredAt     *time.Time            `json:"acquired_at"`
	SecuredBy      *models.MemberSummary `json:"secured_by"`
	SecuredAt      *time.Time            `json:"secured_at"`
	Version        int64                 `json:"version"`
}

// PresentForLockup is the set execute lockup would check out
type PresentForLockup struct {
	Members    []PresentMember  `json:"members"`
	Visitors   []models.Visitor `json:"visitors"`
	TotalCount int              `json:"total_count"`
}

// Checkout options offered at the kiosk
const (
	CheckoutOptionNormal   = "normal_checkout"
	CheckoutOptionExecute  = "execute_lockup"
	CheckoutOptionTransfer = "transfer_lockup"
)

// CheckoutOptions tells the kiosk what a member may do when scanning out
type CheckoutOptions struct {
	MemberID           uint             `json:"member_id"`
	IsHolder           bool             `json:"is_holder"`
	CanCheckout        bool             `json:"can_checkout"`
	BlockReason        string           `json:"block_reason,omitempty"`
	Options            []string         `json:"options"`
	EligibleRecipients []EligibleMember `json:"eligible_recipients,omitempty"`
}

// Actor is whoever triggered an operation when it is not the subject member,
// e.g. an administrator opening the building for someone
type Actor struct {
	ID   *uint
	Type models.PerformerType
}

// OpenBuildingRequest opens a secured building with MemberID as holder
type OpenBuildingRequest struct {
	MemberID uint
	Actor    *Actor
	Notes    string
}

// AcquireLockupRequest takes responsibility when nobody holds it
type AcquireLockupRequest struct {
	MemberID uint
	Notes    string
}

// TransferLockupRequest hands responsibility from ExpectedHolderID to ToMemberID.
// The transfer only applies while ExpectedHolderID still holds lockup.
type TransferLockupRequest struct {
	ToMemberID       uint
	ExpectedHolderID uint
	Reason           models.TransferReason
	Notes            string
	Actor            *Actor
}

// TransferLockupResult 移交结果
type TransferLockupResult struct {
	Transfer  *models.LockupTransfer `json:"transfer"`
	NewHolder *EligibleMember        `json:"new_holder"`
	Status    *LockupStatusView      `json:"status"`
}

// ExecuteLockupRequest 执行锁楼请求
type ExecuteLockupRequest struct {
	PerformerID uint
	Notes       string
}

// CheckoutSummary lists member and visitor ids
type CheckoutSummary struct {
	Members  []uint `json:"members"`
	Visitors []uint `json:"visitors"`
}

// ExecuteLockupResult reports the bulk checkout. Per-item failures are listed in Failed
// and never fail the operation. CheckedOut.Members excludes the performer, whose own
// checkout is reported by PerformerCheckedOut.
type ExecuteLockupResult struct {
	CheckedOut          CheckoutSummary   `json:"checked_out"`
	Failed              CheckoutSummary   `json:"failed"`
	PerformerCheckedOut bool              `json:"performer_checked_out"`
	AuditLogID          *uint             `json:"audit_log_id"`
	ExecutionID         uint              `json:"execution_id"`
	Status              *LockupStatusView `json:"status"`
}

// DailyResetResult reports a day rollover. Everyone still present was force checked out,
// the holder included; per-item failures are listed in Failed.
type DailyResetResult struct {
	WasSecured       bool                     `json:"was_secured"`
	PreviousStatus   models.BuildingStatus    `json:"previous_status"`
	PreviousHolderID *uint                    `json:"previous_holder_id"`
	CheckedOut       CheckoutSummary          `json:"checked_out"`
	Failed           CheckoutSummary          `json:"failed"`
	Reset            *models.LockupDailyReset `json:"reset"`
	Status           *LockupStatusView        `json:"status"`
}

// HistoryPage 历史分页
type HistoryPage struct {
	Items   []HistoryEntry                 `json:"items"`
	Members map[uint]*models.MemberSummary `json:"members"`
	Total   int64                          `json:"total"`
	HasMore bool                           `json:"has_more"`
}

// LockupService 锁楼责任服务
type LockupService struct {
	DB          *gorm.DB
	Config      *config.Config
	Store       *LockupStore
	Eligibility InterfaceEligibilityService
	Presence    InterfacePresenceService
	Audit       InterfaceAuditService
	Notifier    InterfaceNotifier
	Lock        InterfaceBuildingLock
	Metrics     *LockupMetrics
}

// LockupDeps groups the collaborators of LockupService
type LockupDeps struct {
	Store       *LockupStore
	Eligibility InterfaceEligibilityService
	Presence    InterfacePresenceService
	Audit       InterfaceAuditService
	Notifier    InterfaceNotifier
	Lock        InterfaceBuildingLock
	Metrics     *LockupMetrics
}

// NewLockupService 创建锁楼责任服务
func NewLockupService(db *gorm.DB, cfg *config.Config, deps LockupDeps) *LockupService {
	return &LockupService{
		DB:          db,
		Config:      cfg,
		Store:       deps.Store,
		Eligibility: deps.Eligibility,
		Presence:    deps.Presence,
		Audit:       deps.Audit,
		Notifier:    deps.Notifier,
		Lock:        deps.Lock,
		Metrics:     deps.Metrics,
	}
}

// callCtx bounds a single collaborator call
func (s *LockupService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := 5 * time.Second
	if s.Config != nil && s.Config.CollaboratorTimeout > 0 {
		timeout = s.Config.CollaboratorTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// 1 GetStatus 获取当前状态
func (s *LockupService) GetStatus(ctx context.Context) (*LockupStatusView, error) {
	status, err := s.Store.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, status)
}

// 2 IsCurrentHolder 供签退流程调用
func (s *LockupService) IsCurrentHolder(ctx context.Context, memberID uint) (bool, error) {
	return s.Store.IsCurrentHolder(ctx, memberID)
}

// 3 GetPresentForLockup 执行锁楼将签退的成员和访客
func (s *LockupService) GetPresentForLockup(ctx context.Context) (*PresentForLockup, error) {
	members, err := s.Presence.ListPresentMembers(ctx)
	if err != nil {
		return nil, err
	}
	visitors, err := s.Presence.ListPresentVisitors(ctx)
	if err != nil {
		return nil, err
	}
	return &PresentForLockup{
		Members:    members,
		Visitors:   visitors,
		TotalCount: len(members) + len(visitors),
	}, nil
}

// 4 GetCheckoutOptions 成员签退时可选的操作
func (s *LockupService) GetCheckoutOptions(ctx context.Context, memberID uint) (*CheckoutOptions, error) {
	summaries, err := memberSummaries(ctx, s.DB, memberID)
	if err != nil {
		return nil, err
	}
	if _, ok := summaries[memberID]; !ok {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}

	holds, err := s.Store.IsCurrentHolder(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !holds {
		return &CheckoutOptions{
			MemberID:    memberID,
			CanCheckout: true,
			Options:     []string{CheckoutOptionNormal},
		}, nil
	}

	eligible, err := s.Eligibility.ListEligibleMembers(ctx, true)
	if err != nil {
		return nil, err
	}
	recipients := make([]EligibleMember, 0, len(eligible))
	for _, m := range eligible {
		if m.ID != memberID {
			recipients = append(recipients, m)
		}
	}

	options := []string{CheckoutOptionExecute}
	if len(recipients) > 0 {
		options = append(options, CheckoutOptionTransfer)
	}
	return &CheckoutOptions{
		MemberID:           memberID,
		IsHolder:           true,
		CanCheckout:        false,
		BlockReason:        "you hold lockup responsibility: transfer it or execute lockup before checking out",
		Options:            options,
		EligibleRecipients: recipients,
	}, nil
}

// 5 OpenBuilding 开楼：secured -> open，开楼人成为持有人
func (s *LockupService) OpenBuilding(ctx context.Context, req OpenBuildingRequest) (view *LockupStatusView, err error) {
	defer func() { s.Metrics.observeOperation("open", err) }()

	unlock, err := s.Lock.Lock(ctx, s.Store.BuildingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	status, err := s.Store.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status.BuildingStatus != models.BuildingStatusSecured {
		return nil, fmt.Errorf("%w: building is %s, only a secured building can be opened", ErrInvalidState, status.BuildingStatus)
	}

	// the opener is about to badge in, so presence is not required
	if _, err := s.validateRecipient(ctx, req.MemberID, false); err != nil {
		return nil, err
	}

	now := time.Now()
	change := Change(status).SetHolder(req.MemberID, now).SetBuildingStatus(models.BuildingStatusOpen)
	updated, err := s.Store.Apply(ctx, change)
	if err != nil {
		return nil, err
	}

	entry := &models.ResponsibilityAuditLog{
		MemberID: req.MemberID,
		Action:   models.AuditActionOpenBuilding,
		Notes:    notesOr(req.Notes, "Building opened"),
	}
	applyActor(entry, req.MemberID, req.Actor)
	s.recordAudit(ctx, entry)

	view, err = s.view(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, TopicLockupStatus, view)

	Logger.Info("[Lockup] building %d opened by member %d", s.Store.BuildingID, req.MemberID)
	return view, nil
}

// 6 AcquireLockup 无人持有时获取lockup责任
func (s *LockupService) AcquireLockup(ctx context.Context, req AcquireLockupRequest) (view *LockupStatusView, err error) {
	defer func() { s.Metrics.observeOperation("acquire", err) }()

	unlock, err := s.Lock.Lock(ctx, s.Store.BuildingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	status, err := s.Store.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status.BuildingStatus == models.BuildingStatusLockingUp {
		return nil, fmt.Errorf("%w: lockup is being executed", ErrInvalidState)
	}
	if status.CurrentHolderID != nil {
		return nil, fmt.Errorf("%w: lockup is already held by member %d", ErrInvalidState, *status.CurrentHolderID)
	}

	if _, err := s.validateRecipient(ctx, req.MemberID, true); err != nil {
		return nil, err
	}

	now := time.Now()
	change := Change(status).SetHolder(req.MemberID, now).SetBuildingStatus(models.BuildingStatusOpen)
	updated, err := s.Store.Apply(ctx, change)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &models.ResponsibilityAuditLog{
		MemberID:        req.MemberID,
		Action:          models.AuditActionAcquire,
		PerformedBy:     &req.MemberID,
		PerformedByType: models.PerformerTypeMember,
		Notes:           notesOr(req.Notes, "Lockup acquired"),
	})

	view, err = s.view(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, TopicLockupStatus, view)

	Logger.Info("[Lockup] member %d acquired lockup for building %d", req.MemberID, s.Store.BuildingID)
	return view, nil
}

// 7 TransferLockup 持有人之间移交lockup责任
func (s *LockupService) TransferLockup(ctx context.Context, req TransferLockupRequest) (result *TransferLockupResult, err error) {
	defer func() { s.Metrics.observeOperation("transfer", err) }()

	if req.Reason == "" {
		req.Reason = models.TransferReasonManual
	}
	if !req.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown transfer reason %q", ErrInvalidInput, req.Reason)
	}

	unlock, err := s.Lock.Lock(ctx, s.Store.BuildingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	status, err := s.Store.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status.BuildingStatus != models.BuildingStatusOpen {
		return nil, fmt.Errorf("%w: building is %s, lockup can only be transferred while open", ErrInvalidState, status.BuildingStatus)
	}
	if status.CurrentHolderID == nil {
		return nil, fmt.Errorf("%w: nobody holds lockup", ErrInvalidState)
	}
	fromID := *status.CurrentHolderID
	if req.ExpectedHolderID == 0 {
		return nil, fmt.Errorf("%w: expected holder is required, re-read status and retry", ErrConflict)
	}
	if req.ExpectedHolderID != fromID {
		return nil, fmt.Errorf("%w: lockup is now held by member %d, not member %d", ErrConflict, fromID, req.ExpectedHolderID)
	}
	if req.ToMemberID == fromID {
		return nil, fmt.Errorf("%w: member %d already holds lockup", ErrInvalidState, fromID)
	}

	recipient, err := s.validateRecipient(ctx, req.ToMemberID, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	transfer := &models.LockupTransfer{
		LockupStatusID: status.ID,
		BuildingID:     status.BuildingID,
		FromMemberID:   fromID,
		ToMemberID:     req.ToMemberID,
		Reason:         req.Reason,
		Notes:          optionalNotes(req.Notes),
		TransferredAt:  now,
	}
	change := Change(status).SetHolder(req.ToMemberID, now)
	updated, err := s.Store.Apply(ctx, change, transfer)
	if err != nil {
		return nil, err
	}

	entry := &models.ResponsibilityAuditLog{
		MemberID: req.ToMemberID,
		Action:   models.AuditActionTransfer,
		Notes:    notesOr(req.Notes, fmt.Sprintf("Lockup transferred from member %d to member %d (%s)", fromID, req.ToMemberID, req.Reason)),
	}
	applyActor(entry, fromID, req.Actor)
	s.recordAudit(ctx, entry)

	view, err := s.view(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, TopicLockupTransfer, map[string]interface{}{
		"transfer_id":    transfer.ID,
		"from_member_id": fromID,
		"to_member_id":   req.ToMemberID,
		"reason":         req.Reason,
		"timestamp":      now,
	})
	s.notify(ctx, TopicLockupStatus, view)

	Logger.Info("[Lockup] lockup transferred from member %d to member %d (%s)", fromID, req.ToMemberID, req.Reason)
	return &TransferLockupResult{
		Transfer:  transfer,
		NewHolder: recipient,
		Status:    view,
	}, nil
}

// 8 ExecuteLockup 执行锁楼：签退所有人，执行人最后签退，然后锁楼
func (s *LockupService) ExecuteLockup(ctx context.Context, req ExecuteLockupRequest) (result *ExecuteLockupResult, err error) {
	defer func() { s.Metrics.observeOperation("execute", err) }()

	unlock, err := s.Lock.Lock(ctx, s.Store.BuildingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	status, err := s.Store.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status.BuildingStatus != models.BuildingStatusOpen {
		return nil, fmt.Errorf("%w: building is %s, lockup can only be executed while open", ErrInvalidState, status.BuildingStatus)
	}
	if !status.IsHeldBy(req.PerformerID) {
		return nil, fmt.Errorf("%w: member %d does not hold lockup", ErrInvalidState, req.PerformerID)
	}

	// holding is not enough: the performer must still be qualified
	callCtx, cancel := s.callCtx(ctx)
	eligible, err := s.Eligibility.CanReceiveLockup(callCtx, req.PerformerID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("check performer qualification: %w", err)
	}
	if !eligible {
		return nil, fmt.Errorf("%w: member %d is no longer qualified to execute lockup", ErrNotEligible, req.PerformerID)
	}

	// snapshot the target set; later arrivals are not retried
	callCtx, cancel = s.callCtx(ctx)
	snapshot, err := s.GetPresentForLockup(callCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("snapshot present members: %w", err)
	}

	// open -> locking_up keeps the holder, so concurrent transfers see a non-open building
	lockingUp, err := s.Store.Apply(ctx, Change(status).SetBuildingStatus(models.BuildingStatusLockingUp))
	if err != nil {
		return nil, err
	}

	result = &ExecuteLockupResult{
		CheckedOut: CheckoutSummary{Members: []uint{}, Visitors: []uint{}},
		Failed:     CheckoutSummary{Members: []uint{}, Visitors: []uint{}},
	}

	performerPresent := false
	for _, m := range snapshot.Members {
		if m.ID == req.PerformerID {
			performerPresent = true
			continue
		}
		if err := s.checkOutMember(ctx, m.ID); err != nil {
			Logger.Error("[Lockup] failed to check out member %d during lockup: %v", m.ID, err)
			s.Metrics.observeCheckout("member", err)
			result.Failed.Members = append(result.Failed.Members, m.ID)
			continue
		}
		s.Metrics.observeCheckout("member", nil)
		result.CheckedOut.Members = append(result.CheckedOut.Members, m.ID)
	}

	for _, v := range snapshot.Visitors {
		callCtx, cancel := s.callCtx(ctx)
		err := s.Presence.SignOutVisitor(callCtx, v.ID)
		cancel()
		s.Metrics.observeCheckout("visitor", err)
		if err != nil {
			Logger.Error("[Lockup] failed to sign out visitor %d during lockup: %v", v.ID, err)
			result.Failed.Visitors = append(result.Failed.Visitors, v.ID)
			continue
		}
		result.CheckedOut.Visitors = append(result.CheckedOut.Visitors, v.ID)
	}

	// the performer stays present until everyone else has been attempted
	if performerPresent {
		err := s.checkOutMember(ctx, req.PerformerID)
		s.Metrics.observeCheckout("performer", err)
		if err != nil {
			Logger.Error("[Lockup] failed to check out performer %d during lockup: %v", req.PerformerID, err)
		} else {
			result.PerformerCheckedOut = true
		}
	}

	total := len(result.CheckedOut.Members) + len(result.CheckedOut.Visitors)
	if result.PerformerCheckedOut {
		total++
	}
	summary := fmt.Sprintf("Lockup executed. Checked out %d members and %d visitors.", total-len(result.CheckedOut.Visitors), len(result.CheckedOut.Visitors))
	if n := len(result.Failed.Members) + len(result.Failed.Visitors); n > 0 {
		summary += fmt.Sprintf(" %d checkouts failed.", n)
	}
	result.AuditLogID = s.recordAudit(ctx, &models.ResponsibilityAuditLog{
		MemberID:        req.PerformerID,
		Action:          models.AuditActionExecuteLockup,
		PerformedBy:     &req.PerformerID,
		PerformedByType: models.PerformerTypeMember,
		Notes:           notesOr(req.Notes, summary),
	})

	now := time.Now()
	execution := &models.LockupExecution{
		LockupStatusID:     status.ID,
		BuildingID:         status.BuildingID,
		ExecutedBy:         req.PerformerID,
		ExecutedAt:         now,
		MembersCheckedOut:  result.CheckedOut.Members,
		MembersFailed:      result.Failed.Members,
		VisitorsCheckedOut: result.CheckedOut.Visitors,
		VisitorsFailed:     result.Failed.Visitors,
		TotalCheckedOut:    total,
		AuditLogID:         result.AuditLogID,
		Notes:              optionalNotes(req.Notes),
	}
	secured, err := s.secure(ctx, lockingUp, req.PerformerID, now, execution)
	if err != nil {
		return nil, err
	}
	result.ExecutionID = execution.ID

	result.Status, err = s.view(ctx, secured)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, TopicLockupExecution, map[string]interface{}{
		"execution_id":          execution.ID,
		"performed_by":          req.PerformerID,
		"members_checked_out":   len(result.CheckedOut.Members),
		"visitors_checked_out":  len(result.CheckedOut.Visitors),
		"performer_checked_out": result.PerformerCheckedOut,
		"failed":                result.Failed,
		"timestamp":             now,
	})
	s.notify(ctx, TopicLockupStatus, result.Status)

	Logger.Info("[Lockup] building %d secured by member %d: %d members, %d visitors checked out, %d failures",
		s.Store.BuildingID, req.PerformerID, len(result.CheckedOut.Members), len(result.CheckedOut.Visitors),
		len(result.Failed.Members)+len(result.Failed.Visitors))
	return result, nil
}

// secure moves locking_up -> secured, retrying once from a fresh read on failure
func (s *LockupService) secure(ctx context.Context, from *models.LockupStatus, by uint, at time.Time, execution *models.LockupExecution) (*models.LockupStatus, error) {
	change := Change(from).ClearHolder().SetBuildingStatus(models.BuildingStatusSecured).RecordSecured(by, at)
	secured, err := s.Store.Apply(ctx, change, execution)
	if err == nil {
		return secured, nil
	}

	Logger.Error("[Lockup] securing building %d failed, retrying: %v", s.Store.BuildingID, err)
	current, readErr := s.Store.GetStatus(ctx)
	if readErr != nil {
		return nil, fmt.Errorf("secure building: %w", err)
	}
	if current.BuildingStatus != models.BuildingStatusLockingUp {
		return nil, fmt.Errorf("%w: building left locking_up while securing: %v", ErrConflict, err)
	}
	execution.ID = 0
	change = Change(current).ClearHolder().SetBuildingStatus(models.BuildingStatusSecured).RecordSecured(by, at)
	return s.Store.Apply(ctx, change, execution)
}

// 9 GetHistory 移交和执行历史
func (s *LockupService) GetHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	items, total, err := s.Store.History(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items)*2)
	for _, item := range items {
		if item.Transfer != nil {
			ids = append(ids, item.Transfer.FromMemberID, item.Transfer.ToMemberID)
		}
		if item.Execution != nil {
			ids = append(ids, item.Execution.ExecutedBy)
		}
	}
	members, err := memberSummaries(ctx, s.DB, ids...)
	if err != nil {
		return nil, err
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return &HistoryPage{
		Items:   items,
		Members: members,
		Total:   total,
		HasMore: int64(offset+len(items)) < total,
	}, nil
}

// 10 ResetDay 每日重置：强制签退所有在场人员，状态行恢复为secured且无持有人
func (s *LockupService) ResetDay(ctx context.Context) (result *DailyResetResult, err error) {
	defer func() { s.Metrics.observeOperation("daily_reset", err) }()

	unlock, err := s.Lock.Lock(ctx, s.Store.BuildingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	status, err := s.Store.GetStatus(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.callCtx(ctx)
	snapshot, err := s.GetPresentForLockup(callCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("snapshot present members: %w", err)
	}

	result = &DailyResetResult{
		PreviousStatus:   status.BuildingStatus,
		PreviousHolderID: status.CurrentHolderID,
		CheckedOut:       CheckoutSummary{Members: []uint{}, Visitors: []uint{}},
		Failed:           CheckoutSummary{Members: []uint{}, Visitors: []uint{}},
	}

	for _, m := range snapshot.Members {
		if err := s.checkOutMember(ctx, m.ID); err != nil {
			Logger.Error("[Lockup] daily reset failed to check out member %d: %v", m.ID, err)
			result.Failed.Members = append(result.Failed.Members, m.ID)
			continue
		}
		result.CheckedOut.Members = append(result.CheckedOut.Members, m.ID)
	}
	for _, v := range snapshot.Visitors {
		callCtx, cancel := s.callCtx(ctx)
		err := s.Presence.SignOutVisitor(callCtx, v.ID)
		cancel()
		if err != nil {
			Logger.Error("[Lockup] daily reset failed to sign out visitor %d: %v", v.ID, err)
			result.Failed.Visitors = append(result.Failed.Visitors, v.ID)
			continue
		}
		result.CheckedOut.Visitors = append(result.CheckedOut.Visitors, v.ID)
	}

	reset := &models.LockupDailyReset{
		LockupStatusID:     status.ID,
		BuildingID:         status.BuildingID,
		ResetAt:            time.Now(),
		PreviousStatus:     status.BuildingStatus,
		PreviousHolderID:   status.CurrentHolderID,
		MembersCheckedOut:  result.CheckedOut.Members,
		MembersFailed:      result.Failed.Members,
		VisitorsCheckedOut: result.CheckedOut.Visitors,
		VisitorsFailed:     result.Failed.Visitors,
	}
	result.WasSecured = reset.WasSecured()

	current := status
	if result.WasSecured {
		if err := s.DB.WithContext(ctx).Create(reset).Error; err != nil {
			return nil, err
		}
	} else {
		current, err = s.Store.Apply(ctx, Change(status).ClearHolder().SetBuildingStatus(models.BuildingStatusSecured), reset)
		if err != nil {
			return nil, err
		}
	}
	result.Reset = reset

	if holder := status.CurrentHolderID; holder != nil {
		s.recordAudit(ctx, &models.ResponsibilityAuditLog{
			MemberID:        *holder,
			Action:          models.AuditActionDailyReset,
			PerformedByType: models.PerformerTypeSystem,
			Notes: fmt.Sprintf("Daily reset cleared lockup responsibility; building was %s. Checked out %d members and %d visitors.",
				status.BuildingStatus, len(result.CheckedOut.Members), len(result.CheckedOut.Visitors)),
		})
	}

	result.Status, err = s.view(ctx, current)
	if err != nil {
		return nil, err
	}
	if !result.WasSecured {
		s.notify(ctx, TopicLockupStatus, result.Status)
	}

	Logger.Info("[Lockup] daily reset of building %d: was %s, %d members and %d visitors checked out, %d failures",
		s.Store.BuildingID, status.BuildingStatus, len(result.CheckedOut.Members), len(result.CheckedOut.Visitors),
		len(result.Failed.Members)+len(result.Failed.Visitors))
	return result, nil
}

// 11 LastDailyReset 最近一次每日重置记录，没有时返回nil
func (s *LockupService) LastDailyReset(ctx context.Context) (*models.LockupDailyReset, error) {
	return s.Store.LastDailyReset(ctx)
}

func (s *LockupService) checkOutMember(ctx context.Context, memberID uint) error {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.Presence.CheckOut(callCtx, memberID)
}

// validateRecipient is a hard precondition: a timeout aborts the operation
func (s *LockupService) validateRecipient(ctx context.Context, memberID uint, requireCheckedIn bool) (*EligibleMember, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.Eligibility.ValidateRecipient(callCtx, memberID, requireCheckedIn)
}

// recordAudit is a soft step: failures are logged and yield a nil id
func (s *LockupService) recordAudit(ctx context.Context, entry *models.ResponsibilityAuditLog) *uint {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	id, err := s.Audit.Record(callCtx, entry)
	if err != nil {
		Logger.Error("[Lockup] audit %s for member %d failed: %v", entry.Action, entry.MemberID, err)
		return nil
	}
	return &id
}

// notify is a soft step: failures are logged only
func (s *LockupService) notify(ctx context.Context, topic string, payload interface{}) {
	if s.Notifier == nil {
		return
	}
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	if err := s.Notifier.Notify(callCtx, topic, payload); err != nil {
		Logger.Warning("[Lockup] notify %s failed: %v", topic, err)
	}
}

func (s *LockupService) view(ctx context.Context, status *models.LockupStatus) (*LockupStatusView, error) {
	ids := make([]uint, 0, 2)
	if status.CurrentHolderID != nil {
		ids = append(ids, *status.CurrentHolderID)
	}
	if status.SecuredBy != nil {
		ids = append(ids, *status.SecuredBy)
	}
	members, err := memberSummaries(ctx, s.DB, ids...)
	if err != nil {
		return nil, err
	}

	view := &LockupStatusView{
		BuildingID:     status.BuildingID,
		BuildingStatus: status.BuildingStatus,
		AcquiredAt:     status.AcquiredAt,
		SecuredAt:      status.SecuredAt,
		Version:        status.Version,
	}
	if status.CurrentHolderID != nil {
		view.CurrentHolder = members[*status.CurrentHolderID]
	}
	if status.SecuredBy != nil {
		view.SecuredBy = members[*status.SecuredBy]
	}
	return view, nil
}

// applyActor sets performedBy: the acting member by default, or the system actor when given
func applyActor(entry *models.ResponsibilityAuditLog, memberID uint, actor *Actor) {
	if actor == nil {
		entry.PerformedBy = &memberID
		entry.PerformedByType = models.PerformerTypeMember
		return
	}
	entry.PerformedBy = actor.ID
	entry.PerformedByType = actor.Type
	if entry.PerformedByType == "" {
		entry.PerformedByType = models.PerformerTypeSystem
	}
}

func notesOr(notes, fallback string) string {
	if n := strings.TrimSpace(notes); n != "" {
		return n
	}
	return fallback
}

func optionalNotes(notes string) *string {
	n := strings.TrimSpace(notes)
	if n == "" {
		return nil
	}
	return &n
}
