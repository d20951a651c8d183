package models

import "time"

// BuildingStatus is the lockup state of a building
type BuildingStatus string

const (
	BuildingStatusOpen      BuildingStatus = "open"
	BuildingStatusLockingUp BuildingStatus = "locking_up"
	BuildingStatusSecured   BuildingStatus = "secured"
)

// LockupStatus is the single status row of a building.
// CurrentHolderID is nil whenever BuildingStatus is secured.
// Version increases on every write and guards conditional updates.
type LockupStatus struct {
	BaseModel
	BuildingID      uint           `gorm:"uniqueIndex;not null" json:"building_id"`
	BuildingStatus  BuildingStatus `gorm:"type:varchar(20);not null;default:'secured'" json:"building_status"`
	CurrentHolderID *uint          `json:"current_holder_id"`
	AcquiredAt      *time.Time     `json:"acquired_at"`
	SecuredBy       *uint          `json:"secured_by"`
	SecuredAt       *time.Time     `json:"secured_at"`
	Version         int64          `gorm:"not null;default:0" json:"version"`
}

// IsHeldBy reports whether memberID is the current holder
func (s *LockupStatus) IsHeldBy(memberID uint) bool {
	return s.CurrentHolderID != nil && *s.CurrentHolderID == memberID
}

// TransferReason explains why responsibility changed hands
type TransferReason string

const (
	TransferReasonManual            TransferReason = "manual"
	TransferReasonDDSHandoff        TransferReason = "dds_handoff"
	TransferReasonDutyWatchTakeover TransferReason = "duty_watch_takeover"
	TransferReasonCheckoutTransfer  TransferReason = "checkout_transfer"
)

// Valid reports whether r is a known reason
func (r TransferReason) Valid() bool {
	switch r {
	case TransferReasonManual, TransferReasonDDSHandoff, TransferReasonDutyWatchTakeover, TransferReasonCheckoutTransfer:
		return true
	}
	return false
}

// LockupTransfer is an immutable holder-to-holder handoff record
type LockupTransfer struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	LockupStatusID uint           `gorm:"index;not null" json:"lockup_status_id"`
	BuildingID     uint           `gorm:"index;not null" json:"building_id"`
	FromMemberID   uint           `gorm:"not null" json:"from_member_id"`
	ToMemberID     uint           `gorm:"not null" json:"to_member_id"`
	Reason         TransferReason `gorm:"type:varchar(30);not null" json:"reason"`
	Notes          *string        `gorm:"type:varchar(255)" json:"notes"`
	TransferredAt  time.Time      `gorm:"index;not null" json:"transferred_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// LockupExecution is an immutable record of one execute-lockup run
type LockupExecution struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	LockupStatusID     uint      `gorm:"index;not null" json:"lockup_status_id"`
	BuildingID         uint      `gorm:"index;not null" json:"building_id"`
	ExecutedBy         uint      `gorm:"not null" json:"executed_by"`
	ExecutedAt         time.Time `gorm:"index;not null" json:"executed_at"`
	MembersCheckedOut  []uint    `gorm:"serializer:json;type:text" json:"members_checked_out"`
	MembersFailed      []uint    `gorm:"serializer:json;type:text" json:"members_failed"`
	VisitorsCheckedOut []uint    `gorm:"serializer:json;type:text" json:"visitors_checked_out"`
	VisitorsFailed     []uint    `gorm:"serializer:json;type:text" json:"visitors_failed"`
	TotalCheckedOut    int       `gorm:"not null" json:"total_checked_out"`
	AuditLogID         *uint     `json:"audit_log_id"`
	Notes              *string   `gorm:"type:varchar(255)" json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
}
