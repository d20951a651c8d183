package models

import "time"

// AuditAction is the kind of responsibility change being recorded
type AuditAction string

const (
	AuditActionAcquire       AuditAction = "acquire"
	AuditActionTransfer      AuditAction = "transfer"
	AuditActionExecuteLockup AuditAction = "execute_lockup"
	AuditActionOpenBuilding  AuditAction = "open_building"
	AuditActionDailyReset    AuditAction = "daily_reset"
)

// PerformerType says who triggered an audited action
type PerformerType string

const (
	PerformerTypeMember PerformerType = "member"
	PerformerTypeSystem PerformerType = "system"
)

// LockupTagName is the tag context written on lockup audit rows
const LockupTagName = "Lockup"

// ResponsibilityAuditLog is a write-once record of a responsibility change
type ResponsibilityAuditLog struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	BuildingID      uint          `gorm:"index" json:"building_id"`
	MemberID        uint          `gorm:"index;not null" json:"member_id"`
	TagName         string        `gorm:"type:varchar(50);not null" json:"tag_name"`
	Action          AuditAction   `gorm:"type:varchar(30);index;not null" json:"action"`
	PerformedBy     *uint         `json:"performed_by"`
	PerformedByType PerformerType `gorm:"type:varchar(20);not null" json:"performed_by_type"`
	Notes           string        `gorm:"type:text" json:"notes"`
	Timestamp       time.Time     `gorm:"index;not null" json:"timestamp"`
	CreatedAt       time.Time     `json:"created_at"`
}
