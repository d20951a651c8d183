package models

import "time"

// AlertSeverity 告警级别
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// AlertType 告警类型
type AlertType string

const (
	AlertTypeLockupReminder       AlertType = "lockup_reminder"
	AlertTypeLockupNotExecuted    AlertType = "lockup_not_executed"
	AlertTypeBuildingNotSecured   AlertType = "building_not_secured"
	AlertTypeMemberMissedCheckout AlertType = "member_missed_checkout"
)

// AlertStatus 告警处理状态
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
)

// LockupAlert 锁楼告警，由定时任务产生，仅管理员可见
type LockupAlert struct {
	BaseModel
	BuildingID     uint                   `gorm:"index;not null" json:"building_id"`
	Type           AlertType              `gorm:"type:varchar(40);index;not null" json:"type"`
	Severity       AlertSeverity          `gorm:"type:varchar(20);not null" json:"severity"`
	Title          string                 `gorm:"type:varchar(100);not null" json:"title"`
	Message        string                 `gorm:"type:text;not null" json:"message"`
	Details        map[string]interface{} `gorm:"serializer:json;type:text" json:"details"`
	Status         AlertStatus            `gorm:"type:varchar(20);index;not null;default:'active'" json:"status"`
	AcknowledgedBy *uint                  `json:"acknowledged_by"`
	AcknowledgedAt *time.Time             `json:"acknowledged_at"`
}

// LockupDailyReset is an immutable record of one day-rollover reset.
// PreviousStatus and PreviousHolderID describe the row before the reset.
type LockupDailyReset struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	LockupStatusID     uint           `gorm:"index;not null" json:"lockup_status_id"`
	BuildingID         uint           `gorm:"index;not null" json:"building_id"`
	ResetAt            time.Time      `gorm:"index;not null" json:"reset_at"`
	PreviousStatus     BuildingStatus `gorm:"type:varchar(20);not null" json:"previous_status"`
	PreviousHolderID   *uint          `json:"previous_holder_id"`
	MembersCheckedOut  []uint         `gorm:"serializer:json;type:text" json:"members_checked_out"`
	MembersFailed      []uint         `gorm:"serializer:json;type:text" json:"members_failed"`
	VisitorsCheckedOut []uint         `gorm:"serializer:json;type:text" json:"visitors_checked_out"`
	VisitorsFailed     []uint         `gorm:"serializer:json;type:text" json:"visitors_failed"`
	CreatedAt          time.Time      `json:"created_at"`
}

// WasSecured reports whether the building was already secured when the day rolled over
func (r *LockupDailyReset) WasSecured() bool {
	return r.PreviousStatus == BuildingStatusSecured && r.PreviousHolderID == nil
}
