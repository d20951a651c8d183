package models

import (
	"strings"
	"time"
)

// MemberStatus represents whether a member record is in use
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Member is a unit member who can badge in and out of the building.
// The lockup core only holds weak references to members by id.
type Member struct {
	BaseModel
	ServiceNumber string       `gorm:"type:varchar(30);uniqueIndex;not null" json:"service_number"`
	FirstName     string       `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName      string       `gorm:"type:varchar(50);not null" json:"last_name"`
	Rank          string       `gorm:"type:varchar(30)" json:"rank"`
	BadgeID       string       `gorm:"type:varchar(50);index" json:"badge_id"`
	Status        MemberStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
}

// MemberSummary is the member shape embedded in lockup responses
type MemberSummary struct {
	ID            uint   `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Rank          string `json:"rank"`
	ServiceNumber string `json:"service_number"`
}

// Summary returns the display subset of the member
func (m *Member) Summary() *MemberSummary {
	if m == nil {
		return nil
	}
	return &MemberSummary{
		ID:            m.ID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Rank:          m.Rank,
		ServiceNumber: m.ServiceNumber,
	}
}

// DisplayName is "Rank First Last" without empty parts
func (m *Member) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Rank, m.FirstName, m.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CheckinDirection is the direction of a badge scan
type CheckinDirection string

const (
	CheckinDirectionIn  CheckinDirection = "in"
	CheckinDirectionOut CheckinDirection = "out"
)

// CheckinRecord is one badge scan. A member is present when their latest record is "in".
type CheckinRecord struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	MemberID  uint             `gorm:"index:idx_checkin_member_time,priority:1;not null" json:"member_id"`
	BadgeID   string           `gorm:"type:varchar(50)" json:"badge_id"`
	Direction CheckinDirection `gorm:"type:varchar(10);not null" json:"direction"`
	Timestamp time.Time        `gorm:"index:idx_checkin_member_time,priority:2;not null" json:"timestamp"`
	KioskID   string           `gorm:"type:varchar(50)" json:"kiosk_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// Visitor is a signed-in guest. CheckOutTime is nil while the visitor is inside.
type Visitor struct {
	BaseModel
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Organization string     `gorm:"type:varchar(100)" json:"organization"`
	VisitType    string     `gorm:"type:varchar(30)" json:"visit_type"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `gorm:"index" json:"check_out_time"`
}
