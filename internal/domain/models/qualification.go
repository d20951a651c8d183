package models

import "time"

// QualificationType is an administrator-defined credential kind, e.g. "DDS Qualified".
// Only types with CanReceiveLockup make a member eligible to hold lockup.
type QualificationType struct {
	BaseModel
	Code             string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name             string `gorm:"type:varchar(100);not null" json:"name"`
	Description      string `gorm:"type:varchar(255)" json:"description"`
	CanReceiveLockup bool   `gorm:"not null;default:false" json:"can_receive_lockup"`
	DisplayOrder     int    `gorm:"not null;default:0" json:"display_order"`
	TagID            *uint  `json:"tag_id"` // optional display tag, owned elsewhere
}

// QualificationStatus is the lifecycle state of a grant
type QualificationStatus string

const (
	QualificationStatusActive  QualificationStatus = "active"
	QualificationStatusRevoked QualificationStatus = "revoked"
)

// MemberQualification is a grant of a qualification type to a member.
// Grants are revoked, never deleted; a referenced type cannot be deleted either.
type MemberQualification struct {
	BaseModel
	MemberID            uint                `gorm:"index:idx_member_qual,priority:1;not null" json:"member_id"`
	QualificationTypeID uint                `gorm:"index:idx_member_qual,priority:2;not null" json:"qualification_type_id"`
	Status              QualificationStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	GrantedBy           *uint               `json:"granted_by"`
	GrantedAt           time.Time           `gorm:"not null" json:"granted_at"`
	ExpiresAt           *time.Time          `json:"expires_at"`
	RevokedBy           *uint               `json:"revoked_by"`
	RevokedAt           *time.Time          `json:"revoked_at"`
	RevokeReason        *string             `gorm:"type:varchar(255)" json:"revoke_reason"`
	Notes               *string             `gorm:"type:varchar(255)" json:"notes"`

	QualificationType *QualificationType `gorm:"foreignKey:QualificationTypeID" json:"qualification_type,omitempty"`
}

// IsActiveAt reports whether the grant is active and unexpired at t
func (q *MemberQualification) IsActiveAt(t time.Time) bool {
	if q.Status != QualificationStatusActive {
		return false
	}
	return q.ExpiresAt == nil || q.ExpiresAt.After(t)
}
