package services

import (
	"testing"
	"time"

	"sentinel-lockup-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQualificationType(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "DDS", f.dds.Code, "codes are stored upper-case")

	err := f.quals.CreateQualificationType(&models.QualificationType{Code: " Dds ", Name: "Duplicate"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = f.quals.CreateQualificationType(&models.QualificationType{Code: "", Name: "No code"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	types, err := f.quals.GetQualificationTypes()
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "DDS", types[0].Code)

	eligible, err := f.quals.GetLockupEligibleTypes()
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, f.dds.ID, eligible[0].ID)
}

func TestUpdateQualificationType(t *testing.T) {
	f := newFixture(t)

	name := "Duty Watch"
	lockup := true
	updated, err := f.quals.UpdateQualificationType(f.firstAid.ID, QualificationTypeUpdate{Name: &name, CanReceiveLockup: &lockup})
	require.NoError(t, err)
	assert.Equal(t, "Duty Watch", updated.Name)
	assert.True(t, updated.CanReceiveLockup)
	assert.Equal(t, "FA", updated.Code)

	code := "dds"
	_, err = f.quals.UpdateQualificationType(f.firstAid.ID, QualificationTypeUpdate{Code: &code})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.quals.UpdateQualificationType(4242, QualificationTypeUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteQualificationType(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, false)

	grant, err := f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.firstAid.ID})
	require.NoError(t, err)

	err = f.quals.DeleteQualificationType(f.firstAid.ID)
	assert.ErrorIs(t, err, ErrInUse)

	// revoked grants keep the type alive
	_, err = f.quals.RevokeQualification(grant.ID, nil, "")
	require.NoError(t, err)
	err = f.quals.DeleteQualificationType(f.firstAid.ID)
	assert.ErrorIs(t, err, ErrInUse)

	var grants int64
	require.NoError(t, f.db.Model(&models.MemberQualification{}).Where("qualification_type_id = ?", f.firstAid.ID).Count(&grants).Error)
	assert.EqualValues(t, 1, grants)

	unused := &models.QualificationType{Code: "UNUSED", Name: "Unused"}
	require.NoError(t, f.quals.CreateQualificationType(unused))
	require.NoError(t, f.quals.DeleteQualificationType(unused.ID))
	_, err = f.quals.GetQualificationTypeByID(unused.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.quals.DeleteQualificationType(4242), ErrNotFound)
}

func TestGrantQualification(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, false)

	expires := time.Now().Add(24 * time.Hour)
	grant, err := f.quals.GrantQualification(GrantQualificationRequest{
		MemberID:            m.ID,
		QualificationTypeID: f.dds.ID,
		GrantedBy:           uintPtr(1),
		ExpiresAt:           &expires,
		Notes:               "course 2024-03",
	})
	require.NoError(t, err)
	assert.Equal(t, models.QualificationStatusActive, grant.Status)
	require.NotNil(t, grant.QualificationType)
	assert.Equal(t, "DDS", grant.QualificationType.Code)

	_, err = f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.dds.ID})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	past := time.Now().Add(-time.Hour)
	_, err = f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.firstAid.ID, ExpiresAt: &past})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.quals.GrantQualification(GrantQualificationRequest{MemberID: 4242, QualificationTypeID: f.dds.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: 4242})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegrantAfterExpiry(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, false)

	expires := time.Now().Add(time.Hour)
	lapsed, err := f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.dds.ID, ExpiresAt: &expires})
	require.NoError(t, err)

	// the grant runs out without anyone revoking it
	require.NoError(t, f.db.Model(&models.MemberQualification{}).Where("id = ?", lapsed.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	eligible, err := f.quals.CanReceiveLockup(ctx(), m.ID)
	require.NoError(t, err)
	assert.False(t, eligible)

	renewed, err := f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.dds.ID})
	require.NoError(t, err)
	assert.NotEqual(t, lapsed.ID, renewed.ID)

	eligible, err = f.quals.CanReceiveLockup(ctx(), m.ID)
	require.NoError(t, err)
	assert.True(t, eligible)

	_, err = f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.dds.ID})
	assert.ErrorIs(t, err, ErrAlreadyExists, "the renewed grant is unexpired")
}

func TestRevokeQualification(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, true)

	grants, err := f.quals.GetMemberQualifications(m.ID, true)
	require.NoError(t, err)
	require.Len(t, grants, 1)

	revoked, err := f.quals.RevokeQualification(grants[0].ID, uintPtr(7), "left the unit")
	require.NoError(t, err)
	assert.Equal(t, models.QualificationStatusRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokeReason)
	assert.Equal(t, "left the unit", *revoked.RevokeReason)
	require.NotNil(t, revoked.RevokedBy)
	assert.EqualValues(t, 7, *revoked.RevokedBy)

	_, err = f.quals.RevokeQualification(grants[0].ID, nil, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.quals.RevokeQualification(4242, nil, "")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := f.quals.GetMemberQualifications(m.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.quals.GetMemberQualifications(m.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// a revoked grant does not block a new one
	_, err = f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.dds.ID})
	assert.NoError(t, err)
}

func TestCanReceiveLockup(t *testing.T) {
	f := newFixture(t)
	qualified := f.member(t, true)
	unqualified := f.member(t, false)
	inactive := f.member(t, true)
	require.NoError(t, f.db.Model(inactive).Update("status", models.MemberStatusInactive).Error)

	expired := f.member(t, false)
	require.NoError(t, f.db.Create(&models.MemberQualification{
		MemberID:            expired.ID,
		QualificationTypeID: f.dds.ID,
		Status:              models.QualificationStatusActive,
		GrantedAt:           time.Now().Add(-48 * time.Hour),
		ExpiresAt:           func() *time.Time { v := time.Now().Add(-time.Hour); return &v }(),
	}).Error)

	// non-lockup qualification only
	firstAider := f.member(t, false)
	_, err := f.quals.GrantQualification(GrantQualificationRequest{MemberID: firstAider.ID, QualificationTypeID: f.firstAid.ID})
	require.NoError(t, err)

	tests := []struct {
		name   string
		member uint
		want   bool
	}{
		{"qualified", qualified.ID, true},
		{"no grants", unqualified.ID, false},
		{"inactive member", inactive.ID, false},
		{"expired grant", expired.ID, false},
		{"non-lockup type", firstAider.ID, false},
		{"unknown member", 4242, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.quals.CanReceiveLockup(ctx(), tt.member)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ids, err := f.quals.LockupEligibleMemberIDs(ctx())
	require.NoError(t, err)
	assert.Equal(t, []uint{qualified.ID}, ids)
}

func TestEligibilityFollowsQualificationTypeChanges(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, false)
	_, err := f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.firstAid.ID})
	require.NoError(t, err)

	ok, err := f.eligibility.CanReceiveLockup(ctx(), m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	lockup := true
	_, err = f.quals.UpdateQualificationType(f.firstAid.ID, QualificationTypeUpdate{CanReceiveLockup: &lockup})
	require.NoError(t, err)

	ok, err = f.eligibility.CanReceiveLockup(ctx(), m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListEligibleMembers(t *testing.T) {
	f := newFixture(t)
	inside := f.member(t, true)
	outside := f.member(t, true)
	f.member(t, false)
	f.checkIn(t, inside)

	all, err := f.eligibility.ListEligibleMembers(ctx(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, inside.ID, all[0].ID)
	assert.True(t, all[0].IsCheckedIn)
	assert.Equal(t, outside.ID, all[1].ID)
	assert.False(t, all[1].IsCheckedIn)
	assert.Equal(t, []QualificationBadge{{Code: "DDS", Name: "DDS Qualified"}}, all[0].Qualifications)

	present, err := f.eligibility.ListEligibleMembers(ctx(), true)
	require.NoError(t, err)
	require.Len(t, present, 1)
	assert.Equal(t, inside.ID, present[0].ID)
}

func TestValidateRecipient(t *testing.T) {
	f := newFixture(t)
	qualified := f.member(t, true)
	unqualified := f.member(t, false)

	_, err := f.eligibility.ValidateRecipient(ctx(), qualified.ID, true)
	assert.ErrorIs(t, err, ErrNotPresent)

	got, err := f.eligibility.ValidateRecipient(ctx(), qualified.ID, false)
	require.NoError(t, err)
	assert.Equal(t, qualified.ServiceNumber, got.ServiceNumber)
	assert.False(t, got.IsCheckedIn)

	f.checkIn(t, unqualified)
	_, err = f.eligibility.ValidateRecipient(ctx(), unqualified.ID, true)
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = f.eligibility.ValidateRecipient(ctx(), 4242, false)
	assert.ErrorIs(t, err, ErrNotFound)
}
