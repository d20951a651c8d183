package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sentinel-lockup-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildingStartsSecured(t *testing.T) {
	f := newFixture(t)

	status, err := f.lockup.GetStatus(ctx())
	require.NoError(t, err)
	assert.Equal(t, models.BuildingStatusSecured, status.BuildingStatus)
	assert.Nil(t, status.CurrentHolder)
	assert.Equal(t, f.building.ID, status.BuildingID)

	// a second read must not create another row
	_, err = f.lockup.GetStatus(ctx())
	require.NoError(t, err)
	var rows int64
	require.NoError(t, f.db.Model(&models.LockupStatus{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestOpenBuildingMakesOpenerHolder(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)

	events, cancel := f.hub.Subscribe(false)
	defer cancel()

	view, err := f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BuildingStatusOpen, view.BuildingStatus)
	require.NotNil(t, view.CurrentHolder)
	assert.Equal(t, a.ID, view.CurrentHolder.ID)
	assert.NotNil(t, view.AcquiredAt)

	holds, err := f.lockup.IsCurrentHolder(ctx(), a.ID)
	require.NoError(t, err)
	assert.True(t, holds)

	entries, total, err := f.audit.List(ctx(), AuditQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.AuditActionOpenBuilding, entries[0].Action)
	assert.Equal(t, a.ID, entries[0].MemberID)
	assert.Equal(t, models.PerformerTypeMember, entries[0].PerformedByType)
	assert.Equal(t, models.LockupTagName, entries[0].TagName)

	select {
	case evt := <-events:
		assert.Equal(t, TopicLockupStatus, evt.Topic)
	default:
		t.Fatal("expected a status event")
	}
}

func TestOpenBuildingBySystemActor(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)

	_, err := f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{
		MemberID: a.ID,
		Actor:    &Actor{ID: uintPtr(99)},
		Notes:    "opened from admin console",
	})
	require.NoError(t, err)

	entries, _, err := f.audit.List(ctx(), AuditQuery{Action: models.AuditActionOpenBuilding})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.PerformerTypeSystem, entries[0].PerformedByType)
	require.NotNil(t, entries[0].PerformedBy)
	assert.EqualValues(t, 99, *entries[0].PerformedBy)
	assert.Equal(t, "opened from admin console", entries[0].Notes)
}

func TestOpenBuildingRejectsOpenBuilding(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	f.open(t, a)

	before, err := f.store.GetStatus(ctx())
	require.NoError(t, err)

	_, err = f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: b.ID})
	assert.ErrorIs(t, err, ErrInvalidState)

	after, err := f.store.GetStatus(ctx())
	require.NoError(t, err)
	assert.True(t, after.IsHeldBy(a.ID))
	assert.Equal(t, before.Version, after.Version)
	require.NotNil(t, after.AcquiredAt)
	assert.True(t, before.AcquiredAt.Equal(*after.AcquiredAt))
}

func TestOpenBuildingRequiresQualification(t *testing.T) {
	f := newFixture(t)
	c := f.member(t, false)

	_, err := f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: c.ID})
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: 4242})
	assert.ErrorIs(t, err, ErrNotFound)

	status, err := f.store.GetStatus(ctx())
	require.NoError(t, err)
	assert.Equal(t, models.BuildingStatusSecured, status.BuildingStatus)
	assert.Nil(t, status.CurrentHolderID)
}

func TestAcquireLockup(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)

	_, err := f.lockup.AcquireLockup(ctx(), AcquireLockupRequest{MemberID: a.ID})
	assert.ErrorIs(t, err, ErrNotPresent, "acquire requires presence")

	f.checkIn(t, a, b)
	view, err := f.lockup.AcquireLockup(ctx(), AcquireLockupRequest{MemberID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BuildingStatusOpen, view.BuildingStatus)
	assert.Equal(t, a.ID, view.CurrentHolder.ID)

	_, err = f.lockup.AcquireLockup(ctx(), AcquireLockupRequest{MemberID: b.ID})
	assert.ErrorIs(t, err, ErrInvalidState, "someone already holds lockup")

	entries, _, err := f.audit.List(ctx(), AuditQuery{Action: models.AuditActionAcquire})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, a.ID, entries[0].MemberID)
}

func TestTransferLockup(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a, b)

	events, cancel := f.hub.Subscribe(false)
	defer cancel()

	result, err := f.lockup.TransferLockup(ctx(), TransferLockupRequest{ToMemberID: b.ID, ExpectedHolderID: a.ID, Reason: models.TransferReasonDDSHandoff, Notes: "end of day"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, result.Transfer.FromMemberID)
	assert.Equal(t, b.ID, result.Transfer.ToMemberID)
	assert.Equal(t, models.TransferReasonDDSHandoff, result.Transfer.Reason)
	assert.NotZero(t, result.Transfer.ID)
	assert.Equal(t, b.ID, result.NewHolder.ID)
	assert.True(t, result.NewHolder.IsCheckedIn)
	assert.Equal(t, b.ID, result.Status.CurrentHolder.ID)

	for id, want := range map[uint]bool{a.ID: false, b.ID: true} {
		holds, err := f.lockup.IsCurrentHolder(ctx(), id)
		require.NoError(t, err)
		assert.Equal(t, want, holds, "member %d", id)
	}

	entries, _, err := f.audit.List(ctx(), AuditQuery{Action: models.AuditActionTransfer})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].MemberID)
	require.NotNil(t, entries[0].PerformedBy)
	assert.Equal(t, a.ID, *entries[0].PerformedBy)

	assert.Equal(t, []string{TopicLockupTransfer, TopicLockupStatus}, drain(events))
}

func TestTransferLockupDefaultsReason(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, b)

	result, err := f.lockup.TransferLockup(ctx(), TransferLockupRequest{ToMemberID: b.ID, ExpectedHolderID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TransferReasonManual, result.Transfer.Reason)
}

func TestTransferLockupPreconditions(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	qualifiedAbsent := f.member(t, true)
	unqualified := f.member(t, false)

	_, err := f.lockup.TransferLockup(ctx(), TransferLockupRequest{ToMemberID: a.ID, ExpectedHolderID: a.ID})
	assert.ErrorIs(t, err, ErrInvalidState, "secured building has no holder")

	f.open(t, a)
	f.checkIn(t, a, unqualified)

	tests := []struct {
		name string
		req  TransferLockupRequest
		want error
	}{
		{"not eligible", TransferLockupRequest{ToMemberID: unqualified.ID, ExpectedHolderID: a.ID}, ErrNotEligible},
		{"not present", TransferLockupRequest{ToMemberID: qualifiedAbsent.ID, ExpectedHolderID: a.ID}, ErrNotPresent},
		{"unknown member", TransferLockupRequest{ToMemberID: 4242, ExpectedHolderID: a.ID}, ErrNotFound},
		{"to self", TransferLockupRequest{ToMemberID: a.ID, ExpectedHolderID: a.ID}, ErrInvalidState},
		{"bad reason", TransferLockupRequest{ToMemberID: unqualified.ID, ExpectedHolderID: a.ID, Reason: "coffee_break"}, ErrInvalidInput},
		{"stale holder", TransferLockupRequest{ToMemberID: unqualified.ID, ExpectedHolderID: qualifiedAbsent.ID}, ErrConflict},
		{"no expected holder", TransferLockupRequest{ToMemberID: qualifiedAbsent.ID}, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lockup.TransferLockup(ctx(), tt.req)
			assert.ErrorIs(t, err, tt.want)

			status, err := f.store.GetStatus(ctx())
			require.NoError(t, err)
			assert.True(t, status.IsHeldBy(a.ID), "holder must not change")
		})
	}

	var transfers int64
	require.NoError(t, f.db.Model(&models.LockupTransfer{}).Count(&transfers).Error)
	assert.Zero(t, transfers)
}

func TestConcurrentTransfersHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	c := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a, b, c)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, to := range []uint{b.ID, c.ID} {
		wg.Add(1)
		go func(i int, to uint) {
			defer wg.Done()
			_, errs[i] = f.lockup.TransferLockup(context.Background(), TransferLockupRequest{ToMemberID: to, ExpectedHolderID: a.ID})
		}(i, to)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	status, err := f.store.GetStatus(ctx())
	require.NoError(t, err)
	require.NotNil(t, status.CurrentHolderID)
	assert.Contains(t, []uint{b.ID, c.ID}, *status.CurrentHolderID)

	var transfers int64
	require.NoError(t, f.db.Model(&models.LockupTransfer{}).Count(&transfers).Error)
	assert.EqualValues(t, 1, transfers)
}

func TestTransferLockupFromStaleView(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	c := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a, b, c)

	// both kiosks saw a as holder; the second one must not move responsibility away from b
	_, err := f.lockup.TransferLockup(ctx(), TransferLockupRequest{ToMemberID: b.ID, ExpectedHolderID: a.ID})
	require.NoError(t, err)
	_, err = f.lockup.TransferLockup(ctx(), TransferLockupRequest{ToMemberID: c.ID, ExpectedHolderID: a.ID})
	assert.ErrorIs(t, err, ErrConflict)

	status, err := f.store.GetStatus(ctx())
	require.NoError(t, err)
	assert.True(t, status.IsHeldBy(b.ID))

	var transfers int64
	require.NoError(t, f.db.Model(&models.LockupTransfer{}).Count(&transfers).Error)
	assert.EqualValues(t, 1, transfers)
}

func TestExecuteLockup(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, false)
	c := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a, b, c)
	v := f.visitor(t, "Plumber")

	public, cancelPublic := f.hub.Subscribe(false)
	defer cancelPublic()
	admin, cancelAdmin := f.hub.Subscribe(true)
	defer cancelAdmin()

	result, err := f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	require.NoError(t, err)

	assert.Equal(t, []uint{b.ID, c.ID}, result.CheckedOut.Members)
	assert.Equal(t, []uint{v.ID}, result.CheckedOut.Visitors)
	assert.Empty(t, result.Failed.Members)
	assert.Empty(t, result.Failed.Visitors)
	assert.True(t, result.PerformerCheckedOut)
	require.NotNil(t, result.AuditLogID)
	assert.NotZero(t, result.ExecutionID)

	assert.Equal(t, models.BuildingStatusSecured, result.Status.BuildingStatus)
	assert.Nil(t, result.Status.CurrentHolder)
	require.NotNil(t, result.Status.SecuredBy)
	assert.Equal(t, a.ID, result.Status.SecuredBy.ID)
	assert.NotNil(t, result.Status.SecuredAt)

	present, err := f.lockup.GetPresentForLockup(ctx())
	require.NoError(t, err)
	assert.Zero(t, present.TotalCount)

	// the performer is checked out last
	var checkouts []models.CheckinRecord
	require.NoError(t, f.db.Where("kiosk_id = ?", LockupCheckoutKioskID).Order("id ASC").Find(&checkouts).Error)
	require.Len(t, checkouts, 3)
	last := checkouts[len(checkouts)-1]
	assert.Equal(t, a.ID, last.MemberID)
	for _, r := range checkouts[:len(checkouts)-1] {
		assert.False(t, last.Timestamp.Before(r.Timestamp))
	}

	var execution models.LockupExecution
	require.NoError(t, f.db.First(&execution, result.ExecutionID).Error)
	assert.Equal(t, a.ID, execution.ExecutedBy)
	assert.Equal(t, 4, execution.TotalCheckedOut)
	assert.Equal(t, []uint{b.ID, c.ID}, execution.MembersCheckedOut)
	assert.Equal(t, result.AuditLogID, execution.AuditLogID)

	entries, _, err := f.audit.List(ctx(), AuditQuery{Action: models.AuditActionExecuteLockup})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *result.AuditLogID, entries[0].ID)
	assert.Contains(t, entries[0].Notes, "Checked out 3 members and 1 visitors")

	publicTopics := drain(public)
	adminTopics := drain(admin)
	assert.NotContains(t, publicTopics, TopicLockupExecution)
	assert.Contains(t, publicTopics, TopicLockupStatus)
	assert.Contains(t, adminTopics, TopicLockupExecution)

	assert.EqualValues(t, 1, f.counter(t, "lockup_operations_total", map[string]string{"operation": "execute", "result": "ok"}))
	assert.EqualValues(t, 2, f.counter(t, "lockup_execute_checkouts_total", map[string]string{"kind": "member", "result": "ok"}))
}

func TestExecuteLockupWithAbsentPerformer(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, false)
	f.open(t, a)
	f.checkIn(t, b)

	result, err := f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, result.CheckedOut.Members)
	assert.False(t, result.PerformerCheckedOut)
	assert.Equal(t, models.BuildingStatusSecured, result.Status.BuildingStatus)
}

func TestExecuteLockupPreconditions(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)

	_, err := f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	assert.ErrorIs(t, err, ErrInvalidState, "secured building")

	f.open(t, a)
	f.checkIn(t, a, b)

	_, err = f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: b.ID})
	assert.ErrorIs(t, err, ErrInvalidState, "only the holder executes")

	grants, err := f.quals.GetMemberQualifications(a.ID, true)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	_, err = f.quals.RevokeQualification(grants[0].ID, nil, "course lapsed")
	require.NoError(t, err)

	_, err = f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	assert.ErrorIs(t, err, ErrNotEligible)

	status, err := f.store.GetStatus(ctx())
	require.NoError(t, err)
	assert.Equal(t, models.BuildingStatusOpen, status.BuildingStatus)
	for _, m := range []*models.Member{a, b} {
		present, err := f.presence.IsPresent(ctx(), m.ID)
		require.NoError(t, err)
		assert.True(t, present, "nobody is checked out by a rejected execute")
	}
	assert.EqualValues(t, 1, f.counter(t, "lockup_operations_total", map[string]string{"operation": "execute", "result": "not_eligible"}))
}

// flakyPresence fails the system checkout of one member
type flakyPresence struct {
	InterfacePresenceService
	failMember uint
}

func (p *flakyPresence) CheckOut(ctx context.Context, memberID uint) error {
	if memberID == p.failMember {
		return errors.New("kiosk ledger unavailable")
	}
	return p.InterfacePresenceService.CheckOut(ctx, memberID)
}

func TestExecuteLockupPartialFailure(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, false)
	c := f.member(t, false)
	f.open(t, a)
	f.checkIn(t, a, b, c)
	f.lockup.Presence = &flakyPresence{InterfacePresenceService: f.presence, failMember: b.ID}

	result, err := f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, result.CheckedOut.Members)
	assert.Equal(t, []uint{b.ID}, result.Failed.Members)
	assert.True(t, result.PerformerCheckedOut)
	assert.Equal(t, models.BuildingStatusSecured, result.Status.BuildingStatus)

	present, err := f.presence.IsPresent(ctx(), b.ID)
	require.NoError(t, err)
	assert.True(t, present)

	var execution models.LockupExecution
	require.NoError(t, f.db.First(&execution, result.ExecutionID).Error)
	assert.Equal(t, []uint{b.ID}, execution.MembersFailed)
	assert.EqualValues(t, 1, f.counter(t, "lockup_execute_checkouts_total", map[string]string{"kind": "member", "result": "failed"}))
}

type failingAudit struct{ InterfaceAuditService }

func (failingAudit) Record(context.Context, *models.ResponsibilityAuditLog) (uint, error) {
	return 0, errors.New("audit store offline")
}

func TestAuditFailureDoesNotFailProtocols(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	f.lockup.Audit = failingAudit{f.audit}

	f.open(t, a)
	f.checkIn(t, a)

	result, err := f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	require.NoError(t, err)
	assert.Nil(t, result.AuditLogID)
	assert.Equal(t, models.BuildingStatusSecured, result.Status.BuildingStatus)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, string, interface{}) error {
	return errors.New("broker down")
}

func TestNotifyFailureDoesNotFailProtocols(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	f.lockup.Notifier = MultiNotifier{f.hub, failingNotifier{}}

	events, cancel := f.hub.Subscribe(false)
	defer cancel()

	_, err := f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: a.ID})
	require.NoError(t, err)
	assert.Len(t, events, 1, "the hub still delivers when another notifier fails")
}

func TestBuildingCanBeReopenedAfterLockup(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a)
	_, err := f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: a.ID})
	require.NoError(t, err)

	view, err := f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, view.CurrentHolder.ID)
	require.NotNil(t, view.SecuredBy, "last securing member is kept")
	assert.Equal(t, a.ID, view.SecuredBy.ID)
}

func TestGetCheckoutOptions(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	c := f.member(t, false)
	f.open(t, a)
	f.checkIn(t, a, b, c)

	opts, err := f.lockup.GetCheckoutOptions(ctx(), a.ID)
	require.NoError(t, err)
	assert.True(t, opts.IsHolder)
	assert.False(t, opts.CanCheckout)
	assert.NotEmpty(t, opts.BlockReason)
	assert.Equal(t, []string{CheckoutOptionExecute, CheckoutOptionTransfer}, opts.Options)
	require.Len(t, opts.EligibleRecipients, 1)
	assert.Equal(t, b.ID, opts.EligibleRecipients[0].ID)

	opts, err = f.lockup.GetCheckoutOptions(ctx(), c.ID)
	require.NoError(t, err)
	assert.False(t, opts.IsHolder)
	assert.True(t, opts.CanCheckout)
	assert.Equal(t, []string{CheckoutOptionNormal}, opts.Options)

	_, err = f.lockup.GetCheckoutOptions(ctx(), 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCheckoutOptionsWithoutRecipients(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a)

	opts, err := f.lockup.GetCheckoutOptions(ctx(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{CheckoutOptionExecute}, opts.Options)
	assert.Empty(t, opts.EligibleRecipients)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)
	f.open(t, a)
	f.checkIn(t, a, b)

	_, err := f.lockup.TransferLockup(ctx(), TransferLockupRequest{ToMemberID: b.ID, ExpectedHolderID: a.ID})
	require.NoError(t, err)
	_, err = f.lockup.ExecuteLockup(ctx(), ExecuteLockupRequest{PerformerID: b.ID})
	require.NoError(t, err)

	page, err := f.lockup.GetHistory(ctx(), HistoryQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.False(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "execution", page.Items[0].Type)
	assert.Equal(t, "transfer", page.Items[1].Type)
	assert.Contains(t, page.Members, a.ID)
	assert.Contains(t, page.Members, b.ID)

	page, err = f.lockup.GetHistory(ctx(), HistoryQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasMore)

	page, err = f.lockup.GetHistory(ctx(), HistoryQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "transfer", page.Items[0].Type)
	assert.False(t, page.HasMore)
}

func TestStoreApplyRejectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)
	b := f.member(t, true)

	status, err := f.store.GetStatus(ctx())
	require.NoError(t, err)

	_, err = f.store.Apply(ctx(), Change(status).SetHolder(a.ID, status.CreatedAt).SetBuildingStatus(models.BuildingStatusOpen))
	require.NoError(t, err)

	// status still carries the old version
	_, err = f.store.Apply(ctx(), Change(status).SetHolder(b.ID, status.CreatedAt).SetBuildingStatus(models.BuildingStatusOpen))
	assert.ErrorIs(t, err, ErrConflict)

	current, err := f.store.GetStatus(ctx())
	require.NoError(t, err)
	assert.True(t, current.IsHeldBy(a.ID))
	assert.Equal(t, status.Version+1, current.Version)
}

func TestStoreApplyRejectsInconsistentRows(t *testing.T) {
	f := newFixture(t)
	a := f.member(t, true)

	status, err := f.store.GetStatus(ctx())
	require.NoError(t, err)

	_, err = f.store.Apply(ctx(), Change(status).SetHolder(a.ID, status.CreatedAt))
	assert.ErrorIs(t, err, ErrInvalidState, "secured with a holder")

	_, err = f.store.Apply(ctx(), Change(status).SetBuildingStatus(models.BuildingStatusOpen))
	assert.ErrorIs(t, err, ErrInvalidState, "open without a holder")
}

func drain(ch <-chan Event) []string {
	topics := []string{}
	for len(ch) > 0 {
		topics = append(topics, (<-ch).Topic)
	}
	return topics
}
