package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	"sentinel-lockup-service/internal/infrastructure/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture wires the lockup services against a fresh in-memory database
type fixture struct {
	db          *gorm.DB
	cfg         *config.Config
	building    *models.Building
	store       *LockupStore
	lock        *LocalBuildingLock
	presence    *PresenceService
	quals       InterfaceQualificationService
	eligibility InterfaceEligibilityService
	audit       InterfaceAuditService
	hub         *Hub
	registry    *prometheus.Registry
	lockup      *LockupService

	// lockup-eligible and non-eligible qualification types
	dds      *models.QualificationType
	firstAid *models.QualificationType

	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		DBDriver:            "sqlite",
		DBPath:              ":memory:",
		CollaboratorTimeout: 2 * time.Second,
		BuildingLockWait:    2 * time.Second,
	}
	db, err := database.Open(cfg, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, "auto"))

	building := &models.Building{BuildingName: "Drill Hall", BuildingCode: "DH"}
	require.NoError(t, db.Create(building).Error)

	f := &fixture{db: db, cfg: cfg, building: building}
	f.store = NewLockupStore(db, building.ID)
	f.lock = NewLocalBuildingLock(cfg.BuildingLockWait)
	f.presence = NewPresenceService(db, cfg, f.store, f.lock, building.ID)
	f.quals = NewQualificationService(db, cfg)
	f.eligibility = NewEligibilityService(db, cfg, f.quals, f.presence)
	f.audit = NewAuditService(db, cfg, building.ID)
	f.hub = NewHub()
	f.registry = prometheus.NewRegistry()
	f.lockup = NewLockupService(db, cfg, LockupDeps{
		Store:       f.store,
		Eligibility: f.eligibility,
		Presence:    f.presence,
		Audit:       f.audit,
		Notifier:    f.hub,
		Lock:        f.lock,
		Metrics:     NewLockupMetrics(f.registry),
	})

	f.dds = &models.QualificationType{Code: "dds", Name: "DDS Qualified", CanReceiveLockup: true, DisplayOrder: 1}
	require.NoError(t, f.quals.CreateQualificationType(f.dds))
	f.firstAid = &models.QualificationType{Code: "fa", Name: "First Aid", DisplayOrder: 2}
	require.NoError(t, f.quals.CreateQualificationType(f.firstAid))

	return f
}

// member creates an active member, optionally granted DDS
func (f *fixture) member(t *testing.T, qualified bool) *models.Member {
	t.Helper()

	f.seq++
	m := &models.Member{
		ServiceNumber: fmt.Sprintf("SN%04d", f.seq),
		FirstName:     fmt.Sprintf("First%d", f.seq),
		LastName:      fmt.Sprintf("Last%d", f.seq),
		Rank:          "PO2",
		BadgeID:       fmt.Sprintf("BADGE-%04d", f.seq),
		Status:        models.MemberStatusActive,
	}
	require.NoError(t, f.db.Create(m).Error)

	if qualified {
		_, err := f.quals.GrantQualification(GrantQualificationRequest{MemberID: m.ID, QualificationTypeID: f.dds.ID})
		require.NoError(t, err)
	}
	return m
}

func (f *fixture) checkIn(t *testing.T, members ...*models.Member) {
	t.Helper()
	for _, m := range members {
		_, err := f.presence.CheckIn(ctx(), BadgeScan{MemberID: m.ID, KioskID: "front-door"})
		require.NoError(t, err)
	}
}

func (f *fixture) visitor(t *testing.T, name string) *models.Visitor {
	t.Helper()
	v := &models.Visitor{Name: name, Organization: "Contractor", VisitType: "contractor"}
	require.NoError(t, f.presence.SignInVisitor(ctx(), v))
	return v
}

// open opens the secured building with holder as the lockup holder
func (f *fixture) open(t *testing.T, holder *models.Member) {
	t.Helper()
	_, err := f.lockup.OpenBuilding(ctx(), OpenBuildingRequest{MemberID: holder.ID})
	require.NoError(t, err)
}

func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func ctx() context.Context { return context.Background() }

func uintPtr(v uint) *uint { return &v }
