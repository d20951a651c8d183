package services

import (
	"context"
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockupStore owns the status row of one building and its append-only history.
// All status writes go through Apply, a conditional update on (id, version).
type LockupStore struct {
	DB         *gorm.DB
	BuildingID uint
}

// NewLockupStore 创建某栋楼的lockup状态存储
func NewLockupStore(db *gorm.DB, buildingID uint) *LockupStore {
	return &LockupStore{DB: db, BuildingID: buildingID}
}

// StatusChange is the next value of a status row, built from the row it replaces
type StatusChange struct {
	from *models.LockupStatus
	next models.LockupStatus
}

// Change starts a change against the status that was read
func Change(from *models.LockupStatus) *StatusChange {
	return &StatusChange{from: from, next: *from}
}

// SetHolder 设置持有人并刷新获取时间
func (c *StatusChange) SetHolder(memberID uint, at time.Time) *StatusChange {
	c.next.CurrentHolderID = &memberID
	c.next.AcquiredAt = &at
	return c
}

// ClearHolder 清除持有人
func (c *StatusChange) ClearHolder() *StatusChange {
	c.next.CurrentHolderID = nil
	c.next.AcquiredAt = nil
	return c
}

// SetBuildingStatus 设置楼宇状态
func (c *StatusChange) SetBuildingStatus(status models.BuildingStatus) *StatusChange {
	c.next.BuildingStatus = status
	return c
}

// RecordSecured 记录最后一次锁楼的人和时间
func (c *StatusChange) RecordSecured(by uint, at time.Time) *StatusChange {
	c.next.SecuredBy = &by
	c.next.SecuredAt = &at
	return c
}

func (c *StatusChange) validate() error {
	switch c.next.BuildingStatus {
	case models.BuildingStatusSecured:
		if c.next.CurrentHolderID != nil {
			return fmt.Errorf("%w: a secured building cannot have a holder", ErrInvalidState)
		}
	case models.BuildingStatusOpen, models.BuildingStatusLockingUp:
		if c.next.CurrentHolderID == nil {
			return fmt.Errorf("%w: building %s needs a holder", ErrInvalidState, c.next.BuildingStatus)
		}
	default:
		return fmt.Errorf("%w: unknown building status %q", ErrInvalidState, c.next.BuildingStatus)
	}
	return nil
}

// 1 GetStatus 获取状态行，不存在时以secured创建
func (s *LockupStore) GetStatus(ctx context.Context) (*models.LockupStatus, error) {
	db := s.DB.WithContext(ctx)

	var status models.LockupStatus
	err := db.Where("building_id = ?", s.BuildingID).First(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row := models.LockupStatus{
		BuildingID:     s.BuildingID,
		BuildingStatus: models.BuildingStatusSecured,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	if err := db.Where("building_id = ?", s.BuildingID).First(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// 2 IsCurrentHolder 成员是否为当前持有人
func (s *LockupStore) IsCurrentHolder(ctx context.Context, memberID uint) (bool, error) {
	status, err := s.GetStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.IsHeldBy(memberID), nil
}

// 3 Apply writes the change only if the row still has the version that was read,
// and creates the history records in the same transaction.
// Zero affected rows means another writer got there first: ErrConflict.
func (s *LockupStore) Apply(ctx context.Context, change *StatusChange, records ...interface{}) (*models.LockupStatus, error) {
	if err := change.validate(); err != nil {
		return nil, err
	}

	from, next := change.from, change.next
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.LockupStatus{}).
			Where("id = ? AND version = ?", from.ID, from.Version).
			Updates(map[string]interface{}{
				"building_status":   next.BuildingStatus,
				"current_holder_id": next.CurrentHolderID,
				"acquired_at":       next.AcquiredAt,
				"secured_by":        next.SecuredBy,
				"secured_at":        next.SecuredAt,
				"version":           from.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: lockup status changed concurrently, re-read status and retry", ErrConflict)
		}

		for _, record := range records {
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var status models.LockupStatus
	if err := s.DB.WithContext(ctx).First(&status, from.ID).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// LastDailyReset returns the newest day-rollover reset, or nil when none has run
func (s *LockupStore) LastDailyReset(ctx context.Context) (*models.LockupDailyReset, error) {
	var reset models.LockupDailyReset
	err := s.DB.WithContext(ctx).Where("building_id = ?", s.BuildingID).Order("id DESC").First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// HistoryQuery pages through merged transfer and execution history
type HistoryQuery struct {
	Limit     int
	Offset    int
	StartDate *time.Time
	EndDate   *time.Time
}

// HistoryEntry is either a transfer or an execution
type HistoryEntry struct {
	Type      string                  `json:"type"` // transfer, execution
	ID        uint                    `json:"id"`
	Timestamp time.Time               `json:"timestamp"`
	Transfer  *models.LockupTransfer  `json:"transfer,omitempty"`
	Execution *models.LockupExecution `json:"execution,omitempty"`
}

// 4 History merges transfers and executions newest first
func (s *LockupStore) History(ctx context.Context, q HistoryQuery) ([]HistoryEntry, int64, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	window := q.Offset + q.Limit

	filter := func(db *gorm.DB, column string) *gorm.DB {
		db = db.Where("building_id = ?", s.BuildingID)
		if q.StartDate != nil {
			db = db.Where(column+" >= ?", *q.StartDate)
		}
		if q.EndDate != nil {
			db = db.Where(column+" <= ?", *q.EndDate)
		}
		return db
	}

	db := s.DB.WithContext(ctx)

	var transferCount, executionCount int64
	if err := filter(db.Model(&models.LockupTransfer{}), "transferred_at").Count(&transferCount).Error; err != nil {
		return nil, 0, err
	}
	if err := filter(db.Model(&models.LockupExecution{}), "executed_at").Count(&executionCount).Error; err != nil {
		return nil, 0, err
	}

	// each side contributes at most offset+limit rows to the merged window
	var transfers []models.LockupTransfer
	if err := filter(db.Model(&models.LockupTransfer{}), "transferred_at").
		Order("transferred_at DESC, id DESC").Limit(window).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}
	var executions []models.LockupExecution
	if err := filter(db.Model(&models.LockupExecution{}), "executed_at").
		Order("executed_at DESC, id DESC").Limit(window).Find(&executions).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]HistoryEntry, 0, len(transfers)+len(executions))
	for i := range transfers {
		entries = append(entries, HistoryEntry{Type: "transfer", ID: transfers[i].ID, Timestamp: transfers[i].TransferredAt, Transfer: &transfers[i]})
	}
	for i := range executions {
		entries = append(entries, HistoryEntry{Type: "execution", ID: executions[i].ID, Timestamp: executions[i].ExecutedAt, Execution: &executions[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	total := transferCount + executionCount
	if q.Offset >= len(entries) {
		return []HistoryEntry{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[q.Offset:end], total, nil
}
