package services

import (
	"context"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one scheduled run
const jobTimeout = 2 * time.Minute

// LockupJobs 锁楼定时任务：晚间未锁楼提醒和日切重置
type LockupJobs struct {
	Lockup   InterfaceLockupService
	Alerts   InterfaceAlertService
	Config   *config.Config
	Location *time.Location
	Now      func() time.Time

	// HH:MM in Location
	WarningAt  string
	CriticalAt string
	RolloverAt string

	cron *cron.Cron
}

// NewLockupJobs 创建定时任务，配置的时间必须是HH:MM，未配置时为22:00、23:00和03:00
func NewLockupJobs(cfg *config.Config, lockup InterfaceLockupService, alerts InterfaceAlertService) (*LockupJobs, error) {
	loc := time.Local
	if cfg.JobsTimezone != "" {
		l, err := time.LoadLocation(cfg.JobsTimezone)
		if err != nil {
			return nil, fmt.Errorf("%w: jobs timezone %q: %v", ErrInvalidInput, cfg.JobsTimezone, err)
		}
		loc = l
	}
	jobs := &LockupJobs{
		Lockup:     lockup,
		Alerts:     alerts,
		Config:     cfg,
		Location:   loc,
		Now:        time.Now,
		WarningAt:  clockOr(cfg.LockupWarningTime, "22:00"),
		CriticalAt: clockOr(cfg.LockupCriticalTime, "23:00"),
		RolloverAt: clockOr(cfg.DayRolloverTime, "03:00"),
	}
	for _, hhmm := range []string{jobs.WarningAt, jobs.CriticalAt, jobs.RolloverAt} {
		if _, _, err := parseClock(hhmm); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func clockOr(hhmm, fallback string) string {
	if strings.TrimSpace(hhmm) == "" {
		return fallback
	}
	return hhmm
}

func parseClock(hhmm string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalidInput, hhmm)
	}
	return t.Hour(), t.Minute(), nil
}

// dailySpec turns HH:MM into a five-field cron spec firing once a day
func dailySpec(hhmm string) (string, error) {
	hour, minute, err := parseClock(hhmm)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// 1 RunReminder 楼宇未锁时发出提醒，warning为提醒，critical为未执行锁楼
func (j *LockupJobs) RunReminder(ctx context.Context, severity models.AlertSeverity) (*models.LockupAlert, error) {
	status, err := j.Lockup.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read lockup status: %w", err)
	}
	if status.BuildingStatus == models.BuildingStatusSecured {
		Logger.Info("[Jobs] building %d is secured, no %s reminder", status.BuildingID, severity)
		return nil, nil
	}

	holder := "nobody"
	details := map[string]interface{}{
		"building_status": status.BuildingStatus,
		"version":         status.Version,
	}
	if h := status.CurrentHolder; h != nil {
		holder = strings.TrimSpace(fmt.Sprintf("%s %s %s", h.Rank, h.FirstName, h.LastName))
		details["holder_id"] = h.ID
		details["holder_name"] = holder
	}

	alert := &models.LockupAlert{
		BuildingID: status.BuildingID,
		Type:       models.AlertTypeLockupReminder,
		Severity:   models.AlertSeverityWarning,
		Title:      "Lockup Reminder",
		Message:    fmt.Sprintf("Building has not been locked up yet. Current holder: %s.", holder),
		Details:    details,
	}
	if severity == models.AlertSeverityCritical {
		alert.Type = models.AlertTypeLockupNotExecuted
		alert.Severity = models.AlertSeverityCritical
		alert.Title = "Lockup Not Executed"
		alert.Message = fmt.Sprintf("Building is still %s and lockup has not been executed. Current holder: %s.", status.BuildingStatus, holder)
	}

	if err := j.Alerts.Emit(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// 2 RunDailyReset 日切重置，并为未锁楼和未签退发出告警
func (j *LockupJobs) RunDailyReset(ctx context.Context) (*DailyResetResult, error) {
	result, err := j.Lockup.ResetDay(ctx)
	if err != nil {
		return nil, err
	}

	if !result.WasSecured {
		details := map[string]interface{}{"previous_status": result.PreviousStatus}
		if result.PreviousHolderID != nil {
			details["previous_holder_id"] = *result.PreviousHolderID
		}
		j.emit(ctx, &models.LockupAlert{
			Type:     models.AlertTypeBuildingNotSecured,
			Severity: models.AlertSeverityCritical,
			Title:    "Building Not Secured",
			Message:  fmt.Sprintf("Building was still %s at day rollover; it was reset to secured.", result.PreviousStatus),
			Details:  details,
		})
	}

	members := append(append([]uint{}, result.CheckedOut.Members...), result.Failed.Members...)
	if len(members) > 0 {
		j.emit(ctx, &models.LockupAlert{
			Type:     models.AlertTypeMemberMissedCheckout,
			Severity: models.AlertSeverityWarning,
			Title:    "Members Missed Checkout",
			Message:  fmt.Sprintf("%d member(s) were still checked in at day rollover and were checked out.", len(members)),
			Details: map[string]interface{}{
				"member_ids":     members,
				"failed_members": result.Failed.Members,
				"visitor_ids":    result.CheckedOut.Visitors,
			},
		})
	}
	return result, nil
}

// 3 CatchUp runs a missed reset at startup: once today's rollover has passed
// and no reset was recorded since then.
func (j *LockupJobs) CatchUp(ctx context.Context) (bool, error) {
	hour, minute, err := parseClock(j.RolloverAt)
	if err != nil {
		return false, err
	}
	now := j.Now().In(j.Location)
	rollover := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, j.Location)
	if now.Before(rollover) {
		return false, nil
	}

	last, err := j.Lockup.LastDailyReset(ctx)
	if err != nil {
		return false, err
	}
	if last != nil && !last.ResetAt.Before(rollover) {
		return false, nil
	}

	Logger.Info("[Jobs] daily reset missed since %s, running now", rollover.Format(time.RFC3339))
	if _, err := j.RunDailyReset(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// 4 Start 注册并启动定时任务
func (j *LockupJobs) Start() error {
	c := cron.New(cron.WithLocation(j.Location))

	schedule := []struct {
		name string
		at   string
		run  func(ctx context.Context) error
	}{
		{"lockup warning", j.WarningAt, func(ctx context.Context) error {
			_, err := j.RunReminder(ctx, models.AlertSeverityWarning)
			return err
		}},
		{"lockup critical", j.CriticalAt, func(ctx context.Context) error {
			_, err := j.RunReminder(ctx, models.AlertSeverityCritical)
			return err
		}},
		{"daily reset", j.RolloverAt, func(ctx context.Context) error {
			_, err := j.RunDailyReset(ctx)
			return err
		}},
	}

	for _, job := range schedule {
		spec, err := dailySpec(job.at)
		if err != nil {
			return err
		}
		job := job
		if _, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := job.run(ctx); err != nil {
				Logger.Error("[Jobs] %s failed: %v", job.name, err)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
		Logger.Info("[Jobs] %s scheduled at %s %s", job.name, job.at, j.Location)
	}

	c.Start()
	j.cron = c
	return nil
}

// 5 Stop 停止调度并等待运行中的任务结束
func (j *LockupJobs) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.cron = nil
}

// emit is a soft step: the reset already happened, a lost alert is only logged
func (j *LockupJobs) emit(ctx context.Context, alert *models.LockupAlert) {
	if err := j.Alerts.Emit(ctx, alert); err != nil {
		Logger.Error("[Jobs] emit %s alert failed: %v", alert.Type, err)
	}
}
