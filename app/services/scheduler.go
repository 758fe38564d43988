package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"
)

// Reminders sends overdue-fee reminders to guardians.
type Reminders struct {
	users       UserStore
	reports     *Reports
	fanout      *NotificationFanout
	authorEmail string
	logger      *slog.Logger
}

func NewReminders(users UserStore, reports *Reports, fanout *NotificationFanout, authorEmail string, logger *slog.Logger) *Reminders {
	return &Reminders{users: users, reports: reports, fanout: fanout, authorEmail: authorEmail, logger: logger}
}

// SendOverdueReminders notifies every guardian with overdue targeted fees.
// It returns the number of guardians reached.
func (r *Reminders) SendOverdueReminders(ctx context.Context) (int, error) {
	author, err := r.users.GetUserByEmail(ctx, r.authorEmail)
	if isNotFound(err) || (err == nil && author.Role != models.RoleAdmin) {
		return 0, apperr.NotFound("Reminder author not found: " + r.authorEmail)
	}
	if err != nil {
		return 0, internal(err, "Error loading reminder author")
	}

	overdue, err := r.reports.OverdueGuardians(ctx)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		r.logger.Info("no overdue guardians to remind")
		return 0, nil
	}

	ids := make([]string, 0, len(overdue))
	for _, g := range overdue {
		ids = append(ids, g.GuardianID)
	}
	body := fmt.Sprintf("You have fees that are past their due date. Please settle your outstanding balance as of %s.",
		today(r.fanout.clock))

	result, err := r.fanout.Send(ctx, author.ID, "Overdue fee reminder", body, models.TargetedRecipients(ids...))
	if err != nil {
		return 0, err
	}
	return result.Sent, nil
}

// dailyJob runs job at most once per calendar day, on the first tick
// that falls within hour.
type dailyJob struct {
	hour    int
	job     func(context.Context) (int, error)
	logger  *slog.Logger
	lastRun models.Date
}

// tick reports whether the job ran for now.
func (d *dailyJob) tick(ctx context.Context, now time.Time) bool {
	day := models.DateOf(now)
	if now.Hour() != d.hour || day.Equal(d.lastRun.Time) {
		return false
	}
	d.lastRun = day

	d.logger.Info("running overdue reminders", "date", day.String())
	sent, err := d.job(ctx)
	if err != nil {
		d.logger.Error("overdue reminders failed", "error", err)
		return true
	}
	d.logger.Info("overdue reminders sent", "guardians", sent)
	return true
}

// StartScheduler runs the reminder job once a day at the given hour until
// ctx is cancelled.
func StartScheduler(ctx context.Context, reminders *Reminders, hour int, clock Clock, logger *slog.Logger) {
	job := &dailyJob{hour: hour, job: reminders.SendOverdueReminders, logger: logger}
	go func() {
		logger.Info("scheduler started", "hour", hour)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("scheduler stopped")
				return
			case <-ticker.C:
				job.tick(ctx, clock())
			}
		}
	}()
}
