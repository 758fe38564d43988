package services

import (
	"context"
	"log/slog"
	"strings"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"

	"github.com/google/uuid"
)

// SendResult reports how many recipient rows a send committed.
type SendResult struct {
	NotificationID string `json:"notificationId"`
	Sent           int    `json:"sent"`
	Requested      int    `json:"requested"`
}

// NotificationFanout stores one notification per send and one read-state
// row per recipient.
type NotificationFanout struct {
	users         UserStore
	notifications NotificationStore
	clock         Clock
	logger        *slog.Logger
}

func NewNotificationFanout(users UserStore, notifications NotificationStore, clock Clock, logger *slog.Logger) *NotificationFanout {
	return &NotificationFanout{users: users, notifications: notifications, clock: clock, logger: logger}
}

// resolve returns the concrete guardian ids for a recipient set. Every
// explicit id must be an existing guardian; duplicates are collapsed.
func (f *NotificationFanout) resolve(ctx context.Context, recipients models.Recipients) ([]string, error) {
	if recipients.Broadcast {
		guardians, err := f.users.ListGuardians(ctx)
		if err != nil {
			return nil, internal(err, "Error resolving recipients")
		}
		ids := make([]string, 0, len(guardians))
		for _, g := range guardians {
			ids = append(ids, g.ID)
		}
		return ids, nil
	}

	seen := make(map[string]bool, len(recipients.GuardianIDs))
	ids := make([]string, 0, len(recipients.GuardianIDs))
	for _, id := range recipients.GuardianIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apperr.Validation("Recipients are required")
	}

	found, err := f.users.ExistingGuardians(ctx, ids)
	if err != nil {
		return nil, internal(err, "Error resolving recipients")
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.NotFound("Parent not found: " + id)
		}
	}
	return ids, nil
}

// Send creates the notification and fans it out. Recipient rows are
// inserted one by one; a failed insert is logged and left out of the count.
func (f *NotificationFanout) Send(ctx context.Context, authorID, subject, body string, recipients models.Recipients) (*SendResult, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, apperr.Validation("Subject and message are required")
	}

	ids, err := f.resolve(ctx, recipients)
	if err != nil {
		return nil, err
	}

	n := &models.Notification{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Subject:  subject,
		Body:     body,
	}
	if err := f.notifications.CreateNotification(ctx, n); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Author not found")
		}
		return nil, internal(err, "Error sending notification")
	}

	result := &SendResult{NotificationID: n.ID, Requested: len(ids)}
	for _, id := range ids {
		if err := f.notifications.AddRecipient(ctx, n.ID, id); err != nil {
			f.logger.Warn("notification recipient not stored",
				"notification_id", n.ID, "guardian_id", id, "error", err)
			continue
		}
		result.Sent++
	}

	f.logger.Info("notification sent",
		"notification_id", n.ID,
		"broadcast", recipients.Broadcast,
		"sent", result.Sent,
		"requested", result.Requested,
	)
	return result, nil
}

// NotificationsFor lists a guardian's notifications, newest first.
func (f *NotificationFanout) NotificationsFor(ctx context.Context, guardianID string) ([]models.NotificationView, error) {
	views, err := f.notifications.NotificationsFor(ctx, guardianID)
	if err != nil {
		return nil, internal(err, "Error fetching notifications")
	}
	return views, nil
}

func (f *NotificationFanout) MarkRead(ctx context.Context, notificationID, guardianID string) error {
	err := f.notifications.MarkRead(ctx, notificationID, guardianID, f.clock())
	if isNotFound(err) {
		return apperr.NotFound("Notification not found")
	}
	return internal(err, "Error updating notification")
}

// DeleteForRecipient hides the notification from one guardian only.
func (f *NotificationFanout) DeleteForRecipient(ctx context.Context, notificationID, guardianID string) error {
	err := f.notifications.DeleteRecipient(ctx, notificationID, guardianID)
	if isNotFound(err) {
		return apperr.NotFound("Notification not found")
	}
	return internal(err, "Error deleting notification")
}
