package database

import (
	"context"
	"time"

	"fee-management-system/app/models"

	"github.com/pkg/errors"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (id, author_id, subject, body)
			  VALUES ($1, $2, $3, $4)
			  RETURNING sent_at`

	err := s.db.QueryRowContext(ctx, query, n.ID, n.AuthorID, n.Subject, n.Body).Scan(&n.SentAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "insert notification")
}

// AddRecipient makes a notification visible to one guardian, unread.
func (s *Store) AddRecipient(ctx context.Context, notificationID, guardianID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_recipients (notification_id, guardian_id)
		VALUES ($1, $2)`, notificationID, guardianID)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "insert notification recipient")
}

// NotificationsFor returns the notifications visible to a guardian, newest first.
func (s *Store) NotificationsFor(ctx context.Context, guardianID string) ([]models.NotificationView, error) {
	query := `SELECT n.id, n.author_id, n.subject, n.body, n.sent_at,
					 r.is_read, r.read_at, COALESCE(a.name, '')
			  FROM notification_recipients r
			  JOIN notifications n ON n.id = r.notification_id
			  LEFT JOIN users a ON a.id = n.author_id
			  WHERE r.guardian_id = $1
			  ORDER BY n.sent_at DESC, n.id`

	rows, err := s.db.QueryContext(ctx, query, guardianID)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	views := []models.NotificationView{}
	for rows.Next() {
		var v models.NotificationView
		err := rows.Scan(&v.ID, &v.AuthorID, &v.Subject, &v.Body, &v.SentAt,
			&v.IsRead, &v.ReadAt, &v.AuthorName)
		if err != nil {
			return nil, errors.Wrap(err, "scan notification")
		}
		views = append(views, v)
	}
	return views, errors.Wrap(rows.Err(), "iterate notifications")
}

func (s *Store) MarkRead(ctx context.Context, notificationID, guardianID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_recipients SET is_read = true, read_at = $3
		WHERE notification_id = $1 AND guardian_id = $2`, notificationID, guardianID, at)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	return requireAffected(res)
}

// DeleteRecipient hides a notification from one guardian. The notification
// itself and other recipients are untouched.
func (s *Store) DeleteRecipient(ctx context.Context, notificationID, guardianID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM notification_recipients
		WHERE notification_id = $1 AND guardian_id = $2`, notificationID, guardianID)
	if err != nil {
		return errors.Wrap(err, "delete notification recipient")
	}
	return requireAffected(res)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(res rowsAffecter) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
