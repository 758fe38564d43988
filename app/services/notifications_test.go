package services

import (
	"context"
	"errors"
	"testing"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"
)

func newNotificationFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.user(t, "admin", "Head Teacher", models.RoleAdmin)
	f.user(t, "a", "Alice", models.RoleGuardian)
	f.user(t, "b", "Bob", models.RoleGuardian)
	f.user(t, "c", "Carol", models.RoleGuardian)
	return f
}

func TestSendBroadcast(t *testing.T) {
	f := newNotificationFixture(t)

	res, err := f.fanout.Send(context.Background(), "admin", "Term dates", "School opens on Monday", models.BroadcastRecipients())
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 3 || res.Requested != 3 {
		t.Fatalf("result = %+v", res)
	}
	if got := f.store.RecipientCount(res.NotificationID); got != 3 {
		t.Fatalf("recipient rows = %d", got)
	}
}

func TestSendTargetedReadStateIsPerRecipient(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t)

	res, err := f.fanout.Send(ctx, "admin", "Fees", "Please pay", models.TargetedRecipients("a", "b", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 2 {
		t.Fatalf("sent = %d, want 2 (duplicates collapsed)", res.Sent)
	}

	if err := f.fanout.MarkRead(ctx, res.NotificationID, "a"); err != nil {
		t.Fatal(err)
	}

	forA, _ := f.fanout.NotificationsFor(ctx, "a")
	forB, _ := f.fanout.NotificationsFor(ctx, "b")
	forC, _ := f.fanout.NotificationsFor(ctx, "c")

	if len(forA) != 1 || !forA[0].IsRead || forA[0].ReadAt == nil {
		t.Fatalf("a view = %+v", forA)
	}
	if len(forB) != 1 || forB[0].IsRead || forB[0].ID != forA[0].ID {
		t.Fatalf("b view = %+v", forB)
	}
	if forA[0].AuthorName != "Head Teacher" {
		t.Errorf("author name = %q", forA[0].AuthorName)
	}
	if len(forC) != 0 {
		t.Fatalf("c should see nothing, got %+v", forC)
	}

	assertKind(t, f.fanout.MarkRead(ctx, res.NotificationID, "c"), apperr.KindNotFound)
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t)

	tests := []struct {
		name       string
		subject    string
		body       string
		recipients models.Recipients
		want       apperr.Kind
	}{
		{"blank subject", "  ", "body", models.BroadcastRecipients(), apperr.KindValidation},
		{"blank body", "subject", "", models.BroadcastRecipients(), apperr.KindValidation},
		{"empty list", "subject", "body", models.TargetedRecipients(), apperr.KindValidation},
		{"unknown guardian", "subject", "body", models.TargetedRecipients("a", "ghost"), apperr.KindNotFound},
		{"admin is not a guardian", "subject", "body", models.TargetedRecipients("admin"), apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.fanout.Send(ctx, "admin", tt.subject, tt.body, tt.recipients)
			assertKind(t, err, tt.want)
		})
	}

	views, _ := f.fanout.NotificationsFor(ctx, "a")
	if len(views) != 0 {
		t.Fatalf("rejected sends must not create rows, a sees %d", len(views))
	}
}

func TestSendPartialFanoutCountsCommittedRows(t *testing.T) {
	f := newNotificationFixture(t)
	f.store.FailRecipient("b", errors.New("disk full"))

	res, err := f.fanout.Send(context.Background(), "admin", "s", "m", models.BroadcastRecipients())
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 2 || res.Requested != 3 {
		t.Fatalf("result = %+v", res)
	}
	if got := f.store.RecipientCount(res.NotificationID); got != res.Sent {
		t.Fatalf("rows %d != reported %d", got, res.Sent)
	}
}

func TestDeleteForRecipient(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t)
	res, _ := f.fanout.Send(ctx, "admin", "s", "m", models.TargetedRecipients("a", "b"))

	if err := f.fanout.DeleteForRecipient(ctx, res.NotificationID, "a"); err != nil {
		t.Fatal(err)
	}
	forA, _ := f.fanout.NotificationsFor(ctx, "a")
	forB, _ := f.fanout.NotificationsFor(ctx, "b")
	if len(forA) != 0 || len(forB) != 1 {
		t.Fatalf("a=%d b=%d", len(forA), len(forB))
	}
	if !f.store.NotificationExists(res.NotificationID) {
		t.Fatal("notification row must survive recipient deletion")
	}
	assertKind(t, f.fanout.DeleteForRecipient(ctx, res.NotificationID, "a"), apperr.KindNotFound)
}

func TestNotificationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t)
	first, _ := f.fanout.Send(ctx, "admin", "first", "m", models.TargetedRecipients("a"))
	second, _ := f.fanout.Send(ctx, "admin", "second", "m", models.TargetedRecipients("a"))

	views, _ := f.fanout.NotificationsFor(ctx, "a")
	if len(views) != 2 || views[0].ID != second.NotificationID || views[1].ID != first.NotificationID {
		t.Fatalf("order = %+v", views)
	}
}
