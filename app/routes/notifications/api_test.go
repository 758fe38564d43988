package notifications_test

import (
	"testing"

	"fee-management-system/app/models"
	"fee-management-system/app/routes/notifications"
	"fee-management-system/app/routes/routestest"
	"fee-management-system/app/services"
)

type notificationsEnv struct {
	*routestest.Env
	admin, alice, bob string
}

func setup(t *testing.T) *notificationsEnv {
	t.Helper()
	env := routestest.New()
	fanout := services.NewNotificationFanout(env.Store, env.Store, routestest.Clock, routestest.Logger())
	notifications.SetupNotificationsRoutes(env.API, notifications.NewHandler(fanout), env.Tokens)

	return &notificationsEnv{
		Env:   env,
		admin: env.User(t, "admin", "Admin", models.RoleAdmin),
		alice: env.User(t, "a", "Alice", models.RoleGuardian),
		bob:   env.User(t, "b", "Bob", models.RoleGuardian),
	}
}

func (e *notificationsEnv) send(t *testing.T, recipients any) services.SendResult {
	t.Helper()
	resp := e.Do(t, "POST", "/api/notifications/send", e.admin, map[string]any{
		"recipients": recipients,
		"subject":    "Term fees",
		"message":    "Term two fees are due on the 1st.",
	})
	if resp.Status != 201 {
		t.Fatalf("send = %d %s", resp.Status, resp.Message)
	}
	var result services.SendResult
	resp.Decode(t, &result)
	return result
}

func (e *notificationsEnv) inbox(t *testing.T, token string) []models.NotificationView {
	t.Helper()
	var views []models.NotificationView
	e.Do(t, "GET", "/api/notifications/user", token, nil).Decode(t, &views)
	return views
}

func TestSendBroadcast(t *testing.T) {
	e := setup(t)

	result := e.send(t, "all")
	if result.Sent != 2 || result.Requested != 2 {
		t.Fatalf("result = %+v", result)
	}

	for _, token := range []string{e.alice, e.bob} {
		views := e.inbox(t, token)
		if len(views) != 1 || views[0].IsRead || views[0].AuthorName != "Admin" || views[0].Body == "" {
			t.Fatalf("inbox = %+v", views)
		}
	}
}

func TestSendValidation(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name   string
		token  string
		body   any
		status int
	}{
		{"recipients not all", e.admin, `{"recipients":"everyone","subject":"s","message":"m"}`, 400},
		{"recipients missing", e.admin, map[string]string{"subject": "s", "message": "m"}, 400},
		{"empty list", e.admin, map[string]any{"recipients": []string{}, "subject": "s", "message": "m"}, 400},
		{"blank subject", e.admin, map[string]any{"recipients": "all", "subject": " ", "message": "m"}, 400},
		{"unknown guardian", e.admin, map[string]any{"recipients": []string{"a", "zz"}, "subject": "s", "message": "m"}, 404},
		{"admin is not a recipient", e.admin, map[string]any{"recipients": []string{"admin"}, "subject": "s", "message": "m"}, 404},
		{"guardian cannot send", e.alice, map[string]any{"recipients": "all", "subject": "s", "message": "m"}, 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := e.Do(t, "POST", "/api/notifications/send", tt.token, tt.body); resp.Status != tt.status {
				t.Fatalf("status = %d (%s), want %d", resp.Status, resp.Message, tt.status)
			}
		})
	}
}

func TestReadAndDeleteArePerRecipient(t *testing.T) {
	e := setup(t)
	result := e.send(t, []string{"a", "b", "a"})
	if result.Sent != 2 {
		t.Fatalf("sent = %d, want duplicates collapsed", result.Sent)
	}
	path := "/api/notifications/" + result.NotificationID

	if resp := e.Do(t, "PUT", path+"/read", e.alice, nil); resp.Status != 200 {
		t.Fatalf("mark read = %d", resp.Status)
	}
	if views := e.inbox(t, e.alice); !views[0].IsRead || views[0].ReadAt == nil {
		t.Fatalf("alice = %+v", views[0])
	}
	if views := e.inbox(t, e.bob); views[0].IsRead {
		t.Fatal("read state leaked to bob")
	}

	if resp := e.Do(t, "DELETE", path, e.alice, nil); resp.Status != 200 {
		t.Fatalf("delete = %d", resp.Status)
	}
	if views := e.inbox(t, e.alice); len(views) != 0 {
		t.Fatalf("alice still sees %d", len(views))
	}
	if views := e.inbox(t, e.bob); len(views) != 1 {
		t.Fatalf("bob sees %d", len(views))
	}
	if !e.Store.NotificationExists(result.NotificationID) {
		t.Fatal("notification row removed")
	}

	if resp := e.Do(t, "DELETE", path, e.alice, nil); resp.Status != 404 {
		t.Fatalf("second delete = %d", resp.Status)
	}
	if resp := e.Do(t, "PUT", "/api/notifications/missing/read", e.bob, nil); resp.Status != 404 {
		t.Fatalf("unknown = %d", resp.Status)
	}
}
