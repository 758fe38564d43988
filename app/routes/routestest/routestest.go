// Package routestest holds helpers for exercising route groups with
// fiber's app.Test against an in-memory store.
package routestest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"fee-management-system/app/database"
	"fee-management-system/app/models"
	"fee-management-system/app/routes"
	"fee-management-system/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

// Now is the fixed clock used by route tests.
var Now = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func Clock() time.Time { return Now }

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Env bundles an app, its store and a token issuer.
type Env struct {
	App    *fiber.App
	API    fiber.Router
	Store  *database.MemoryStore
	Tokens *auth.Tokens
}

func New() *Env {
	app := fiber.New(fiber.Config{Immutable: true, ErrorHandler: routes.ErrorHandler(Logger())})
	return &Env{
		App:    app,
		API:    app.Group("/api"),
		Store:  database.NewMemoryStore().WithClock(Clock),
		Tokens: auth.NewTokens("test-secret", time.Hour),
	}
}

// User stores an account and returns a bearer token for it.
func (e *Env) User(t *testing.T, id, name string, role models.Role) string {
	t.Helper()
	user := &models.User{ID: id, Name: name, Email: id + "@example.com", Password: "x", Role: role}
	if err := e.Store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := e.Tokens.GenerateJWT(user)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

// Response is the decoded API envelope.
type Response struct {
	Status  int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode unmarshals the data field into v.
func (r Response) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", r.Data, err)
	}
}

// Do sends a request with an optional bearer token and JSON body.
func (e *Env) Do(t *testing.T, method, path, token string, body any) Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.App.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := Response{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}
	return out
}
