package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/employeevirtual/backend/internal/agents"
	"github.com/employeevirtual/backend/internal/flows"
	"github.com/employeevirtual/backend/internal/middleware/auth"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/users"
)

const testSecret = "test-secret"

// newTestApp wires the user and agent routes the same way main does:
// registration is public, everything after the auth middleware is not.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := database.NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	userHandler := NewUserHandler(users.NewService(store))
	agentHandler := NewAgentHandler(agents.NewService(store))
	flowHandler := NewFlowHandler(flows.NewService(store))

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/users", userHandler.Register)

	api.Use(auth.Middleware(auth.Config{JWTSecret: testSecret}))
	api.Get("/users/me", userHandler.GetMe)
	api.Post("/agents", agentHandler.Create)
	api.Get("/agents/:id", agentHandler.Get)
	api.Post("/flows", flowHandler.Create)
	api.Delete("/flows/:id/tags/:tag", flowHandler.RemoveTag)
	return app
}

func token(t *testing.T, subject string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, decoded
}

func TestRegisterReturnsCreatedUser(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "longenough",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body["email"] != "ada@example.com" {
		t.Errorf("expected email echoed back, got %v", body["email"])
	}
	if body["id"] == "" || body["id"] == nil {
		t.Error("expected a generated id")
	}
	if _, ok := body["password_hash"]; ok {
		t.Error("password hash must not appear in responses")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAgentHiddenFromOtherUsers(t *testing.T) {
	app := newTestApp(t)

	resp, created := doJSON(t, app, http.MethodPost, "/api/v1/agents", token(t, "user-1"), map[string]any{
		"name":  "Support bot",
		"model": "gpt-4o-mini",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	agentID, _ := created["id"].(string)
	if agentID == "" {
		t.Fatal("expected a generated agent id")
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/agents/"+agentID, token(t, "user-1"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected owner to read agent, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/agents/"+agentID, token(t, "user-2"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner, got %d", resp.StatusCode)
	}
	if body["error"] != "Resource not found" {
		t.Errorf("unexpected error body: %v", body["error"])
	}
}

func TestRemoveTagDecodesPathParam(t *testing.T) {
	app := newTestApp(t)

	resp, created := doJSON(t, app, http.MethodPost, "/api/v1/flows", token(t, "user-1"), map[string]any{
		"name": "Weekly digest",
		"tags": []string{"high priority", "reports"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	flowID, _ := created["id"].(string)
	if flowID == "" {
		t.Fatal("expected a generated flow id")
	}

	resp, body := doJSON(t, app, http.MethodDelete, "/api/v1/flows/"+flowID+"/tags/high%20priority", token(t, "user-1"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	tags, _ := body["tags"].([]any)
	if len(tags) != 1 || tags[0] != "reports" {
		t.Errorf("expected only 'reports' left, got %v", body["tags"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/users/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
