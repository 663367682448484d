package buildhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	buildstore "github.com/dalemusser/stratapages/internal/app/store/builds"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/app/system/authutil"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/dalemusser/stratapages/internal/testutil"
	"go.uber.org/zap"
)

const callbackSecret = "ci-callback-secret"

func newTestHandler(t *testing.T) (*Handler, *buildstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	hash, err := authutil.HashSecret(callbackSecret)
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}

	return NewHandler(db, hash, zap.NewNop()), buildstore.New(db)
}

func dispatchBuild(t *testing.T, builds *buildstore.Store) buildstore.Build {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, err := builds.Create(ctx, buildstore.ReasonPublish, "cafe-noon")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return b
}

func postComplete(h *Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/complete", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	CallbackRoutes(h).ServeHTTP(rec, req)
	return rec
}

func TestCompleteHandler(t *testing.T) {
	h, builds := newTestHandler(t)
	b := dispatchBuild(t, builds)

	rec := postComplete(h, callbackSecret, `{"buildId":"`+b.ID+`","success":true,"detail":"deployed in 41s"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := builds.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != buildstore.StatusCompleted {
		t.Errorf("build status = %q, want completed", got.Status)
	}
	if got.Detail != "deployed in 41s" {
		t.Errorf("build detail = %q", got.Detail)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
}

func TestCompleteHandler_Failure(t *testing.T) {
	h, builds := newTestHandler(t)
	b := dispatchBuild(t, builds)

	rec := postComplete(h, callbackSecret, `{"buildId":"`+b.ID+`","success":false,"detail":"npm install failed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := builds.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != buildstore.StatusFailed {
		t.Errorf("build status = %q, want failed", got.Status)
	}
}

func TestCompleteHandler_BadCredential(t *testing.T) {
	h, builds := newTestHandler(t)
	b := dispatchBuild(t, builds)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"wrong token", "not-the-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postComplete(h, tt.token, `{"buildId":"`+b.ID+`","success":true}`)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}

	// The build is untouched.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := builds.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != buildstore.StatusDispatched {
		t.Errorf("build status = %q, want dispatched", got.Status)
	}
}

func TestCompleteHandler_BadRequests(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing buildId", `{"success":true}`},
		{"missing success", `{"buildId":"some-id"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postComplete(h, callbackSecret, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCompleteHandler_UnknownBuild(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postComplete(h, callbackSecret, `{"buildId":"no-such-build","success":true}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCompleteHandler_OnlyOnce(t *testing.T) {
	h, builds := newTestHandler(t)
	b := dispatchBuild(t, builds)

	rec := postComplete(h, callbackSecret, `{"buildId":"`+b.ID+`","success":true,"detail":"first"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first callback status = %d, want %d", rec.Code, http.StatusOK)
	}

	// A replayed callback is a 404; the first result sticks.
	rec = postComplete(h, callbackSecret, `{"buildId":"`+b.ID+`","success":false,"detail":"second"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("replay status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := builds.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != buildstore.StatusCompleted || got.Detail != "first" {
		t.Errorf("build = %q/%q, want completed/first", got.Status, got.Detail)
	}
}

func TestListHandler(t *testing.T) {
	h, builds := newTestHandler(t)
	dispatchBuild(t, builds)
	dispatchBuild(t, builds)

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	router := AdminRoutes(h, sessionMgr)

	// Anonymous requests are rejected.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	admin := testutil.AdminWith(models.Capabilities{})
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", admin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Data  []buildstore.Build `json:"data"`
		Count int                `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Data) != 2 {
		t.Errorf("count = %d (len %d), want 2", resp.Count, len(resp.Data))
	}
}

func TestListHandler_EmptyIsArray(t *testing.T) {
	h, _ := newTestHandler(t)

	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.SuperAdmin())
	rec := httptest.NewRecorder()
	AdminRoutes(h, sessionMgr).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want an empty array, not null", rec.Body.String())
	}
}
