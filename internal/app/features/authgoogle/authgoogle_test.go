package authgoogle

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratapages/internal/app/store/oauthstate"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *mongo.Database, *oauthstate.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	oauthStateStore := oauthstate.New(db)

	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	handler := NewHandler(
		db,
		sessionMgr,
		nil, // audit logging off in tests
		oauthStateStore,
		"test-client-id",
		"test-client-secret",
		"http://localhost:8080",
		"/admin",
		logger,
	)
	return handler, db, oauthStateStore
}

func TestStartAuth_RedirectsToGoogle(t *testing.T) {
	h, _, states := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()

	h.startAuth(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Errorf("Location = %q, want Google authorization URL", location)
	}
	if !strings.Contains(location, "client_id=test-client-id") {
		t.Errorf("Location = %q, should carry the client id", location)
	}

	// The state in the redirect must have been stored for the callback.
	u, err := url.Parse(location)
	if err != nil {
		t.Fatalf("failed to parse redirect URL: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatal("redirect URL has no state parameter")
	}
	if !states.Verify(ctx, state) {
		t.Error("state from redirect was not stored")
	}
}

func TestHandleCallback_InvalidState(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=forged&code=abc", nil)
	rec := httptest.NewRecorder()

	h.handleCallback(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "error=invalid_state") {
		t.Errorf("Location = %q, want error=invalid_state", location)
	}
}

func TestHandleCallback_StateSingleUse(t *testing.T) {
	h, _, states := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := states.Create(ctx, "used-once"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// First use consumes the state (the flow then fails on the Google error
	// param, which is fine for this test).
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=used-once&error=access_denied", nil)
	h.handleCallback(httptest.NewRecorder(), req)

	// Second use must be rejected as invalid.
	req2 := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=used-once&code=abc", nil)
	rec2 := httptest.NewRecorder()
	h.handleCallback(rec2, req2)

	if !strings.Contains(rec2.Header().Get("Location"), "error=invalid_state") {
		t.Errorf("Location = %q, want error=invalid_state on replayed state", rec2.Header().Get("Location"))
	}
}

func TestHandleCallback_GoogleError(t *testing.T) {
	h, _, states := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := states.Create(ctx, "valid-state"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=valid-state&error=access_denied", nil)
	rec := httptest.NewRecorder()

	h.handleCallback(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !strings.Contains(rec.Header().Get("Location"), "error=access_denied") {
		t.Errorf("Location = %q, want error=access_denied", rec.Header().Get("Location"))
	}
}

func TestRedirectWithError_QuerySeparator(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.redirectWithError(rec, req, "oauth_error")

	if got := rec.Header().Get("Location"); got != "/admin?error=oauth_error" {
		t.Errorf("Location = %q, want /admin?error=oauth_error", got)
	}

	// Console URL that already carries a query string
	h.consoleURL = "/admin?tab=pages"
	rec2 := httptest.NewRecorder()
	h.redirectWithError(rec2, req, "oauth_error")

	if got := rec2.Header().Get("Location"); got != "/admin?tab=pages&error=oauth_error" {
		t.Errorf("Location = %q, want /admin?tab=pages&error=oauth_error", got)
	}
}

func TestGenerateState_Unique(t *testing.T) {
	a, err := generateState()
	if err != nil {
		t.Fatalf("generateState() error = %v", err)
	}
	b, err := generateState()
	if err != nil {
		t.Fatalf("generateState() error = %v", err)
	}
	if a == b {
		t.Error("generateState() returned the same value twice")
	}
	if len(a) < 32 {
		t.Errorf("state length = %d, want at least 32", len(a))
	}
}

func TestRoutes(t *testing.T) {
	h, _, _ := newTestHandler(t)
	router := Routes(h)
	if router == nil {
		t.Fatal("Routes() returned nil")
	}
}
