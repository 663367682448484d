package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/domain/models"
)

// TestAdmin represents admin data for testing HTTP handlers.
type TestAdmin struct {
	UID          string
	Name         string
	Email        string
	Role         string
	Capabilities models.Capabilities
}

// SuperAdmin returns a TestAdmin with the superadmin role, which implicitly
// holds every capability.
func SuperAdmin() TestAdmin {
	return TestAdmin{
		UID:   "test-uid-superadmin",
		Name:  "Test Superadmin",
		Email: "superadmin@test.com",
		Role:  models.RoleSuperadmin,
	}
}

// AdminWith returns a TestAdmin with the plain admin role and the given
// capability set.
func AdminWith(caps models.Capabilities) TestAdmin {
	return TestAdmin{
		UID:          "test-uid-admin",
		Name:         "Test Admin",
		Email:        "admin@test.com",
		Role:         models.RoleAdmin,
		Capabilities: caps,
	}
}

// WithAdmin adds an admin to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the admin
// directly.
func WithAdmin(r *http.Request, admin TestAdmin) *http.Request {
	sessionAdmin := &auth.SessionAdmin{
		UID:          admin.UID,
		Email:        admin.Email,
		DisplayName:  admin.Name,
		Role:         admin.Role,
		Capabilities: admin.Capabilities,
	}
	return auth.WithTestAdmin(r, sessionAdmin)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with an admin in context.
func NewAuthenticatedRequest(method, target string, admin TestAdmin) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithAdmin(req, admin)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
