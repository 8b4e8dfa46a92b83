package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/service"
)

// mockAuthServiceForMiddleware is a test double for AuthServiceInterface.
type mockAuthServiceForMiddleware struct {
	getSessionFunc func(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

func (m *mockAuthServiceForMiddleware) GetSession(
	ctx context.Context,
	sessionID string,
) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	return &domainauth.Session{
		ID:        sessionID,
		UserID:    "test-user",
		Email:     "test@example.com",
		Role:      domainauth.RoleStaff,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// Implement other methods to satisfy the interface.
func (m *mockAuthServiceForMiddleware) PasswordLogin(
	_ctx context.Context,
	_input service.PasswordLoginInput,
) (*domainauth.Session, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) Signup(
	_ctx context.Context,
	_req *model.CreateUserRequest,
) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) Touch(_ctx context.Context, _session *domainauth.Session) {}

func (m *mockAuthServiceForMiddleware) BeginLogin(
	_ctx context.Context,
	_redirectURL string,
) (*service.BeginLoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) CompleteLogin(
	_ctx context.Context,
	_input service.CompleteLoginInput,
) (*service.CompleteLoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) Logout(_ctx context.Context, _sessionID string) error {
	return errors.New("not implemented")
}

func TestRequireAuth_Success(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	middleware := RequireAuth(mockSvc)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r.Context())
		assert.NotNil(t, session)
		assert.Equal(t, "test-session-id", session.ID)
		w.WriteHeader(http.StatusOK)
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request with session cookie
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_NoSession(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	middleware := RequireAuth(mockSvc)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request without session cookie
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_InvalidSession(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(ctx context.Context, sessionID string) (*domainauth.Session, error) {
			return nil, errors.New("session not found")
		},
	}
	middleware := RequireAuth(mockSvc)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request with invalid session cookie
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "invalid-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_Success(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(ctx context.Context, sessionID string) (*domainauth.Session, error) {
			return &domainauth.Session{
				ID:        sessionID,
				UserID:    "admin-user",
				Email:     "admin@example.com",
				Role:      domainauth.RoleAdmin,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	middleware := RequireRole(mockSvc, domainauth.RoleStaff)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r.Context())
		assert.NotNil(t, session)
		assert.Equal(t, domainauth.RoleAdmin, session.Role)
		w.WriteHeader(http.StatusOK)
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request with session cookie
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_InsufficientRole(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(ctx context.Context, sessionID string) (*domainauth.Session, error) {
			return &domainauth.Session{
				ID:        sessionID,
				UserID:    "regular-user",
				Email:     "user@example.com",
				Role:      domainauth.RoleStaff,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	middleware := RequireRole(mockSvc, domainauth.RoleAdmin)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request with session cookie
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "user-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOptionalAuth_WithSession(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	middleware := OptionalAuth(mockSvc)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r.Context())
		assert.NotNil(t, session)
		assert.Equal(t, "test-session-id", session.ID)
		w.WriteHeader(http.StatusOK)
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request with session cookie
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth_WithoutSession(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	middleware := OptionalAuth(mockSvc)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r.Context())
		assert.Nil(t, session)
		w.WriteHeader(http.StatusOK)
	})

	// Wrap the handler with middleware
	handler := middleware(testHandler)

	// Create request without session cookie
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHasRequiredRole(t *testing.T) {
	tests := []struct {
		name         string
		userRole     domainauth.Role
		requiredRole domainauth.Role
		expected     bool
	}{
		{"Staff accessing Staff", domainauth.RoleStaff, domainauth.RoleStaff, true},
		{"Manager accessing Staff", domainauth.RoleManager, domainauth.RoleStaff, true},
		{"Admin accessing Staff", domainauth.RoleAdmin, domainauth.RoleStaff, true},
		{"Staff accessing Manager", domainauth.RoleStaff, domainauth.RoleManager, false},
		{"Manager accessing Manager", domainauth.RoleManager, domainauth.RoleManager, true},
		{"Admin accessing Manager", domainauth.RoleAdmin, domainauth.RoleManager, true},
		{"Staff accessing Admin", domainauth.RoleStaff, domainauth.RoleAdmin, false},
		{"Manager accessing Admin", domainauth.RoleManager, domainauth.RoleAdmin, false},
		{"Admin accessing Admin", domainauth.RoleAdmin, domainauth.RoleAdmin, true},
		{"Unknown role never qualifies", domainauth.Role("guest"), domainauth.RoleStaff, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hasRequiredRole(tt.userRole, tt.requiredRole)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetSessionFromContext(t *testing.T) {
	session := &domainauth.Session{
		ID:     "test-session",
		UserID: "test-user",
		Email:  "test@example.com",
		Role:   domainauth.RoleStaff,
	}

	// Test with session in context
	ctx := SetSessionInContext(context.Background(), session)
	result := GetSessionFromContext(ctx)
	assert.Equal(t, session, result)

	// Test without session in context
	emptyCtx := context.Background()
	result = GetSessionFromContext(emptyCtx)
	assert.Nil(t, result)
}
