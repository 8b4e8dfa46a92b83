package httpx

import (
	"context"
	"testing"

	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/stretchr/testify/assert"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	// With session
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleStaff}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
}

func TestIsAuthenticated(t *testing.T) {
	// No session
	assert.False(t, IsAuthenticated(context.Background()))

	// With session
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleStaff}
	assert.True(t, IsAuthenticated(SetSessionInContext(context.Background(), sess)))
}

func TestSessionRole(t *testing.T) {
	// Missing session resolves to the least-privileged role
	assert.Equal(t, domainauth.RoleStaff, SessionRole(context.Background()))

	manager := &domainauth.Session{ID: "m", Role: domainauth.RoleManager}
	admin := &domainauth.Session{ID: "a", Role: domainauth.RoleAdmin}
	assert.Equal(t, domainauth.RoleManager, SessionRole(SetSessionInContext(context.Background(), manager)))
	assert.Equal(t, domainauth.RoleAdmin, SessionRole(SetSessionInContext(context.Background(), admin)))
}
