package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/msccenter/hrm-ui/internal/data/cryptoutil"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/mocks"
	"github.com/msccenter/hrm-ui/internal/observability/notify"
	"github.com/msccenter/hrm-ui/internal/service/accountnotifier"
)

// captureSink records account events delivered through the notifier.
type captureSink struct {
	mu     sync.Mutex
	events []notify.AccountEventPayload
}

func (c *captureSink) SendAccountEvent(_ context.Context, payload notify.AccountEventPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, payload)
	return nil
}

func (c *captureSink) all() []notify.AccountEventPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.AccountEventPayload(nil), c.events...)
}

func TestUserService_Approve(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	sink := &captureSink{}
	notifier := accountnotifier.NewService(accountnotifier.Options{
		Sinks: []accountnotifier.SinkRegistration{{Name: "capture", Sink: sink}},
	})

	users.EXPECT().GetByID(gomock.Any(), "u-1").Return(&model.User{
		ID:     "u-1",
		Email:  "lan@example.com",
		Status: model.UserStatusPending,
	}, nil)
	activeStatus := model.UserStatusActive
	users.EXPECT().
		Update(gomock.Any(), "u-1", model.UpdateUserRequest{Status: &activeStatus}).
		Return(&model.User{
			ID:       "u-1",
			Email:    "lan@example.com",
			FullName: "Lan Nguyen",
			Status:   model.UserStatusActive,
		}, nil)

	service := NewUserService(UserServiceOptions{Users: users, Notifier: notifier})

	updated, err := service.Approve(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, updated.Status)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, notify.KindAccountApproved, events[0].Kind)
	assert.Equal(t, "u-1", events[0].UserID)
	assert.Equal(t, notify.SeverityInfo, events[0].Severity)
}

func TestUserService_Approve_NotPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	users.EXPECT().GetByID(gomock.Any(), "u-1").Return(&model.User{
		ID:     "u-1",
		Status: model.UserStatusActive,
	}, nil)

	service := NewUserService(UserServiceOptions{Users: users})

	_, err := service.Approve(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pending")
}

func TestUserService_ListPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	users.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.UsersListOptions) ([]*model.User, error) {
			require.NotNil(t, opts.Status)
			assert.Equal(t, model.UserStatusPending, *opts.Status)
			assert.Equal(t, "created_at", opts.Sort)
			assert.Equal(t, "asc", opts.Dir)
			assert.Equal(t, 50, opts.Limit)
			return []*model.User{{ID: "u-1", Status: model.UserStatusPending}}, nil
		})

	service := NewUserService(UserServiceOptions{Users: users})

	pending, err := service.ListPending(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUserService_SetRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	managerRole := domainauth.RoleManager
	users.EXPECT().
		Update(gomock.Any(), "u-1", model.UpdateUserRequest{Role: &managerRole}).
		Return(&model.User{ID: "u-1", Role: domainauth.RoleManager}, nil)

	service := NewUserService(UserServiceOptions{Users: users})

	updated, err := service.SetRole(context.Background(), "u-1", domainauth.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleManager, updated.Role)
}

func TestUserService_SetRole_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	service := NewUserService(UserServiceOptions{Users: users})

	_, err := service.SetRole(context.Background(), "u-1", domainauth.Role("superuser"))
	assert.Error(t, err)
}

func TestUserService_SetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	disabled := model.UserStatusDisabled
	users.EXPECT().
		Update(gomock.Any(), "u-1", model.UpdateUserRequest{Status: &disabled}).
		Return(&model.User{ID: "u-1", Status: model.UserStatusDisabled}, nil)

	service := NewUserService(UserServiceOptions{Users: users})

	updated, err := service.SetStatus(context.Background(), "u-1", model.UserStatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusDisabled, updated.Status)
}

func TestUserService_CreateActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	req := &model.CreateUserRequest{
		Email:     "admin@example.com",
		Password:  "admin-password-123",
		FirstName: "System",
		LastName:  "Admin",
	}

	users.EXPECT().
		Create(gomock.Any(), req, gomock.Any()).
		Return(&model.User{ID: "u-admin", Status: model.UserStatusPending}, nil)
	adminRole := domainauth.RoleAdmin
	activeStatus := model.UserStatusActive
	users.EXPECT().
		Update(gomock.Any(), "u-admin", model.UpdateUserRequest{Role: &adminRole, Status: &activeStatus}).
		Return(&model.User{
			ID:     "u-admin",
			Role:   domainauth.RoleAdmin,
			Status: model.UserStatusActive,
		}, nil)

	service := NewUserService(UserServiceOptions{Users: users})

	created, err := service.CreateActive(context.Background(), req, domainauth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, created.Role)
	assert.Equal(t, model.UserStatusActive, created.Status)
}

func TestUserService_CreateActive_UnknownRoleFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	users.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&model.User{ID: "u-x"}, nil)
	users.EXPECT().
		Update(gomock.Any(), "u-x", gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
			require.NotNil(t, req.Role)
			assert.Equal(t, domainauth.DefaultRole, *req.Role)
			return &model.User{ID: id, Role: *req.Role, Status: model.UserStatusActive}, nil
		})

	service := NewUserService(UserServiceOptions{Users: users})

	created, err := service.CreateActive(context.Background(), &model.CreateUserRequest{
		Email:     "x@example.com",
		Password:  "some-password-123",
		FirstName: "X",
		LastName:  "Y",
	}, domainauth.Role("superuser"))
	require.NoError(t, err)
	assert.Equal(t, domainauth.DefaultRole, created.Role)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	hash, err := cryptoutil.HashPassword("old-password-1", fastArgon2Params)
	require.NoError(t, err)

	users.EXPECT().GetByID(gomock.Any(), "u-1").Return(&model.User{
		ID:           "u-1",
		PasswordHash: hash,
	}, nil)
	users.EXPECT().
		UpdatePasswordHash(gomock.Any(), "u-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, newHash string) error {
			ok, verifyErr := cryptoutil.VerifyPassword("new-password-1", newHash)
			require.NoError(t, verifyErr)
			assert.True(t, ok)
			return nil
		})

	service := NewUserService(UserServiceOptions{Users: users})

	err = service.ChangePassword(context.Background(), "u-1", model.ChangePasswordRequest{
		Current: "old-password-1",
		New:     "new-password-1",
		Confirm: "new-password-1",
	})
	require.NoError(t, err)
}

func TestUserService_ChangePassword_WrongCurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	hash, err := cryptoutil.HashPassword("old-password-1", fastArgon2Params)
	require.NoError(t, err)
	users.EXPECT().GetByID(gomock.Any(), "u-1").Return(&model.User{
		ID:           "u-1",
		PasswordHash: hash,
	}, nil)

	service := NewUserService(UserServiceOptions{Users: users})

	err = service.ChangePassword(context.Background(), "u-1", model.ChangePasswordRequest{
		Current: "not-the-password",
		New:     "new-password-1",
		Confirm: "new-password-1",
	})
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestUserService_ChangePassword_InvalidRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	service := NewUserService(UserServiceOptions{Users: users})

	cases := []model.ChangePasswordRequest{
		{New: "new-password-1", Confirm: "new-password-1"},
		{Current: "old-password-1", New: "short", Confirm: "short"},
		{Current: "old-password-1", New: "new-password-1", Confirm: "different-pass-1"},
		{Current: "same-password-1", New: "same-password-1", Confirm: "same-password-1"},
	}
	for _, req := range cases {
		assert.Error(t, service.ChangePassword(context.Background(), "u-1", req))
	}
}

func TestUserService_List_Normalization(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)

	users.EXPECT().
		List(gomock.Any(), model.UsersListOptions{
			Limit:  50,
			Offset: 0,
			Sort:   "created_at",
			Dir:    "desc",
		}).
		Return(nil, nil)

	service := NewUserService(UserServiceOptions{Users: users})

	_, err := service.List(context.Background(), model.UsersListOptions{Offset: -5})
	require.NoError(t, err)
}

func TestUserService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	users.EXPECT().Delete(gomock.Any(), "u-1").Return(true, nil)
	users.EXPECT().Delete(gomock.Any(), "u-2").Return(false, errors.New("db down"))

	service := NewUserService(UserServiceOptions{Users: users})

	ok, err := service.Delete(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = service.Delete(context.Background(), "u-2")
	assert.Error(t, err)
}
