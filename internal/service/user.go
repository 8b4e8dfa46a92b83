package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data/cryptoutil"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/observability/notify"
	"github.com/msccenter/hrm-ui/internal/service/accountnotifier"
)

// ErrWrongPassword is surfaced on the change-password form when the current
// password does not verify.
var ErrWrongPassword = errors.New("current password is incorrect")

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users    core.UserRepository
	Logger   *slog.Logger
	Notifier *accountnotifier.Service
}

// UserService covers account administration (listing, approval, role and
// status changes) plus the signed-in user's own profile operations.
type UserService struct {
	users    core.UserRepository
	logger   *slog.Logger
	notifier *accountnotifier.Service
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:    opts.Users,
		logger:   logger,
		notifier: opts.Notifier,
	}
}

// GetByID retrieves a user account.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns a page of user accounts.
func (s *UserService) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	return s.users.List(ctx, normalizeUsersListOptions(opts))
}

// ListPending returns accounts awaiting approval, oldest first.
func (s *UserService) ListPending(ctx context.Context, limit, offset int) ([]*model.User, error) {
	status := model.UserStatusPending
	return s.List(ctx, model.UsersListOptions{
		Limit:  limit,
		Offset: offset,
		Status: &status,
		Sort:   "created_at",
		Dir:    "asc",
	})
}

// Approve activates a pending account and notifies the account event sinks.
func (s *UserService) Approve(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status != model.UserStatusPending {
		return nil, fmt.Errorf("account is %s, not pending", user.Status)
	}

	status := model.UserStatusActive
	updated, err := s.users.Update(ctx, id, model.UpdateUserRequest{Status: &status})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account approved", "user_id", updated.ID)
	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.AccountEventPayload{
			Kind:       notify.KindAccountApproved,
			UserID:     updated.ID,
			UserName:   updated.FullName,
			Email:      updated.Email,
			OccurredAt: time.Now(),
		})
	}
	return updated, nil
}

// SetRole changes an account's role.
func (s *UserService) SetRole(ctx context.Context, id string, role domainauth.Role) (*model.User, error) {
	req := model.UpdateUserRequest{Role: &role}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account role changed",
		"user_id", updated.ID,
		"role", updated.Role,
	)
	return updated, nil
}

// SetStatus changes an account's lifecycle status. Disabling an account does
// not revoke existing sessions; those expire or are reaped.
func (s *UserService) SetStatus(ctx context.Context, id string, status model.UserStatus) (*model.User, error) {
	req := model.UpdateUserRequest{Status: &status}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account status changed",
		"user_id", updated.ID,
		"status", updated.Status,
	)
	return updated, nil
}

// CreateActive creates an account that skips the approval queue, for admin
// provisioning from the CLI.
func (s *UserService) CreateActive(
	ctx context.Context,
	req *model.CreateUserRequest,
	role domainauth.Role,
) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := cryptoutil.HashPassword(req.Password, cryptoutil.DefaultArgon2Params)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, req, hash)
	if err != nil {
		return nil, err
	}

	mapped := domainauth.ParseRole(string(role))
	status := model.UserStatusActive
	activated, err := s.users.Update(ctx, created.ID, model.UpdateUserRequest{
		Role:   &mapped,
		Status: &status,
	})
	if err != nil {
		return nil, fmt.Errorf("activate account: %w", err)
	}
	return activated, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *UserService) ChangePassword(ctx context.Context, id string, req model.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := cryptoutil.VerifyPassword(req.Current, user.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	hash, err := cryptoutil.HashPassword(req.New, cryptoutil.DefaultArgon2Params)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", id)
	return nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	return s.users.Delete(ctx, id)
}

func normalizeUsersListOptions(opts model.UsersListOptions) model.UsersListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Sort == "" {
		opts.Sort = "created_at"
	}
	if opts.Dir == "" {
		opts.Dir = "desc"
	}
	return opts
}
