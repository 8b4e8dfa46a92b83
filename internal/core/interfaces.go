package core

import (
	"context"
	"time"

	"github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UserRepository defines the interface for user account data operations.
type UserRepository interface {
	Create(ctx context.Context, req *model.CreateUserRequest, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
	Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) (bool, error)

	// GetRole returns the stored role for the user. Callers must treat any
	// error as auth.DefaultRole rather than escalating.
	GetRole(ctx context.Context, id string) (auth.Role, error)
}

// PreferenceRepository defines the interface for preference document storage.
// Each user has at most one record; Upsert replaces the whole document.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*model.PreferenceRecord, error)
	Upsert(ctx context.Context, userID, doc string, version int) (*model.PreferenceRecord, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// CheckOutParams groups parameters for AttendanceRepository.CheckOut.
type CheckOutParams struct {
	UserID   string
	WorkDate time.Time
	At       time.Time
}

// AttendanceRepository defines the interface for attendance data operations.
// WorkDate values are calendar days in the office timezone, truncated to
// midnight UTC for storage.
type AttendanceRepository interface {
	CheckIn(ctx context.Context, userID string, workDate, at time.Time) (*model.AttendanceRecord, error)
	CheckOut(ctx context.Context, params CheckOutParams) (*model.AttendanceRecord, error)
	GetForDay(ctx context.Context, userID string, workDate time.Time) (*model.AttendanceRecord, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.AttendanceRecord, error)
}
