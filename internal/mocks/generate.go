// Package mocks provides mock implementations for testing the hrm-ui services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockUserRepository(ctrl)
//	mockRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
package mocks

// Generate mock for UserRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_repository_mock.go github.com/msccenter/hrm-ui/internal/core UserRepository

// Generate mock for PreferenceRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=preference_repository_mock.go github.com/msccenter/hrm-ui/internal/core PreferenceRepository

// Generate mock for AttendanceRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=attendance_repository_mock.go github.com/msccenter/hrm-ui/internal/core AttendanceRepository
