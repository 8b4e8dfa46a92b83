package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/mocks"
)

func officeLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(OfficeTimezone)
	require.NoError(t, err)
	return loc
}

func newTestAttendanceService(t *testing.T, repo core.AttendanceRepository, now time.Time) *AttendanceService {
	t.Helper()
	service, err := NewAttendanceService(AttendanceServiceOptions{
		Attendance: repo,
		Location:   officeLocation(t),
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)
	return service
}

func TestAttendanceService_WorkDate(t *testing.T) {
	loc := officeLocation(t)
	service, err := NewAttendanceService(AttendanceServiceOptions{Location: loc})
	require.NoError(t, err)

	// 23:30 local on March 3rd is still March 3rd.
	lateEvening := time.Date(2026, 3, 3, 23, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), service.WorkDate(lateEvening))

	// 00:30 local on March 4th is March 4th even though it is still
	// March 3rd in UTC (office time is UTC+7).
	earlyMorning := time.Date(2026, 3, 4, 0, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), service.WorkDate(earlyMorning))
	assert.Equal(t, 3, earlyMorning.UTC().Day())
}

func TestAttendanceService_CheckIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)

	loc := officeLocation(t)
	now := time.Date(2026, 3, 3, 8, 30, 0, 0, loc)
	workDate := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().
		CheckIn(gomock.Any(), "u-1", workDate, now).
		Return(&model.AttendanceRecord{
			ID:        "att-1",
			UserID:    "u-1",
			WorkDate:  workDate,
			CheckInAt: now,
		}, nil)

	service := newTestAttendanceService(t, repo, now)

	rec, err := service.CheckIn(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStatusWorking, rec.Status())
}

func TestAttendanceService_CheckIn_AlreadyCheckedIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)
	repo.EXPECT().
		CheckIn(gomock.Any(), "u-1", gomock.Any(), gomock.Any()).
		Return(nil, model.ErrAlreadyCheckedIn)

	service := newTestAttendanceService(t, repo, time.Now())

	_, err := service.CheckIn(context.Background(), "u-1")
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)
}

func TestAttendanceService_CheckIn_EmptyUserID(t *testing.T) {
	service := newTestAttendanceService(t, nil, time.Now())

	_, err := service.CheckIn(context.Background(), "")
	assert.Error(t, err)
}

func TestAttendanceService_CheckOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)

	loc := officeLocation(t)
	now := time.Date(2026, 3, 3, 17, 30, 0, 0, loc)
	workDate := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	checkIn := now.Add(-9 * time.Hour)

	repo.EXPECT().
		CheckOut(gomock.Any(), core.CheckOutParams{UserID: "u-1", WorkDate: workDate, At: now}).
		Return(&model.AttendanceRecord{
			ID:         "att-1",
			UserID:     "u-1",
			WorkDate:   workDate,
			CheckInAt:  checkIn,
			CheckOutAt: &now,
		}, nil)

	service := newTestAttendanceService(t, repo, now)

	rec, err := service.CheckOut(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStatusDone, rec.Status())
	assert.Equal(t, 9*time.Hour, rec.Worked(now))
}

func TestAttendanceService_CheckOut_NotCheckedIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)
	repo.EXPECT().
		CheckOut(gomock.Any(), gomock.Any()).
		Return(nil, model.ErrNotCheckedIn)

	service := newTestAttendanceService(t, repo, time.Now())

	_, err := service.CheckOut(context.Background(), "u-1")
	assert.ErrorIs(t, err, model.ErrNotCheckedIn)
}

func TestAttendanceService_Today(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)

	loc := officeLocation(t)
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, loc)
	workDate := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().
		GetForDay(gomock.Any(), "u-1", workDate).
		Return(&model.AttendanceRecord{
			ID:        "att-1",
			UserID:    "u-1",
			WorkDate:  workDate,
			CheckInAt: now.Add(-time.Hour),
		}, nil)

	service := newTestAttendanceService(t, repo, now)

	rec, err := service.Today(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStatusWorking, rec.Status())
}

func TestAttendanceService_Today_NotStarted(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)
	repo.EXPECT().
		GetForDay(gomock.Any(), "u-1", gomock.Any()).
		Return(nil, data.ErrAttendanceNotFound)

	service := newTestAttendanceService(t, repo, time.Now())

	rec, err := service.Today(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStatusNotStarted, rec.Status())
	assert.Equal(t, "u-1", rec.UserID)
}

func TestAttendanceService_Today_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)
	repo.EXPECT().
		GetForDay(gomock.Any(), "u-1", gomock.Any()).
		Return(nil, errors.New("db down"))

	service := newTestAttendanceService(t, repo, time.Now())

	_, err := service.Today(context.Background(), "u-1")
	assert.Error(t, err)
}

func TestAttendanceService_WeekSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)

	loc := officeLocation(t)
	// A Wednesday; the week starts on Monday March 2nd.
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, loc)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)
	mondayOut := monday.Add(8 * time.Hour)
	tuesday := time.Date(2026, 3, 3, 8, 0, 0, 0, loc)
	tuesdayOut := tuesday.Add(9 * time.Hour)

	repo.EXPECT().
		ListRange(gomock.Any(), "u-1", weekStart, weekEnd).
		Return([]*model.AttendanceRecord{
			{UserID: "u-1", WorkDate: weekStart, CheckInAt: monday, CheckOutAt: &mondayOut},
			{UserID: "u-1", WorkDate: weekStart.AddDate(0, 0, 1), CheckInAt: tuesday, CheckOutAt: &tuesdayOut},
		}, nil)

	service := newTestAttendanceService(t, repo, now)

	summary, err := service.WeekSummary(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, weekStart, summary.WeekStart)
	assert.Equal(t, 2, summary.DaysWorked)
	assert.Equal(t, 17*time.Hour, summary.Total)
	assert.Len(t, summary.Records, 2)
}

func TestAttendanceService_WeekSummary_SundayBelongsToCurrentWeek(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAttendanceRepository(ctrl)

	loc := officeLocation(t)
	// Sunday March 8th still belongs to the week starting Monday March 2nd.
	now := time.Date(2026, 3, 8, 12, 0, 0, 0, loc)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().
		ListRange(gomock.Any(), "u-1", weekStart, weekStart.AddDate(0, 0, 6)).
		Return(nil, nil)

	service := newTestAttendanceService(t, repo, now)

	summary, err := service.WeekSummary(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, weekStart, summary.WeekStart)
	assert.Zero(t, summary.DaysWorked)
}
