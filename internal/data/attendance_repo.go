package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data/pgxutil"
	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// AttendanceRepo provides database operations for attendance records. There
// is at most one record per user per work date, enforced by a unique index.
type AttendanceRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAttendanceRepo creates a new AttendanceRepo with real time provider.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo {
	return &AttendanceRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAttendanceRepoWithTimeProvider creates a new AttendanceRepo with a custom time provider (useful for tests).
func NewAttendanceRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AttendanceRepo {
	return &AttendanceRepo{DB: db, timeProvider: tp}
}

const attendanceColumnList = "id, user_id, work_date, check_in_at, check_out_at, created_at, updated_at"

// CheckIn opens a record for the day. A second check-in for the same day
// returns model.ErrAlreadyCheckedIn.
func (r *AttendanceRepo) CheckIn(
	ctx context.Context,
	userID string,
	workDate, at time.Time,
) (*model.AttendanceRecord, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	createdAt := r.timeProvider.Now().UTC()
	var out model.AttendanceRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO attendance_records (id, user_id, work_date, check_in_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+attendanceColumnList,
			uuid.New().String(), userID, workDate.UTC(), at.UTC(), createdAt)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AttendanceRecord])
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, model.ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to check in: %w", err)
	}
	return &out, nil
}

// CheckOut closes the day's open record. Checking out without an open record
// returns model.ErrNotCheckedIn; a repeat check-out is the same error.
func (r *AttendanceRepo) CheckOut(
	ctx context.Context,
	params core.CheckOutParams,
) (*model.AttendanceRecord, error) {
	if params.UserID == "" {
		return nil, errors.New("user id is required")
	}

	var out model.AttendanceRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE attendance_records
			SET check_out_at = $1, updated_at = $2
			WHERE user_id = $3 AND work_date = $4 AND check_out_at IS NULL
			RETURNING `+attendanceColumnList,
			params.At.UTC(), r.timeProvider.Now().UTC(), params.UserID, params.WorkDate.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AttendanceRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotCheckedIn
		}
		return nil, fmt.Errorf("failed to check out: %w", err)
	}
	return &out, nil
}

// GetForDay retrieves a user's record for one work date.
func (r *AttendanceRepo) GetForDay(
	ctx context.Context,
	userID string,
	workDate time.Time,
) (*model.AttendanceRecord, error) {
	var out model.AttendanceRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+attendanceColumnList+`
			FROM attendance_records
			WHERE user_id = $1 AND work_date = $2`,
			userID, workDate.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AttendanceRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to get attendance for day: %w", err)
	}
	return &out, nil
}

// ListRange retrieves a user's records with work_date in [from, to], oldest first.
func (r *AttendanceRepo) ListRange(
	ctx context.Context,
	userID string,
	from, to time.Time,
) ([]*model.AttendanceRecord, error) {
	var rowsOut []model.AttendanceRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+attendanceColumnList+`
			FROM attendance_records
			WHERE user_id = $1 AND work_date >= $2 AND work_date <= $3
			ORDER BY work_date ASC`,
			userID, from.UTC(), to.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AttendanceRecord])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list attendance range: %w", err)
	}

	res := make([]*model.AttendanceRecord, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
