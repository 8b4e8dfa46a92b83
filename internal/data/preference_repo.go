package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/msccenter/hrm-ui/internal/data/pgxutil"
	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// PreferenceRepo stores one composite preference document per user. The
// document is opaque TEXT at this layer so a corrupt value can still be read
// back and handled by the decoder.
type PreferenceRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPreferenceRepo creates a new PreferenceRepo with real time provider.
func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewPreferenceRepoWithTimeProvider creates a new PreferenceRepo with a custom time provider (useful for tests).
func NewPreferenceRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PreferenceRepo {
	return &PreferenceRepo{DB: db, timeProvider: tp}
}

// Get retrieves the preference record for a user.
func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*model.PreferenceRecord, error) {
	var rec model.PreferenceRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT user_id, doc, version, updated_at
			FROM preferences
			WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rec, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PreferenceRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &rec, nil
}

// Upsert writes the whole document for a user, replacing any previous one.
func (r *PreferenceRepo) Upsert(
	ctx context.Context,
	userID, doc string,
	version int,
) (*model.PreferenceRecord, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	var rec model.PreferenceRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO preferences (user_id, doc, version, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE
			SET doc = EXCLUDED.doc, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at
			RETURNING user_id, doc, version, updated_at`,
			userID, doc, version, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		rec, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PreferenceRecord])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return &rec, nil
}

// Delete removes the preference record for a user.
func (r *PreferenceRepo) Delete(ctx context.Context, userID string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM preferences WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete preferences: %w", err)
	}
	return rows > 0, nil
}
