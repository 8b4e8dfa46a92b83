package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/msccenter/hrm-ui/internal/data/cryptoutil"
	"github.com/msccenter/hrm-ui/internal/data/database"
	"github.com/msccenter/hrm-ui/internal/data/pgxutil"
	"github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
)

const (
	sortDirAsc  = "ASC"
	sortDirDesc = "DESC"
)

// UserRepo provides database operations for user accounts. Phone numbers are
// encrypted at rest with the injected Encryptor.
type UserRepo struct {
	DB           *sql.DB
	enc          cryptoutil.Encryptor
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB, enc cryptoutil.Encryptor) *UserRepo {
	return &UserRepo{DB: db, enc: enc, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, enc cryptoutil.Encryptor, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, enc: enc, timeProvider: tp}
}

// Create inserts a new user account. New accounts always start pending with
// the default role; admins promote them later.
func (r *UserRepo) Create(
	ctx context.Context,
	req *model.CreateUserRequest,
	passwordHash string,
) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, errors.New("password hash is required")
	}

	phone, err := r.encryptPhone(req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("encrypt phone number: %w", err)
	}

	createdAt := r.timeProvider.Now().UTC()
	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (
				id, email, first_name, last_name, full_name, phone_number, role, status, password_hash, created_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
			) RETURNING `+userColumnList,
			uuid.New().String(),
			strings.ToLower(strings.TrimSpace(req.Email)),
			strings.TrimSpace(req.FirstName),
			strings.TrimSpace(req.LastName),
			req.FullName(),
			phone,
			auth.DefaultRole,
			model.UserStatusPending,
			passwordHash,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return r.withDecryptedPhone(&out)
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByIDQuery, "failed to get user by ID", id)
}

// GetByEmail retrieves a user by email. The lookup is case-insensitive.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByEmailQuery, "failed to get user by email",
		strings.ToLower(strings.TrimSpace(email)))
}

// GetRole returns the stored role for a user, falling back to the default
// role for unknown stored values. Callers must also treat errors as the
// default role, never as an elevated one.
func (r *UserRepo) GetRole(ctx context.Context, id string) (auth.Role, error) {
	var stored string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&stored)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.DefaultRole, ErrUserNotFound
		}
		return auth.DefaultRole, fmt.Errorf("failed to get user role: %w", err)
	}
	return auth.ParseRole(stored), nil
}

// List retrieves users with optional filters and sorting.
func (r *UserRepo) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := r.buildUserQueryOptions(opts, limit, offset)
	query, args := database.BuildListQuery(queryOpts)

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]*model.User, len(rowsOut))
	for i := range rowsOut {
		u, err := r.withDecryptedPhone(&rowsOut[i])
		if err != nil {
			return nil, err
		}
		res[i] = u
	}
	return res, nil
}

// Update updates role and status of a user.
func (r *UserRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateUserRequest,
) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setClause, args := r.buildUpdateClause(req)
	args = append(args, id)
	query := "UPDATE users SET " + setClause + " WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + userColumnList

	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return e
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return r.withDecryptedPhone(&out)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if passwordHash == "" {
		return errors.New("password hash is required")
	}
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
			passwordHash, r.timeProvider.Now().UTC(), id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete deletes a user by ID.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return rows > 0, nil
}

// --- helpers ---

const userColumnList = "id, email, first_name, last_name, full_name, phone_number, role, status, password_hash, created_at, updated_at"

// SQL query constants for static queries (no dynamic WHERE/ORDER BY).
const (
	userGetByIDQuery = `
		SELECT ` + userColumnList + `
		FROM users
		WHERE id = $1`

	userGetByEmailQuery = `
		SELECT ` + userColumnList + `
		FROM users
		WHERE email = $1`
)

// userColumns returns the standard column list for dynamic user queries.
func userColumns() []string {
	return []string{
		"id",
		"email",
		"first_name",
		"last_name",
		"full_name",
		"phone_number",
		"role",
		"status",
		"password_hash",
		"created_at",
		"updated_at",
	}
}

// buildUserQueryOptions builds query options for user listing with filters and sorting.
func (r *UserRepo) buildUserQueryOptions(
	opts model.UsersListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(userColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Q) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(full_name ILIKE $1 OR email ILIKE $1)", pattern),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, *opts.Status),
		))
	}

	sortCol, sortDir := validateUserSortOptions(opts.Sort, opts.Dir)
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	return database.NewListQueryOptions("users", queryOpts...)
}

// validateUserSortOptions validates and returns safe sort column and direction.
func validateUserSortOptions(sort, dir string) (string, string) {
	sortCol := "created_at"
	sortDir := sortDirDesc

	if sort != "" {
		allowedSorts := map[string]string{
			"full_name":  "full_name",
			"created_at": "created_at",
		}
		if validSort, ok := allowedSorts[strings.ToLower(strings.TrimSpace(sort))]; ok {
			sortCol = validSort
		}
	}
	if dir != "" {
		allowedDirs := map[string]string{
			"asc":  sortDirAsc,
			"desc": sortDirDesc,
		}
		if validDir, ok := allowedDirs[strings.ToLower(strings.TrimSpace(dir))]; ok {
			sortDir = validDir
		}
	}
	return sortCol, sortDir
}

// buildUpdateClause builds the SQL SET clause and args for updating a user.
func (r *UserRepo) buildUpdateClause(req model.UpdateUserRequest) (string, []any) {
	setParts := make([]string, 0, 3)
	args := make([]any, 0, 3)
	nextIdx := func() int { return len(args) + 1 }

	if req.Role != nil {
		setParts = append(setParts, fmt.Sprintf("role = $%d", nextIdx()))
		args = append(args, *req.Role)
	}
	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", nextIdx()))
		args = append(args, *req.Status)
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())

	return strings.Join(setParts, ", "), args
}

// getByQuery executes a query and returns a single user with the phone
// number decrypted.
func (r *UserRepo) getByQuery(
	ctx context.Context,
	q string,
	errMsg string,
	args ...any,
) (*model.User, error) {
	var user model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return r.withDecryptedPhone(&user)
}

func (r *UserRepo) encryptPhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || r.enc == nil {
		return phone, nil
	}
	return r.enc.Encrypt([]byte(phone))
}

func (r *UserRepo) withDecryptedPhone(u *model.User) (*model.User, error) {
	if u.PhoneNumber == "" || r.enc == nil {
		return u, nil
	}
	plain, err := r.enc.Decrypt(u.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("decrypt phone number: %w", err)
	}
	u.PhoneNumber = string(plain)
	return u, nil
}

func (r *UserRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrUserEmailExists
	}
	return err
}
