// Package devseed populates a development database with a small set of HRM
// accounts, a week of attendance history, and a few stored preferences so a
// fresh checkout has something to look at.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	"github.com/msccenter/hrm-ui/internal/data/cryptoutil"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/service"
)

// DefaultPassword is the password assigned to every seeded account.
const DefaultPassword = "ChangeMe123!"

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB         *sql.DB
	users      *service.UserService
	userRepo   *data.UserRepo
	attendance *data.AttendanceRepo
	prefs      *service.PreferenceService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	encryptor := &cryptoutil.NoopEncryptor{} // Use noop for dev
	userRepo := data.NewUserRepo(db, encryptor)
	users := service.NewUserService(service.UserServiceOptions{Users: userRepo})
	prefs := service.NewPreferenceService(service.PreferenceServiceOptions{
		Prefs: data.NewPreferenceRepo(db),
	})

	return Services{
		DB:         db,
		users:      users,
		userRepo:   userRepo,
		attendance: data.NewAttendanceRepo(db),
		prefs:      prefs,
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	users, failures := seedUsers(ctx, svcs, logger)
	failures += seedAttendance(ctx, svcs, logger, users)
	failures += seedPreferences(ctx, svcs, logger, users)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

type userSeedSpec struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      domainauth.Role
	Pending   bool
}

func defaultUserSeeds() []userSeedSpec {
	return []userSeedSpec{
		{Email: "admin@msc.local", FirstName: "An", LastName: "Nguyen", Phone: "+84901000001", Role: domainauth.RoleAdmin},
		{Email: "manager@msc.local", FirstName: "Binh", LastName: "Tran", Phone: "+84901000002", Role: domainauth.RoleManager},
		{Email: "staff@msc.local", FirstName: "Chi", LastName: "Le", Phone: "+84901000003", Role: domainauth.RoleStaff},
		{Email: "staff2@msc.local", FirstName: "Dung", LastName: "Pham", Phone: "+84901000004", Role: domainauth.RoleStaff},
		{Email: "pending@msc.local", FirstName: "Em", LastName: "Hoang", Phone: "+84901000005", Role: domainauth.RoleStaff, Pending: true},
	}
}

// seedUsers creates the default accounts, skipping any that already exist.
// Returns the seeded (or pre-existing) users keyed by email.
func seedUsers(ctx context.Context, svcs Services, logger *slog.Logger) (map[string]*model.User, int) {
	users := make(map[string]*model.User)
	failures := 0

	for _, spec := range defaultUserSeeds() {
		existing, err := svcs.userRepo.GetByEmail(ctx, spec.Email)
		if err == nil && existing != nil {
			logger.InfoContext(ctx, "seed user already exists", "email", spec.Email)
			users[spec.Email] = existing
			continue
		}
		if err != nil && !errors.Is(err, data.ErrUserNotFound) {
			logger.ErrorContext(ctx, "seed user lookup failed", "email", spec.Email, "error", err)
			failures++
			continue
		}

		created, err := createSeedUser(ctx, svcs, spec)
		if err != nil {
			logger.ErrorContext(ctx, "seed user create failed", "email", spec.Email, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "seeded user",
			"email", created.Email, "role", created.Role, "status", created.Status)
		users[spec.Email] = created
	}

	return users, failures
}

func createSeedUser(ctx context.Context, svcs Services, spec userSeedSpec) (*model.User, error) {
	req := &model.CreateUserRequest{
		Email:       spec.Email,
		Password:    DefaultPassword,
		FirstName:   spec.FirstName,
		LastName:    spec.LastName,
		PhoneNumber: spec.Phone,
	}

	if spec.Pending {
		// Repo-level create leaves the account in the pending state,
		// mirroring self-service signup.
		hash, err := cryptoutil.HashPassword(req.Password, cryptoutil.DefaultArgon2Params)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		return svcs.userRepo.Create(ctx, req, hash)
	}

	return svcs.users.CreateActive(ctx, req, spec.Role)
}

// seedAttendance backfills completed work days for the active non-admin
// accounts over the trailing week.
func seedAttendance(ctx context.Context, svcs Services, logger *slog.Logger, users map[string]*model.User) int {
	failures := 0
	now := time.Now().UTC()

	for _, email := range []string{"staff@msc.local", "staff2@msc.local", "manager@msc.local"} {
		user, ok := users[email]
		if !ok || user == nil {
			continue
		}
		for daysAgo := 1; daysAgo <= 7; daysAgo++ {
			day := now.AddDate(0, 0, -daysAgo)
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				continue
			}
			if err := seedWorkDay(ctx, svcs, user.ID, day); err != nil {
				if errors.Is(err, model.ErrAlreadyCheckedIn) {
					continue
				}
				logger.WarnContext(ctx, "seed attendance failed",
					"email", email, "work_date", day.Format("2006-01-02"), "error", err)
				failures++
			}
		}
	}

	return failures
}

func seedWorkDay(ctx context.Context, svcs Services, userID string, day time.Time) error {
	workDate := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	checkIn := workDate.Add(9 * time.Hour)
	checkOut := workDate.Add(17*time.Hour + 30*time.Minute)

	if _, err := svcs.attendance.CheckIn(ctx, userID, workDate, checkIn); err != nil {
		return err
	}
	_, err := svcs.attendance.CheckOut(ctx, core.CheckOutParams{
		UserID:   userID,
		WorkDate: workDate,
		At:       checkOut,
	})
	return err
}

// seedPreferences gives a couple of accounts non-default settings so the
// settings page has visible variety.
func seedPreferences(ctx context.Context, svcs Services, logger *slog.Logger, users map[string]*model.User) int {
	failures := 0

	if admin, ok := users["admin@msc.local"]; ok && admin != nil {
		if _, err := svcs.prefs.SetTheme(ctx, admin.ID, model.SetThemeRequest{Theme: model.ThemeDark}); err != nil {
			logger.WarnContext(ctx, "seed admin theme failed", "error", err)
			failures++
		}
		if _, err := svcs.prefs.SetLanguage(ctx, admin.ID, model.SetLanguageRequest{Language: model.LanguageEnglish}); err != nil {
			logger.WarnContext(ctx, "seed admin language failed", "error", err)
			failures++
		}
	}

	if manager, ok := users["manager@msc.local"]; ok && manager != nil {
		if _, err := svcs.prefs.SaveSettings(ctx, manager.ID, model.UpdatePreferencesRequest{
			Notifications: model.NotificationSettings{Email: true, Push: false, InApp: true},
			AutoLogout:    true,
		}); err != nil {
			logger.WarnContext(ctx, "seed manager settings failed", "error", err)
			failures++
		}
	}

	return failures
}
