package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/msccenter/hrm-ui/internal/bootstrap"
	"github.com/msccenter/hrm-ui/internal/data"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/service"
)

const defaultUserCommandTimeout = 30 * time.Second

type createAdminOptions struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type approveUserOptions struct {
	Email string
}

type setRoleOptions struct {
	Email string
	Role  string
}

type listUsersOptions struct {
	Status string
	Query  string
	Limit  int
}

// userCommandDeps wires the data and service layer for user commands. Phone
// numbers come back decrypted only when PHONE_ENCRYPTION_KEY matches the one
// the server wrote with.
func userCommandDeps(cmdCtx *commandContext, db *sql.DB) (*data.UserRepo, *service.UserService) {
	encryptor := bootstrap.CreateEncryptor(cmdCtx.Config.PhoneEncryptionKey, cmdCtx.Logger)
	repo := data.NewUserRepo(db, encryptor)
	svc := service.NewUserService(service.UserServiceOptions{
		Users:  repo,
		Logger: cmdCtx.Logger,
	})
	return repo, svc
}

func runCreateAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAdminFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultUserCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		_, svc := userCommandDeps(cmdCtx, db)

		created, createErr := svc.CreateActive(ctx, &model.CreateUserRequest{
			Email:       opts.Email,
			Password:    opts.Password,
			FirstName:   opts.FirstName,
			LastName:    opts.LastName,
			PhoneNumber: opts.Phone,
		}, domainauth.RoleAdmin)
		if createErr != nil {
			return fmt.Errorf("create admin: %w", createErr)
		}

		cmdCtx.Logger.Info("admin account created",
			"id", created.ID, "email", created.Email, "role", created.Role)
		return nil
	})
}

func runApproveUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseApproveUserFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultUserCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		repo, svc := userCommandDeps(cmdCtx, db)

		user, lookupErr := repo.GetByEmail(ctx, opts.Email)
		if lookupErr != nil {
			return fmt.Errorf("look up %q: %w", opts.Email, lookupErr)
		}
		if user.Status != model.UserStatusPending {
			return fmt.Errorf("account %q is %s, not pending", opts.Email, user.Status)
		}

		approved, approveErr := svc.Approve(ctx, user.ID)
		if approveErr != nil {
			return fmt.Errorf("approve %q: %w", opts.Email, approveErr)
		}

		cmdCtx.Logger.Info("account approved",
			"id", approved.ID, "email", approved.Email, "status", approved.Status)
		return nil
	})
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetRoleFlags(args)
	if err != nil {
		return err
	}

	role := domainauth.Role(opts.Role)
	switch role {
	case domainauth.RoleAdmin, domainauth.RoleManager, domainauth.RoleStaff:
	default:
		return fmt.Errorf("invalid role %q (valid options: admin, manager, staff)", opts.Role)
	}

	return withDatabase(cmdCtx, defaultUserCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		repo, svc := userCommandDeps(cmdCtx, db)

		user, lookupErr := repo.GetByEmail(ctx, opts.Email)
		if lookupErr != nil {
			return fmt.Errorf("look up %q: %w", opts.Email, lookupErr)
		}

		updated, roleErr := svc.SetRole(ctx, user.ID, role)
		if roleErr != nil {
			return fmt.Errorf("set role for %q: %w", opts.Email, roleErr)
		}

		cmdCtx.Logger.Info("role updated",
			"id", updated.ID, "email", updated.Email, "role", updated.Role)
		return nil
	})
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	opts, err := parseListUsersFlags(args)
	if err != nil {
		return err
	}

	listOpts := model.UsersListOptions{Limit: opts.Limit}
	if opts.Query != "" {
		q := opts.Query
		listOpts.Q = &q
	}
	if opts.Status != "" {
		status := model.UserStatus(opts.Status)
		if !status.Valid() {
			return fmt.Errorf("invalid status %q (valid options: pending, active, disabled)", opts.Status)
		}
		listOpts.Status = &status
	}

	return withDatabase(cmdCtx, defaultUserCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		_, svc := userCommandDeps(cmdCtx, db)

		users, listErr := svc.List(ctx, listOpts)
		if listErr != nil {
			return fmt.Errorf("list users: %w", listErr)
		}

		return printUserTable(users)
	})
}

func printUserTable(users []*model.User) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "EMAIL\tNAME\tROLE\tSTATUS\tCREATED\n"); err != nil {
		return err
	}
	for _, u := range users {
		if u == nil {
			continue
		}
		if err := writef(w, "%s\t%s\t%s\t%s\t%s\n",
			u.Email, u.FullName, u.Role, u.Status, u.CreatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush user table: %w", err)
	}
	return writef(os.Stdout, "\n%d account(s)\n", len(users))
}

func parseCreateAdminFlags(args []string) (createAdminOptions, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts createAdminOptions
	fs.StringVar(&opts.Email, "email", "", "Email address for the new admin (required)")
	fs.StringVar(&opts.Password, "password", "", "Password for the new admin (required)")
	fs.StringVar(&opts.FirstName, "first-name", "", "First name (required)")
	fs.StringVar(&opts.LastName, "last-name", "", "Last name (required)")
	fs.StringVar(&opts.Phone, "phone", "", "Phone number (optional)")

	if err := fs.Parse(args); err != nil {
		return createAdminOptions{}, err
	}

	var missing []string
	if strings.TrimSpace(opts.Email) == "" {
		missing = append(missing, "--email")
	}
	if opts.Password == "" {
		missing = append(missing, "--password")
	}
	if strings.TrimSpace(opts.FirstName) == "" {
		missing = append(missing, "--first-name")
	}
	if strings.TrimSpace(opts.LastName) == "" {
		missing = append(missing, "--last-name")
	}
	if len(missing) > 0 {
		return createAdminOptions{}, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	return opts, nil
}

func parseApproveUserFlags(args []string) (approveUserOptions, error) {
	fs := flag.NewFlagSet("approve-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts approveUserOptions
	fs.StringVar(&opts.Email, "email", "", "Email of the pending account (required)")

	if err := fs.Parse(args); err != nil {
		return approveUserOptions{}, err
	}

	if strings.TrimSpace(opts.Email) == "" {
		return approveUserOptions{}, errors.New("--email is required")
	}

	return opts, nil
}

func parseSetRoleFlags(args []string) (setRoleOptions, error) {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts setRoleOptions
	fs.StringVar(&opts.Email, "email", "", "Email of the account (required)")
	fs.StringVar(&opts.Role, "role", "", "New role: admin, manager, or staff (required)")

	if err := fs.Parse(args); err != nil {
		return setRoleOptions{}, err
	}

	if strings.TrimSpace(opts.Email) == "" {
		return setRoleOptions{}, errors.New("--email is required")
	}
	if strings.TrimSpace(opts.Role) == "" {
		return setRoleOptions{}, errors.New("--role is required")
	}

	return opts, nil
}

func parseListUsersFlags(args []string) (listUsersOptions, error) {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listUsersOptions{Limit: 100}
	fs.StringVar(&opts.Status, "status", "", "Filter by status: pending, active, or disabled")
	fs.StringVar(&opts.Query, "q", "", "Substring match on name or email")
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum number of accounts to list")

	if err := fs.Parse(args); err != nil {
		return listUsersOptions{}, err
	}

	if opts.Limit <= 0 {
		return listUsersOptions{}, errors.New("--limit must be greater than zero")
	}

	return opts, nil
}
