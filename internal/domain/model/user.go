//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/msccenter/hrm-ui/internal/domain/auth"
)

const (
	maxUserNameLen  = 128
	maxEmailLen     = 255
	minPasswordLen  = 8
	maxPasswordLen  = 128
	maxPhoneLen     = 20
	minPhoneDigits  = 8
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 .-]+$`)
)

// UserStatus tracks the account lifecycle. New signups start pending and
// cannot sign in until an admin approves them.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Valid reports whether the user status is supported.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusDisabled:
		return true
	default:
		return false
	}
}

// User represents an employee account. PasswordHash is never serialized.
type User struct {
	ID          string     `json:"id"                     db:"id"`
	Email       string     `json:"email"                  db:"email"`
	FirstName   string     `json:"first_name"             db:"first_name"`
	LastName    string     `json:"last_name"              db:"last_name"`
	FullName    string     `json:"full_name"              db:"full_name"`
	PhoneNumber string     `json:"phone_number,omitempty" db:"phone_number"`
	Role        auth.Role  `json:"role"                   db:"role"`
	Status      UserStatus `json:"status"                 db:"status"`
	PasswordHash string    `json:"-"                      db:"password_hash"`
	CreatedAt   time.Time  `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"             db:"updated_at"`
}

// UsersListOptions controls paging and filtering for listing users.
// Sort supports "created_at" and "full_name"; Dir supports "asc"/"desc".
type UsersListOptions struct {
	Limit  int
	Offset int
	Q      *string     // substring match on full_name or email (ILIKE)
	Status *UserStatus // exact match
	Sort   string
	Dir    string
}

// CreateUserRequest carries signup input. FullName is derived from the name
// parts; callers never supply it directly.
type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// FullName derives the stored full_name as first name, a single space, last
// name.
func (r *CreateUserRequest) FullName() string {
	first := strings.TrimSpace(r.FirstName)
	last := strings.TrimSpace(r.LastName)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// Validate validates CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return errors.New("email is required and cannot be empty")
	}
	if utf8.RuneCountInString(email) > maxEmailLen || !emailRe.MatchString(email) {
		return errors.New("email must be a valid address")
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.New("first name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errors.New("last name is required")
	}
	if utf8.RuneCountInString(r.FirstName) > maxUserNameLen ||
		utf8.RuneCountInString(r.LastName) > maxUserNameLen {
		return errors.New("name cannot exceed 128 characters")
	}
	if phone := strings.TrimSpace(r.PhoneNumber); phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	return nil
}

// UpdateUserRequest supports admin-side updates to role and status.
type UpdateUserRequest struct {
	Role   *auth.Role  `json:"role,omitempty"`
	Status *UserStatus `json:"status,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateUserRequest.
func (r *UpdateUserRequest) HasUpdates() bool {
	return r.Role != nil || r.Status != nil
}

// Validate validates UpdateUserRequest, ensuring at least one field is set.
func (r *UpdateUserRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Role != nil && auth.ParseRole(string(*r.Role)) != *r.Role {
		return errors.New("invalid role")
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}

// ChangePasswordRequest carries a password change for the signed-in user.
type ChangePasswordRequest struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

// Validate validates ChangePasswordRequest.
func (r *ChangePasswordRequest) Validate() error {
	if r.Current == "" {
		return errors.New("current password is required")
	}
	if err := validatePassword(r.New); err != nil {
		return err
	}
	if r.New != r.Confirm {
		return errors.New("password confirmation does not match")
	}
	if r.New == r.Current {
		return errors.New("new password must differ from the current password")
	}
	return nil
}

func validatePassword(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	if n > maxPasswordLen {
		return errors.New("password cannot exceed 128 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if utf8.RuneCountInString(phone) > maxPhoneLen || !phoneRe.MatchString(phone) {
		return errors.New("phone number must contain only digits, spaces, dots, or dashes")
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return errors.New("phone number is too short")
	}
	return nil
}
