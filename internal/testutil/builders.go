// Package testutil provides testing utilities and helpers for the HRM dashboard.
package testutil

import (
	"fmt"
	"time"

	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// UserRequestBuilder provides a fluent interface for building CreateUserRequest objects for testing.
type UserRequestBuilder struct {
	req *model.CreateUserRequest
}

// NewUserRequest creates a new UserRequestBuilder with sensible defaults.
// The email is unique per call so tests can create several users without
// tripping the unique constraint.
func NewUserRequest() *UserRequestBuilder {
	return &UserRequestBuilder{
		req: &model.CreateUserRequest{
			Email:     fmt.Sprintf("user-%d@example.com", time.Now().UnixNano()),
			Password:  "correct-horse-battery",
			FirstName: "Test",
			LastName:  "User",
		},
	}
}

// WithEmail sets the email address.
func (b *UserRequestBuilder) WithEmail(email string) *UserRequestBuilder {
	b.req.Email = email
	return b
}

// WithPassword sets the plaintext password.
func (b *UserRequestBuilder) WithPassword(password string) *UserRequestBuilder {
	b.req.Password = password
	return b
}

// WithName sets the first and last name.
func (b *UserRequestBuilder) WithName(first, last string) *UserRequestBuilder {
	b.req.FirstName = first
	b.req.LastName = last
	return b
}

// WithPhone sets the phone number.
func (b *UserRequestBuilder) WithPhone(phone string) *UserRequestBuilder {
	b.req.PhoneNumber = phone
	return b
}

// Build returns the constructed CreateUserRequest.
func (b *UserRequestBuilder) Build() *model.CreateUserRequest {
	return b.req
}

// Common preference presets

// DarkEnglishPreferences returns a preferences document that differs from
// every default value, useful for asserting round trips.
func DarkEnglishPreferences() model.Preferences {
	return model.Preferences{
		Theme:    model.ThemeDark,
		Language: model.LanguageEnglish,
		Notifications: model.NotificationSettings{
			Email: false,
			Push:  false,
			InApp: true,
		},
		AutoLogout: true,
	}
}
