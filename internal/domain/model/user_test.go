package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateUserRequest_FullName(t *testing.T) {
	r := CreateUserRequest{FirstName: " Minh ", LastName: " Nguyen "}
	assert.Equal(t, "Minh Nguyen", r.FullName())

	r = CreateUserRequest{FirstName: "Minh"}
	assert.Equal(t, "Minh", r.FullName())
}

func TestCreateUserRequest_Validate(t *testing.T) {
	valid := CreateUserRequest{
		Email:       "minh@msccenter.vn",
		Password:    "correct horse",
		FirstName:   "Minh",
		LastName:    "Nguyen",
		PhoneNumber: "+84 912 345 678",
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*CreateUserRequest)
	}{
		{"empty email", func(r *CreateUserRequest) { r.Email = "" }},
		{"bad email", func(r *CreateUserRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *CreateUserRequest) { r.Password = "short" }},
		{"missing first name", func(r *CreateUserRequest) { r.FirstName = " " }},
		{"missing last name", func(r *CreateUserRequest) { r.LastName = "" }},
		{"bad phone", func(r *CreateUserRequest) { r.PhoneNumber = "call me" }},
		{"short phone", func(r *CreateUserRequest) { r.PhoneNumber = "12345" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestCreateUserRequest_PhoneOptional(t *testing.T) {
	r := CreateUserRequest{
		Email:     "minh@msccenter.vn",
		Password:  "correct horse",
		FirstName: "Minh",
		LastName:  "Nguyen",
	}
	assert.NoError(t, r.Validate())
}

func TestChangePasswordRequest_Validate(t *testing.T) {
	ok := ChangePasswordRequest{Current: "old password", New: "new password", Confirm: "new password"}
	assert.NoError(t, ok.Validate())

	mismatch := ok
	mismatch.Confirm = "something else"
	assert.Error(t, mismatch.Validate())

	same := ChangePasswordRequest{Current: "old password", New: "old password", Confirm: "old password"}
	assert.Error(t, same.Validate())
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	empty := UpdateUserRequest{}
	assert.Error(t, empty.Validate())

	status := UserStatusActive
	assert.NoError(t, (&UpdateUserRequest{Status: &status}).Validate())

	bad := UserStatus("frozen")
	assert.Error(t, (&UpdateUserRequest{Status: &bad}).Validate())
}
