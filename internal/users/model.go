package users

import (
	"strings"
	"time"
)

// User is an account together with the candidate profile used for generation.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	PreferredModel      string    `json:"preferredModel"`
	CoverLetterTemplate string    `json:"coverLetterTemplate"`
	GoogleSubject       string    `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Session is returned by sign-in operations.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// RegisterInput is the payload for password registration.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

// LoginInput is the payload for password sign-in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SettingsInput updates profile fields. Nil fields are left unchanged.
type SettingsInput struct {
	FirstName           *string `json:"firstName" validate:"omitempty,max=100"`
	LastName            *string `json:"lastName" validate:"omitempty,max=100"`
	PreferredModel      *string `json:"preferredModel" validate:"omitempty,max=100"`
	CoverLetterTemplate *string `json:"coverLetterTemplate" validate:"omitempty,max=10000"`
}

// ChangePasswordInput is the payload for changing a known password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// ResetPasswordInput completes a password reset.
type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// GoogleProfile is the identity returned by Google sign-in.
type GoogleProfile struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
}
