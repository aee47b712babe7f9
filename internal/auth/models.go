// Package auth provides authentication services for RailPulse.
package auth

import (
	"strings"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID           string    `json:"userId"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// InviteCode gates registration. A code admits up to MaxUses users until it
// expires.
type InviteCode struct {
	Code      string
	CreatedBy string
	MaxUses   int
	Uses      int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Usable reports whether the code still admits a registration at the given
// instant.
func (c *InviteCode) Usable(now time.Time) bool {
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return false
	}
	return now.Before(c.ExpiresAt)
}

// RegisterRequest is the payload for registering a new account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
	InviteCode  string `json:"inviteCode"`
}

// Validate validates the registration request.
func (r *RegisterRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required", Code: "REQUIRED"})
	} else if !strings.Contains(r.Email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address", Code: "INVALID"})
	}

	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "is required", Code: "REQUIRED"})
	} else if len(r.Password) < MinPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 10 characters", Code: "TOO_SHORT"})
	}

	if r.InviteCode == "" {
		errs = append(errs, FieldError{Field: "inviteCode", Message: "is required", Code: "REQUIRED"})
	}

	return errs
}

// LoginRequest is the payload for an email/password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required", Code: "REQUIRED"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "is required", Code: "REQUIRED"})
	}

	return errs
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`

	// User contains the authenticated user's information.
	User *User `json:"user"`
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	if r.RefreshToken == "" {
		return []FieldError{{Field: "refreshToken", Message: "is required", Code: "REQUIRED"}}
	}
	return nil
}
