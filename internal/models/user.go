package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is an auth identity. Anonymous users are created silently for guest
// sessions and carry no credentials until linked to a permanent account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Anonymous    bool      `json:"anonymous"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LinkAccountRequest upgrades the calling guest session to a permanent
// account in place, keeping profile, basket and order history.
type LinkAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResponse struct {
	Success        bool      `json:"success"`
	Token          string    `json:"token,omitempty"`
	ExpiresIn      int       `json:"expires_in,omitempty"`
	UserID         uuid.UUID `json:"user_id,omitempty"`
	Anonymous      bool      `json:"anonymous,omitempty"`
	RemainingTries int       `json:"remaining_tries,omitempty"`
	RetryAfter     int       `json:"retry_after,omitempty"`
	Message        string    `json:"message,omitempty"`
}

// AuthState is published on the auth stream whenever a session starts or ends;
// UserID is nil after sign-out or account deletion.
type AuthState struct {
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Anonymous bool       `json:"anonymous"`
}

// JWT claims structure

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Anonymous bool      `json:"anonymous"`
	jwt.RegisteredClaims
}
