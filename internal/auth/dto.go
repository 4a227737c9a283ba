package auth

import "github.com/angelmondragon/storefront/pkg/types"

// User is the account summary returned by the status endpoint.
type User struct {
	ID    types.ID `json:"id,omitempty"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
}

// State is the session's authentication state.
type State struct {
	IsLoggedIn bool  `json:"isLoggedIn"`
	User       *User `json:"user,omitempty"`
}

// LoginRequest is the POST /api/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /api/register body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the POST /api/forgot-password body.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the POST /api/reset-password body.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
