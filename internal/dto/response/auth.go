package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

// AuthProvider reports how an account signs in.
type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderGoogle   AuthProvider = "google"
)

func authProvider(user *entity.User) AuthProvider {
	if user.GoogleID != nil && *user.GoogleID != "" {
		return AuthProviderGoogle
	}
	return AuthProviderPassword
}

// AuthResponse is returned by register, login and google-login. Token is
// empty when registration still needs email verification.
type AuthResponse struct {
	UserID        string          `json:"user_id"`
	Token         string          `json:"token,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	Email         string          `json:"email"`
	Username      string          `json:"username"`
	DisplayName   string          `json:"display_name"`
	Role          entity.UserRole `json:"role"`
	EmailVerified bool            `json:"email_verified"`
	Provider      AuthProvider    `json:"provider"`
}

type UserResponse struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	FullName      *string         `json:"full_name,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	Role          entity.UserRole `json:"role"`
	EmailVerified bool            `json:"email_verified"`
	IsActive      bool            `json:"is_active"`
	Provider      AuthProvider    `json:"provider"`
	CreatedAt     time.Time       `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:            user.ID.String(),
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		Phone:         user.Phone,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		IsActive:      user.IsActive,
		Provider:      authProvider(user),
		CreatedAt:     user.CreatedAt,
	}
}

func AuthToResponse(user *entity.User, session *entity.Session) AuthResponse {
	resp := AuthResponse{
		UserID:        user.ID.String(),
		Email:         user.Email,
		Username:      user.Username,
		DisplayName:   user.DisplayName(),
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		Provider:      authProvider(user),
	}

	if session != nil {
		resp.Token = session.Token.String()
		expires := session.ExpiresAt
		resp.ExpiresAt = &expires
	}

	return resp
}
