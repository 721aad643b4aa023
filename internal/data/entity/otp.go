package entity

import (
	"time"

	"github.com/google/uuid"
)

type OTPType string

const (
	OTPTypeEmailVerification OTPType = "email_verification"
	OTPTypePasswordReset     OTPType = "password_reset"
)

// Subject is the email subject line for codes of this type.
func (t OTPType) Subject() string {
	if t == OTPTypePasswordReset {
		return "Reset your password"
	}
	return "Verify your email"
}

// Purpose completes "Use the code ... to <purpose>".
func (t OTPType) Purpose() string {
	if t == OTPTypePasswordReset {
		return "reset your password"
	}
	return "verify your email address"
}

type OTP struct {
	BaseSimple
	UserID    uuid.UUID `db:"user_id"`
	Email     string    `db:"email"`
	OTPCode   string    `db:"otp_code"`
	OTPType   OTPType   `db:"otp_type"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
}

func (o *OTP) Usable(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}
