package entity

type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleSalonOwner UserRole = "salon_owner"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	Base
	Username      string   `db:"username"`
	Email         string   `db:"email"`
	PasswordHash  string   `db:"password"`
	FullName      *string  `db:"full_name"`
	Phone         *string  `db:"phone"`
	Role          UserRole `db:"role"`
	GoogleID      *string  `db:"google_id"`
	EmailVerified bool     `db:"email_verified"`
	IsActive      bool     `db:"is_active"`
}

// DisplayName prefers the full name over the username.
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}
