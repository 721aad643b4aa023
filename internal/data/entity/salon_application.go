package entity

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// SalonApplication is a user's request to list a salon. Approval creates the
// salon and makes the applicant its owner.
type SalonApplication struct {
	BaseNoDelete
	UserID            uuid.UUID         `db:"user_id"`
	SalonName         string            `db:"salon_name"`
	BusinessEmail     string            `db:"business_email"`
	Phone             string            `db:"phone"`
	Website           *string           `db:"website"`
	Address           string            `db:"address"`
	City              string            `db:"city"`
	State             string            `db:"state"`
	PostalCode        string            `db:"postal_code"`
	Services          []string          `db:"services"`
	Description       string            `db:"description"`
	YearsInBusiness   int               `db:"years_in_business"`
	StaffCount        int               `db:"staff_count"`
	ApplicationReason *string           `db:"application_reason"`
	Status            ApplicationStatus `db:"status"`
	AdminNotes        *string           `db:"admin_notes"`
	ReviewedBy        *uuid.UUID        `db:"reviewed_by"`
	ReviewedAt        *time.Time        `db:"reviewed_at"`
	SalonID           *uuid.UUID        `db:"salon_id"`
}

// NewSalon builds the salon an approved application creates.
func (a *SalonApplication) NewSalon(now time.Time) *Salon {
	description := a.Description
	phone := a.Phone
	email := a.BusinessEmail
	return &Salon{
		Base: Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:     a.UserID,
		Name:        a.SalonName,
		Description: &description,
		Address:     a.Address,
		City:        a.City,
		Phone:       &phone,
		Email:       &email,
		IsActive:    true,
	}
}
