package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type SalonApplicationResponse struct {
	ID                string                   `json:"id"`
	UserID            string                   `json:"user_id"`
	SalonName         string                   `json:"salon_name"`
	BusinessEmail     string                   `json:"business_email"`
	Phone             string                   `json:"phone"`
	Website           *string                  `json:"website,omitempty"`
	Address           string                   `json:"address"`
	City              string                   `json:"city"`
	State             string                   `json:"state"`
	PostalCode        string                   `json:"postal_code"`
	Services          []string                 `json:"services"`
	Description       string                   `json:"description"`
	YearsInBusiness   int                      `json:"years_in_business"`
	StaffCount        int                      `json:"staff_count"`
	ApplicationReason *string                  `json:"application_reason,omitempty"`
	Status            entity.ApplicationStatus `json:"status"`
	AdminNotes        *string                  `json:"admin_notes,omitempty"`
	ReviewedBy        *string                  `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time               `json:"reviewed_at,omitempty"`
	SalonID           *string                  `json:"salon_id,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// MyApplicationResponse mirrors the applicant's view: has_application is
// false and application null before the first submission.
type MyApplicationResponse struct {
	HasApplication bool                      `json:"has_application"`
	Application    *SalonApplicationResponse `json:"application"`
}

func SalonApplicationToResponse(a *entity.SalonApplication) SalonApplicationResponse {
	resp := SalonApplicationResponse{
		ID:                a.ID.String(),
		UserID:            a.UserID.String(),
		SalonName:         a.SalonName,
		BusinessEmail:     a.BusinessEmail,
		Phone:             a.Phone,
		Website:           a.Website,
		Address:           a.Address,
		City:              a.City,
		State:             a.State,
		PostalCode:        a.PostalCode,
		Services:          a.Services,
		Description:       a.Description,
		YearsInBusiness:   a.YearsInBusiness,
		StaffCount:        a.StaffCount,
		ApplicationReason: a.ApplicationReason,
		Status:            a.Status,
		AdminNotes:        a.AdminNotes,
		ReviewedAt:        a.ReviewedAt,
		CreatedAt:         a.CreatedAt,
	}
	if resp.Services == nil {
		resp.Services = []string{}
	}
	if a.ReviewedBy != nil {
		id := a.ReviewedBy.String()
		resp.ReviewedBy = &id
	}
	if a.SalonID != nil {
		id := a.SalonID.String()
		resp.SalonID = &id
	}
	return resp
}

type ApprovedApplicationResponse struct {
	Application SalonApplicationResponse `json:"application"`
	Salon       SalonResponse            `json:"salon"`
}
