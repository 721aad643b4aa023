package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type SalonResponse struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	Phone       *string           `json:"phone,omitempty"`
	Email       *string           `json:"email,omitempty"`
	Rating      float64           `json:"rating"`
	IsActive    bool              `json:"is_active"`
	Services    []ServiceResponse `json:"services,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type ServiceResponse struct {
	ID          string  `json:"id"`
	SalonID     string  `json:"salon_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"`
	IsActive    bool    `json:"is_active"`
}

func SalonToResponse(s *entity.Salon) SalonResponse {
	return SalonResponse{
		ID:          s.ID.String(),
		OwnerID:     s.OwnerID.String(),
		Name:        s.Name,
		Description: s.Description,
		Address:     s.Address,
		City:        s.City,
		Phone:       s.Phone,
		Email:       s.Email,
		Rating:      s.Rating,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
}

func ServiceToResponse(s *entity.Service) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID.String(),
		SalonID:     s.SalonID.String(),
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Duration:    s.DurationMinutes,
		IsActive:    s.IsActive,
	}
}
