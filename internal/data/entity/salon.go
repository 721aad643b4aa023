package entity

import "github.com/google/uuid"

type Salon struct {
	Base
	OwnerID     uuid.UUID `db:"owner_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Address     string    `db:"address"`
	City        string    `db:"city"`
	Phone       *string   `db:"phone"`
	Email       *string   `db:"email"`
	Rating      float64   `db:"rating"`
	IsActive    bool      `db:"is_active"`
}

// Location is the free-text address used in calendar entries.
func (s *Salon) Location() string {
	switch {
	case s.Address != "" && s.City != "":
		return s.Address + ", " + s.City
	case s.Address != "":
		return s.Address
	default:
		return s.City
	}
}

type Service struct {
	BaseNoDelete
	SalonID         uuid.UUID `db:"salon_id"`
	Name            string    `db:"name"`
	Description     *string   `db:"description"`
	Price           float64   `db:"price"`
	DurationMinutes int       `db:"duration_minutes"`
	IsActive        bool      `db:"is_active"`
}
