package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type Review struct {
	BaseNoDelete
	CustomerID    uuid.UUID    `db:"customer_id"`
	SalonID       uuid.UUID    `db:"salon_id"`
	BookingID     *uuid.UUID   `db:"booking_id"`
	Rating        int          `db:"rating"` // 1-5
	Comment       *string      `db:"comment"`
	Status        ReviewStatus `db:"status"`
	OwnerResponse *string      `db:"owner_response"`
	RespondedAt   *time.Time   `db:"responded_at"`
}
