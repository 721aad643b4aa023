package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type ReviewResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id"`
	SalonID       string              `json:"salon_id"`
	BookingID     *string             `json:"booking_id,omitempty"`
	Rating        int                 `json:"rating"`
	Comment       *string             `json:"comment,omitempty"`
	Status        entity.ReviewStatus `json:"status"`
	OwnerResponse *string             `json:"owner_response,omitempty"`
	RespondedAt   *time.Time          `json:"responded_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type ReviewStatsResponse struct {
	AverageRating float64       `json:"average_rating"`
	ReviewCount   int64         `json:"review_count"`
	Distribution  map[int]int64 `json:"rating_distribution"`
}

func ReviewToResponse(review *entity.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:            review.ID.String(),
		CustomerID:    review.CustomerID.String(),
		SalonID:       review.SalonID.String(),
		Rating:        review.Rating,
		Comment:       review.Comment,
		Status:        review.Status,
		OwnerResponse: review.OwnerResponse,
		RespondedAt:   review.RespondedAt,
		CreatedAt:     review.CreatedAt,
	}
	if review.BookingID != nil {
		id := review.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}
