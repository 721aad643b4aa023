package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	// Customer
	CreateReview(ctx context.Context, customerID uuid.UUID, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	GetUserReviews(ctx context.Context, customerID uuid.UUID) ([]response.ReviewResponse, error)

	// Public
	GetSalonReviews(ctx context.Context, salonID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	GetSalonReviewStats(ctx context.Context, salonID string) (*response.ReviewStatsResponse, error)

	// Owner
	RespondToReview(ctx context.Context, ownerID uuid.UUID, reviewID string, req *request.RespondReviewRequest) (*response.ReviewResponse, error)

	// Admin
	GetPendingReviews(ctx context.Context, req *request.PaginatedRequest) ([]response.ReviewResponse, error)
	ModerateReview(ctx context.Context, reviewID string, req *request.ModerateReviewRequest) (*response.ReviewResponse, error)
}

type reviewService struct {
	repo   *repository.Repository
	notify *notifier
	log    *zap.Logger
}

func NewReviewService(repo *repository.Repository, notify *notifier, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:   repo,
		notify: notify,
		log:    log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, customerID uuid.UUID, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	// Only the customer of a completed booking may review it
	booking, err := findBooking(ctx, s.repo, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, fmt.Errorf("%w: booking belongs to another customer", utils.ErrForbidden)
	}
	if booking.Status != entity.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: only completed bookings can be reviewed", utils.ErrInvalidState)
	}

	// One review per booking
	exists, err := s.repo.Review.ExistsForBooking(ctx, booking.ID)
	if err != nil {
		s.log.Error("Failed to check existing review", zap.Error(err))
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: booking already reviewed", utils.ErrConflict)
	}

	now := time.Now()
	review := &entity.Review{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID: customerID,
		SalonID:    booking.SalonID,
		BookingID:  &booking.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Status:     entity.ReviewStatusPending,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		s.log.Error("Failed to create review", zap.Error(err))
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("salon_id", review.SalonID.String()),
		zap.Int("rating", review.Rating))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) GetUserReviews(ctx context.Context, customerID uuid.UUID) ([]response.ReviewResponse, error) {
	reviews, err := s.repo.Review.FindByCustomer(ctx, customerID)
	if err != nil {
		s.log.Error("Failed to get user reviews", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	out := make([]response.ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = response.ReviewToResponse(r)
	}
	return out, nil
}

func parseSalonID(salonID string) (uuid.UUID, error) {
	id, err := uuid.Parse(salonID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid salon ID", utils.ErrValidation)
	}
	return id, nil
}

func (s *reviewService) GetSalonReviews(ctx context.Context, salonID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	id, err := parseSalonID(salonID)
	if err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	limit := req.Limit()

	reviews, err := s.repo.Review.FindBySalon(ctx, id, entity.ReviewStatusApproved, limit, req.Offset())
	if err != nil {
		s.log.Error("Failed to get salon reviews", zap.Error(err), zap.String("salon_id", salonID))
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	total, err := s.repo.Review.CountBySalon(ctx, id, entity.ReviewStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	data := make([]response.ReviewResponse, len(reviews))
	for i, r := range reviews {
		data[i] = response.ReviewToResponse(r)
	}

	return response.NewPaginatedResponse(data, req.Page, limit, total), nil
}

func (s *reviewService) GetSalonReviewStats(ctx context.Context, salonID string) (*response.ReviewStatsResponse, error) {
	id, err := parseSalonID(salonID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Review.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	return &response.ReviewStatsResponse{
		AverageRating: roundRating(stats.Average),
		ReviewCount:   stats.Total,
		Distribution:  stats.Distribution,
	}, nil
}

func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *reviewService) RespondToReview(ctx context.Context, ownerID uuid.UUID, reviewID string, req *request.RespondReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}
	if review.SalonID != salon.ID {
		return nil, fmt.Errorf("%w: review belongs to another salon", utils.ErrForbidden)
	}

	if err := s.repo.Review.Respond(ctx, review.ID, req.Response); err != nil {
		s.log.Error("Failed to respond to review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("respond to review: %w", err)
	}

	now := time.Now()
	review.OwnerResponse = &req.Response
	review.RespondedAt = &now

	s.notify.ReviewResponded(ctx, review.CustomerID, salon.Name)

	s.log.Info("Review responded", zap.String("review_id", reviewID))
	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) GetPendingReviews(ctx context.Context, req *request.PaginatedRequest) ([]response.ReviewResponse, error) {
	reviews, err := s.repo.Review.FindByStatus(ctx, entity.ReviewStatusPending, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}

	out := make([]response.ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = response.ReviewToResponse(r)
	}
	return out, nil
}

// ModerateReview approves or rejects a review and refreshes the salon rating
// from its approved reviews.
func (s *reviewService) ModerateReview(ctx context.Context, reviewID string, req *request.ModerateReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	status := entity.ReviewStatus(req.Status)
	if review.Status == status {
		resp := response.ReviewToResponse(review)
		return &resp, nil
	}

	if err := s.repo.Review.UpdateStatus(ctx, review.ID, status); err != nil {
		s.log.Error("Failed to moderate review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("moderate review: %w", err)
	}
	previous := review.Status
	review.Status = status

	if status == entity.ReviewStatusApproved || previous == entity.ReviewStatusApproved {
		s.refreshRating(ctx, review.SalonID)
	}

	if status == entity.ReviewStatusApproved {
		if salon, err := s.repo.Salon.FindByID(ctx, review.SalonID); err == nil && salon != nil {
			s.notify.ReviewReceived(ctx, salon.OwnerID, review.Rating)
		}
	}

	s.log.Info("Review moderated",
		zap.String("review_id", reviewID),
		zap.String("status", string(status)))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) refreshRating(ctx context.Context, salonID uuid.UUID) {
	stats, err := s.repo.Review.Stats(ctx, salonID)
	if err != nil {
		s.log.Warn("Failed to compute salon rating", zap.Error(err), zap.String("salon_id", salonID.String()))
		return
	}
	if err := s.repo.Salon.UpdateRating(ctx, salonID, roundRating(stats.Average)); err != nil {
		s.log.Warn("Failed to update salon rating", zap.Error(err), zap.String("salon_id", salonID.String()))
	}
}

func (s *reviewService) findReview(ctx context.Context, reviewID string) (*entity.Review, error) {
	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid review ID", utils.ErrValidation)
	}

	review, err := s.repo.Review.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("%w: review not found", utils.ErrNotFound)
	}
	return review, nil
}
