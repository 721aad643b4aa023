package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewStats summarises approved reviews of a salon.
type ReviewStats struct {
	Average      float64
	Total        int64
	Distribution map[int]int64
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	FindBySalon(ctx context.Context, salonID uuid.UUID, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error)
	CountBySalon(ctx context.Context, salonID uuid.UUID, status entity.ReviewStatus) (int64, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Review, error)
	FindByStatus(ctx context.Context, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus) error
	Respond(ctx context.Context, id uuid.UUID, response string) error
	Stats(ctx context.Context, salonID uuid.UUID) (*ReviewStats, error)
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

const reviewColumns = `id, customer_id, salon_id, booking_id, rating, comment, status, owner_response,
	responded_at, created_at, updated_at`

func scanReview(row rowScanner) (*entity.Review, error) {
	var rv entity.Review
	err := row.Scan(
		&rv.ID,
		&rv.CustomerID,
		&rv.SalonID,
		&rv.BookingID,
		&rv.Rating,
		&rv.Comment,
		&rv.Status,
		&rv.OwnerResponse,
		&rv.RespondedAt,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, customer_id, salon_id, booking_id, rating, comment, status,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.CustomerID,
		review.SalonID,
		review.BookingID,
		review.Rating,
		review.Comment,
		review.Status,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("salon_id", review.SalonID.String()),
			zap.String("customer_id", review.CustomerID.String()),
		)
		return fmt.Errorf("create review for salon %s: %w", review.SalonID.String(), err)
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	rv, err := scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review", zap.Error(err), zap.String("review_id", id.String()))
		return nil, fmt.Errorf("find review %s: %w", id.String(), err)
	}
	return rv, nil
}

func (r *reviewRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`, bookingID).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check review", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return false, fmt.Errorf("check review of booking %s: %w", bookingID.String(), err)
	}
	return exists, nil
}

func (r *reviewRepository) FindBySalon(ctx context.Context, salonID uuid.UUID, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE salon_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, salonID, status, limit, offset)
}

func (r *reviewRepository) CountBySalon(ctx context.Context, salonID uuid.UUID, status entity.ReviewStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE salon_id = $1 AND status = $2`, salonID, status).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reviews", zap.Error(err), zap.String("salon_id", salonID.String()))
		return 0, fmt.Errorf("count reviews of salon %s: %w", salonID.String(), err)
	}
	return count, nil
}

func (r *reviewRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

func (r *reviewRepository) FindByStatus(ctx context.Context, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, status, limit, offset)
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus) error {
	result, err := r.db.Exec(ctx, `UPDATE reviews SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		r.log.Error("Failed to update review status", zap.Error(err), zap.String("review_id", id.String()))
		return fmt.Errorf("update status of review %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s not found", id.String())
	}

	return nil
}

func (r *reviewRepository) Respond(ctx context.Context, id uuid.UUID, response string) error {
	query := `UPDATE reviews SET owner_response = $2, responded_at = NOW(), updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, response)
	if err != nil {
		r.log.Error("Failed to respond to review", zap.Error(err), zap.String("review_id", id.String()))
		return fmt.Errorf("respond to review %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s not found", id.String())
	}

	return nil
}

func (r *reviewRepository) Stats(ctx context.Context, salonID uuid.UUID) (*ReviewStats, error) {
	query := `
		SELECT rating, COUNT(*)
		FROM reviews
		WHERE salon_id = $1 AND status = 'approved'
		GROUP BY rating
	`

	rows, err := r.db.Query(ctx, query, salonID)
	if err != nil {
		r.log.Error("Failed to compute review stats", zap.Error(err), zap.String("salon_id", salonID.String()))
		return nil, fmt.Errorf("review stats of salon %s: %w", salonID.String(), err)
	}
	defer rows.Close()

	stats := &ReviewStats{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for rows.Next() {
		var rating int
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan review stats row: %w", err)
		}
		stats.Distribution[rating] = count
		stats.Total += count
		sum += int64(rating) * count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review stats rows: %w", err)
	}

	if stats.Total > 0 {
		stats.Average = float64(sum) / float64(stats.Total)
	}

	return stats, nil
}
