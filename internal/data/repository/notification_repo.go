package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	FindByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	CountByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (found bool, err error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewNotificationRepository(db database.PgxIface, log *zap.Logger) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "notification")),
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}

	query := `
		INSERT INTO notifications (id, user_id, notification_type, title, message, action_url,
		                           related_booking_id, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.ActionURL,
		n.RelatedBookingID,
		n.Metadata,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create notification",
			zap.Error(err),
			zap.String("user_id", n.UserID.String()),
			zap.String("type", string(n.Type)),
		)
		return fmt.Errorf("create notification for user %s: %w", n.UserID.String(), err)
	}

	return nil
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, notification_type, title, message, action_url, related_booking_id,
		       metadata, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1 AND (is_read = false OR NOT $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		r.log.Error("Failed to list notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("list notifications of user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.ActionURL,
			&n.RelatedBookingID,
			&n.Metadata,
			&n.IsRead,
			&n.ReadAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return notifications, nil
}

func (r *notificationRepository) CountByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND (is_read = false OR NOT $2)`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID, unreadOnly).Scan(&count); err != nil {
		r.log.Error("Failed to count notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("count notifications of user %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		r.log.Error("Failed to mark notification read", zap.Error(err), zap.String("notification_id", id.String()))
		return false, fmt.Errorf("mark notification %s read: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND is_read = false`

	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to mark all notifications read", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("mark notifications of user %s read: %w", userID.String(), err)
	}

	return result.RowsAffected(), nil
}
