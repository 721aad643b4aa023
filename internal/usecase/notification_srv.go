package usecase

import (
	"context"
	"fmt"

	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	GetNotifications(ctx context.Context, userID uuid.UUID, req *request.NotificationQuery) (*response.PaginatedResponse[response.NotificationResponse], error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (*response.UnreadCountResponse, error)
	MarkRead(ctx context.Context, userID uuid.UUID, notificationID string) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewNotificationService(repo *repository.Repository, log *zap.Logger) NotificationService {
	return &notificationService{
		repo: repo,
		log:  log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, req *request.NotificationQuery) (*response.PaginatedResponse[response.NotificationResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	limit := req.Limit()

	items, err := s.repo.Notification.FindByUser(ctx, userID, req.UnreadOnly, limit, req.Offset())
	if err != nil {
		s.log.Error("Failed to list notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	total, err := s.repo.Notification.CountByUser(ctx, userID, req.UnreadOnly)
	if err != nil {
		s.log.Error("Failed to count notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("count notifications: %w", err)
	}

	data := make([]response.NotificationResponse, len(items))
	for i, n := range items {
		data[i] = response.NotificationToResponse(n)
	}

	return response.NewPaginatedResponse(data, req.Page, limit, total), nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (*response.UnreadCountResponse, error) {
	count, err := s.repo.Notification.CountByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	return &response.UnreadCountResponse{UnreadCount: count}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID uuid.UUID, notificationID string) error {
	id, err := uuid.Parse(notificationID)
	if err != nil {
		return fmt.Errorf("%w: invalid notification ID", utils.ErrValidation)
	}

	found, err := s.repo.Notification.MarkRead(ctx, id, userID)
	if err != nil {
		s.log.Error("Failed to mark notification read", zap.Error(err), zap.String("notification_id", notificationID))
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: notification not found", utils.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.log.Error("Failed to mark notifications read", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	s.log.Info("Notifications marked read", zap.String("user_id", userID.String()), zap.Int64("count", n))
	return n, nil
}
