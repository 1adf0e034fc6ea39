package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// NotificationService serves a user's expiry notifications.
type NotificationService interface {
	List(ctx context.Context, userID int64) (*models.NotificationList, error)
	MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	logger           *zap.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notificationRepo repositories.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger.Named("notification-service"),
	}
}

var _ NotificationService = (*notificationService)(nil)

func (s *notificationService) List(ctx context.Context, userID int64) (*models.NotificationList, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.NotificationList{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error) {
	if err := s.notificationRepo.MarkRead(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.notificationRepo.GetByID(ctx, userID, id)
}
