package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "lenstrack/backend/internal/errors"
	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/repository"
)

// NotificationService stores browser push endpoints so an external delivery
// system can reach the user's devices. No scheduling or sending happens here.
type NotificationService struct {
	pushRepo *repository.PushRepository
	logger   *zap.Logger
}

func NewNotificationService(pushRepo *repository.PushRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		pushRepo: pushRepo,
		logger:   logger,
	}
}

type SubscribeInput struct {
	Endpoint string
	P256DH   string
	Auth     string
}

func (s *NotificationService) Subscribe(ctx context.Context, userID string, input SubscribeInput) (*model.PushSubscription, *apperrors.APIError) {
	if input.Endpoint == "" {
		return nil, apperrors.BadRequest("invalid_endpoint", "endpoint is required")
	}

	sub := model.PushSubscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		Endpoint:  input.Endpoint,
		P256DH:    input.P256DH,
		Auth:      input.Auth,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.pushRepo.Upsert(ctx, &sub); err != nil {
		s.logger.Error("upsert push subscription", zap.Error(err))
		return nil, apperrors.Internal("failed to store subscription")
	}

	s.logger.Info("push subscription registered", zap.String("userId", userID))
	return &sub, nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, userID, endpoint string) *apperrors.APIError {
	if endpoint == "" {
		return apperrors.BadRequest("invalid_endpoint", "endpoint is required")
	}

	if err := s.pushRepo.DeleteByEndpoint(ctx, userID, endpoint); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("subscription_not_found", "subscription not found")
		}
		s.logger.Error("delete push subscription", zap.Error(err))
		return apperrors.Internal("failed to delete subscription")
	}
	return nil
}
