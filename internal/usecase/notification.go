package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/linnoak/teamboard-api/internal/model"
	"github.com/linnoak/teamboard-api/internal/repository"
	"github.com/linnoak/teamboard-api/shared/push"
)

// NotificationUsecase defines the business logic for device registration and
// push delivery.
type NotificationUsecase interface {
	// RegisterDevice records a push device token for a user.
	RegisterDevice(ctx context.Context, params RegisterDeviceParams) error

	// NotifyUser sends a push notification to every device registered for a
	// user. Delivery is best effort; failures are logged, never returned to
	// the request that triggered them.
	NotifyUser(ctx context.Context, userID string, n push.Notification)

	// NotifyCommentReply pushes a new-comment notification to the page's
	// participants.
	NotifyCommentReply(ctx context.Context, comment *model.Comment)
}

// RegisterDeviceParams defines the parameters for registering a device.
type RegisterDeviceParams struct {
	UserID   string
	Token    string
	Platform string
}

type notificationUsecase struct {
	deviceRepo  repository.DeviceTokenRepository
	commentRepo repository.CommentRepository
	sender      push.Sender
	logger      *zerolog.Logger
}

// NewNotificationUsecase creates a new instance of NotificationUsecase.
func NewNotificationUsecase(
	deviceRepo repository.DeviceTokenRepository,
	commentRepo repository.CommentRepository,
	sender push.Sender,
	logger *zerolog.Logger,
) NotificationUsecase {
	return &notificationUsecase{
		deviceRepo:  deviceRepo,
		commentRepo: commentRepo,
		sender:      sender,
		logger:      logger,
	}
}

func (u *notificationUsecase) RegisterDevice(ctx context.Context, params RegisterDeviceParams) error {
	_, err := u.deviceRepo.UpsertDeviceToken(ctx, &model.DeviceToken{
		UserID:   params.UserID,
		Token:    params.Token,
		Platform: params.Platform,
	})
	return err
}

func (u *notificationUsecase) NotifyUser(ctx context.Context, userID string, n push.Notification) {
	tokens, err := u.deviceRepo.ListUserDeviceTokens(ctx, userID)
	if err != nil {
		u.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list device tokens")
		return
	}

	for _, token := range tokens {
		if err := u.sender.Send(ctx, token.Token, n); err != nil {
			if errors.Is(err, push.ErrUnregisteredDevice) {
				// The provider no longer knows this device; drop it.
				if delErr := u.deviceRepo.DeleteDeviceToken(ctx, token.Token); delErr != nil {
					u.logger.Error().Err(delErr).Msg("failed to delete stale device token")
				}
				continue
			}
			u.logger.Error().Err(err).Str("user_id", userID).Msg("failed to send push notification")
		}
	}
}

func (u *notificationUsecase) NotifyCommentReply(ctx context.Context, comment *model.Comment) {
	// Earlier commenters on the same page get a reply notification, except
	// the author of the new comment.
	comments, err := u.commentRepo.ListCommentsByPage(ctx, comment.Page, 100, 0)
	if err != nil {
		u.logger.Error().Err(err).Str("page", comment.Page).Msg("failed to list page comments")
		return
	}

	notified := map[string]bool{comment.AuthorID: true}
	for _, prior := range comments {
		if notified[prior.AuthorID] {
			continue
		}
		notified[prior.AuthorID] = true

		u.NotifyUser(ctx, prior.AuthorID, push.Notification{
			Title: "New comment",
			Body:  comment.AuthorEmail + " commented on " + comment.Page,
			Data: map[string]string{
				"page":       comment.Page,
				"comment_id": comment.ID.Hex(),
			},
		})
	}
}
