package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrUnregisteredDevice indicates the provider no longer recognises the
// device token, so it should be removed from storage.
var ErrUnregisteredDevice = errors.New("device token is no longer registered")

// Notification is a title/body pair with optional data payload delivered to a
// single device.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a push notification to one device token.
type Sender interface {
	Send(ctx context.Context, deviceToken string, n Notification) error
}

// FCMSender sends notifications through the Firebase Cloud Messaging v1 API.
type FCMSender struct {
	service     *fcm.Service
	parent      string
	sendTimeout time.Duration
}

// NewFCMSender creates an FCM-backed Sender for the given project. The
// credentials file is a service account key with the messaging scope.
func NewFCMSender(ctx context.Context, projectID, credentialsFile string, sendTimeout time.Duration) (*FCMSender, error) {
	service, err := fcm.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}

	return &FCMSender{
		service:     service,
		parent:      fmt.Sprintf("projects/%s", projectID),
		sendTimeout: sendTimeout,
	}, nil
}

// Send delivers one notification. The call is bounded by the configured send
// timeout so a slow provider cannot hold up the request that triggered it.
func (s *FCMSender) Send(ctx context.Context, deviceToken string, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: deviceToken,
			Notification: &fcm.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: n.Data,
		},
	}

	_, err := s.service.Projects.Messages.Send(s.parent, req).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == 404 || apiErr.Code == 410) {
			return ErrUnregisteredDevice
		}
		return err
	}

	return nil
}
