// Package fcm delivers push notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/farmcast/farmcast/internal/push"
)

// alertChannelID is the Android notification channel the client app
// registers for weather alerts.
const alertChannelID = "weather-alerts"

// Sender sends push notifications via FCM.
type Sender struct {
	client *messaging.Client
	logger zerolog.Logger
}

// SenderConfig holds configuration for the FCM sender.
type SenderConfig struct {
	// CredentialsFile is the path to a service account JSON file.
	// Optional; when empty, application default credentials are used.
	CredentialsFile string

	// Logger for sender operations.
	Logger zerolog.Logger
}

// NewSender creates an FCM sender.
func NewSender(ctx context.Context, cfg SenderConfig) (*Sender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}

	return &Sender{client: client, logger: cfg.Logger}, nil
}

// Send delivers one notification. Permanently invalid tokens are reported
// as push.ErrInvalidToken; every other failure is transient from the
// dispatcher's point of view.
func (s *Sender) Send(ctx context.Context, n push.Notification) error {
	msg := &messaging.Message{
		Token: n.Token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: alertChannelID,
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			return fmt.Errorf("%w: %v", push.ErrInvalidToken, err)
		}
		return fmt.Errorf("sending notification: %w", err)
	}

	return nil
}
