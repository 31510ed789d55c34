package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"notifier/internal/notify"
)

// maxMulticastTokens is the FCM limit of tokens per multicast request
const maxMulticastTokens = 500

// MulticastSender is the part of the FCM client the dispatcher uses
type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMDispatcher sends notifications through Firebase Cloud Messaging.
// Each token is delivered independently; failed tokens are logged only.
type FCMDispatcher struct {
	client MulticastSender
	logger *slog.Logger
}

// NewFCMDispatcher initializes the Firebase app and its messaging client
func NewFCMDispatcher(ctx context.Context, cfg Config, logger *slog.Logger) (*FCMDispatcher, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	logger.Info("FCM dispatcher initialized", "project", cfg.ProjectID)
	return NewFCMDispatcherWithClient(client, logger), nil
}

// NewFCMDispatcherWithClient creates a dispatcher around an existing client
func NewFCMDispatcherWithClient(client MulticastSender, logger *slog.Logger) *FCMDispatcher {
	return &FCMDispatcher{client: client, logger: logger}
}

// Dispatch sends n to every token, in batches of at most 500 tokens.
// A failed batch does not stop the others; only whole-request failures are returned.
func (d *FCMDispatcher) Dispatch(ctx context.Context, tokens []string, n notify.Notification) error {
	var errs []error
	for start := 0; start < len(tokens); start += maxMulticastTokens {
		batch := tokens[start:min(start+maxMulticastTokens, len(tokens))]

		resp, err := d.client.SendEachForMulticast(ctx, buildMessage(batch, n))
		if err != nil {
			d.logger.Error("FCM batch request failed", "offset", start, "tokens", len(batch), "error", err)
			errs = append(errs, fmt.Errorf("fcm multicast (tokens %d-%d): %w", start, start+len(batch)-1, err))
			continue
		}
		d.logFailures(batch, resp)
	}
	return errors.Join(errs...)
}

func (d *FCMDispatcher) logFailures(batch []string, resp *messaging.BatchResponse) {
	if resp == nil {
		return
	}
	if resp.FailureCount == 0 {
		d.logger.Debug("FCM batch delivered", "success", resp.SuccessCount)
		return
	}

	for i, r := range resp.Responses {
		if r == nil || r.Success || i >= len(batch) {
			continue
		}
		d.logger.Warn("FCM delivery failed for token",
			"token", tokenPrefix(batch[i]),
			"unregistered", messaging.IsUnregistered(r.Error),
			"error", r.Error)
	}
	d.logger.Info("FCM batch partially delivered",
		"success", resp.SuccessCount,
		"failure", resp.FailureCount)
}

func buildMessage(tokens []string, n notify.Notification) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   n.Data,
		Notification: &messaging.Notification{
			Title:    n.Title,
			Body:     n.Body,
			ImageURL: n.ImageURL,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Sound: n.Sound,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: n.Sound,
				},
			},
		},
	}
}

// tokenPrefix keeps device tokens out of the logs
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
