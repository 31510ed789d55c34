// Package push delivers notifications to device tokens.
// It supports both development mode (log-only) and production mode (FCM).
package push

import (
	"context"
	"fmt"
	"log/slog"

	"notifier/internal/notify"
)

const (
	ModeLog = "log"
	ModeFCM = "fcm"
)

// Config holds push configuration
type Config struct {
	Mode            string // "log" or "fcm"
	ProjectID       string
	CredentialsFile string
}

// New creates a dispatcher based on configuration
func New(ctx context.Context, cfg Config, logger *slog.Logger) (notify.Dispatcher, error) {
	switch cfg.Mode {
	case ModeFCM:
		d, err := NewFCMDispatcher(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	case ModeLog, "":
		return NewLogDispatcher(logger), nil
	default:
		return nil, fmt.Errorf("unsupported push mode: %s", cfg.Mode)
	}
}

// LogDispatcher logs notifications instead of sending them
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a development dispatcher
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, tokens []string, n notify.Notification) error {
	d.logger.Info("[DEV] Push notification",
		"tokens", len(tokens),
		"title", n.Title,
		"body", n.Body,
		"sound", n.Sound,
		"image", n.ImageURL,
		"data", n.Data)
	return nil
}
