package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Dispatcher routes a decoded envelope to its handler
type Dispatcher interface {
	Dispatch(ctx context.Context, env *Envelope) error
}

// DeadLetterPublisher publishes failed events for later inspection
type DeadLetterPublisher interface {
	PublishSync(topic, key string, value any) error
}

// permanentError marks a failure that redelivery cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the event is dead-lettered without redelivery
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	var perr *permanentError
	return errors.As(err, &perr)
}

// ProcessorConfig bounds a single invocation and its redeliveries
type ProcessorConfig struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	DLQTopic      string
	ConsumerGroup string
}

// DeadLetter is the message published to the DLQ topic
type DeadLetter struct {
	Event         *Envelope `json:"original_event"`
	Error         string    `json:"error"`
	Attempts      int       `json:"attempts"`
	FailedAt      time.Time `json:"failed_at"`
	ConsumerGroup string    `json:"consumer_group"`
}

// Processor runs one raw event through the router with the platform's
// redelivery policy
type Processor struct {
	dispatcher Dispatcher
	dlq        DeadLetterPublisher
	config     ProcessorConfig
	logger     *slog.Logger
}

// NewProcessor creates a new processor
func NewProcessor(dispatcher Dispatcher, dlq DeadLetterPublisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Processor{
		dispatcher: dispatcher,
		dlq:        dlq,
		config:     config,
		logger:     logger,
	}
}

// Process handles one raw event. A nil error means the event is settled
// (handled, skipped or dead-lettered) and its offset may be committed.
func (p *Processor) Process(ctx context.Context, value []byte) error {
	env, err := Decode(value)
	if err != nil {
		p.logger.Error("Failed to decode document event",
			"error", err,
			"raw_value", string(value))
		return nil
	}

	attempts, err := p.invokeWithRetry(ctx, env)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// Shutting down: leave the event for redelivery
		return ctx.Err()
	}

	p.logger.Error("Failed to process document event after retries",
		"eventID", env.ID,
		"document", env.Document,
		"attempts", attempts,
		"error", err)

	return p.sendToDLQ(env, err, attempts)
}

func (p *Processor) invokeWithRetry(ctx context.Context, env *Envelope) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		err := p.invoke(ctx, env, attempt)
		if err == nil {
			if attempt > 1 {
				p.logger.Info("Document event processed after retry",
					"eventID", env.ID,
					"attempt", attempt)
			}
			return attempt, nil
		}

		lastErr = err
		if IsPermanent(err) {
			return attempt, err
		}
		p.logger.Warn("Document event handler failed, will retry",
			"eventID", env.ID,
			"document", env.Document,
			"attempt", attempt,
			"maxRetries", p.config.MaxRetries,
			"error", err)

		if attempt < p.config.MaxRetries {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(time.Duration(attempt) * p.config.RetryBackoff):
			}
		}
	}

	return p.config.MaxRetries, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (p *Processor) invoke(ctx context.Context, env *Envelope, attempt int) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	invocationID := uuid.New().String()
	start := time.Now()

	err := p.dispatcher.Dispatch(ctx, env)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("invocation timed out after %s: %w", p.config.Timeout, err)
	}

	p.logger.Debug("Invocation finished",
		"invocationID", invocationID,
		"eventID", env.ID,
		"attempt", attempt,
		"duration", time.Since(start),
		"ok", err == nil)

	return err
}

func (p *Processor) sendToDLQ(env *Envelope, processingErr error, attempts int) error {
	if p.dlq == nil || p.config.DLQTopic == "" {
		p.logger.Warn("No DLQ configured, dropping document event", "eventID", env.ID)
		return nil
	}

	letter := DeadLetter{
		Event:         env,
		Error:         processingErr.Error(),
		Attempts:      attempts,
		FailedAt:      time.Now(),
		ConsumerGroup: p.config.ConsumerGroup,
	}

	if err := p.dlq.PublishSync(p.config.DLQTopic, env.Document, letter); err != nil {
		return fmt.Errorf("failed to send event %s to DLQ: %w", env.ID, err)
	}

	p.logger.Warn("Document event sent to DLQ",
		"eventID", env.ID,
		"document", env.Document,
		"dlq_topic", p.config.DLQTopic)
	return nil
}
