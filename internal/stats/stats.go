// Package stats counts notifier outcomes in Redis.
package stats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"notifier/internal/notify"
)

// DefaultKey is the Redis hash holding all counters
const DefaultKey = "notifier:stats"

// Recorder increments one counter per handler outcome
type Recorder struct {
	redis *redis.Client
	key   string
}

// NewRecorder creates a recorder writing to the given hash key
func NewRecorder(client *redis.Client, key string) *Recorder {
	if key == "" {
		key = DefaultKey
	}
	return &Recorder{redis: client, key: key}
}

// Field returns the counter name for an outcome, e.g. "like:dispatched"
// or "comment:skipped:no_tokens"
func Field(trigger string, out notify.Outcome) string {
	if out.Dispatched {
		return trigger + ":dispatched"
	}
	return fmt.Sprintf("%s:skipped:%s", trigger, out.Skip)
}

// Record counts one outcome, plus the number of tokens it fanned out to
func (r *Recorder) Record(ctx context.Context, trigger string, out notify.Outcome) error {
	pipe := r.redis.TxPipeline()
	pipe.HIncrBy(ctx, r.key, Field(trigger, out), 1)
	if out.Dispatched {
		pipe.HIncrBy(ctx, r.key, trigger+":tokens", int64(out.Recipients))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Snapshot returns all counters
func (r *Recorder) Snapshot(ctx context.Context) (map[string]int64, error) {
	raw, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	counters := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid counter %s=%q: %w", field, value, err)
		}
		counters[field] = n
	}
	return counters, nil
}
