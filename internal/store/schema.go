package store

import (
	"context"
	"fmt"
)

// Schema of the documents the notifier reads. The tables are owned by the
// posts and auth services; EnsureSchema exists for local setups and tests.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    uid        TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    fcm_tokens TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS posts (
    post_id   TEXT PRIMARY KEY,
    uid       TEXT NOT NULL,
    post_text TEXT NOT NULL DEFAULT '',
    image_key TEXT NOT NULL DEFAULT '',
    likes     TEXT[] NOT NULL DEFAULT '{}'
);
`

// EnsureSchema creates the document tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
