// Package store reads post and user documents from Postgres.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"notifier/internal/database"
	"notifier/internal/notify"
)

// Repository implements notify.Store with point lookups
type Repository struct {
	db database.Service
}

// NewRepository creates a new document repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// GetPost retrieves a single post by ID
func (r *Repository) GetPost(ctx context.Context, postID string) (*notify.Post, error) {
	const q = `
		SELECT post_id, uid, post_text, image_key, likes
		FROM posts
		WHERE post_id = $1
	`

	post := &notify.Post{}
	err := r.db.QueryRow(ctx, q, postID).Scan(
		&post.ID,
		&post.OwnerID,
		&post.Text,
		&post.ImageKey,
		&post.Likes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notify.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// GetUser retrieves a single user with its push tokens
func (r *Repository) GetUser(ctx context.Context, userID string) (*notify.User, error) {
	const q = `
		SELECT uid, name, fcm_tokens
		FROM users
		WHERE uid = $1
	`

	user := &notify.User{}
	err := r.db.QueryRow(ctx, q, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Tokens,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notify.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
