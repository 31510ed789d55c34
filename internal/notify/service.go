package notify

import "context"

// Store defines the point lookups the notifiers need from the document store.
// Both methods return ErrNotFound when the document is absent.
type Store interface {
	GetPost(ctx context.Context, postID string) (*Post, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}

// Dispatcher sends one notification to every token of a recipient.
// Per-token delivery failures are handled by the dispatcher and not returned.
type Dispatcher interface {
	Dispatch(ctx context.Context, tokens []string, n Notification) error
}

// MediaLinker produces a short-lived URL for a stored media object
type MediaLinker interface {
	MediaURL(ctx context.Context, key string) (string, error)
}
