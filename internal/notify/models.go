// Package notify decides whether, and to whom, a push notification is sent when
// a post is commented on or liked.
package notify

import "errors"

// ErrNotFound is returned by a Store when the requested document does not exist
var ErrNotFound = errors.New("document not found")

// Post is a post document as stored under posts/{postId}
type Post struct {
	ID       string   `json:"-"`
	OwnerID  string   `json:"uid"`
	Text     string   `json:"postText"`
	ImageKey string   `json:"imageKey,omitempty"`
	Likes    []string `json:"likes"`
}

// Comment is a comment document as stored under posts/{postId}/comments/{commentId}
type Comment struct {
	ID         string `json:"-"`
	PostID     string `json:"-"`
	AuthorID   string `json:"uid"`
	AuthorName string `json:"name"`
	Text       string `json:"text"`
}

// User is a user document as stored under users/{uid}
type User struct {
	ID     string   `json:"-"`
	Name   string   `json:"name"`
	Tokens []string `json:"fcmTokens"`
}

// EventType tags the data payload of a notification
type EventType string

const (
	EventTypeComment EventType = "comment"
	EventTypeLike    EventType = "like"
)

// DefaultSound is the sound hint attached to every notification
const DefaultSound = "default"

// Notification is the payload handed to a Dispatcher.
type Notification struct {
	Title    string
	Body     string
	Sound    string
	ImageURL string
	Data     map[string]string
}

// CommentCreated is the event delivered when a comment document is created
type CommentCreated struct {
	PostID    string
	CommentID string
	Comment   Comment
}

// PostUpdated is the event delivered when a post document is updated
type PostUpdated struct {
	PostID string
	Before Post
	After  Post
}

// SkipReason explains why no notification was sent
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipPostNotFound  SkipReason = "post_not_found"
	SkipSelfAction    SkipReason = "self_action"
	SkipOwnerNotFound SkipReason = "owner_not_found"
	SkipLikerNotFound SkipReason = "liker_not_found"
	SkipNoTokens      SkipReason = "no_tokens"
	SkipNoNewLike     SkipReason = "no_new_like"
	SkipAmbiguousLike SkipReason = "ambiguous_like"
)

// Outcome is the result of a single handler invocation
type Outcome struct {
	Dispatched bool
	Skip       SkipReason
	Recipients int
}

func skipped(reason SkipReason) Outcome {
	return Outcome{Skip: reason}
}

func dispatched(tokens int) Outcome {
	return Outcome{Dispatched: true, Recipients: tokens}
}
