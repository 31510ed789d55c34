// Package functions binds document change triggers to the notifiers.
package functions

import (
	"context"
	"log/slog"

	"notifier/internal/notify"
	"notifier/internal/trigger"
)

// Document patterns the notifiers listen on
const (
	CommentCreatedPattern = "posts/{postId}/comments/{commentId}"
	PostUpdatedPattern    = "posts/{postId}"
)

// Trigger names used for outcome stats
const (
	TriggerComment = "comment"
	TriggerLike    = "like"
)

// CommentHandler reacts to comment creation
type CommentHandler interface {
	OnCommentCreated(ctx context.Context, ev notify.CommentCreated) (notify.Outcome, error)
}

// LikeHandler reacts to post updates
type LikeHandler interface {
	OnPostUpdated(ctx context.Context, ev notify.PostUpdated) (notify.Outcome, error)
}

// Recorder counts handler outcomes
type Recorder interface {
	Record(ctx context.Context, trigger string, out notify.Outcome) error
}

// Functions adapts trigger events to notifier calls
type Functions struct {
	comments CommentHandler
	likes    LikeHandler
	recorder Recorder
	logger   *slog.Logger
}

// New creates the trigger bindings. recorder may be nil.
func New(comments CommentHandler, likes LikeHandler, recorder Recorder, logger *slog.Logger) *Functions {
	return &Functions{
		comments: comments,
		likes:    likes,
		recorder: recorder,
		logger:   logger,
	}
}

// Register adds both triggers to the router
func (f *Functions) Register(r *trigger.Router) {
	r.Handle(trigger.KindCreated, CommentCreatedPattern, f.OnCommentCreated)
	r.Handle(trigger.KindUpdated, PostUpdatedPattern, f.OnLikeUpdated)
}

// OnCommentCreated decodes the new comment and runs the comment notifier
func (f *Functions) OnCommentCreated(ctx context.Context, ev trigger.Event) error {
	var comment notify.Comment
	if err := ev.DecodeAfter(&comment); err != nil {
		return trigger.Permanent(err)
	}
	comment.ID = ev.Param("commentId")
	comment.PostID = ev.Param("postId")

	out, err := f.comments.OnCommentCreated(ctx, notify.CommentCreated{
		PostID:    comment.PostID,
		CommentID: comment.ID,
		Comment:   comment,
	})
	if err != nil {
		return err
	}

	f.record(ctx, TriggerComment, out)
	return nil
}

// OnLikeUpdated decodes both post states and runs the like notifier
func (f *Functions) OnLikeUpdated(ctx context.Context, ev trigger.Event) error {
	postID := ev.Param("postId")

	var before, after notify.Post
	if err := ev.DecodeBefore(&before); err != nil {
		return trigger.Permanent(err)
	}
	if err := ev.DecodeAfter(&after); err != nil {
		return trigger.Permanent(err)
	}
	before.ID = postID
	after.ID = postID

	out, err := f.likes.OnPostUpdated(ctx, notify.PostUpdated{
		PostID: postID,
		Before: before,
		After:  after,
	})
	if err != nil {
		return err
	}

	f.record(ctx, TriggerLike, out)
	return nil
}

func (f *Functions) record(ctx context.Context, name string, out notify.Outcome) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.Record(ctx, name, out); err != nil {
		f.logger.Warn("Failed to record outcome", "trigger", name, "error", err)
	}
}
