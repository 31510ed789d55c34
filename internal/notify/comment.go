package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// CommentNotifier tells a post owner that someone commented on their post
type CommentNotifier struct {
	store      Store
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewCommentNotifier creates a new comment notifier
func NewCommentNotifier(store Store, dispatcher Dispatcher, logger *slog.Logger) *CommentNotifier {
	return &CommentNotifier{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// OnCommentCreated handles a newly created comment. Missing documents and empty
// token lists end the invocation without an error.
func (n *CommentNotifier) OnCommentCreated(ctx context.Context, ev CommentCreated) (Outcome, error) {
	log := n.logger.With("trigger", "comment", "postID", ev.PostID, "commentID", ev.CommentID)

	post, err := n.store.GetPost(ctx, ev.PostID)
	if errors.Is(err, ErrNotFound) {
		log.Info("Post not found, no notification")
		return skipped(SkipPostNotFound), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("get post %s: %w", ev.PostID, err)
	}

	comment := ev.Comment
	if post.OwnerID == comment.AuthorID {
		log.Info("User commented on their own post, no notification", "uid", comment.AuthorID)
		return skipped(SkipSelfAction), nil
	}

	owner, err := n.store.GetUser(ctx, post.OwnerID)
	if errors.Is(err, ErrNotFound) {
		log.Info("Post owner not found, no notification", "ownerID", post.OwnerID)
		return skipped(SkipOwnerNotFound), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("get post owner %s: %w", post.OwnerID, err)
	}
	if len(owner.Tokens) == 0 {
		log.Info("Post owner has no tokens, no notification", "ownerID", post.OwnerID)
		return skipped(SkipNoTokens), nil
	}

	msg := Notification{
		Title: fmt.Sprintf("%s commented on your post", comment.AuthorName),
		Body:  comment.Text,
		Sound: DefaultSound,
		Data: map[string]string{
			"postId": ev.PostID,
			"type":   string(EventTypeComment),
		},
	}

	if err := n.dispatcher.Dispatch(ctx, owner.Tokens, msg); err != nil {
		return Outcome{}, fmt.Errorf("dispatch comment notification: %w", err)
	}

	log.Info("Comment notification dispatched",
		"ownerID", post.OwnerID,
		"tokens", len(owner.Tokens))
	return dispatched(len(owner.Tokens)), nil
}
