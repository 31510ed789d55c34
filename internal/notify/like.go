package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const (
	// anonymousName replaces a liker without a display name
	anonymousName = "Someone"
	// mediaPostBody is the body used for posts without text
	mediaPostBody = "Your media post"
)

// LikeNotifier tells a post owner that someone liked their post
type LikeNotifier struct {
	store      Store
	dispatcher Dispatcher
	media      MediaLinker
	logger     *slog.Logger
}

// NewLikeNotifier creates a new like notifier. media may be nil, in which case
// notifications for media posts carry no image.
func NewLikeNotifier(store Store, dispatcher Dispatcher, media MediaLinker, logger *slog.Logger) *LikeNotifier {
	return &LikeNotifier{
		store:      store,
		dispatcher: dispatcher,
		media:      media,
		logger:     logger,
	}
}

// OnPostUpdated handles an update of a post document. Only the likes list and
// the owner id of the after state are consulted.
func (n *LikeNotifier) OnPostUpdated(ctx context.Context, ev PostUpdated) (Outcome, error) {
	log := n.logger.With("trigger", "like", "postID", ev.PostID)

	change := DiffLikes(ev.Before.Likes, ev.After.Likes)
	switch change.Kind {
	case NoChange:
		log.Debug("A like was removed or no change, no notification")
		return skipped(SkipNoNewLike), nil
	case Ambiguous:
		log.Info("Could not determine new liker, no notification",
			"before", len(ev.Before.Likes),
			"after", len(ev.After.Likes))
		return skipped(SkipAmbiguousLike), nil
	}

	ownerID := ev.After.OwnerID
	if change.UserID == ownerID {
		log.Info("User liked their own post, no notification", "uid", ownerID)
		return skipped(SkipSelfAction), nil
	}

	liker, err := n.store.GetUser(ctx, change.UserID)
	if errors.Is(err, ErrNotFound) {
		log.Info("Liker not found, no notification", "likerID", change.UserID)
		return skipped(SkipLikerNotFound), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("get liker %s: %w", change.UserID, err)
	}
	likerName := liker.Name
	if likerName == "" {
		likerName = anonymousName
	}

	owner, err := n.store.GetUser(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		log.Info("Post owner not found, no notification", "ownerID", ownerID)
		return skipped(SkipOwnerNotFound), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("get post owner %s: %w", ownerID, err)
	}
	if len(owner.Tokens) == 0 {
		log.Info("Post owner has no tokens, no notification", "ownerID", ownerID)
		return skipped(SkipNoTokens), nil
	}

	body := ev.After.Text
	if body == "" {
		body = mediaPostBody
	}

	msg := Notification{
		Title:    fmt.Sprintf("%s liked your post", likerName),
		Body:     body,
		Sound:    DefaultSound,
		ImageURL: n.imageURL(ctx, log, ev.After.ImageKey),
		Data: map[string]string{
			"postId": ev.PostID,
			"type":   string(EventTypeLike),
		},
	}

	if err := n.dispatcher.Dispatch(ctx, owner.Tokens, msg); err != nil {
		return Outcome{}, fmt.Errorf("dispatch like notification: %w", err)
	}

	log.Info("Like notification dispatched",
		"ownerID", ownerID,
		"likerID", change.UserID,
		"tokens", len(owner.Tokens))
	return dispatched(len(owner.Tokens)), nil
}

// imageURL links the post media when possible; failures only cost the image
func (n *LikeNotifier) imageURL(ctx context.Context, log *slog.Logger, key string) string {
	if key == "" || n.media == nil {
		return ""
	}
	url, err := n.media.MediaURL(ctx, key)
	if err != nil {
		log.Warn("Failed to link post media", "key", key, "error", err)
		return ""
	}
	return url
}
