package notifications

import (
	"context"

	"github.com/blogify-app/blogify/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error

	// DeleteByPost removes every notification that references the post, so
	// inboxes don't keep entries for content that no longer exists.
	DeleteByPost(ctx context.Context, postID string) error
}
