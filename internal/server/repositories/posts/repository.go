package posts

import (
	"context"

	"github.com/blogify-app/blogify/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	ListPublished(ctx context.Context, limit int) ([]*models.Post, error)
	// ListByAuthor lists the author's posts. Unpublished drafts are included
	// only when includeDrafts is set; public callers get published posts.
	ListByAuthor(ctx context.Context, authorID string, includeDrafts bool) ([]*models.Post, error)

	// RemoveLike and AddLike are the two halves of the like toggle. Each is
	// a single conditional statement at the store, so concurrent requests
	// can never duplicate a user id in the like set.
	RemoveLike(ctx context.Context, postID, userID string) (bool, error)
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	CountLikes(ctx context.Context, postID string) (int, error)

	AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
}
