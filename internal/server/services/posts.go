package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/dbx"
	"github.com/blogify-app/blogify/internal/logging"
	"github.com/blogify-app/blogify/internal/server/models"
	"github.com/blogify-app/blogify/internal/server/repositories/repomanager"
)

// PostInput carries the author-editable fields of a post.
type PostInput struct {
	Title       string
	Content     string
	Category    string
	Tags        []string
	ImageURL    string
	IsPublished bool
}

// PostService is the interaction engine: post CRUD with ownership
// enforcement, the like toggle and comment submission, and the notification
// fan-out both can trigger.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "posts"),
	}
}

func (s *PostService) CreatePost(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, common.ErrorValidation
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "General"
	}

	post := &models.Post{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Content:     in.Content,
		AuthorID:    author.ID,
		ImageURL:    in.ImageURL,
		Category:    category,
		Tags:        in.Tags,
		IsPublished: in.IsPublished,
	}

	return s.repomanager.Posts(s.db).Create(ctx, post)
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

func (s *PostService) ListPublished(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).ListPublished(ctx, limit)
}

// ListByAuthor lists an author's posts. Only the author themselves sees
// unpublished drafts; anyone else gets the published subset.
func (s *PostService) ListByAuthor(ctx context.Context, authorID string, viewer *models.User) ([]*models.Post, error) {
	includeDrafts := viewer != nil && viewer.ID == authorID
	return s.repomanager.Posts(s.db).ListByAuthor(ctx, authorID, includeDrafts)
}

func (s *PostService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.repomanager.Posts(s.db).ListComments(ctx, postID)
}

// UpdatePost applies the input to the post after the ownership check.
// Only the post's author may edit it.
func (s *PostService) UpdatePost(ctx context.Context, postID string, actor *models.User, in PostInput) (*models.Post, error) {

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, common.ErrorForbidden
	}

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, common.ErrorValidation
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Category = in.Category
	if strings.TrimSpace(post.Category) == "" {
		post.Category = "General"
	}
	post.Tags = in.Tags
	post.IsPublished = in.IsPublished
	if in.ImageURL != "" {
		post.ImageURL = in.ImageURL
	}

	if err := repo.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// DeletePost removes the post after the ownership check. Likes and comments
// cascade at the store; notifications referencing the post are purged in the
// same transaction so no inbox keeps pointing at deleted content.
func (s *PostService) DeletePost(ctx context.Context, postID string, actor *models.User) error {

	post, err := s.repomanager.Posts(s.db).GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID {
		return common.ErrorForbidden
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Posts(tx).Delete(ctx, postID); err != nil {
			return err
		}
		return s.repomanager.Notifications(tx).DeleteByPost(ctx, postID)
	})
}

// ToggleLike flips the actor's membership in the post's like set and returns
// the new like count. The store-level conditional statements decide which
// way the toggle went, so concurrent requests can never double-insert; a
// fresh like on someone else's post notifies the author.
func (s *PostService) ToggleLike(ctx context.Context, postID string, actor *models.User) (int, error) {

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		return 0, err
	}

	removed, err := repo.RemoveLike(ctx, postID, actor.ID)
	if err != nil {
		return 0, err
	}

	if !removed {
		added, err := repo.AddLike(ctx, postID, actor.ID)
		if err != nil {
			return 0, err
		}
		if added && post.AuthorID != actor.ID {
			s.notify(ctx, post, actor, models.NotificationLike)
		}
	}

	return repo.CountLikes(ctx, postID)
}

// AddComment appends a comment with a snapshot of the actor's current
// display name and notifies the post's author unless the actor is the
// author.
func (s *PostService) AddComment(ctx context.Context, postID string, actor *models.User, body string) (*models.Comment, error) {

	if strings.TrimSpace(body) == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:     postID,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		Body:       body,
	}

	comment, err = repo.AddComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != actor.ID {
		s.notify(ctx, post, actor, models.NotificationComment)
	}

	return comment, nil
}

// notify appends a notification to the post author's inbox. Fan-out is
// best-effort: the primary action has already committed, so a failed append
// is logged and swallowed rather than rolled back into the request.
func (s *PostService) notify(ctx context.Context, post *models.Post, actor *models.User, kind models.NotificationKind) {

	n := &models.Notification{
		UserID:     post.AuthorID,
		Kind:       kind,
		PostID:     post.ID,
		FromUserID: actor.ID,
		Message:    kind.Message(actor.Username),
	}

	if _, err := s.repomanager.Notifications(s.db).Append(ctx, n); err != nil {
		s.logger.Error(ctx, "notification append failed",
			"kind", string(kind), "post_id", post.ID, "author_id", post.AuthorID, "err", err.Error())
	}
}
