package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/dbx"
	"github.com/blogify-app/blogify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func dbErr(err error) error {
	return fmt.Errorf("%w: db error: %v", common.ErrorStoreUnavailable, err)
}

const postColumns = `p.id, p.title, p.content, p.author_id, p.image_url, p.category, p.tags, p.is_published, p.created_at,
		 (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count`

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {

	query :=
		`INSERT INTO posts (id, title, content, author_id, image_url, category, tags, is_published)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.Title, post.Content, post.AuthorID, post.ImageURL,
		post.Category, joinTags(post.Tags), post.IsPublished).
		Scan(&post.CreatedAt)

	if err != nil {
		return nil, dbErr(err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + `
		 FROM posts p
		 WHERE p.id = $1
		 `

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbErr(err)
	}

	return post, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts
		 SET title = $2, content = $3, image_url = $4, category = $5, tags = $6, is_published = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Content, post.ImageURL, post.Category,
		joinTags(post.Tags), post.IsPublished)
	if err != nil {
		return dbErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return dbErr(err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return dbErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return dbErr(err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) ListPublished(ctx context.Context, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		 FROM posts p
		 WHERE p.is_published
		 ORDER BY p.created_at DESC
		 `
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	return r.queryPosts(ctx, query, args...)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID string, includeDrafts bool) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		 FROM posts p
		 WHERE p.author_id = $1
		 `
	if !includeDrafts {
		query += ` AND p.is_published`
	}
	query += ` ORDER BY p.created_at DESC`

	return r.queryPosts(ctx, query, authorID)
}

// RemoveLike deletes the user's membership row and reports whether a row was
// actually removed.
func (r *PostgresRepository) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, dbErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, dbErr(err)
	}

	return affected == 1, nil
}

// AddLike inserts the membership row. ON CONFLICT DO NOTHING makes the
// insert idempotent: a concurrent duplicate simply reports false.
func (r *PostgresRepository) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, userID)
	if err != nil {
		return false, dbErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, dbErr(err)
	}

	return affected == 1, nil
}

func (r *PostgresRepository) CountLikes(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&n)
	if err != nil {
		return 0, dbErr(err)
	}
	return n, nil
}

func (r *PostgresRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query :=
		`INSERT INTO post_comments (post_id, author_id, author_name, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		comment.PostID, comment.AuthorID, comment.AuthorName, comment.Body).
		Scan(&comment.ID, &comment.CreatedAt)

	if err != nil {
		return nil, dbErr(err)
	}

	return comment, nil
}

func (r *PostgresRepository) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	query :=
		`SELECT id, post_id, author_id, author_name, body, created_at
		 FROM post_comments
		 WHERE post_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, dbErr(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err)
	}

	return comments, nil
}

func (r *PostgresRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err)
	}

	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	var tags string
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.ImageURL, &post.Category, &tags, &post.IsPublished,
		&post.CreatedAt, &post.LikeCount)
	if err != nil {
		return nil, err
	}
	post.Tags = splitTags(tags)
	return post, nil
}

// Tags are stored as a comma-joined string, matching the comma-separated
// form they arrive in.
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
