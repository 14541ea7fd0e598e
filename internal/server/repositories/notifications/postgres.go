package notifications

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) Append(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	query :=
		`INSERT INTO notifications (user_id, kind, post_id, from_user_id, message)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		n.UserID, string(n.Kind), n.PostID, n.FromUserID, n.Message).
		Scan(&n.ID, &n.CreatedAt)

	if err != nil {
		return nil, dbErr(err)
	}

	return n, nil
}

// ListByUser returns the user's notifications in insertion order. The read
// flag is informational and never filters the result.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	query :=
		`SELECT id, user_id, kind, post_id, from_user_id, message, read, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var result []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.PostID, &n.FromUserID,
			&n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, dbErr(err)
		}
		n.Kind = models.NotificationKind(kind)
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err)
	}

	return result, nil
}

// MarkAllRead is idempotent; marking an already-read inbox affects zero rows
// and is not an error.
func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return dbErr(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByPost(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE post_id = $1`, postID)
	if err != nil {
		return dbErr(err)
	}
	return nil
}
