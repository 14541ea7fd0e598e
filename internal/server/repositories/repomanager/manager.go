package repomanager

import (
	"context"
	"database/sql"

	"github.com/blogify-app/blogify/internal/dbx"
	"github.com/blogify-app/blogify/internal/server/repositories/notifications"
	"github.com/blogify-app/blogify/internal/server/repositories/posts"
	"github.com/blogify-app/blogify/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Notifications(db dbx.DBTX) notifications.Repository
}
