package services

import (
	"context"
	"database/sql"

	"github.com/blogify-app/blogify/internal/server/models"
	"github.com/blogify-app/blogify/internal/server/repositories/repomanager"
)

// NotificationService is the per-user inbox: an append-only log with
// read/unread state. Appends happen through the interaction engine; this
// service only reads and flips the read flag.
type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewNotificationService(db *sql.DB, m repomanager.RepositoryManager) *NotificationService {
	return &NotificationService{db: db, repomanager: m}
}

// List returns the user's notifications in insertion (chronological) order.
// Read state never filters the result.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repomanager.Notifications(s.db).ListByUser(ctx, userID)
}

// MarkAllRead marks every notification in the inbox read. Repeated calls
// are no-ops after the first.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repomanager.Notifications(s.db).MarkAllRead(ctx, userID)
}
