package models

import (
	"fmt"
	"time"
)

// NotificationKind is a closed enum of notification variants. Each variant
// owns its message builder so rendering text is composed in exactly one
// place.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
)

// Message composes the human-readable notification text for this variant.
func (k NotificationKind) Message(fromUsername string) string {
	switch k {
	case NotificationLike:
		return fmt.Sprintf("%s liked your post.", fromUsername)
	case NotificationComment:
		return fmt.Sprintf("%s commented on your post.", fromUsername)
	default:
		return fmt.Sprintf("%s interacted with your post.", fromUsername)
	}
}

// Notification is immutable once created except for the Read flag.
// Notifications are never produced for a user's own actions on their own
// posts.
type Notification struct {
	ID         int64
	UserID     string
	Kind       NotificationKind
	PostID     string
	FromUserID string
	Message    string
	Read       bool
	CreatedAt  time.Time
}
