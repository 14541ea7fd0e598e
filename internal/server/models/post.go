package models

import "time"

type Post struct {
	ID          string
	Title       string
	Content     string
	AuthorID    string
	ImageURL    string
	Category    string
	Tags        []string
	IsPublished bool
	CreatedAt   time.Time

	// LikeCount is the size of the post's like set. Membership itself lives
	// in the post_likes table; only the count is surfaced here.
	LikeCount int
}

// Comment is an append-only entry on a post. AuthorName is a snapshot of the
// commenter's display name at write time and is not updated if the commenter
// later renames.
type Comment struct {
	ID         int64
	PostID     string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}
