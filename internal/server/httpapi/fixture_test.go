package httpapi

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/cryptox"
	"github.com/blogify-app/blogify/internal/dbx"
	"github.com/blogify-app/blogify/internal/logging"
	"github.com/blogify-app/blogify/internal/server/auth"
	"github.com/blogify-app/blogify/internal/server/config"
	"github.com/blogify-app/blogify/internal/server/models"
	notificationsrepo "github.com/blogify-app/blogify/internal/server/repositories/notifications"
	postsrepo "github.com/blogify-app/blogify/internal/server/repositories/posts"
	usersrepo "github.com/blogify-app/blogify/internal/server/repositories/users"
	"github.com/blogify-app/blogify/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore backs the handler tests with the same contracts as the Postgres
// repositories: unique email, like membership as a set, insertion-ordered
// appends.
type memStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	posts         map[string]*models.Post
	likes         map[string]map[string]bool
	comments      map[string][]*models.Comment
	notifications map[string][]*models.Notification
	nextID        int64

	failUserLoads bool
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*models.User{},
		posts:         map[string]*models.Post{},
		likes:         map[string]map[string]bool{},
		comments:      map[string][]*models.Comment{},
		notifications: map[string][]*models.Notification{},
	}
}

type memManager struct{ store *memStore }

func (m *memManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memManager) Users(db dbx.DBTX) usersrepo.Repository             { return (*memUsers)(m.store) }
func (m *memManager) Posts(db dbx.DBTX) postsrepo.Repository             { return (*memPosts)(m.store) }
func (m *memManager) Notifications(db dbx.DBTX) notificationsrepo.Repository {
	return (*memNotifications)(m.store)
}

type memUsers memStore

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrorDuplicateEmail
		}
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUserLoads {
		return nil, common.ErrorStoreUnavailable
	}
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) UpdateProfile(ctx context.Context, id, username, email, profileImageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Username = username
	u.Email = email
	u.ProfileImageURL = profileImageURL
	return nil
}

type memPosts memStore

func (r *memPosts) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.CreatedAt = time.Now()
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *p
	copied.LikeCount = len(r.likes[id])
	return &copied, nil
}

func (r *memPosts) Update(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return common.ErrorNotFound
	}
	r.posts[post.ID] = post
	return nil
}

func (r *memPosts) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.posts, id)
	delete(r.likes, id)
	delete(r.comments, id)
	return nil
}

func (r *memPosts) ListPublished(ctx context.Context, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Post
	for _, p := range r.posts {
		if p.IsPublished {
			copied := *p
			copied.LikeCount = len(r.likes[p.ID])
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memPosts) ListByAuthor(ctx context.Context, authorID string, includeDrafts bool) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Post
	for _, p := range r.posts {
		if p.AuthorID == authorID && (includeDrafts || p.IsPublished) {
			copied := *p
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memPosts) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.likes[postID]
	if set == nil || !set[userID] {
		return false, nil
	}
	delete(set, userID)
	return true, nil
}

func (r *memPosts) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.likes[postID]
	if set == nil {
		set = map[string]bool{}
		r.likes[postID] = set
	}
	if set[userID] {
		return false, nil
	}
	set[userID] = true
	return true, nil
}

func (r *memPosts) CountLikes(ctx context.Context, postID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.likes[postID]), nil
}

func (r *memPosts) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	r.comments[comment.PostID] = append(r.comments[comment.PostID], comment)
	return comment, nil
}

func (r *memPosts) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Comment{}, r.comments[postID]...), nil
}

type memNotifications memStore

func (r *memNotifications) Append(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.notifications[n.UserID] = append(r.notifications[n.UserID], n)
	return n, nil
}

func (r *memNotifications) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Notification{}, r.notifications[userID]...), nil
}

func (r *memNotifications) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications[userID] {
		n.Read = true
	}
	return nil
}

func (r *memNotifications) DeleteByPost(ctx context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, list := range r.notifications {
		kept := list[:0]
		for _, n := range list {
			if n.PostID != postID {
				kept = append(kept, n)
			}
		}
		r.notifications[userID] = kept
	}
	return nil
}

// testEnv bundles a ready server with direct access to its store and token
// service.
type testEnv struct {
	server *Server
	store  *memStore
	tokens *auth.TokenService
	cfg    *config.Config

	// mock backs the *sql.DB the post service opens transactions on; the
	// statements themselves run against the in-memory repositories.
	mock sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.GoogleClientID = ""

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore()
	manager := &memManager{store: store}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tokens := auth.NewTokenService([]byte(cfg.SecretKey), cfg.SessionTokenValidityDuration)
	us := services.NewUserService(nil, manager, logger)
	ps := services.NewPostService(db, manager, logger)
	ns := services.NewNotificationService(nil, manager)

	return &testEnv{
		server: NewServer(cfg, logger, tokens, us, ps, ns),
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		mock:   mock,
	}
}

// seedUser inserts a user with the given password directly into the store.
func (e *testEnv) seedUser(t *testing.T, id, username, email, password string) *models.User {
	t.Helper()

	salt := cryptox.NewSalt()
	u := &models.User{
		ID:       id,
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
		Salt:     salt,
	}
	if password != "" {
		u.PasswordHash = cryptox.HashPassword(password, salt)
	}

	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.users[id] = u
	return u
}

func (e *testEnv) seedPost(t *testing.T, id, authorID, title string, published bool) *models.Post {
	t.Helper()

	p := &models.Post{
		ID:          id,
		Title:       title,
		Content:     "content",
		AuthorID:    authorID,
		Category:    "General",
		IsPublished: published,
		CreatedAt:   time.Now(),
	}

	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.posts[id] = p
	return p
}

// sessionCookie issues a valid token for the user and wraps it in the
// session cookie.
func (e *testEnv) sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	token, err := e.tokens.Issue(userID)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return &http.Cookie{Name: e.cfg.SessionCookieName, Value: token}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}
