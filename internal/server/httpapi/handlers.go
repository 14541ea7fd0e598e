package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/server/models"
	"github.com/blogify-app/blogify/internal/server/services"
)

// writeError maps domain errors onto HTTP responses. Store unavailability is
// distinguished from not-found so callers can retry.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, common.ErrorDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, common.ErrorInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrorStoreUnavailable):
		s.logger.Error(c.Request.Context(), "store unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// setSessionCookie issues a token for the user and attaches it as an
// HTTP-only cookie.
func (s *Server) setSessionCookie(c *gin.Context, userID string) error {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookieName, token, int(s.tokenTTL.Seconds()), "/", "", false, true)
	return nil
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(s.cookieName, "", -1, "/", "", false, true)
}

// safeRedirect keeps the post-login redirect on this site: only relative
// paths are honoured, anything absolute falls back to the root.
func safeRedirect(raw string) string {
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || raw[0] != '/' {
		return "/"
	}
	return raw
}

type signupRequest struct {
	Username string `json:"username" form:"fullName"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, common.ErrorValidation)
		return
	}

	if _, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		s.writeError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/user/login")
}

// handleLoginForm is where RequireAuthenticated redirects anonymous
// requests; rendering is out of scope for this service, so it answers with
// the redirect target it received.
func (s *Server) handleLoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"redirect": safeRedirect(c.Query("redirect"))})
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, common.ErrorValidation)
		return
	}

	user, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.setSessionCookie(c, user.ID); err != nil {
		s.writeError(c, err)
		return
	}

	target := req.Redirect
	if target == "" {
		target = c.Query("redirect")
	}
	c.Redirect(http.StatusSeeOther, safeRedirect(target))
}

// handleLogout clears the cookie. The token itself stays valid until expiry;
// sessions are stateless and there is no server-side revocation list.
func (s *Server) handleLogout(c *gin.Context) {
	s.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

type userResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
	}
}

func (s *Server) handleMe(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": toUserResponse(user)})
}

type profileRequest struct {
	Username        string `json:"username" form:"fullName"`
	Email           string `json:"email" form:"email"`
	ProfileImageURL string `json:"profileImageUrl" form:"profileImageUrl"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, common.ErrorValidation)
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), CurrentUser(c), req.Username, req.Email, req.ProfileImageURL)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type notificationResponse struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	PostID    string    `json:"postId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListNotifications(c *gin.Context) {
	items, err := s.notifications.List(c.Request.Context(), CurrentUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, notificationResponse{
			ID:        n.ID,
			Kind:      string(n.Kind),
			PostID:    n.PostID,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	if err := s.notifications.MarkAllRead(c.Request.Context(), CurrentUser(c).ID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type postRequest struct {
	Title       string   `json:"title" form:"title"`
	Content     string   `json:"content" form:"content"`
	Category    string   `json:"category" form:"category"`
	Tags        []string `json:"tags" form:"tags"`
	ImageURL    string   `json:"imageUrl" form:"imageUrl"`
	IsPublished bool     `json:"isPublished" form:"isPublished"`
}

type postResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"authorId"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	IsPublished bool      `json:"isPublished"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toPostResponse(p *models.Post) postResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		AuthorID:    p.AuthorID,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Tags:        tags,
		IsPublished: p.IsPublished,
		Likes:       p.LikeCount,
		CreatedAt:   p.CreatedAt,
	}
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, common.ErrorValidation)
		return
	}

	post, err := s.posts.CreatePost(c.Request.Context(), CurrentUser(c), services.PostInput{
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": toPostResponse(post)})
}

func (s *Server) handleListPosts(c *gin.Context) {
	var (
		items []*models.Post
		err   error
	)
	if author := c.Query("author"); author != "" {
		items, err = s.posts.ListByAuthor(c.Request.Context(), author, CurrentUser(c))
	} else {
		items, err = s.posts.ListPublished(c.Request.Context(), 0)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]postResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPostResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"posts": out})
}

type commentResponse struct {
	ID         int64     `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toCommentResponse(cm *models.Comment) commentResponse {
	return commentResponse{
		ID:         cm.ID,
		AuthorID:   cm.AuthorID,
		AuthorName: cm.AuthorName,
		Body:       cm.Body,
		CreatedAt:  cm.CreatedAt,
	}
}

func (s *Server) handleGetPost(c *gin.Context) {
	id := c.Param("id")

	post, err := s.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	comments, err := s.posts.ListComments(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	outComments := make([]commentResponse, 0, len(comments))
	for _, cm := range comments {
		outComments = append(outComments, toCommentResponse(cm))
	}

	c.JSON(http.StatusOK, gin.H{"post": toPostResponse(post), "comments": outComments})
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, common.ErrorValidation)
		return
	}

	post, err := s.posts.UpdatePost(c.Request.Context(), c.Param("id"), CurrentUser(c), services.PostInput{
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": toPostResponse(post)})
}

func (s *Server) handleDeletePost(c *gin.Context) {
	if err := s.posts.DeletePost(c.Request.Context(), c.Param("id"), CurrentUser(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleToggleLike(c *gin.Context) {
	likes, err := s.posts.ToggleLike(c.Request.Context(), c.Param("id"), CurrentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

type commentRequest struct {
	Body string `json:"body" form:"content"`
}

func (s *Server) handleAddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		s.writeError(c, common.ErrorValidation)
		return
	}

	comment, err := s.posts.AddComment(c.Request.Context(), c.Param("id"), CurrentUser(c), req.Body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": toCommentResponse(comment)})
}
