package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/server/models"
)

// identityKey is the gin context key under which the authenticated user is
// stored. Absent key means anonymous request.
const identityKey = "identity"

// Authenticate resolves the session cookie into a user and attaches it to the
// request context. It never rejects: a missing, malformed, expired or orphaned
// token simply leaves the request anonymous.
func (s *Server) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		userID := s.tokens.Resolve(token)
		if userID == "" {
			c.Next()
			return
		}

		user, err := s.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			// A valid token for a deleted user is treated as anonymous. Any
			// other failure is transient, not "no such user": downgrading it
			// would bounce an authenticated user to login, so abort instead.
			if errors.Is(err, common.ErrorNotFound) {
				c.Next()
				return
			}
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user for the request, or nil for an
// anonymous request.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireAuthenticated guards a route: anonymous requests are redirected to
// the login page with the original path preserved in the redirect parameter.
func (s *Server) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		target := "/user/login?redirect=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}
