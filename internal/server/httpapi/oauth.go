package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/server/config"
	"github.com/blogify-app/blogify/internal/server/services"
)

const oauthStateCookie = "oauth_state"

// googleOAuth wraps the OAuth2 configuration for the federated login flow.
// userInfoURL is a seam so tests can point the profile fetch at a stub.
type googleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

func newGoogleOAuth(cfg *config.Config) *googleOAuth {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return &googleOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// fetchProfile exchanges the authorization code and retrieves the verified
// profile from the provider.
func (g *googleOAuth) fetchProfile(ctx context.Context, code string) (services.FederatedProfile, error) {

	var profile services.FederatedProfile

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return profile, fmt.Errorf("code exchange: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Get(g.userInfoURL)
	if err != nil {
		return profile, fmt.Errorf("userinfo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return profile, fmt.Errorf("userinfo fetch: status %d", resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return profile, fmt.Errorf("userinfo decode: %w", err)
	}

	profile.Subject = payload.ID
	profile.Name = payload.Name
	profile.Email = payload.Email
	profile.Picture = payload.Picture
	return profile, nil
}

// handleGoogleLogin starts the flow: a random state value goes into a
// short-lived cookie and into the provider redirect, to be compared on the
// way back.
func (s *Server) handleGoogleLogin(c *gin.Context) {
	state, err := common.MakeRandHexString(16)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, s.google.config.AuthCodeURL(state))
}

// handleGoogleCallback finishes the flow: state check, code exchange,
// profile mapping, session cookie.
func (s *Server) handleGoogleCallback(c *gin.Context) {

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	profile, err := s.google.fetchProfile(c.Request.Context(), code)
	if err != nil {
		s.logger.Error(c.Request.Context(), "federated login failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "federated login failed"})
		return
	}

	user, err := s.users.FederatedLogin(c.Request.Context(), profile)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.setSessionCookie(c, user.ID); err != nil {
		s.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}
