// Package services holds the application services: the credential store, the
// post interaction engine and the notification inbox. Services orchestrate
// repositories and own the domain rules; transport and rendering stay out.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/cryptox"
	"github.com/blogify-app/blogify/internal/logging"
	"github.com/blogify-app/blogify/internal/server/models"
	"github.com/blogify-app/blogify/internal/server/repositories/repomanager"
)

// FederatedProfile is the verified profile an identity provider hands back
// after a successful federated authentication.
type FederatedProfile struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// UserService is the credential store: it owns password hashing and
// verification, user lookup, and the mapping of federated profiles onto
// local accounts.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "users"),
	}
}

// Register creates an account with a fresh random salt and a keyed hash of
// the password. The plaintext never reaches a repository.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrorDuplicateEmail
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	salt := cryptox.NewSalt()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Role:         models.RoleUser,
		Salt:         salt,
		PasswordHash: cryptox.HashPassword(password, salt),
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the presented credentials. Unknown email and wrong password
// fail with the same error so account existence is not leaked.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, err
	}

	// Federated-only accounts carry no credential.
	if !user.HasPassword() {
		return nil, common.ErrorInvalidCredentials
	}

	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	return user, nil
}

// FederatedLogin maps a verified external profile to a local user, creating
// the account on first login. The account has no password credential.
func (s *UserService) FederatedLogin(ctx context.Context, profile FederatedProfile) (*models.User, error) {

	if profile.Email == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(profile.Name)
	if username == "" {
		username = profile.Email
	}

	user = &models.User{
		ID:              uuid.NewString(),
		Username:        username,
		Email:           profile.Email,
		Role:            models.RoleUser,
		ProfileImageURL: profile.Picture,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		// Two first logins racing: the loser re-reads the winner's row.
		if errors.Is(err, common.ErrorDuplicateEmail) {
			return repo.GetByEmail(ctx, profile.Email)
		}
		return nil, err
	}

	s.logger.Info(ctx, "federated user created", "user_id", user.ID, "subject", profile.Subject)
	return user, nil
}

// GetByID loads the live user record for a resolved token claim.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfile applies the non-empty fields to the user's profile. Changing
// the email re-checks uniqueness.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, username, email, profileImageURL string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	updated := *user
	if username = strings.TrimSpace(username); username != "" {
		updated.Username = username
	}
	if email = strings.TrimSpace(email); email != "" && email != user.Email {
		existing, err := repo.GetByEmail(ctx, email)
		if err == nil && existing.ID != user.ID {
			return nil, common.ErrorDuplicateEmail
		}
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		updated.Email = email
	}
	if profileImageURL != "" {
		updated.ProfileImageURL = profileImageURL
	}

	if err := repo.UpdateProfile(ctx, updated.ID, updated.Username, updated.Email, updated.ProfileImageURL); err != nil {
		return nil, err
	}

	return &updated, nil
}
