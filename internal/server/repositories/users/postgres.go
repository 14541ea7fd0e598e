package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blogify-app/blogify/internal/common"
	"github.com/blogify-app/blogify/internal/dbx"
	"github.com/blogify-app/blogify/internal/server/models"
)

// pgUniqueViolation is the Postgres error code for a unique constraint hit.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// dbErr marks a driver failure as a transient store problem. Callers must
// never read it as "row absent"; that case is common.ErrorNotFound.
func dbErr(err error) error {
	return fmt.Errorf("%w: db error: %v", common.ErrorStoreUnavailable, err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, email, role, salt, password_hash, profile_image_url)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.Role, user.Salt, user.PasswordHash, user.ProfileImageURL).
		Scan(&user.CreatedAt)

	if err != nil {
		// The email unique constraint is the authoritative duplicate check;
		// the service-level lookup only catches the common case early.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorDuplicateEmail
		}
		return nil, dbErr(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, email, role, salt, password_hash, profile_image_url, created_at
		 FROM users
		 WHERE id = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, username, email, role, salt, password_hash, profile_image_url, created_at
		 FROM users
		 WHERE email = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, username, email, profileImageURL string) error {
	query :=
		`UPDATE users
		 SET username = $2, email = $3, profile_image_url = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, username, email, profileImageURL)
	if err != nil {
		// Concurrent edits can slip past the service-level duplicate check;
		// the unique constraint is authoritative here too.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrorDuplicateEmail
		}
		return dbErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return dbErr(err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role,
		&user.Salt, &user.PasswordHash, &user.ProfileImageURL, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbErr(err)
	}

	return user, nil
}
