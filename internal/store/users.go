package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

// execQueryer is satisfied by *sql.DB and *sql.Tx.
type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func CreateUser(ctx context.Context, db execQueryer, email, name string) (*models.User, error) {
	user := &models.User{}

	query := `
		INSERT INTO users (email, name, created_at, updated_at, version)
		VALUES ($1, $2, NOW(), NOW(), 1)
		RETURNING id, email, name, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, email, name).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUserByEmail(ctx context.Context, db execQueryer, email string) (*models.User, error) {
	user := &models.User{}

	query := `
		SELECT id, email, name, created_at, updated_at, version
		FROM users
		WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func GrantAdmin(ctx context.Context, db execQueryer, userID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO admins (user_id, created_at) VALUES ($1, NOW())
		 ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}

// IsAdmin asks the database's is_admin function; it is the single source of privilege.
func IsAdmin(ctx context.Context, db *sql.DB, userID int64) (bool, error) {
	var admin bool
	if err := db.QueryRowContext(ctx, `SELECT is_admin($1)`, userID).Scan(&admin); err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return admin, nil
}

func CreateSession(ctx context.Context, db execQueryer, userID int64, ttl time.Duration) (*models.Session, error) {
	session := &models.Session{Token: uuid.NewString(), UserID: userID}

	err := db.QueryRowContext(ctx,
		`WITH s AS (
		     INSERT INTO sessions (token, user_id, created_at, expires_at)
		     VALUES ($1, $2, NOW(), NOW() + $3 * INTERVAL '1 second')
		     RETURNING user_id, expires_at
		 )
		 SELECT u.email, s.expires_at FROM s JOIN users u ON u.id = s.user_id`,
		session.Token, userID, int64(ttl/time.Second)).Scan(&session.Email, &session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

// GetSession resolves an unexpired session token.
func GetSession(ctx context.Context, db *sql.DB, token string) (*models.Session, error) {
	session := &models.Session{Token: token}

	err := db.QueryRowContext(ctx,
		`SELECT s.user_id, u.email, s.expires_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1 AND s.expires_at > NOW()`,
		token).Scan(&session.UserID, &session.Email, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

// BootstrapSession finds or creates the user for email, optionally grants admin,
// and issues a session, all in one transaction. A concurrent bootstrap that
// creates the same user first makes this one start over and find it.
func BootstrapSession(ctx context.Context, db *sql.DB, email, name string, admin bool, ttl time.Duration) (*models.Session, error) {
	const maxAttempts = 2

	var (
		session *models.Session
		err     error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		session, err = bootstrapSession(ctx, db, email, name, admin, ttl)
		if err == nil || !database.IsUniqueViolation(err) {
			break
		}
	}
	return session, err
}

func bootstrapSession(ctx context.Context, db *sql.DB, email, name string, admin bool, ttl time.Duration) (*models.Session, error) {
	var session *models.Session

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		user, err := GetUserByEmail(ctx, tx, email)
		if errors.Is(err, database.ErrUserNotFound) {
			user, err = CreateUser(ctx, tx, email, name)
		}
		if err != nil {
			return err
		}

		if admin {
			if err := GrantAdmin(ctx, tx, user.ID); err != nil {
				return err
			}
		}

		session, err = CreateSession(ctx, tx, user.ID, ttl)
		return err
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}
