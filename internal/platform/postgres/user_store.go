package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

const userColumns = `id, email, name, hashed_password,
	refresh_token_fingerprint, refresh_token_expires_at,
	failed_login_attempts, last_failed_login_at, locked_until,
	created_at, updated_at`

// scanUser reads one user row into a domain.User.
func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.HashedPassword,
		&user.RefreshTokenFingerprint, &user.RefreshTokenExpiresAt,
		&user.FailedLoginAttempts, &user.LastFailedLoginAt, &user.LockedUntil,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &user, nil
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	if user.HashedPassword == "" {
		return fmt.Errorf("%w: user has no hashed password", store.ErrInvalidEntity)
	}

	query := `INSERT INTO users (id, email, name, hashed_password, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.HashedPassword,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
}

// GetByRefreshFingerprint implements store.UserStore.GetByRefreshFingerprint
func (s *PostgresUserStore) GetByRefreshFingerprint(
	ctx context.Context,
	fingerprint string,
) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE refresh_token_fingerprint = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, fingerprint))
}

// UpdateRefreshState implements store.UserStore.UpdateRefreshState.
// The fingerprint and expiry are replaced in a single statement, so rotation
// is atomic: no reader can ever observe the new fingerprint with the old
// expiry or vice versa.
func (s *PostgresUserStore) UpdateRefreshState(
	ctx context.Context,
	userID uuid.UUID,
	fingerprint *string,
	expiresAt *time.Time,
) error {
	query := `UPDATE users
			  SET refresh_token_fingerprint = $2,
				  refresh_token_expires_at = $3,
				  updated_at = NOW()
			  WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, userID, fingerprint, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update refresh state: %w", err)
	}

	return requireRowAffected(result, store.ErrUserNotFound)
}

// UpdateLockoutState implements store.UserStore.UpdateLockoutState.
// Updating by email with no row-count check keeps unknown addresses
// indistinguishable from known ones at this boundary.
func (s *PostgresUserStore) UpdateLockoutState(
	ctx context.Context,
	email string,
	attempts int,
	lastFailedAt time.Time,
	lockedUntil *time.Time,
) error {
	query := `UPDATE users
			  SET failed_login_attempts = $2,
				  last_failed_login_at = $3,
				  locked_until = $4,
				  updated_at = NOW()
			  WHERE email = $1`

	_, err := s.db.ExecContext(ctx, query, domain.NormalizeEmail(email), attempts, lastFailedAt, lockedUntil)
	if err != nil {
		return fmt.Errorf("failed to update lockout state: %w", err)
	}

	return nil
}

// ResetLockoutState implements store.UserStore.ResetLockoutState
func (s *PostgresUserStore) ResetLockoutState(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users
			  SET failed_login_attempts = 0,
				  last_failed_login_at = NULL,
				  locked_until = NULL,
				  updated_at = NOW()
			  WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to reset lockout state: %w", err)
	}

	return requireRowAffected(result, store.ErrUserNotFound)
}

// requireRowAffected maps a zero-row update to the given not-found error.
func requireRowAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected row count: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
