package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

// ErrSelectionTaken is returned when a conditional selection update matches
// zero rows because the field was already set, typically by a concurrent
// request that won the race.
var ErrSelectionTaken = errors.New("selection already set")

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure,
// optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// UserRepository handles persistence of users and their session tokens.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, program_id, masters_degree_id, specialization_id, program_specialization_id, last_login, created_at, updated_at`

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create persists a new user. Unique violations on email or username bubble
// up for the service layer to map.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, username, password_hash, program_id, masters_degree_id, specialization_id, program_specialization_id, created_at, updated_at)
        VALUES (:id, :email, :username, :password_hash, :program_id, :masters_degree_id, :specialization_id, :program_specialization_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetMastersSelection writes the one-time master's-track selection. The
// UPDATE is guarded by masters_degree_id IS NULL so a concurrent duplicate
// selection loses cleanly instead of overwriting; the loser observes
// ErrSelectionTaken.
func (r *UserRepository) SetMastersSelection(ctx context.Context, userID, mastersDegreeID string, specializationID *string) error {
	const query = `UPDATE users
        SET masters_degree_id = $2, specialization_id = $3, updated_at = $4
        WHERE id = $1 AND masters_degree_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, mastersDegreeID, specializationID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set masters selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set masters selection rows: %w", err)
	}
	if affected == 0 {
		return ErrSelectionTaken
	}
	return nil
}

// SetProgramSpecialization writes the one-time program-specialization
// selection with the same conditional-update guard.
func (r *UserRepository) SetProgramSpecialization(ctx context.Context, userID, specializationID string) error {
	const query = `UPDATE users
        SET program_specialization_id = $2, updated_at = $3
        WHERE id = $1 AND program_specialization_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, specializationID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set program specialization: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set program specialization rows: %w", err)
	}
	if affected == 0 {
		return ErrSelectionTaken
	}
	return nil
}

// UpdateLastLogin stamps the last successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, ip_address, user_agent)
        VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken looks up an unrevoked refresh token by its value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
        FROM refresh_tokens WHERE token = $1 AND revoked = FALSE`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken revokes one token.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every live token for a user. Called after
// a permanent academic selection so stale cached claims cannot outlive it.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CreatePasswordResetToken persists a reset token.
func (r *UserRepository) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	const query = `INSERT INTO password_reset_tokens (id, user_id, token, expires_at, created_at)
        VALUES (:id, :user_id, :token, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create password reset token: %w", err)
	}
	return nil
}

// ConsumePasswordResetToken atomically marks a live token used and returns
// it. Expired or already-used tokens return sql.ErrNoRows.
func (r *UserRepository) ConsumePasswordResetToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	const query = `UPDATE password_reset_tokens SET used_at = $2
        WHERE token = $1 AND used_at IS NULL AND expires_at > $2
        RETURNING id, user_id, token, expires_at, created_at, used_at`
	var prt models.PasswordResetToken
	if err := r.db.GetContext(ctx, &prt, query, token, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("consume password reset token: %w", err)
	}
	return &prt, nil
}
