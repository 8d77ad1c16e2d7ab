package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, displayName, role string) (*models.User, error)
	// GetByEmail returns nil, nil when no user has email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetRole(ctx context.Context, email, role string) (*models.User, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ UserStore = (*Repository)(nil)

const userColumns = `id, email, display_name, role, password_hash, created_at`

// Create inserts a new user and returns it.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName, role string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns, email, passwordHash, displayName, role)
	return scanUser(row)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// SetRole changes a user's role. Returns models.ErrNotFound for unknown emails.
func (r *Repository) SetRole(ctx context.Context, email, role string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET role = $2 WHERE email = $1
		RETURNING `+userColumns, email, role))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
