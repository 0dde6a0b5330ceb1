// Package repository provides PostgreSQL persistence for users and tickets.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/atikhonov/helpdesk/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

// PostgresUserRepository implements user persistence against PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the
// given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// Create inserts a new user. A duplicate email maps to
// models.ErrDuplicateEmail.
func (r *PostgresUserRepository) Create(ctx context.Context, p *models.Profile, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Email, p.Name, p.Role, passwordHash)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return models.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user and password hash by email. A missing user is
// not an error: (nil, "", nil) is returned.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, string, error) {
	var p models.Profile
	var hash string
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at FROM users WHERE email = $1
	`, email).Scan(&p.ID, &p.Email, &p.Name, &p.Role, &hash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}
	return &p, hash, nil
}

// GetByID fetches a user by identifier. A missing user returns (nil, nil).
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at FROM users WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.Name, &p.Role, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &p, nil
}

// UpdatePassword replaces the stored hash for the given email. Updating an
// unknown email maps to models.ErrUnknownUser.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE email = $1
	`, email, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrUnknownUser
	}
	return nil
}
