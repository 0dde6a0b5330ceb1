package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atikhonov/helpdesk/internal/models"
)

const ticketColumns = `id, category, description, department, status, created_at,
		COALESCE(created_by, ''), contact_name, contact_dept, attachment, deleted`

// PostgresTicketRepository implements ticket persistence against PostgreSQL.
type PostgresTicketRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository using
// the provided *sql.DB.
func NewPostgresTicketRepository(db *sql.DB) *PostgresTicketRepository {
	return &PostgresTicketRepository{DB: db}
}

func scanTickets(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Category, &t.Description, &t.Department, &t.Status,
			&t.CreatedAt, &t.CreatedBy, &t.ContactName, &t.ContactDept, &t.Attachment, &t.Deleted); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ListAll fetches every live ticket, oldest first.
func (r *PostgresTicketRepository) ListAll(ctx context.Context) ([]models.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE deleted = false ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListByCreator fetches the live tickets created by the given user, oldest
// first.
func (r *PostgresTicketRepository) ListByCreator(ctx context.Context, userID string) ([]models.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE deleted = false AND created_by = $1 ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByCreator: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// Create inserts a new ticket. An empty CreatedBy is stored as NULL so the
// foreign key does not fire for anonymous submissions.
func (r *PostgresTicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	var createdBy any
	if t.CreatedBy != "" {
		createdBy = t.CreatedBy
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO tickets (id, category, description, department, status, created_by,
			contact_name, contact_dept, attachment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, t.ID, t.Category, t.Description, t.Department, t.Status, createdBy,
		t.ContactName, t.ContactDept, t.Attachment).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of one ticket and returns the updated row.
// Applying the same status twice is a no-op that still succeeds. A missing
// ticket maps to models.ErrNotFound.
func (r *PostgresTicketRepository) UpdateStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error) {
	var t models.Ticket
	err := r.DB.QueryRowContext(ctx, `
		UPDATE tickets SET status = $2 WHERE id = $1 AND deleted = false
		RETURNING `+ticketColumns+`
	`, id, status).Scan(&t.ID, &t.Category, &t.Description, &t.Department, &t.Status,
		&t.CreatedAt, &t.CreatedBy, &t.ContactName, &t.ContactDept, &t.Attachment, &t.Deleted)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return &t, nil
}

// SoftDelete marks a ticket deleted. The cleaner purges old tombstones
// later. A missing ticket maps to models.ErrNotFound.
func (r *PostgresTicketRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE tickets SET deleted = true, deleted_at = $2 WHERE id = $1 AND deleted = false
	`, id, time.Now())
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
