package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lessonhub/pkg/models"
)

// TicketRepository handles support ticket persistence
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Ticket, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Ticket, int, error)
	Update(ctx context.Context, ticket *models.Ticket) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new PostgreSQL ticket repository
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
	id, user_id, subject, message, category, status, response, responded_by,
	created_at, updated_at
`

// Create inserts a new ticket
func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (id, user_id, subject, message, category, status,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.Subject,
		ticket.Message,
		ticket.Category,
		string(ticket.Status),
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)

	if err != nil {
		return mapDBError(err, "create_ticket")
	}
	return nil
}

// GetByID retrieves a ticket by id
func (r *ticketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("ticket not found", err)
	}
	if err != nil {
		return nil, mapDBError(err, "get_ticket_by_id")
	}
	return ticket, nil
}

// ListByUser returns the user's own tickets, newest first
func (r *ticketRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Ticket, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, "count_tickets")
	}

	query := `SELECT ` + ticketColumns + `
		FROM tickets WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, mapDBError(err, "list_tickets_by_user")
	}
	defer rows.Close()

	return collectTickets(rows, total)
}

// ListAll returns every ticket, newest first (support/admin view)
func (r *ticketRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Ticket, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, "count_tickets")
	}

	query := `SELECT ` + ticketColumns + `
		FROM tickets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, mapDBError(err, "list_all_tickets")
	}
	defer rows.Close()

	return collectTickets(rows, total)
}

// Update writes response/status changes
func (r *ticketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $2, response = $3, responded_by = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		string(ticket.Status),
		ticket.Response,
		ticket.RespondedBy,
	).Scan(&ticket.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("ticket not found", err)
	}
	if err != nil {
		return mapDBError(err, "update_ticket")
	}
	return nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var statusStr string

	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Subject,
		&ticket.Message,
		&ticket.Category,
		&statusStr,
		&ticket.Response,
		&ticket.RespondedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.Status = models.TicketStatus(statusStr)
	return ticket, nil
}

func collectTickets(rows pgx.Rows, total int) ([]models.Ticket, int, error) {
	var tickets []models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, mapDBError(err, "scan_ticket")
		}
		tickets = append(tickets, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err, "collect_tickets")
	}
	return tickets, total, nil
}
