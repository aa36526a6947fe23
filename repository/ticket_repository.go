package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"raffler/database"
	"raffler/models"
	"raffler/service"
)

// TicketRepository implements the service.TicketRepository interface
type TicketRepository struct {
	q queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepositoryWithTx creates a new ticket repository with a transaction
func newTicketRepositoryWithTx(tx queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

const ticketColumns = `
	id, ticket_number, raffle_id, owner_id, purchase_price,
	payment_status, payment_method, payment_id, is_winner,
	purchased_at, created_at, updated_at
`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var ticket models.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.RaffleID,
		&ticket.OwnerID,
		&ticket.PurchasePrice,
		&ticket.PaymentStatus,
		&ticket.PaymentMethod,
		&ticket.PaymentID,
		&ticket.IsWinner,
		&ticket.PurchasedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) scanTickets(rows pgx.Rows) ([]*models.Ticket, error) {
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// CreateBatch inserts all tickets. The unique constraint on
// (raffle_id, ticket_number) backs up the in-transaction number generation;
// a violation here means a bug, not a race, because reservations on one
// raffle serialize on its row lock.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*models.Ticket) error {
	query := `
		INSERT INTO tickets (id, ticket_number, raffle_id, owner_id, purchase_price,
			payment_status, payment_method, payment_id, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	for _, ticket := range tickets {
		err := r.q.QueryRow(ctx, query,
			ticket.ID, ticket.TicketNumber, ticket.RaffleID, ticket.OwnerID,
			ticket.PurchasePrice, ticket.PaymentStatus, ticket.PaymentMethod,
			ticket.PaymentID, ticket.PurchasedAt,
		).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create ticket %s: %w", ticket.TicketNumber, err)
		}
	}

	return nil
}

// GetByID retrieves a ticket by its ID
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}

	return ticket, nil
}

// GetByIDs retrieves all tickets matching the given IDs
func (r *TicketRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1)`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}

	return r.scanTickets(rows)
}

// GetUsedNumbers returns every ticket number assigned in a raffle, regardless
// of payment status. Failed tickets keep their numbers retired.
func (r *TicketRepository) GetUsedNumbers(ctx context.Context, raffleID uuid.UUID) (map[string]struct{}, error) {
	query := `SELECT ticket_number FROM tickets WHERE raffle_id = $1`

	rows, err := r.q.Query(ctx, query, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get used numbers: %w", err)
	}
	defer rows.Close()

	used := make(map[string]struct{})
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("failed to scan ticket number: %w", err)
		}
		used[number] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket numbers: %w", err)
	}

	return used, nil
}

// GetByRaffleAndStatus returns a raffle's tickets in one payment status,
// ordered by ticket number
func (r *TicketRepository) GetByRaffleAndStatus(ctx context.Context, raffleID uuid.UUID, status models.PaymentStatus) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE raffle_id = $1 AND payment_status = $2
		ORDER BY ticket_number
	`

	rows, err := r.q.Query(ctx, query, raffleID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for raffle %s: %w", raffleID, err)
	}

	return r.scanTickets(rows)
}

// GetByNumber retrieves a ticket by raffle and number
func (r *TicketRepository) GetByNumber(ctx context.Context, raffleID uuid.UUID, ticketNumber string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE raffle_id = $1 AND ticket_number = $2`

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, raffleID, ticketNumber))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %s: %w", ticketNumber, err)
	}

	return ticket, nil
}

// GetByOwner returns an owner's tickets, newest first
func (r *TicketRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE owner_id = $1
		ORDER BY purchased_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for owner %s: %w", ownerID, err)
	}

	return r.scanTickets(rows)
}

// UpdatePaymentStatus moves tickets from pending to the target status. The
// pending guard makes payment reconciliation idempotent: a retried
// confirmation matches zero rows instead of re-applying.
func (r *TicketRepository) UpdatePaymentStatus(ctx context.Context, ids []uuid.UUID, to models.PaymentStatus, paymentID string) (int64, error) {
	query := `
		UPDATE tickets
		SET payment_status = $2, payment_id = $3, updated_at = NOW()
		WHERE id = ANY($1) AND payment_status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, ids, to, paymentID)
	if err != nil {
		return 0, fmt.Errorf("failed to update payment status: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkWinner flags a completed ticket as the raffle winner
func (r *TicketRepository) MarkWinner(ctx context.Context, ticketID uuid.UUID) error {
	query := `
		UPDATE tickets
		SET is_winner = TRUE, updated_at = NOW()
		WHERE id = $1 AND payment_status = 'completed'
	`

	result, err := r.q.Exec(ctx, query, ticketID)
	if err != nil {
		return fmt.Errorf("failed to mark winning ticket %s: %w", ticketID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: ticket %s is not a completed ticket", service.ErrInvalidState, ticketID)
	}

	return nil
}

// GetStatsByRaffle aggregates ticket counts and revenue per payment status
func (r *TicketRepository) GetStatsByRaffle(ctx context.Context, raffleID uuid.UUID) ([]*models.TicketStats, error) {
	query := `
		SELECT payment_status, COUNT(*), COALESCE(SUM(purchase_price), 0)
		FROM tickets
		WHERE raffle_id = $1
		GROUP BY payment_status
		ORDER BY payment_status
	`

	rows, err := r.q.Query(ctx, query, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for raffle %s: %w", raffleID, err)
	}
	defer rows.Close()

	var stats []*models.TicketStats
	for rows.Next() {
		var s models.TicketStats
		if err := rows.Scan(&s.PaymentStatus, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan ticket stats: %w", err)
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket stats: %w", err)
	}

	return stats, nil
}
