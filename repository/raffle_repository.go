package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"raffler/database"
	"raffler/models"
	"raffler/service"
)

// RaffleRepository implements the service.RaffleRepository interface
type RaffleRepository struct {
	q queryable
}

// NewRaffleRepository creates a new raffle repository
func NewRaffleRepository(db *database.DB) *RaffleRepository {
	return &RaffleRepository{q: db.Pool}
}

// newRaffleRepositoryWithTx creates a new raffle repository with a transaction
func newRaffleRepositoryWithTx(tx queryable) *RaffleRepository {
	return &RaffleRepository{q: tx}
}

const raffleColumns = `
	id, title, description, ticket_price, total_tickets, sold_tickets,
	status, draw_date, lottery_date,
	winner_owner_id, winner_ticket_number, winner_lottery_result, winner_resolved_at,
	created_by, created_at, updated_at
`

func scanRaffle(row pgx.Row) (*models.Raffle, error) {
	var raffle models.Raffle
	err := row.Scan(
		&raffle.ID,
		&raffle.Title,
		&raffle.Description,
		&raffle.TicketPrice,
		&raffle.TotalTickets,
		&raffle.SoldTickets,
		&raffle.Status,
		&raffle.DrawDate,
		&raffle.LotteryDate,
		&raffle.WinnerOwnerID,
		&raffle.WinnerTicketNumber,
		&raffle.WinnerLotteryResult,
		&raffle.WinnerResolvedAt,
		&raffle.CreatedBy,
		&raffle.CreatedAt,
		&raffle.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &raffle, nil
}

// Create inserts a new raffle
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	query := `
		INSERT INTO raffles (id, title, description, ticket_price, total_tickets,
			status, draw_date, lottery_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		raffle.ID, raffle.Title, raffle.Description, raffle.TicketPrice,
		raffle.TotalTickets, raffle.Status, raffle.DrawDate, raffle.LotteryDate,
		raffle.CreatedBy,
	).Scan(&raffle.CreatedAt, &raffle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create raffle %s: %w", raffle.ID, err)
	}

	return nil
}

// GetByID retrieves a raffle by its ID
func (r *RaffleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1`

	raffle, err := scanRaffle(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle %s: %w", id, err)
	}

	return raffle, nil
}

// List returns raffles, optionally filtered by status, newest first
func (r *RaffleRepository) List(ctx context.Context, status *models.RaffleStatus) ([]*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}
	defer rows.Close()

	var raffles []*models.Raffle
	for rows.Next() {
		raffle, err := scanRaffle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle: %w", err)
		}
		raffles = append(raffles, raffle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raffles: %w", err)
	}

	return raffles, nil
}

// ReserveCapacity increments sold_tickets only while the raffle can sell:
// active, before the draw date, and with room for quantity more tickets. The
// guard and the increment are one UPDATE, and the row lock it takes holds
// until the transaction ends, so concurrent reservations on the same raffle
// serialize here and can never oversell.
func (r *RaffleRepository) ReserveCapacity(ctx context.Context, raffleID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", service.ErrValidation)
	}

	query := `
		UPDATE raffles
		SET sold_tickets = sold_tickets + $2, updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND draw_date > NOW()
		  AND sold_tickets + $2 <= total_tickets
	`

	result, err := r.q.Exec(ctx, query, raffleID, quantity)
	if err != nil {
		return fmt.Errorf("failed to reserve capacity for raffle %s: %w", raffleID, err)
	}

	if result.RowsAffected() == 0 {
		// Re-read to tell the caller why the guard rejected the increment
		raffle, err := r.GetByID(ctx, raffleID)
		if err != nil {
			return fmt.Errorf("failed to check raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("%w: raffle %s", service.ErrNotFound, raffleID)
		}
		if raffle.Status != models.RaffleStatusActive || !raffle.DrawDate.After(time.Now()) {
			return fmt.Errorf("%w: raffle is not open for sales", service.ErrInvalidState)
		}
		return fmt.Errorf("%w: %d tickets available, %d requested",
			service.ErrCapacityExceeded, raffle.AvailableTickets(), quantity)
	}

	return nil
}

// ReleaseCapacity decrements sold_tickets, never below zero
func (r *RaffleRepository) ReleaseCapacity(ctx context.Context, raffleID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", service.ErrValidation)
	}

	query := `
		UPDATE raffles
		SET sold_tickets = sold_tickets - $2, updated_at = NOW()
		WHERE id = $1 AND sold_tickets >= $2
	`

	result, err := r.q.Exec(ctx, query, raffleID, quantity)
	if err != nil {
		return fmt.Errorf("failed to release capacity for raffle %s: %w", raffleID, err)
	}

	if result.RowsAffected() == 0 {
		raffle, err := r.GetByID(ctx, raffleID)
		if err != nil {
			return fmt.Errorf("failed to check raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("%w: raffle %s", service.ErrNotFound, raffleID)
		}
		return fmt.Errorf("%w: cannot release %d of %d sold tickets",
			service.ErrInvalidState, quantity, raffle.SoldTickets)
	}

	return nil
}

// Transition performs a compare-and-set on the raffle status
func (r *RaffleRepository) Transition(ctx context.Context, raffleID uuid.UUID, fromStatuses []models.RaffleStatus, to models.RaffleStatus) (*models.Raffle, error) {
	from := make([]string, len(fromStatuses))
	for i, s := range fromStatuses {
		from[i] = string(s)
	}

	query := `
		UPDATE raffles
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + raffleColumns

	raffle, err := scanRaffle(r.q.QueryRow(ctx, query, raffleID, to, from))
	if err == pgx.ErrNoRows {
		current, getErr := r.GetByID(ctx, raffleID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to check raffle: %w", getErr)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: raffle %s", service.ErrNotFound, raffleID)
		}
		return nil, fmt.Errorf("%w: cannot move %s raffle to %s", service.ErrInvalidState, current.Status, to)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition raffle %s: %w", raffleID, err)
	}

	return raffle, nil
}

// SetWinner completes a raffle in a single compare-and-set: the raffle must
// still be active with resolution never run. The winner fields are therefore
// write-once; racing resolvers observe ErrAlreadyResolved.
func (r *RaffleRepository) SetWinner(ctx context.Context, raffleID uuid.UUID, winnerOwnerID *uuid.UUID, winningNumber *string, lotteryResult string, resolvedAt time.Time) error {
	query := `
		UPDATE raffles
		SET status = 'completed',
		    winner_owner_id = $2,
		    winner_ticket_number = $3,
		    winner_lottery_result = $4,
		    winner_resolved_at = $5,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND winner_resolved_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, raffleID, winnerOwnerID, winningNumber, lotteryResult, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to set winner for raffle %s: %w", raffleID, err)
	}

	if result.RowsAffected() == 0 {
		raffle, err := r.GetByID(ctx, raffleID)
		if err != nil {
			return fmt.Errorf("failed to check raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("%w: raffle %s", service.ErrNotFound, raffleID)
		}
		if raffle.IsResolved() {
			return fmt.Errorf("%w: raffle %s", service.ErrAlreadyResolved, raffleID)
		}
		return fmt.Errorf("%w: raffle is %s, not active", service.ErrInvalidState, raffle.Status)
	}

	return nil
}

// GetDueForResolution returns active raffles whose lottery date has passed
// and whose resolution has not run
func (r *RaffleRepository) GetDueForResolution(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + `
		FROM raffles
		WHERE status = 'active'
		  AND lottery_date <= $1
		  AND winner_resolved_at IS NULL
		ORDER BY lottery_date
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due raffles: %w", err)
	}
	defer rows.Close()

	var raffles []*models.Raffle
	for rows.Next() {
		raffle, err := scanRaffle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle: %w", err)
		}
		raffles = append(raffles, raffle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raffles: %w", err)
	}

	return raffles, nil
}
