package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"raffler/events"
	"raffler/models"
)

// RaffleRepository defines the interface for raffle data access
type RaffleRepository interface {
	// Create inserts a new raffle in draft status
	Create(ctx context.Context, raffle *models.Raffle) error

	// GetByID retrieves a raffle by ID, or nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error)

	// List returns raffles, optionally filtered by status
	List(ctx context.Context, status *models.RaffleStatus) ([]*models.Raffle, error)

	// ReserveCapacity atomically increments sold_tickets by quantity, guarded by
	// the raffle being sellable and quantity fitting the remaining capacity.
	// The raffle row stays locked until the transaction ends, serializing all
	// reservations for that raffle. Fails with ErrNotFound, ErrInvalidState or
	// ErrCapacityExceeded.
	ReserveCapacity(ctx context.Context, raffleID uuid.UUID, quantity int) error

	// ReleaseCapacity atomically decrements sold_tickets by quantity, never
	// below zero. Fails with ErrInvalidState if it would go negative.
	ReleaseCapacity(ctx context.Context, raffleID uuid.UUID, quantity int) error

	// Transition performs a compare-and-set on the raffle status. Fails with
	// ErrInvalidState if the current status is not in fromStatuses.
	Transition(ctx context.Context, raffleID uuid.UUID, fromStatuses []models.RaffleStatus, to models.RaffleStatus) (*models.Raffle, error)

	// SetWinner completes the raffle in one shot: status active -> completed
	// plus the write-once winner fields. winnerOwnerID and winningNumber are
	// nil when the draw matched no sold ticket; the lottery result is recorded
	// either way. Fails with ErrAlreadyResolved if resolution already ran.
	SetWinner(ctx context.Context, raffleID uuid.UUID, winnerOwnerID *uuid.UUID, winningNumber *string, lotteryResult string, resolvedAt time.Time) error

	// GetDueForResolution returns active raffles whose lottery date has passed
	// and whose winner is still unset
	GetDueForResolution(ctx context.Context, now time.Time) ([]*models.Raffle, error)
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// CreateBatch inserts all tickets, or none
	CreateBatch(ctx context.Context, tickets []*models.Ticket) error

	// GetByID retrieves a ticket by ID, or nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)

	// GetByIDs retrieves all tickets matching the given IDs
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Ticket, error)

	// GetUsedNumbers returns every ticket number already assigned in a raffle,
	// regardless of payment status (failed tickets retire their numbers)
	GetUsedNumbers(ctx context.Context, raffleID uuid.UUID) (map[string]struct{}, error)

	// GetByRaffleAndStatus returns a raffle's tickets in one payment status,
	// ordered by ticket number
	GetByRaffleAndStatus(ctx context.Context, raffleID uuid.UUID, status models.PaymentStatus) ([]*models.Ticket, error)

	// GetByNumber retrieves a ticket by raffle and number, or nil
	GetByNumber(ctx context.Context, raffleID uuid.UUID, ticketNumber string) (*models.Ticket, error)

	// GetByOwner returns an owner's tickets, newest first
	GetByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Ticket, error)

	// UpdatePaymentStatus moves the given tickets from pending to the target
	// status, recording the payment ID. Returns how many rows changed; tickets
	// no longer pending are left untouched.
	UpdatePaymentStatus(ctx context.Context, ids []uuid.UUID, to models.PaymentStatus, paymentID string) (int64, error)

	// MarkWinner flags a completed ticket as the raffle winner
	MarkWinner(ctx context.Context, ticketID uuid.UUID) error

	// GetStatsByRaffle aggregates ticket counts and revenue per payment status
	GetStatsByRaffle(ctx context.Context, raffleID uuid.UUID) ([]*models.TicketStats, error)
}

// RaffleService defines the interface for raffle lifecycle operations
type RaffleService interface {
	// CreateRaffle creates a raffle in draft status
	CreateRaffle(ctx context.Context, raffle *models.Raffle) (*models.Raffle, error)

	// GetRaffle retrieves a raffle by ID
	GetRaffle(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error)

	// ListRaffles returns raffles, optionally filtered by status
	ListRaffles(ctx context.Context, status *models.RaffleStatus) ([]*models.Raffle, error)

	// TransitionRaffle moves a raffle between draft/active/paused/cancelled.
	// Completion is reserved for winner resolution.
	TransitionRaffle(ctx context.Context, raffleID uuid.UUID, to models.RaffleStatus) (*models.Raffle, error)
}

// TicketService defines the interface for ticket allocation and verification
type TicketService interface {
	// ReserveTickets reserves quantity tickets (1-10) in one atomic unit:
	// capacity increment, number assignment and ticket creation all succeed
	// or none do
	ReserveTickets(ctx context.Context, raffleID, ownerID uuid.UUID, quantity int, method models.PaymentMethod) (*models.ReservationResult, error)

	// VerifyTicket checks a ticket number and verification code against a
	// raffle. Only completed tickets verify. The returned ticket is nil when
	// verification fails.
	VerifyTicket(ctx context.Context, raffleID uuid.UUID, ticketNumber, verificationCode string) (*models.Ticket, bool, error)

	// GetOwnerTickets returns an owner's tickets, newest first
	GetOwnerTickets(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Ticket, error)

	// GetRaffleStats aggregates a raffle's ticket counts and revenue per status
	GetRaffleStats(ctx context.Context, raffleID uuid.UUID) ([]*models.TicketStats, error)
}

// PaymentService defines the interface for reconciling payment outcomes
type PaymentService interface {
	// ConfirmPayment transitions pending tickets to completed or failed and,
	// on failure, releases their capacity. All tickets must exist, belong to
	// ownerID, be pending, and belong to one raffle. Idempotent: a retry fails
	// with ErrAlreadyProcessed and never double-adjusts capacity.
	ConfirmPayment(ctx context.Context, ticketIDs []uuid.UUID, ownerID uuid.UUID, paymentID string, outcome models.PaymentStatus) ([]*models.Ticket, error)
}

// WinnerService defines the interface for lottery-based winner resolution
type WinnerService interface {
	// DetermineWinner resolves a raffle using the external lottery feed keyed
	// by the raffle's lottery date
	DetermineWinner(ctx context.Context, raffleID uuid.UUID) (*models.WinnerOutcome, error)

	// DetermineWinnerManual resolves a raffle using an operator-supplied
	// lottery result, validated against the raffle's lottery date
	DetermineWinnerManual(ctx context.Context, raffleID uuid.UUID, lotteryResult string) (*models.WinnerOutcome, error)

	// GetWinner returns the resolved raffle and winning ticket for a
	// completed raffle
	GetWinner(ctx context.Context, raffleID uuid.UUID) (*models.WinnerOutcome, error)
}

// LotteryFeed defines the interface for the external lottery results provider
type LotteryFeed interface {
	// GetResult fetches the draw result for a date. Fails with
	// ErrLotteryUnavailable when the upstream cannot be reached.
	GetResult(ctx context.Context, date time.Time) (*models.LotteryResult, error)
}

// NumberGenerator defines the interface for drawing ticket numbers against a
// used-number set. The random source is injectable so tests can force
// collisions and exercise the deterministic fallback.
type NumberGenerator interface {
	// Generate returns a 5-digit zero-padded number not present in used.
	// Fails with ErrNumberSpaceExhausted when the whole space is occupied.
	Generate(used map[string]struct{}) (string, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	RaffleRepository() RaffleRepository
	TicketRepository() TicketRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
