package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RaffleStatus represents the lifecycle state of a raffle
type RaffleStatus string

const (
	RaffleStatusDraft     RaffleStatus = "draft"
	RaffleStatusActive    RaffleStatus = "active"
	RaffleStatusPaused    RaffleStatus = "paused"
	RaffleStatusCompleted RaffleStatus = "completed"
	RaffleStatusCancelled RaffleStatus = "cancelled"
)

// MaxTicketNumbers is the size of the 5-digit ticket number space (00000-99999)
const MaxTicketNumbers = 100000

// Raffle represents a time-boxed sale of numbered tickets resolved by a lottery draw
type Raffle struct {
	ID           uuid.UUID       `db:"id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	TicketPrice  decimal.Decimal `db:"ticket_price"`
	TotalTickets int             `db:"total_tickets"`
	SoldTickets  int             `db:"sold_tickets"`
	Status       RaffleStatus    `db:"status"`
	DrawDate     time.Time       `db:"draw_date"`
	LotteryDate  time.Time       `db:"lottery_date"`

	// Winner fields are written exactly once, by winner resolution.
	// WinnerLotteryResult is recorded even when no winning ticket was sold.
	WinnerOwnerID       *uuid.UUID `db:"winner_owner_id"`
	WinnerTicketNumber  *string    `db:"winner_ticket_number"`
	WinnerLotteryResult *string    `db:"winner_lottery_result"`
	WinnerResolvedAt    *time.Time `db:"winner_resolved_at"`

	CreatedBy uuid.UUID `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AvailableTickets returns the remaining unsold capacity
func (r *Raffle) AvailableTickets() int {
	return r.TotalTickets - r.SoldTickets
}

// CanSellTickets reports whether tickets may be sold at the given instant
func (r *Raffle) CanSellTickets(now time.Time) bool {
	return r.Status == RaffleStatusActive &&
		r.SoldTickets < r.TotalTickets &&
		now.Before(r.DrawDate)
}

// HasWinner reports whether a winning ticket has been recorded
func (r *Raffle) HasWinner() bool {
	return r.WinnerTicketNumber != nil
}

// IsResolved reports whether winner resolution already ran, with or without a winner
func (r *Raffle) IsResolved() bool {
	return r.WinnerResolvedAt != nil
}

// IsTerminal reports whether the raffle is in an absorbing state
func (r *Raffle) IsTerminal() bool {
	return r.Status == RaffleStatusCompleted || r.Status == RaffleStatusCancelled
}

// transitions holds the allowed raffle status transitions. Completion is only
// reachable through winner resolution, never through the generic transition path.
var transitions = map[RaffleStatus][]RaffleStatus{
	RaffleStatusDraft:  {RaffleStatusActive, RaffleStatusCancelled},
	RaffleStatusActive: {RaffleStatusPaused, RaffleStatusCancelled},
	RaffleStatusPaused: {RaffleStatusActive, RaffleStatusCancelled},
}

// CanTransitionTo reports whether the generic status transition is allowed
func (r *Raffle) CanTransitionTo(to RaffleStatus) bool {
	for _, allowed := range transitions[r.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}
