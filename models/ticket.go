package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of a ticket
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod identifies the payment provider chosen at purchase time
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodSpei   PaymentMethod = "spei"
	PaymentMethodCash   PaymentMethod = "cash"
)

// ValidPaymentMethod reports whether m is a known payment method
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodStripe, PaymentMethodPaypal, PaymentMethodSpei, PaymentMethodCash:
		return true
	}
	return false
}

// Ticket represents one numbered, owned, priced entry in a raffle.
// (TicketNumber, RaffleID) is unique; the number space is 00000-99999
// regardless of the raffle's total ticket count.
type Ticket struct {
	ID            uuid.UUID       `db:"id"`
	TicketNumber  string          `db:"ticket_number"`
	RaffleID      uuid.UUID       `db:"raffle_id"`
	OwnerID       uuid.UUID       `db:"owner_id"`
	PurchasePrice decimal.Decimal `db:"purchase_price"`
	PaymentStatus PaymentStatus   `db:"payment_status"`
	PaymentMethod PaymentMethod   `db:"payment_method"`
	PaymentID     *string         `db:"payment_id"`
	IsWinner      bool            `db:"is_winner"`
	PurchasedAt   time.Time       `db:"purchased_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// IsPaid reports whether the ticket's payment completed
func (t *Ticket) IsPaid() bool {
	return t.PaymentStatus == PaymentStatusCompleted
}

// CountsAgainstCapacity reports whether the ticket consumes raffle capacity.
// Pending tickets hold their reservation; failed tickets have released it.
func (t *Ticket) CountsAgainstCapacity() bool {
	return t.PaymentStatus == PaymentStatusPending || t.PaymentStatus == PaymentStatusCompleted
}

// ReservedTicket pairs a freshly reserved ticket with its verification code,
// which is derived rather than stored.
type ReservedTicket struct {
	Ticket           *Ticket
	VerificationCode string
}

// ReservationResult is the outcome of a successful ticket reservation
type ReservationResult struct {
	Tickets     []*ReservedTicket
	TotalAmount decimal.Decimal
}

// TicketStats aggregates per-status counts and revenue for one raffle
type TicketStats struct {
	PaymentStatus PaymentStatus
	Count         int
	TotalAmount   decimal.Decimal
}
