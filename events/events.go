package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"raffler/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTicketsReserved    EventType = "tickets_reserved"
	EventTypePaymentConfirmed   EventType = "payment_confirmed"
	EventTypePaymentFailed      EventType = "payment_failed"
	EventTypeRaffleStatusChange EventType = "raffle_status_change"
	EventTypeWinnerDetermined   EventType = "winner_determined"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TicketsReservedEvent represents a successful ticket reservation
type TicketsReservedEvent struct {
	RaffleID      uuid.UUID
	OwnerID       uuid.UUID
	TicketNumbers []string
	Quantity      int
}

func (e TicketsReservedEvent) Type() EventType {
	return EventTypeTicketsReserved
}

// PaymentConfirmedEvent represents tickets whose payment completed
type PaymentConfirmedEvent struct {
	RaffleID      uuid.UUID
	OwnerID       uuid.UUID
	TicketNumbers []string
	PaymentID     string
}

func (e PaymentConfirmedEvent) Type() EventType {
	return EventTypePaymentConfirmed
}

// PaymentFailedEvent represents tickets whose payment failed and whose
// capacity was released back to the raffle
type PaymentFailedEvent struct {
	RaffleID         uuid.UUID
	OwnerID          uuid.UUID
	TicketNumbers    []string
	PaymentID        string
	ReleasedCapacity int
}

func (e PaymentFailedEvent) Type() EventType {
	return EventTypePaymentFailed
}

// RaffleStatusChangeEvent represents a raffle status transition
type RaffleStatusChangeEvent struct {
	RaffleID  uuid.UUID
	OldStatus models.RaffleStatus
	NewStatus models.RaffleStatus
}

func (e RaffleStatusChangeEvent) Type() EventType {
	return EventTypeRaffleStatusChange
}

// WinnerDeterminedEvent represents a resolved raffle. WinnerOwnerID is nil
// when the draw matched no sold ticket.
type WinnerDeterminedEvent struct {
	RaffleID      uuid.UUID
	WinnerOwnerID *uuid.UUID
	WinningNumber string
	MatchType     models.MatchType
	LotteryResult string
	ResolvedAt    time.Time
}

func (e WinnerDeterminedEvent) Type() EventType {
	return EventTypeWinnerDetermined
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously; a failing or panicking handler never affects the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful DB commit.
// Events are emitted on a background context so they outlive the
// transaction's request context.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
