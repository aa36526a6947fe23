package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"raffler/events"
	"raffler/models"
)

type paymentService struct {
	uowFactory UnitOfWorkFactory
}

// NewPaymentService creates a new payment reconciliation service
func NewPaymentService(uowFactory UnitOfWorkFactory) PaymentService {
	return &paymentService{
		uowFactory: uowFactory,
	}
}

// ConfirmPayment applies a payment outcome to a batch of pending tickets.
// The status updates and, on failure, the capacity release happen in one
// transaction: no observer ever sees failed tickets with capacity still
// consumed. A retry of an already-applied confirmation fails with
// ErrAlreadyProcessed before any state changes.
func (s *paymentService) ConfirmPayment(ctx context.Context, ticketIDs []uuid.UUID, ownerID uuid.UUID, paymentID string, outcome models.PaymentStatus) ([]*models.Ticket, error) {
	if len(ticketIDs) == 0 {
		return nil, fmt.Errorf("%w: no ticket IDs given", ErrValidation)
	}
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment ID is required", ErrValidation)
	}
	if outcome != models.PaymentStatusCompleted && outcome != models.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: outcome must be completed or failed", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tickets, err := uow.TicketRepository().GetByIDs(ctx, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	if len(tickets) != len(ticketIDs) {
		return nil, fmt.Errorf("%w: %d of %d tickets", ErrNotFound, len(ticketIDs)-len(tickets), len(ticketIDs))
	}

	raffleID := tickets[0].RaffleID
	numbers := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.OwnerID != ownerID {
			return nil, fmt.Errorf("%w: ticket %s belongs to another owner", ErrForbidden, ticket.ID)
		}
		if ticket.PaymentStatus != models.PaymentStatusPending {
			return nil, fmt.Errorf("%w: ticket %s is %s", ErrAlreadyProcessed, ticket.ID, ticket.PaymentStatus)
		}
		if ticket.RaffleID != raffleID {
			return nil, fmt.Errorf("%w: tickets span multiple raffles", ErrValidation)
		}
		numbers = append(numbers, ticket.TicketNumber)
	}

	// Guarded batch update: only rows still pending change. A concurrent
	// confirmation of the same tickets loses the race here.
	updated, err := uow.TicketRepository().UpdatePaymentStatus(ctx, ticketIDs, outcome, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if updated != int64(len(ticketIDs)) {
		return nil, fmt.Errorf("%w: %d of %d tickets were no longer pending", ErrAlreadyProcessed, int64(len(ticketIDs))-updated, len(ticketIDs))
	}

	if outcome == models.PaymentStatusFailed {
		// Failed tickets stop counting against capacity; their numbers stay
		// retired and are never reassigned.
		if err := uow.RaffleRepository().ReleaseCapacity(ctx, raffleID, len(ticketIDs)); err != nil {
			return nil, fmt.Errorf("failed to release capacity: %w", err)
		}
		uow.EventBus().Publish(events.PaymentFailedEvent{
			RaffleID:         raffleID,
			OwnerID:          ownerID,
			TicketNumbers:    numbers,
			PaymentID:        paymentID,
			ReleasedCapacity: len(ticketIDs),
		})
	} else {
		uow.EventBus().Publish(events.PaymentConfirmedEvent{
			RaffleID:      raffleID,
			OwnerID:       ownerID,
			TicketNumbers: numbers,
			PaymentID:     paymentID,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"raffleID":  raffleID,
		"ownerID":   ownerID,
		"paymentID": paymentID,
		"outcome":   outcome,
		"tickets":   len(ticketIDs),
	}).Info("Reconciled payment outcome")

	for _, ticket := range tickets {
		ticket.PaymentStatus = outcome
		id := paymentID
		ticket.PaymentID = &id
	}

	return tickets, nil
}
