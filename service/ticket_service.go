package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"raffler/events"
	"raffler/models"
)

// Reservation quantity bounds per purchase request
const (
	minReserveQuantity = 1
	maxReserveQuantity = 10
)

var ticketNumberPattern = regexp.MustCompile(`^\d{5}$`)

type ticketService struct {
	uowFactory UnitOfWorkFactory
	numbers    NumberGenerator
}

// NewTicketService creates a new ticket service
func NewTicketService(uowFactory UnitOfWorkFactory, numbers NumberGenerator) TicketService {
	return &ticketService{
		uowFactory: uowFactory,
		numbers:    numbers,
	}
}

// ReserveTickets reserves quantity tickets against a raffle's capacity and
// assigns them unique numbers. The capacity increment, number assignment and
// ticket creation happen inside one transaction: the guarded capacity update
// locks the raffle row, so number generation never races another reservation
// on the same raffle, and any later failure rolls the increment back.
func (s *ticketService) ReserveTickets(ctx context.Context, raffleID, ownerID uuid.UUID, quantity int, method models.PaymentMethod) (*models.ReservationResult, error) {
	if quantity < minReserveQuantity || quantity > maxReserveQuantity {
		return nil, fmt.Errorf("%w: quantity must be between %d and %d", ErrValidation, minReserveQuantity, maxReserveQuantity)
	}
	if !models.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Consumes capacity and takes the raffle row lock. Re-validates
	// sellability inside the atomic step, so a concurrent cancellation or
	// sell-out is caught here.
	if err := uow.RaffleRepository().ReserveCapacity(ctx, raffleID, quantity); err != nil {
		return nil, err
	}

	raffle, err := uow.RaffleRepository().GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: raffle %s", ErrNotFound, raffleID)
	}

	used, err := uow.TicketRepository().GetUsedNumbers(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load used ticket numbers: %w", err)
	}

	now := time.Now()
	tickets := make([]*models.Ticket, 0, quantity)
	numbers := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		number, err := s.numbers.Generate(used)
		if err != nil {
			return nil, err
		}
		used[number] = struct{}{}
		numbers = append(numbers, number)

		tickets = append(tickets, &models.Ticket{
			ID:            uuid.New(),
			TicketNumber:  number,
			RaffleID:      raffleID,
			OwnerID:       ownerID,
			PurchasePrice: raffle.TicketPrice,
			PaymentStatus: models.PaymentStatusPending,
			PaymentMethod: method,
			PurchasedAt:   now,
		})
	}

	if err := uow.TicketRepository().CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	uow.EventBus().Publish(events.TicketsReservedEvent{
		RaffleID:      raffleID,
		OwnerID:       ownerID,
		TicketNumbers: numbers,
		Quantity:      quantity,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"raffleID": raffleID,
		"ownerID":  ownerID,
		"quantity": quantity,
		"numbers":  numbers,
	}).Info("Reserved tickets")

	reserved := make([]*models.ReservedTicket, len(tickets))
	for i, ticket := range tickets {
		reserved[i] = &models.ReservedTicket{
			Ticket:           ticket,
			VerificationCode: VerificationCode(ticket.ID, ticket.TicketNumber, ticket.RaffleID, ticket.OwnerID),
		}
	}

	return &models.ReservationResult{
		Tickets:     reserved,
		TotalAmount: raffle.TicketPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// VerifyTicket checks a verification code against the ticket stored under
// (raffleID, ticketNumber). Only completed tickets verify; a tampered code
// returns isValid=false with no ticket data.
func (s *ticketService) VerifyTicket(ctx context.Context, raffleID uuid.UUID, ticketNumber, verificationCode string) (*models.Ticket, bool, error) {
	if !ticketNumberPattern.MatchString(ticketNumber) {
		return nil, false, fmt.Errorf("%w: ticket number must be 5 digits", ErrValidation)
	}
	if len(verificationCode) != verificationCodeLength {
		return nil, false, fmt.Errorf("%w: verification code must be %d characters", ErrValidation, verificationCodeLength)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ticket, err := uow.TicketRepository().GetByNumber(ctx, raffleID, ticketNumber)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil || !ticket.IsPaid() {
		return nil, false, nil
	}

	expected := VerificationCode(ticket.ID, ticket.TicketNumber, ticket.RaffleID, ticket.OwnerID)
	if expected != strings.ToUpper(verificationCode) {
		return nil, false, nil
	}

	return ticket, true, nil
}

// GetOwnerTickets returns an owner's tickets, newest first
func (s *ticketService) GetOwnerTickets(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tickets, err := uow.TicketRepository().GetByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner tickets: %w", err)
	}

	return tickets, nil
}

// GetRaffleStats aggregates a raffle's ticket counts and revenue per status
func (s *ticketService) GetRaffleStats(ctx context.Context, raffleID uuid.UUID) ([]*models.TicketStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stats, err := uow.TicketRepository().GetStatsByRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle ticket stats: %w", err)
	}

	return stats, nil
}
