package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"raffler/events"
	"raffler/models"
)

type raffleService struct {
	uowFactory UnitOfWorkFactory
}

// NewRaffleService creates a new raffle lifecycle service
func NewRaffleService(uowFactory UnitOfWorkFactory) RaffleService {
	return &raffleService{
		uowFactory: uowFactory,
	}
}

// CreateRaffle creates a raffle in draft status
func (s *raffleService) CreateRaffle(ctx context.Context, raffle *models.Raffle) (*models.Raffle, error) {
	if raffle.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if raffle.TicketPrice.IsNegative() {
		return nil, fmt.Errorf("%w: ticket price cannot be negative", ErrValidation)
	}
	if raffle.TotalTickets < 1 || raffle.TotalTickets > models.MaxTicketNumbers {
		return nil, fmt.Errorf("%w: total tickets must be between 1 and %d", ErrValidation, models.MaxTicketNumbers)
	}
	if raffle.DrawDate.IsZero() || raffle.LotteryDate.IsZero() {
		return nil, fmt.Errorf("%w: draw date and lottery date are required", ErrValidation)
	}

	raffle.ID = uuid.New()
	raffle.Status = models.RaffleStatusDraft
	raffle.SoldTickets = 0

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RaffleRepository().Create(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to create raffle: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"raffleID":     raffle.ID,
		"totalTickets": raffle.TotalTickets,
		"lotteryDate":  raffle.LotteryDate,
	}).Info("Created raffle")

	return raffle, nil
}

// GetRaffle retrieves a raffle by ID
func (s *raffleService) GetRaffle(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	raffle, err := uow.RaffleRepository().GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: raffle %s", ErrNotFound, raffleID)
	}

	return raffle, nil
}

// ListRaffles returns raffles, optionally filtered by status
func (s *raffleService) ListRaffles(ctx context.Context, status *models.RaffleStatus) ([]*models.Raffle, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	raffles, err := uow.RaffleRepository().List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}

	return raffles, nil
}

// TransitionRaffle performs an administrative status transition:
// draft -> active, active <-> paused, or any non-terminal status ->
// cancelled. Completion only happens through winner resolution.
func (s *raffleService) TransitionRaffle(ctx context.Context, raffleID uuid.UUID, to models.RaffleStatus) (*models.Raffle, error) {
	var from []models.RaffleStatus
	switch to {
	case models.RaffleStatusActive:
		from = []models.RaffleStatus{models.RaffleStatusDraft, models.RaffleStatusPaused}
	case models.RaffleStatusPaused:
		from = []models.RaffleStatus{models.RaffleStatusActive}
	case models.RaffleStatusCancelled:
		from = []models.RaffleStatus{models.RaffleStatusDraft, models.RaffleStatusActive, models.RaffleStatusPaused}
	default:
		return nil, fmt.Errorf("%w: cannot transition to %s", ErrValidation, to)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	current, err := uow.RaffleRepository().GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: raffle %s", ErrNotFound, raffleID)
	}

	raffle, err := uow.RaffleRepository().Transition(ctx, raffleID, from, to)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.RaffleStatusChangeEvent{
		RaffleID:  raffleID,
		OldStatus: current.Status,
		NewStatus: to,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"raffleID": raffleID,
		"from":     current.Status,
		"to":       to,
	}).Info("Transitioned raffle status")

	return raffle, nil
}
