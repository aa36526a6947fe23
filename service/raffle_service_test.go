package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"raffler/models"
)

func TestRaffleService_CreateRaffle(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRaffleRepo.On("Create", ctx, mock.MatchedBy(func(r *models.Raffle) bool {
		return r.Status == models.RaffleStatusDraft && r.SoldTickets == 0 && r.ID != uuid.Nil
	})).Return(nil)

	service := NewRaffleService(mockFactory)
	raffle, err := service.CreateRaffle(ctx, &models.Raffle{
		Title:        "iPhone Raffle",
		TicketPrice:  decimal.NewFromInt(100),
		TotalTickets: 500,
		DrawDate:     time.Now().Add(7 * 24 * time.Hour),
		LotteryDate:  time.Now().Add(8 * 24 * time.Hour),
		CreatedBy:    uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, models.RaffleStatusDraft, raffle.Status)
	mockRaffleRepo.AssertExpectations(t)
}

func TestRaffleService_CreateRaffle_Validation(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewRaffleService(mockFactory)

	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name   string
		raffle *models.Raffle
	}{
		{"missing title", &models.Raffle{TicketPrice: decimal.NewFromInt(10), TotalTickets: 10, DrawDate: future, LotteryDate: future}},
		{"negative price", &models.Raffle{Title: "x", TicketPrice: decimal.NewFromInt(-1), TotalTickets: 10, DrawDate: future, LotteryDate: future}},
		{"zero tickets", &models.Raffle{Title: "x", TicketPrice: decimal.NewFromInt(10), TotalTickets: 0, DrawDate: future, LotteryDate: future}},
		{"too many tickets", &models.Raffle{Title: "x", TicketPrice: decimal.NewFromInt(10), TotalTickets: models.MaxTicketNumbers + 1, DrawDate: future, LotteryDate: future}},
		{"missing dates", &models.Raffle{Title: "x", TicketPrice: decimal.NewFromInt(10), TotalTickets: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateRaffle(ctx, tt.raffle)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	mockFactory.AssertNotCalled(t, "Create")
}

func TestRaffleService_TransitionRaffle(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)
	mockBus := new(MockEventPublisher)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)
	mockUoW.SetEventBus(mockBus)

	raffle := newActiveRaffle()
	raffle.Status = models.RaffleStatusDraft
	activated := *raffle
	activated.Status = models.RaffleStatusActive

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaffleRepo.On("GetByID", ctx, raffle.ID).Return(raffle, nil)
	mockRaffleRepo.On("Transition", ctx, raffle.ID,
		[]models.RaffleStatus{models.RaffleStatusDraft, models.RaffleStatusPaused},
		models.RaffleStatusActive).Return(&activated, nil)
	mockBus.On("Publish", mock.AnythingOfType("events.RaffleStatusChangeEvent")).Return()

	service := NewRaffleService(mockFactory)
	result, err := service.TransitionRaffle(ctx, raffle.ID, models.RaffleStatusActive)

	require.NoError(t, err)
	assert.Equal(t, models.RaffleStatusActive, result.Status)
	mockBus.AssertExpectations(t)
}

func TestRaffleService_TransitionRaffle_CompletedIsUnreachable(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewRaffleService(mockFactory)

	// Completion only happens through winner resolution
	_, err := service.TransitionRaffle(ctx, uuid.New(), models.RaffleStatusCompleted)
	assert.ErrorIs(t, err, ErrValidation)
	mockFactory.AssertNotCalled(t, "Create")
}
