package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"raffler/models"
)

func TestTicketService_ReserveTickets(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)

	raffle := newActiveRaffle()
	ownerID := uuid.New()

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaffleRepo.On("ReserveCapacity", ctx, raffle.ID, 3).Return(nil)
	mockRaffleRepo.On("GetByID", ctx, raffle.ID).Return(raffle, nil)
	mockTicketRepo.On("GetUsedNumbers", ctx, raffle.ID).Return(map[string]struct{}{}, nil)
	mockTicketRepo.On("CreateBatch", ctx, mock.MatchedBy(func(tickets []*models.Ticket) bool {
		if len(tickets) != 3 {
			return false
		}
		seen := make(map[string]struct{})
		for _, ticket := range tickets {
			if ticket.RaffleID != raffle.ID || ticket.OwnerID != ownerID {
				return false
			}
			if ticket.PaymentStatus != models.PaymentStatusPending {
				return false
			}
			if !ticket.PurchasePrice.Equal(raffle.TicketPrice) {
				return false
			}
			if _, dup := seen[ticket.TicketNumber]; dup {
				return false
			}
			seen[ticket.TicketNumber] = struct{}{}
		}
		return true
	})).Return(nil)

	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))
	result, err := service.ReserveTickets(ctx, raffle.ID, ownerID, 3, models.PaymentMethodStripe)

	require.NoError(t, err)
	assert.Len(t, result.Tickets, 3)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(150)))

	// Each reserved ticket carries a recomputable verification code
	for _, rt := range result.Tickets {
		expected := VerificationCode(rt.Ticket.ID, rt.Ticket.TicketNumber, rt.Ticket.RaffleID, rt.Ticket.OwnerID)
		assert.Equal(t, expected, rt.VerificationCode)
	}

	mockRaffleRepo.AssertExpectations(t)
	mockTicketRepo.AssertExpectations(t)
}

func TestTicketService_ReserveTickets_QuantityBounds(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))

	for _, quantity := range []int{0, -1, 11, 100} {
		_, err := service.ReserveTickets(ctx, uuid.New(), uuid.New(), quantity, models.PaymentMethodStripe)
		assert.ErrorIs(t, err, ErrValidation, "quantity %d", quantity)
	}

	mockFactory.AssertNotCalled(t, "Create")
}

func TestTicketService_ReserveTickets_UnknownPaymentMethod(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))

	_, err := service.ReserveTickets(ctx, uuid.New(), uuid.New(), 1, models.PaymentMethod("bitcoin"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTicketService_ReserveTickets_CapacityExceeded(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)

	raffleID := uuid.New()

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRaffleRepo.On("ReserveCapacity", ctx, raffleID, 5).
		Return(fmt.Errorf("%w: 2 tickets available, 5 requested", ErrCapacityExceeded))

	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))
	_, err := service.ReserveTickets(ctx, raffleID, uuid.New(), 5, models.PaymentMethodCash)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	mockTicketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestTicketService_ReserveTickets_GeneratorFailureRollsBack(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)

	raffle := newActiveRaffle()

	// Every number taken: generation must fail and the transaction roll back
	used := make(map[string]struct{}, models.MaxTicketNumbers)
	for i := 0; i < models.MaxTicketNumbers; i++ {
		used[fmt.Sprintf("%05d", i)] = struct{}{}
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRaffleRepo.On("ReserveCapacity", ctx, raffle.ID, 1).Return(nil)
	mockRaffleRepo.On("GetByID", ctx, raffle.ID).Return(raffle, nil)
	mockTicketRepo.On("GetUsedNumbers", ctx, raffle.ID).Return(used, nil)

	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))
	_, err := service.ReserveTickets(ctx, raffle.ID, uuid.New(), 1, models.PaymentMethodStripe)

	assert.ErrorIs(t, err, ErrNumberSpaceExhausted)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestTicketService_VerifyTicket(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)

	raffleID := uuid.New()
	ticket := paidTicket(raffleID, "12345")
	code := VerificationCode(ticket.ID, ticket.TicketNumber, ticket.RaffleID, ticket.OwnerID)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockTicketRepo.On("GetByNumber", ctx, raffleID, "12345").Return(ticket, nil)

	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))

	t.Run("valid code", func(t *testing.T) {
		got, valid, err := service.VerifyTicket(ctx, raffleID, "12345", code)
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, ticket.ID, got.ID)
	})

	t.Run("case insensitive input", func(t *testing.T) {
		_, valid, err := service.VerifyTicket(ctx, raffleID, "12345", toLower(code))
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("tampered code", func(t *testing.T) {
		tampered := "00000000"
		if tampered == code {
			tampered = "11111111"
		}
		got, valid, err := service.VerifyTicket(ctx, raffleID, "12345", tampered)
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Nil(t, got)
	})

	t.Run("bad number format", func(t *testing.T) {
		_, _, err := service.VerifyTicket(ctx, raffleID, "1234", code)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("bad code length", func(t *testing.T) {
		_, _, err := service.VerifyTicket(ctx, raffleID, "12345", "ABC")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTicketService_VerifyTicket_PendingTicketDoesNotVerify(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaffleRepo := new(MockRaffleRepository)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(mockRaffleRepo, mockTicketRepo)

	raffleID := uuid.New()
	ticket := paidTicket(raffleID, "12345")
	ticket.PaymentStatus = models.PaymentStatusPending
	code := VerificationCode(ticket.ID, ticket.TicketNumber, ticket.RaffleID, ticket.OwnerID)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockTicketRepo.On("GetByNumber", ctx, raffleID, "12345").Return(ticket, nil)

	service := NewTicketService(mockFactory, NewNumberGenerator(rand.NewSource(1)))
	got, valid, err := service.VerifyTicket(ctx, raffleID, "12345", code)

	require.NoError(t, err)
	assert.False(t, valid)
	assert.Nil(t, got)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
