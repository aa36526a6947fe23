package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffler/models"
	"raffler/repository/testutil"
	"raffler/service"
)

func TestRaffleRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found returns nil", func(t *testing.T) {
		raffle, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, raffle)
	})

	t.Run("round trip", func(t *testing.T) {
		original := testutil.CreateTestRaffle(uuid.New())
		err := repo.Create(ctx, original)
		require.NoError(t, err)
		assert.False(t, original.CreatedAt.IsZero())

		raffle, err := repo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		require.NotNil(t, raffle)

		assert.Equal(t, original.Title, raffle.Title)
		assert.True(t, original.TicketPrice.Equal(raffle.TicketPrice))
		assert.Equal(t, original.TotalTickets, raffle.TotalTickets)
		assert.Equal(t, 0, raffle.SoldTickets)
		assert.Equal(t, models.RaffleStatusActive, raffle.Status)
		assert.Nil(t, raffle.WinnerResolvedAt)
	})
}

func TestRaffleRepository_List(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	active := testutil.CreateTestRaffle(uuid.New())
	require.NoError(t, repo.Create(ctx, active))

	draft := testutil.CreateTestRaffle(uuid.New())
	draft.Status = models.RaffleStatusDraft
	require.NoError(t, repo.Create(ctx, draft))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := models.RaffleStatusDraft
	drafts, err := repo.List(ctx, &status)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)
}

func TestRaffleRepository_ReserveCapacity(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	t.Run("consumes capacity", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleWithCapacity(uuid.New(), 10)
		require.NoError(t, repo.Create(ctx, raffle))

		require.NoError(t, repo.ReserveCapacity(ctx, raffle.ID, 4))
		require.NoError(t, repo.ReserveCapacity(ctx, raffle.ID, 6))

		updated, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, updated.SoldTickets)
	})

	t.Run("rejects oversell", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleWithCapacity(uuid.New(), 5)
		require.NoError(t, repo.Create(ctx, raffle))
		require.NoError(t, repo.ReserveCapacity(ctx, raffle.ID, 3))

		err := repo.ReserveCapacity(ctx, raffle.ID, 3)
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)

		// The failed attempt must not change sold_tickets
		updated, getErr := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, getErr)
		assert.Equal(t, 3, updated.SoldTickets)
	})

	t.Run("rejects non-active raffle", func(t *testing.T) {
		raffle := testutil.CreateTestRaffle(uuid.New())
		raffle.Status = models.RaffleStatusPaused
		require.NoError(t, repo.Create(ctx, raffle))

		err := repo.ReserveCapacity(ctx, raffle.ID, 1)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("rejects sales after draw date", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleDue(uuid.New())
		require.NoError(t, repo.Create(ctx, raffle))

		err := repo.ReserveCapacity(ctx, raffle.ID, 1)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("unknown raffle", func(t *testing.T) {
		err := repo.ReserveCapacity(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestRaffleRepository_ReleaseCapacity(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	raffle := testutil.CreateTestRaffleWithCapacity(uuid.New(), 10)
	require.NoError(t, repo.Create(ctx, raffle))
	require.NoError(t, repo.ReserveCapacity(ctx, raffle.ID, 5))

	require.NoError(t, repo.ReleaseCapacity(ctx, raffle.ID, 3))

	updated, err := repo.GetByID(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.SoldTickets)

	// Releasing more than sold never drives the counter negative
	err = repo.ReleaseCapacity(ctx, raffle.ID, 5)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestRaffleRepository_Transition(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	t.Run("allowed transition", func(t *testing.T) {
		raffle := testutil.CreateTestRaffle(uuid.New())
		raffle.Status = models.RaffleStatusDraft
		require.NoError(t, repo.Create(ctx, raffle))

		updated, err := repo.Transition(ctx, raffle.ID,
			[]models.RaffleStatus{models.RaffleStatusDraft, models.RaffleStatusPaused},
			models.RaffleStatusActive)
		require.NoError(t, err)
		assert.Equal(t, models.RaffleStatusActive, updated.Status)
	})

	t.Run("status not in from set", func(t *testing.T) {
		raffle := testutil.CreateTestRaffle(uuid.New())
		raffle.Status = models.RaffleStatusCancelled
		require.NoError(t, repo.Create(ctx, raffle))

		_, err := repo.Transition(ctx, raffle.ID,
			[]models.RaffleStatus{models.RaffleStatusDraft},
			models.RaffleStatusActive)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestRaffleRepository_SetWinner(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	t.Run("first resolution wins, second observes already resolved", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleDue(uuid.New())
		require.NoError(t, repo.Create(ctx, raffle))

		ownerID := uuid.New()
		number := "12345"
		resolvedAt := time.Now()

		require.NoError(t, repo.SetWinner(ctx, raffle.ID, &ownerID, &number, "12345", resolvedAt))

		updated, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RaffleStatusCompleted, updated.Status)
		require.NotNil(t, updated.WinnerOwnerID)
		assert.Equal(t, ownerID, *updated.WinnerOwnerID)
		require.NotNil(t, updated.WinnerTicketNumber)
		assert.Equal(t, number, *updated.WinnerTicketNumber)
		require.NotNil(t, updated.WinnerResolvedAt)

		err = repo.SetWinner(ctx, raffle.ID, &ownerID, &number, "12345", time.Now())
		assert.ErrorIs(t, err, service.ErrAlreadyResolved)
	})

	t.Run("no winner still completes", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleDue(uuid.New())
		require.NoError(t, repo.Create(ctx, raffle))

		require.NoError(t, repo.SetWinner(ctx, raffle.ID, nil, nil, "00000", time.Now()))

		updated, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RaffleStatusCompleted, updated.Status)
		assert.Nil(t, updated.WinnerOwnerID)
		assert.Nil(t, updated.WinnerTicketNumber)
		require.NotNil(t, updated.WinnerLotteryResult)
		assert.Equal(t, "00000", *updated.WinnerLotteryResult)
		require.NotNil(t, updated.WinnerResolvedAt)
	})

	t.Run("non-active raffle cannot resolve", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleDue(uuid.New())
		raffle.Status = models.RaffleStatusCancelled
		require.NoError(t, repo.Create(ctx, raffle))

		err := repo.SetWinner(ctx, raffle.ID, nil, nil, "00000", time.Now())
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestRaffleRepository_GetDueForResolution(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	due := testutil.CreateTestRaffleDue(uuid.New())
	require.NoError(t, repo.Create(ctx, due))

	notYet := testutil.CreateTestRaffle(uuid.New())
	require.NoError(t, repo.Create(ctx, notYet))

	resolved := testutil.CreateTestRaffleDue(uuid.New())
	require.NoError(t, repo.Create(ctx, resolved))
	require.NoError(t, repo.SetWinner(ctx, resolved.ID, nil, nil, "00000", time.Now()))

	paused := testutil.CreateTestRaffleDue(uuid.New())
	paused.Status = models.RaffleStatusPaused
	require.NoError(t, repo.Create(ctx, paused))

	raffles, err := repo.GetDueForResolution(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, raffles, 1)
	assert.Equal(t, due.ID, raffles[0].ID)
}
