package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"raffler/events"
	"raffler/models"
)

// MockRaffleRepository is a mock implementation of RaffleRepository
type MockRaffleRepository struct {
	mock.Mock
}

func (m *MockRaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	args := m.Called(ctx, raffle)
	return args.Error(0)
}

func (m *MockRaffleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Raffle), args.Error(1)
}

func (m *MockRaffleRepository) List(ctx context.Context, status *models.RaffleStatus) ([]*models.Raffle, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Raffle), args.Error(1)
}

func (m *MockRaffleRepository) ReserveCapacity(ctx context.Context, raffleID uuid.UUID, quantity int) error {
	args := m.Called(ctx, raffleID, quantity)
	return args.Error(0)
}

func (m *MockRaffleRepository) ReleaseCapacity(ctx context.Context, raffleID uuid.UUID, quantity int) error {
	args := m.Called(ctx, raffleID, quantity)
	return args.Error(0)
}

func (m *MockRaffleRepository) Transition(ctx context.Context, raffleID uuid.UUID, fromStatuses []models.RaffleStatus, to models.RaffleStatus) (*models.Raffle, error) {
	args := m.Called(ctx, raffleID, fromStatuses, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Raffle), args.Error(1)
}

func (m *MockRaffleRepository) SetWinner(ctx context.Context, raffleID uuid.UUID, winnerOwnerID *uuid.UUID, winningNumber *string, lotteryResult string, resolvedAt time.Time) error {
	args := m.Called(ctx, raffleID, winnerOwnerID, winningNumber, lotteryResult, resolvedAt)
	return args.Error(0)
}

func (m *MockRaffleRepository) GetDueForResolution(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Raffle), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*models.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Ticket, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetUsedNumbers(ctx context.Context, raffleID uuid.UUID) (map[string]struct{}, error) {
	args := m.Called(ctx, raffleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockTicketRepository) GetByRaffleAndStatus(ctx context.Context, raffleID uuid.UUID, status models.PaymentStatus) ([]*models.Ticket, error) {
	args := m.Called(ctx, raffleID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByNumber(ctx context.Context, raffleID uuid.UUID, ticketNumber string) (*models.Ticket, error) {
	args := m.Called(ctx, raffleID, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Ticket, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) UpdatePaymentStatus(ctx context.Context, ids []uuid.UUID, to models.PaymentStatus, paymentID string) (int64, error) {
	args := m.Called(ctx, ids, to, paymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) MarkWinner(ctx context.Context, ticketID uuid.UUID) error {
	args := m.Called(ctx, ticketID)
	return args.Error(0)
}

func (m *MockTicketRepository) GetStatsByRaffle(ctx context.Context, raffleID uuid.UUID) ([]*models.TicketStats, error) {
	args := m.Called(ctx, raffleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TicketStats), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// NoopEventPublisher records nothing; for tests that don't assert on events
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(event events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; Begin/Commit/Rollback go through the mock.
type MockUnitOfWork struct {
	mock.Mock
	raffleRepo RaffleRepository
	ticketRepo TicketRepository
	eventBus   EventPublisher
}

// SetRepositories wires mock repositories into the unit of work
func (m *MockUnitOfWork) SetRepositories(raffleRepo RaffleRepository, ticketRepo TicketRepository) {
	m.raffleRepo = raffleRepo
	m.ticketRepo = ticketRepo
	m.eventBus = NoopEventPublisher{}
}

// SetEventBus overrides the event publisher, for tests asserting on events
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) RaffleRepository() RaffleRepository {
	return m.raffleRepo
}

func (m *MockUnitOfWork) TicketRepository() TicketRepository {
	return m.ticketRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockLotteryFeed is a mock implementation of LotteryFeed
type MockLotteryFeed struct {
	mock.Mock
}

func (m *MockLotteryFeed) GetResult(ctx context.Context, date time.Time) (*models.LotteryResult, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LotteryResult), args.Error(1)
}
