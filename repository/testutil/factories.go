package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"raffler/models"
)

// CreateTestRaffle creates an active raffle with default values: 100 tickets
// at 50.00, draw in 7 days, lottery draw the day after
func CreateTestRaffle(createdBy uuid.UUID) *models.Raffle {
	now := time.Now()
	return &models.Raffle{
		ID:           uuid.New(),
		Title:        "Test Raffle",
		Description:  "A raffle for testing",
		TicketPrice:  decimal.NewFromInt(50),
		TotalTickets: 100,
		SoldTickets:  0,
		Status:       models.RaffleStatusActive,
		DrawDate:     now.Add(7 * 24 * time.Hour),
		LotteryDate:  now.Add(8 * 24 * time.Hour),
		CreatedBy:    createdBy,
	}
}

// CreateTestRaffleWithCapacity creates a test raffle with a specific capacity
func CreateTestRaffleWithCapacity(createdBy uuid.UUID, totalTickets int) *models.Raffle {
	raffle := CreateTestRaffle(createdBy)
	raffle.TotalTickets = totalTickets
	return raffle
}

// CreateTestRaffleDue creates an active raffle whose lottery date has already
// passed, making it due for winner resolution
func CreateTestRaffleDue(createdBy uuid.UUID) *models.Raffle {
	raffle := CreateTestRaffle(createdBy)
	raffle.DrawDate = time.Now().Add(-48 * time.Hour)
	raffle.LotteryDate = time.Now().Add(-24 * time.Hour)
	return raffle
}

// CreateTestTicket creates a pending ticket with default values
func CreateTestTicket(raffleID, ownerID uuid.UUID, ticketNumber string) *models.Ticket {
	return &models.Ticket{
		ID:            uuid.New(),
		TicketNumber:  ticketNumber,
		RaffleID:      raffleID,
		OwnerID:       ownerID,
		PurchasePrice: decimal.NewFromInt(50),
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodStripe,
		PurchasedAt:   time.Now(),
	}
}

// CreateTestTicketWithStatus creates a ticket in a specific payment status
func CreateTestTicketWithStatus(raffleID, ownerID uuid.UUID, ticketNumber string, status models.PaymentStatus) *models.Ticket {
	ticket := CreateTestTicket(raffleID, ownerID, ticketNumber)
	ticket.PaymentStatus = status
	return ticket
}
