package notifications

import (
	"context"

	log "github.com/sirupsen/logrus"

	"raffler/events"
)

// Notifier reacts to domain events with owner-facing notifications. Delivery
// is fire-and-forget: a failed notification never affects the transaction
// that emitted the event.
type Notifier struct{}

// Register subscribes a notifier to the relevant event types on the bus
func Register(bus *events.Bus) *Notifier {
	n := &Notifier{}
	bus.Subscribe(events.EventTypeTicketsReserved, n.handleTicketsReserved)
	bus.Subscribe(events.EventTypePaymentConfirmed, n.handlePaymentConfirmed)
	bus.Subscribe(events.EventTypePaymentFailed, n.handlePaymentFailed)
	bus.Subscribe(events.EventTypeWinnerDetermined, n.handleWinnerDetermined)
	return n
}

func (n *Notifier) handleTicketsReserved(ctx context.Context, event events.Event) {
	e, ok := event.(events.TicketsReservedEvent)
	if !ok {
		return
	}
	log.WithFields(log.Fields{
		"raffleID": e.RaffleID,
		"ownerID":  e.OwnerID,
		"numbers":  e.TicketNumbers,
	}).Info("Notify: tickets reserved, payment pending")
}

func (n *Notifier) handlePaymentConfirmed(ctx context.Context, event events.Event) {
	e, ok := event.(events.PaymentConfirmedEvent)
	if !ok {
		return
	}
	log.WithFields(log.Fields{
		"raffleID":  e.RaffleID,
		"ownerID":   e.OwnerID,
		"numbers":   e.TicketNumbers,
		"paymentID": e.PaymentID,
	}).Info("Notify: payment confirmed, tickets active")
}

func (n *Notifier) handlePaymentFailed(ctx context.Context, event events.Event) {
	e, ok := event.(events.PaymentFailedEvent)
	if !ok {
		return
	}
	log.WithFields(log.Fields{
		"raffleID": e.RaffleID,
		"ownerID":  e.OwnerID,
		"numbers":  e.TicketNumbers,
		"released": e.ReleasedCapacity,
	}).Info("Notify: payment failed, tickets released")
}

func (n *Notifier) handleWinnerDetermined(ctx context.Context, event events.Event) {
	e, ok := event.(events.WinnerDeterminedEvent)
	if !ok {
		return
	}
	fields := log.Fields{
		"raffleID":  e.RaffleID,
		"matchType": e.MatchType,
	}
	if e.WinnerOwnerID != nil {
		fields["winnerOwnerID"] = *e.WinnerOwnerID
		fields["number"] = e.WinningNumber
		log.WithFields(fields).Info("Notify: raffle winner determined")
		return
	}
	log.WithFields(fields).Info("Notify: raffle closed without a winner")
}
