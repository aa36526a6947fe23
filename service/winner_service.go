package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"raffler/events"
	"raffler/models"
)

var nonDigits = regexp.MustCompile(`\D`)

// ExtractWinningDigits reduces a raw lottery result to the 5 digits that
// select the winning ticket: strip non-digits, keep the last 5, left-pad
// with zeros when shorter.
func ExtractWinningDigits(lotteryResult string) string {
	clean := nonDigits.ReplaceAllString(lotteryResult, "")
	if len(clean) > 5 {
		clean = clean[len(clean)-5:]
	}
	return fmt.Sprintf("%05s", clean)
}

// FindWinner applies the winner-selection algorithm to a raffle's sold
// ticket numbers. An exact match on the winning digits wins; otherwise the
// prize rolls down to the numerically largest sold number not exceeding
// them; otherwise there is no winner.
func FindWinner(lotteryResult string, soldNumbers []string) models.WinnerResult {
	winningDigits := ExtractWinningDigits(lotteryResult)

	result := models.WinnerResult{
		LotteryResult: lotteryResult,
		WinningDigits: winningDigits,
		MatchType:     models.MatchTypeNone,
	}

	for _, number := range soldNumbers {
		if number == winningDigits {
			result.WinnerFound = true
			result.WinningNumber = number
			result.MatchType = models.MatchTypeExact
			return result
		}
	}

	winning, _ := strconv.Atoi(winningDigits)
	best := -1
	for _, number := range soldNumbers {
		n, err := strconv.Atoi(number)
		if err != nil {
			continue
		}
		if n <= winning && n > best {
			best = n
		}
	}
	if best >= 0 {
		result.WinnerFound = true
		result.WinningNumber = fmt.Sprintf("%05d", best)
		result.MatchType = models.MatchTypeClosestDown
	}

	return result
}

type winnerService struct {
	uowFactory UnitOfWorkFactory
	feed       LotteryFeed
}

// NewWinnerService creates a new winner resolution service
func NewWinnerService(uowFactory UnitOfWorkFactory, feed LotteryFeed) WinnerService {
	return &winnerService{
		uowFactory: uowFactory,
		feed:       feed,
	}
}

// DetermineWinner resolves a raffle using the external lottery feed keyed by
// the raffle's lottery date. The feed is consulted before the resolution
// transaction opens; on ErrLotteryUnavailable no state changes.
func (s *winnerService) DetermineWinner(ctx context.Context, raffleID uuid.UUID) (*models.WinnerOutcome, error) {
	raffle, err := s.getResolvableRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	result, err := s.feed.GetResult(ctx, raffle.LotteryDate)
	if err != nil {
		return nil, err
	}
	if result.FirstPrize == "" {
		return nil, fmt.Errorf("%w: no first prize published for %s", ErrLotteryUnavailable, raffle.LotteryDate.Format("2006-01-02"))
	}
	if !result.IsOfficial {
		log.WithField("raffleID", raffleID).Warn("Resolving raffle with unofficial lottery result")
	}

	return s.resolve(ctx, raffleID, result.FirstPrize)
}

// DetermineWinnerManual resolves a raffle with an operator-supplied lottery
// result: the raffle's lottery date must not be in the future and the result
// must contain at least 5 digits.
func (s *winnerService) DetermineWinnerManual(ctx context.Context, raffleID uuid.UUID, lotteryResult string) (*models.WinnerOutcome, error) {
	raffle, err := s.getResolvableRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	if raffle.LotteryDate.After(time.Now()) {
		return nil, fmt.Errorf("%w: lottery date %s is in the future", ErrValidation, raffle.LotteryDate.Format("2006-01-02"))
	}
	if len(nonDigits.ReplaceAllString(lotteryResult, "")) < 5 {
		return nil, fmt.Errorf("%w: lottery result needs at least 5 digits", ErrValidation)
	}

	return s.resolve(ctx, raffleID, lotteryResult)
}

// getResolvableRaffle loads the raffle and rejects early when resolution
// cannot possibly apply. The checks repeat inside the resolution transaction;
// this pass just avoids a pointless feed call.
func (s *winnerService) getResolvableRaffle(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error) {
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
	if raffle.IsResolved() {
		return nil, fmt.Errorf("%w: raffle %s", ErrAlreadyResolved, raffleID)
	}
	if raffle.Status != models.RaffleStatusActive {
		return nil, fmt.Errorf("%w: raffle is %s, not active", ErrInvalidState, raffle.Status)
	}

	return raffle, nil
}

// resolve runs the winner-selection algorithm and completes the raffle in one
// transaction. The completion is a compare-and-set on (active, winner unset),
// so of any concurrent invocations exactly one succeeds; the rest observe
// ErrAlreadyResolved.
func (s *winnerService) resolve(ctx context.Context, raffleID uuid.UUID, lotteryResult string) (*models.WinnerOutcome, error) {
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

	paidTickets, err := uow.TicketRepository().GetByRaffleAndStatus(ctx, raffleID, models.PaymentStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed tickets: %w", err)
	}
	if len(paidTickets) == 0 {
		return nil, fmt.Errorf("%w: raffle has no completed tickets", ErrInvalidState)
	}

	soldNumbers := make([]string, len(paidTickets))
	for i, ticket := range paidTickets {
		soldNumbers[i] = ticket.TicketNumber
	}

	result := FindWinner(lotteryResult, soldNumbers)
	resolvedAt := time.Now()

	var winningTicket *models.Ticket
	var winnerOwnerID *uuid.UUID
	var winningNumber *string
	if result.WinnerFound {
		for _, ticket := range paidTickets {
			if ticket.TicketNumber == result.WinningNumber {
				winningTicket = ticket
				break
			}
		}
		if winningTicket == nil {
			return nil, fmt.Errorf("winning number %s has no matching ticket", result.WinningNumber)
		}
		winnerOwnerID = &winningTicket.OwnerID
		winningNumber = &winningTicket.TicketNumber
	}

	// Single-shot completion. A raffle that resolves without a winner still
	// closes, with the lottery result recorded for audit.
	if err := uow.RaffleRepository().SetWinner(ctx, raffleID, winnerOwnerID, winningNumber, lotteryResult, resolvedAt); err != nil {
		return nil, err
	}

	if winningTicket != nil {
		if err := uow.TicketRepository().MarkWinner(ctx, winningTicket.ID); err != nil {
			return nil, fmt.Errorf("failed to mark winning ticket: %w", err)
		}
		winningTicket.IsWinner = true
	}

	uow.EventBus().Publish(events.WinnerDeterminedEvent{
		RaffleID:      raffleID,
		WinnerOwnerID: winnerOwnerID,
		WinningNumber: result.WinningNumber,
		MatchType:     result.MatchType,
		LotteryResult: lotteryResult,
		ResolvedAt:    resolvedAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"raffleID":    raffleID,
		"matchType":   result.MatchType,
		"winnerFound": result.WinnerFound,
		"number":      result.WinningNumber,
	}).Info("Resolved raffle")

	raffle.Status = models.RaffleStatusCompleted
	raffle.WinnerOwnerID = winnerOwnerID
	raffle.WinnerTicketNumber = winningNumber
	raffle.WinnerLotteryResult = &lotteryResult
	raffle.WinnerResolvedAt = &resolvedAt

	return &models.WinnerOutcome{
		Raffle:     raffle,
		Result:     result,
		Ticket:     winningTicket,
		ResolvedAt: resolvedAt,
	}, nil
}

// GetWinner returns the recorded resolution for a completed raffle
func (s *winnerService) GetWinner(ctx context.Context, raffleID uuid.UUID) (*models.WinnerOutcome, error) {
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
	if !raffle.IsResolved() {
		return nil, fmt.Errorf("%w: winner not determined yet", ErrInvalidState)
	}

	outcome := &models.WinnerOutcome{
		Raffle:     raffle,
		ResolvedAt: *raffle.WinnerResolvedAt,
		Result: models.WinnerResult{
			WinnerFound:   raffle.HasWinner(),
			LotteryResult: stringOrEmpty(raffle.WinnerLotteryResult),
			WinningDigits: ExtractWinningDigits(stringOrEmpty(raffle.WinnerLotteryResult)),
			MatchType:     models.MatchTypeNone,
		},
	}

	if raffle.HasWinner() {
		outcome.Result.WinningNumber = *raffle.WinnerTicketNumber
		if outcome.Result.WinningNumber == outcome.Result.WinningDigits {
			outcome.Result.MatchType = models.MatchTypeExact
		} else {
			outcome.Result.MatchType = models.MatchTypeClosestDown
		}

		ticket, err := uow.TicketRepository().GetByNumber(ctx, raffleID, *raffle.WinnerTicketNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to get winning ticket: %w", err)
		}
		outcome.Ticket = ticket
	}

	return outcome, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
