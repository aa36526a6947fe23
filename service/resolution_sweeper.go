package service

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// ResolutionSweeper periodically finds raffles whose lottery date has passed
// and resolves them automatically. The due set is re-derived from the
// persisted lottery dates on every sweep, so a process restart never loses a
// scheduled check.
type ResolutionSweeper struct {
	uowFactory UnitOfWorkFactory
	winners    WinnerService
	interval   time.Duration
	checkHour  int
}

// NewResolutionSweeper creates a sweeper that polls every interval and only
// resolves raffles at or after checkHour (0-23) on their lottery day, when
// the draw results are published.
func NewResolutionSweeper(uowFactory UnitOfWorkFactory, winners WinnerService, interval time.Duration, checkHour int) *ResolutionSweeper {
	return &ResolutionSweeper{
		uowFactory: uowFactory,
		winners:    winners,
		interval:   interval,
		checkHour:  checkHour,
	}
}

// Start runs the sweep loop until the context is cancelled
func (s *ResolutionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.WithField("interval", s.interval).Info("Resolution sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Resolution sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep resolves every due raffle once. Failures are logged and retried on
// the next sweep; one raffle's failure never blocks the others.
func (s *ResolutionSweeper) Sweep(ctx context.Context) {
	now := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Sweep failed to begin transaction")
		return
	}
	due, err := uow.RaffleRepository().GetDueForResolution(ctx, now)
	uow.Rollback()
	if err != nil {
		log.WithError(err).Error("Sweep failed to query due raffles")
		return
	}

	for _, raffle := range due {
		if now.Before(resolutionDueAt(raffle.LotteryDate, s.checkHour)) {
			continue
		}

		_, err := s.winners.DetermineWinner(ctx, raffle.ID)
		switch {
		case err == nil:
			log.WithField("raffleID", raffle.ID).Info("Automatically resolved raffle")
		case errors.Is(err, ErrAlreadyResolved):
			// Lost the race to a manual trigger. Nothing to do.
		case errors.Is(err, ErrLotteryUnavailable):
			log.WithError(err).WithField("raffleID", raffle.ID).Warn("Lottery feed unavailable, will retry")
		default:
			log.WithError(err).WithField("raffleID", raffle.ID).Error("Automatic resolution failed")
		}
	}
}

// resolutionDueAt returns the first instant a raffle may be auto-resolved:
// checkHour on its lottery day, in the lottery date's location.
func resolutionDueAt(lotteryDate time.Time, checkHour int) time.Time {
	return time.Date(lotteryDate.Year(), lotteryDate.Month(), lotteryDate.Day(),
		checkHour, 0, 0, 0, lotteryDate.Location())
}
