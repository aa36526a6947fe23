package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"raffler/api"
	"raffler/config"
	"raffler/database"
	"raffler/events"
	"raffler/lottery"
	"raffler/notifications"
	"raffler/repository"
	"raffler/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	log.WithField("environment", cfg.Environment).Info("Starting raffler")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	notifications.Register(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// The real feed needs an API endpoint; without one, development runs
	// against synthetic draw results
	var feed service.LotteryFeed
	if cfg.LotteryAPIURL != "" {
		feed = lottery.NewClient(cfg.LotteryAPIURL, cfg.LotteryAPIKey)
	} else {
		if cfg.Environment == "production" {
			return fmt.Errorf("LOTTERY_API_URL is required in production")
		}
		feed = lottery.NewDevelopmentFeed()
	}

	generator := service.NewNumberGenerator(rand.NewSource(time.Now().UnixNano()))
	raffleService := service.NewRaffleService(uowFactory)
	ticketService := service.NewTicketService(uowFactory, generator)
	paymentService := service.NewPaymentService(uowFactory)
	winnerService := service.NewWinnerService(uowFactory, feed)

	sweeper := service.NewResolutionSweeper(uowFactory, winnerService, cfg.SweepInterval, cfg.LotteryCheckHour)
	go sweeper.Start(ctx)

	server := api.NewServer(cfg.HTTPAddr, raffleService, ticketService, paymentService, winnerService)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	return nil
}
