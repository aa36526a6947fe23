package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"raffler/service"
)

// Server exposes the raffle engine over HTTP
type Server struct {
	raffles  service.RaffleService
	tickets  service.TicketService
	payments service.PaymentService
	winners  service.WinnerService

	httpServer *http.Server
}

// NewServer creates an HTTP server wired to the given services
func NewServer(addr string, raffles service.RaffleService, tickets service.TicketService, payments service.PaymentService, winners service.WinnerService) *Server {
	s := &Server{
		raffles:  raffles,
		tickets:  tickets,
		payments: payments,
		winners:  winners,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/raffles", func(r chi.Router) {
		r.Post("/", s.handleCreateRaffle)
		r.Get("/", s.handleListRaffles)

		r.Route("/{raffleID}", func(r chi.Router) {
			r.Get("/", s.handleGetRaffle)
			r.Post("/transition", s.handleTransitionRaffle)
			r.Get("/stats", s.handleRaffleStats)
			r.Post("/tickets", s.handleReserveTickets)
			r.Post("/verify", s.handleVerifyTicket)
			r.Post("/resolve", s.handleResolveWinner)
			r.Get("/winner", s.handleGetWinner)
		})
	})

	r.Post("/payments/confirm", s.handleConfirmPayment)
	r.Get("/owners/{ownerID}/tickets", s.handleOwnerTickets)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
