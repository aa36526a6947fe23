package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"raffler/models"
	"raffler/service"
)

type raffleResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	TicketPrice         decimal.Decimal `json:"ticket_price"`
	TotalTickets        int             `json:"total_tickets"`
	SoldTickets         int             `json:"sold_tickets"`
	AvailableTickets    int             `json:"available_tickets"`
	Status              string          `json:"status"`
	DrawDate            time.Time       `json:"draw_date"`
	LotteryDate         time.Time       `json:"lottery_date"`
	WinnerOwnerID       *uuid.UUID      `json:"winner_owner_id,omitempty"`
	WinnerTicketNumber  *string         `json:"winner_ticket_number,omitempty"`
	WinnerLotteryResult *string         `json:"winner_lottery_result,omitempty"`
	WinnerResolvedAt    *time.Time      `json:"winner_resolved_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

func toRaffleResponse(r *models.Raffle) raffleResponse {
	return raffleResponse{
		ID:                  r.ID,
		Title:               r.Title,
		Description:         r.Description,
		TicketPrice:         r.TicketPrice,
		TotalTickets:        r.TotalTickets,
		SoldTickets:         r.SoldTickets,
		AvailableTickets:    r.AvailableTickets(),
		Status:              string(r.Status),
		DrawDate:            r.DrawDate,
		LotteryDate:         r.LotteryDate,
		WinnerOwnerID:       r.WinnerOwnerID,
		WinnerTicketNumber:  r.WinnerTicketNumber,
		WinnerLotteryResult: r.WinnerLotteryResult,
		WinnerResolvedAt:    r.WinnerResolvedAt,
		CreatedAt:           r.CreatedAt,
	}
}

type ticketResponse struct {
	ID            uuid.UUID       `json:"id"`
	TicketNumber  string          `json:"ticket_number"`
	RaffleID      uuid.UUID       `json:"raffle_id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	IsWinner      bool            `json:"is_winner"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

func toTicketResponse(t *models.Ticket) ticketResponse {
	return ticketResponse{
		ID:            t.ID,
		TicketNumber:  t.TicketNumber,
		RaffleID:      t.RaffleID,
		OwnerID:       t.OwnerID,
		PurchasePrice: t.PurchasePrice,
		PaymentStatus: string(t.PaymentStatus),
		PaymentMethod: string(t.PaymentMethod),
		IsWinner:      t.IsWinner,
		PurchasedAt:   t.PurchasedAt,
	}
}

func toTicketResponses(tickets []*models.Ticket) []ticketResponse {
	out := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = toTicketResponse(t)
	}
	return out
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", service.ErrValidation, name)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", service.ErrValidation)
	}
	return nil
}

type createRaffleRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TicketPrice  decimal.Decimal `json:"ticket_price"`
	TotalTickets int             `json:"total_tickets"`
	DrawDate     time.Time       `json:"draw_date"`
	LotteryDate  time.Time       `json:"lottery_date"`
	CreatedBy    uuid.UUID       `json:"created_by"`
}

func (s *Server) handleCreateRaffle(w http.ResponseWriter, r *http.Request) {
	var req createRaffleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	raffle, err := s.raffles.CreateRaffle(r.Context(), &models.Raffle{
		Title:        req.Title,
		Description:  req.Description,
		TicketPrice:  req.TicketPrice,
		TotalTickets: req.TotalTickets,
		DrawDate:     req.DrawDate,
		LotteryDate:  req.LotteryDate,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toRaffleResponse(raffle))
}

func (s *Server) handleListRaffles(w http.ResponseWriter, r *http.Request) {
	var status *models.RaffleStatus
	if q := r.URL.Query().Get("status"); q != "" {
		st := models.RaffleStatus(q)
		status = &st
	}

	raffles, err := s.raffles.ListRaffles(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]raffleResponse, len(raffles))
	for i, raffle := range raffles {
		out[i] = toRaffleResponse(raffle)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	raffle, err := s.raffles.GetRaffle(r.Context(), raffleID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toRaffleResponse(raffle))
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleTransitionRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	raffle, err := s.raffles.TransitionRaffle(r.Context(), raffleID, models.RaffleStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toRaffleResponse(raffle))
}

func (s *Server) handleRaffleStats(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := s.tickets.GetRaffleStats(r.Context(), raffleID)
	if err != nil {
		respondError(w, err)
		return
	}

	type statsEntry struct {
		PaymentStatus string          `json:"payment_status"`
		Count         int             `json:"count"`
		TotalAmount   decimal.Decimal `json:"total_amount"`
	}
	out := make([]statsEntry, len(stats))
	for i, s := range stats {
		out[i] = statsEntry{
			PaymentStatus: string(s.PaymentStatus),
			Count:         s.Count,
			TotalAmount:   s.TotalAmount,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

type reserveTicketsRequest struct {
	OwnerID       uuid.UUID `json:"owner_id"`
	Quantity      int       `json:"quantity"`
	PaymentMethod string    `json:"payment_method"`
}

type reservedTicketResponse struct {
	ticketResponse
	VerificationCode string `json:"verification_code"`
}

type reservationResponse struct {
	Tickets     []reservedTicketResponse `json:"tickets"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
}

func (s *Server) handleReserveTickets(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req reserveTicketsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.tickets.ReserveTickets(r.Context(), raffleID, req.OwnerID, req.Quantity, models.PaymentMethod(req.PaymentMethod))
	if err != nil {
		respondError(w, err)
		return
	}

	out := reservationResponse{
		Tickets:     make([]reservedTicketResponse, len(result.Tickets)),
		TotalAmount: result.TotalAmount,
	}
	for i, rt := range result.Tickets {
		out.Tickets[i] = reservedTicketResponse{
			ticketResponse:   toTicketResponse(rt.Ticket),
			VerificationCode: rt.VerificationCode,
		}
	}
	respondJSON(w, http.StatusCreated, out)
}

type confirmPaymentRequest struct {
	TicketIDs []uuid.UUID `json:"ticket_ids"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	PaymentID string      `json:"payment_id"`
	Outcome   string      `json:"outcome"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	tickets, err := s.payments.ConfirmPayment(r.Context(), req.TicketIDs, req.OwnerID, req.PaymentID, models.PaymentStatus(req.Outcome))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponses(tickets))
}

type verifyTicketRequest struct {
	TicketNumber     string `json:"ticket_number"`
	VerificationCode string `json:"verification_code"`
}

type verifyTicketResponse struct {
	Valid  bool            `json:"valid"`
	Ticket *ticketResponse `json:"ticket,omitempty"`
}

func (s *Server) handleVerifyTicket(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req verifyTicketRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ticket, valid, err := s.tickets.VerifyTicket(r.Context(), raffleID, req.TicketNumber, req.VerificationCode)
	if err != nil {
		respondError(w, err)
		return
	}

	out := verifyTicketResponse{Valid: valid}
	if valid {
		tr := toTicketResponse(ticket)
		out.Ticket = &tr
	}
	respondJSON(w, http.StatusOK, out)
}

type resolveRequest struct {
	LotteryResult string `json:"lottery_result"`
}

type winnerResponse struct {
	Raffle        raffleResponse  `json:"raffle"`
	WinnerFound   bool            `json:"winner_found"`
	MatchType     string          `json:"match_type"`
	WinningNumber string          `json:"winning_number,omitempty"`
	WinningDigits string          `json:"winning_digits"`
	LotteryResult string          `json:"lottery_result"`
	Ticket        *ticketResponse `json:"ticket,omitempty"`
	ResolvedAt    time.Time       `json:"resolved_at"`
}

func toWinnerResponse(outcome *models.WinnerOutcome) winnerResponse {
	out := winnerResponse{
		Raffle:        toRaffleResponse(outcome.Raffle),
		WinnerFound:   outcome.Result.WinnerFound,
		MatchType:     string(outcome.Result.MatchType),
		WinningNumber: outcome.Result.WinningNumber,
		WinningDigits: outcome.Result.WinningDigits,
		LotteryResult: outcome.Result.LotteryResult,
		ResolvedAt:    outcome.ResolvedAt,
	}
	if outcome.Ticket != nil {
		tr := toTicketResponse(outcome.Ticket)
		out.Ticket = &tr
	}
	return out
}

// handleResolveWinner triggers winner resolution. An empty body (or one
// without a lottery result) resolves through the official feed; a supplied
// lottery result runs the manual path with its validations.
func (s *Server) handleResolveWinner(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req resolveRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}

	var outcome *models.WinnerOutcome
	if req.LotteryResult != "" {
		outcome, err = s.winners.DetermineWinnerManual(r.Context(), raffleID, req.LotteryResult)
	} else {
		outcome, err = s.winners.DetermineWinner(r.Context(), raffleID)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWinnerResponse(outcome))
}

func (s *Server) handleGetWinner(w http.ResponseWriter, r *http.Request) {
	raffleID, err := parseUUIDParam(r, "raffleID")
	if err != nil {
		respondError(w, err)
		return
	}

	outcome, err := s.winners.GetWinner(r.Context(), raffleID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWinnerResponse(outcome))
}

func (s *Server) handleOwnerTickets(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUIDParam(r, "ownerID")
	if err != nil {
		respondError(w, err)
		return
	}

	tickets, err := s.tickets.GetOwnerTickets(r.Context(), ownerID, 100)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponses(tickets))
}
