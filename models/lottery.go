package models

import "time"

// LotteryResult is a draw result from the national lottery feed
type LotteryResult struct {
	Date       time.Time
	FirstPrize string
	DrawNumber string
	Series     string
	// IsOfficial is false for synthetic results substituted in development mode
	IsOfficial bool
}

// MatchType describes how a winning ticket matched the lottery digits
type MatchType string

const (
	MatchTypeExact MatchType = "exact"
	// MatchTypeClosestDown models the house rule where the prize rolls down
	// to the largest sold number not exceeding the winning digits.
	MatchTypeClosestDown MatchType = "closest_down"
	MatchTypeNone        MatchType = "none"
)

// WinnerResult is the outcome of applying the winner-selection algorithm
// to one raffle's sold ticket numbers
type WinnerResult struct {
	WinnerFound   bool
	WinningNumber string
	MatchType     MatchType
	LotteryResult string
	WinningDigits string
}

// WinnerOutcome is the result of resolving a raffle. Ticket and Owner are nil
// when the draw matched no sold ticket; the raffle still closes.
type WinnerOutcome struct {
	Raffle     *Raffle
	Result     WinnerResult
	Ticket     *Ticket
	ResolvedAt time.Time
}
