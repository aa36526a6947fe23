package lottery

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"raffler/models"
	"raffler/service"
)

const requestTimeout = 10 * time.Second

// Client fetches official draw results from the national lottery API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a lottery feed client for the given API base URL
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type resultResponse struct {
	Date       string `json:"date"`
	FirstPrize string `json:"first_prize"`
	DrawNumber string `json:"draw_number"`
	Series     string `json:"series"`
}

// GetResult fetches the draw result for a date. Network failures, 5xx
// responses and malformed payloads all surface as ErrLotteryUnavailable so
// callers treat them as retryable; a 404 means the draw has not been
// published yet and is reported the same way.
func (c *Client) GetResult(ctx context.Context, date time.Time) (*models.LotteryResult, error) {
	url := fmt.Sprintf("%s/results/%s", c.baseURL, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lottery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrLotteryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: lottery API returned %d for %s",
			service.ErrLotteryUnavailable, resp.StatusCode, date.Format("2006-01-02"))
	}

	var body resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed lottery response: %v", service.ErrLotteryUnavailable, err)
	}

	log.WithFields(log.Fields{
		"date":       body.Date,
		"drawNumber": body.DrawNumber,
	}).Debug("Fetched lottery result")

	return &models.LotteryResult{
		Date:       date,
		FirstPrize: body.FirstPrize,
		DrawNumber: body.DrawNumber,
		Series:     body.Series,
		IsOfficial: true,
	}, nil
}

// DevelopmentFeed fabricates draw results so the full resolution path can run
// without the real lottery API. Results are marked unofficial.
type DevelopmentFeed struct{}

// NewDevelopmentFeed creates a feed that generates synthetic results
func NewDevelopmentFeed() *DevelopmentFeed {
	return &DevelopmentFeed{}
}

// GetResult returns a synthetic result derived from the date alone, so
// repeated calls for the same draw resolve a raffle the same way
func (f *DevelopmentFeed) GetResult(ctx context.Context, date time.Time) (*models.LotteryResult, error) {
	rng := rand.New(rand.NewSource(date.Unix()))

	log.WithField("date", date.Format("2006-01-02")).Warn("Serving synthetic lottery result")

	return &models.LotteryResult{
		Date:       date,
		FirstPrize: fmt.Sprintf("%05d", rng.Intn(models.MaxTicketNumbers)),
		DrawNumber: fmt.Sprintf("%d", rng.Intn(9000)+1000),
		Series:     fmt.Sprintf("%d", rng.Intn(9)+1),
		IsOfficial: false,
	}, nil
}
