package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/config"
	"github.com/yourusername/trifecta-engine/internal/models"
)

// raceCardResponse is the provider's wire format for one race card.
type raceCardResponse struct {
	RaceID         string          `json:"race_id"`
	Venue          string          `json:"venue"`
	RaceNumber     int             `json:"race_number"`
	ScheduledStart time.Time       `json:"scheduled_start"`
	Entries        []entryResponse `json:"entries"`
}

type entryResponse struct {
	Number   int       `json:"number"`
	Name     string    `json:"name"`
	Features []float64 `json:"features"`
}

// RaceCardClient fetches upcoming race cards from the provider API.
type RaceCardClient struct {
	http    *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewRaceCardClient creates a race card client from configuration.
func NewRaceCardClient(cfg *config.RaceCardsConfig, logger *logrus.Logger) *RaceCardClient {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RetryAttempts > 0 {
		httpCfg.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RateLimitPerSecond > 0 {
		httpCfg.RateLimit = cfg.RateLimitPerSecond
	}

	return &RaceCardClient{
		http:    NewRateLimitedHTTPClient(httpCfg, logger),
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// UpcomingRaces fetches cards for races that have not started yet. Cards that
// fail validation are skipped with a warning rather than failing the fetch.
func (c *RaceCardClient) UpcomingRaces(ctx context.Context) ([]*models.RaceCard, error) {
	url := fmt.Sprintf("%s/api/v1/racecards/upcoming", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build race card request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("race card fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("race card provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Races []raceCardResponse `json:"races"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode race cards: %w", err)
	}

	cards := make([]*models.RaceCard, 0, len(payload.Races))
	for _, raw := range payload.Races {
		card, err := c.toRaceCard(&raw)
		if err != nil {
			c.logger.WithError(err).WithField("race_id", raw.RaceID).
				Warn("Skipping invalid race card")
			continue
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// Close releases the underlying HTTP client resources.
func (c *RaceCardClient) Close() error {
	return c.http.Close()
}

func (c *RaceCardClient) toRaceCard(raw *raceCardResponse) (*models.RaceCard, error) {
	raceID, err := uuid.Parse(raw.RaceID)
	if err != nil {
		return nil, fmt.Errorf("invalid race id %q: %w", raw.RaceID, err)
	}

	card := &models.RaceCard{
		RaceID:         raceID,
		Venue:          raw.Venue,
		RaceNumber:     raw.RaceNumber,
		ScheduledStart: raw.ScheduledStart,
		Entries:        make([]models.Entry, 0, len(raw.Entries)),
	}
	for _, e := range raw.Entries {
		card.Entries = append(card.Entries, models.Entry{
			Number:   e.Number,
			Name:     e.Name,
			Features: e.Features,
		})
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}
