// Package oddsfeed maintains a live websocket subscription to the
// pari-mutuel odds stream and keeps per-race odds tables current.
package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/trifecta-engine/internal/config"
	"github.com/yourusername/trifecta-engine/internal/metrics"
	"github.com/yourusername/trifecta-engine/internal/models"
)

// UpdateHandler is called for every odds snapshot received from the stream.
type UpdateHandler func(odds *models.CombinationOdds) error

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// streamMessage is the wire envelope pushed by the odds stream.
type streamMessage struct {
	Op      string        `json:"op"`
	RaceID  string        `json:"race_id,omitempty"`
	Market  string        `json:"market,omitempty"`
	Updates []oddsChange  `json:"updates,omitempty"`
	Time    time.Time     `json:"time,omitempty"`
}

// oddsChange is a single combination price inside a stream message.
type oddsChange struct {
	Combination string  `json:"combination"`
	Odds        float64 `json:"odds"`
}

// StreamClient handles the websocket connection to the odds feed.
type StreamClient struct {
	conn            *websocket.Conn
	streamURL       string
	apiKey          string
	mu              sync.RWMutex
	isConnected     bool
	handlers        []UpdateHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	tables          map[uuid.UUID]models.OddsTable
	logger          *logrus.Logger
}

// NewStreamClient creates a new stream client from configuration.
func NewStreamClient(cfg *config.OddsFeedConfig, logger *logrus.Logger) *StreamClient {
	reconnect := DefaultReconnectConfig()
	if cfg.ReconnectMax > 0 {
		reconnect.MaxRetries = cfg.ReconnectMax
	}

	return &StreamClient{
		streamURL:       cfg.StreamURL,
		apiKey:          cfg.APIKey,
		handlers:        make([]UpdateHandler, 0),
		reconnectConfig: reconnect,
		tables:          make(map[uuid.UUID]models.OddsTable),
		logger:          logger,
	}
}

// Connect establishes the websocket connection and starts the read loop.
func (s *StreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to odds stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()
	metrics.SetOddsFeedConnected(true)

	s.logger.WithField("url", s.streamURL).Info("Connected to odds stream")

	go s.readMessages()

	return nil
}

// ConnectWithRetry dials with exponential backoff until connected, the retry
// budget is exhausted, or the context is cancelled.
func (s *StreamClient) ConnectWithRetry(ctx context.Context) error {
	backoff := s.reconnectConfig.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= s.reconnectConfig.MaxRetries; attempt++ {
		if err := s.Connect(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"backoff": backoff.String(),
		}).Warn("Odds stream connection failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
		if backoff > s.reconnectConfig.MaxBackoff {
			backoff = s.reconnectConfig.MaxBackoff
		}
	}

	return fmt.Errorf("odds stream unreachable after %d attempts: %w",
		s.reconnectConfig.MaxRetries+1, lastErr)
}

// Subscribe requests odds updates for the given races.
func (s *StreamClient) Subscribe(raceIDs []uuid.UUID) error {
	ids := make([]string, len(raceIDs))
	for i, id := range raceIDs {
		ids[i] = id.String()
	}

	s.logger.WithField("races", len(ids)).Info("Subscribing to odds updates")
	return s.sendMessage(map[string]interface{}{
		"op":       "subscribe",
		"apiKey":   s.apiKey,
		"raceIds":  ids,
		"markets":  []string{string(models.MarketTrifecta)},
		"heartbeat": true,
	})
}

// AddHandler registers an update handler. Handlers run on the read loop
// goroutine and must not block.
func (s *StreamClient) AddHandler(handler UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Table returns a copy of the current odds table for a race.
func (s *StreamClient) Table(raceID uuid.UUID) models.OddsTable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[raceID]
	if !ok {
		return models.OddsTable{}
	}
	out := make(models.OddsTable, len(table))
	for key, odds := range table {
		out[key] = odds
	}
	return out
}

// readMessages reads messages from the websocket until the connection drops.
func (s *StreamClient) readMessages() {
	defer s.Close()

	for {
		var raw json.RawMessage
		if err := s.conn.ReadJSON(&raw); err != nil {
			s.logger.WithError(err).Warn("Odds stream read failed")
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			metrics.SetOddsFeedConnected(false)
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.WithError(err).Warn("Malformed odds stream message")
			continue
		}

		if msg.Op != "odds" {
			continue
		}
		s.handleOddsMessage(&msg)
	}
}

func (s *StreamClient) handleOddsMessage(msg *streamMessage) {
	raceID, err := uuid.Parse(msg.RaceID)
	if err != nil {
		s.logger.WithField("race_id", msg.RaceID).Warn("Odds message with invalid race id")
		return
	}

	when := msg.Time
	if when.IsZero() {
		when = time.Now()
	}

	s.mu.Lock()
	table, ok := s.tables[raceID]
	if !ok {
		table = make(models.OddsTable)
		s.tables[raceID] = table
	}
	for _, change := range msg.Updates {
		if change.Odds > 0 {
			table[change.Combination] = change.Odds
		}
	}
	handlers := s.handlers
	s.mu.Unlock()

	metrics.RecordOddsUpdate()

	for _, change := range msg.Updates {
		if change.Odds <= 0 {
			continue
		}
		snapshot := &models.CombinationOdds{
			Time:        when,
			RaceID:      raceID,
			Market:      models.Market(msg.Market),
			Combination: change.Combination,
			Odds:        change.Odds,
		}
		for _, handler := range handlers {
			if err := handler(snapshot); err != nil {
				s.logger.WithError(err).Warn("Odds update handler failed")
			}
		}
	}
}

// sendMessage sends a JSON message to the stream.
func (s *StreamClient) sendMessage(msg interface{}) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := s.conn
	s.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the stream is connected.
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message.
func (s *StreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection.
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	metrics.SetOddsFeedConnected(false)
	return s.conn.Close()
}
