// Package pumpfun maintains the upstream WebSocket subscription that
// surfaces token graduations and live trade frames.
package pumpfun

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/observability"
)

// DefaultEndpoint is the public pump.fun data stream.
const DefaultEndpoint = "wss://pumpportal.fun/api/data"

// SolPrice converts SOL amounts at receipt time. Nil result means the
// price is unknown.
type SolPrice interface {
	SolToUSD(ctx context.Context, sol float64) *float64
}

// SourceConfig configures connection behavior.
type SourceConfig struct {
	// ReconnectDelay is the backoff base; the wait is delay × min(attempts, 5).
	ReconnectDelay time.Duration
	// MaxAttempts is the consecutive-failure count that triggers a cooldown.
	MaxAttempts int
	// Cooldown is the pause after MaxAttempts failures; attempts reset after.
	Cooldown time.Duration
	// PingInterval is the liveness ping period.
	PingInterval time.Duration
	// ReadTimeout bounds a single read.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
}

// DefaultSourceConfig returns the production connection settings.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		ReconnectDelay: 5 * time.Second,
		MaxAttempts:    10,
		Cooldown:       60 * time.Second,
		PingInterval:   30 * time.Second,
		ReadTimeout:    90 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// MigrationListener receives each graduation event.
type MigrationListener func(domain.MigrationEvent)

// TradeListener receives each buy/sell frame.
type TradeListener func(domain.TradeEvent)

// StatusListener observes upstream connectivity transitions.
type StatusListener func(connected bool)

// Source is the single persistent upstream connection. Listener panics
// are contained; they never reach the connection loop.
type Source struct {
	endpoint string
	config   SourceConfig
	oracle   SolPrice
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	listenersMu   sync.RWMutex
	migrationSubs []MigrationListener
	tradeSubs     []TradeListener
	statusSubs    []StatusListener

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSource creates a source; Start must be called to connect.
func NewSource(endpoint string, config *SourceConfig, oracle SolPrice, logger *log.Logger) *Source {
	cfg := DefaultSourceConfig()
	if config != nil {
		cfg = *config
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Source{
		endpoint: endpoint,
		config:   cfg,
		oracle:   oracle,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// OnMigration registers a listener for graduation events.
func (s *Source) OnMigration(fn func(domain.MigrationEvent)) {
	s.listenersMu.Lock()
	s.migrationSubs = append(s.migrationSubs, fn)
	s.listenersMu.Unlock()
}

// OnTrade registers a listener for buy/sell frames.
func (s *Source) OnTrade(fn func(domain.TradeEvent)) {
	s.listenersMu.Lock()
	s.tradeSubs = append(s.tradeSubs, fn)
	s.listenersMu.Unlock()
}

// OnStatus registers a listener for connect/disconnect transitions.
func (s *Source) OnStatus(fn func(connected bool)) {
	s.listenersMu.Lock()
	s.statusSubs = append(s.statusSubs, fn)
	s.listenersMu.Unlock()
}

// Start launches the connection loop. It returns immediately; the loop
// keeps reconnecting until Close.
func (s *Source) Start() {
	s.wg.Add(1)
	go s.runLoop()

	s.wg.Add(1)
	go s.pingLoop()
}

// Close shuts the connection down and waits for the loops to exit.
func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// runLoop owns the Disconnected -> Connecting -> Open cycle.
func (s *Source) runLoop() {
	defer s.wg.Done()

	attempts := 0
	for !s.closed.Load() {
		if err := s.connect(); err != nil {
			attempts++
			s.logger.Printf("[pumpfun] connect failed (attempt %d): %v", attempts, err)
			if !s.waitBackoff(&attempts) {
				return
			}
			continue
		}

		attempts = 0
		s.logger.Printf("[pumpfun] connected to %s", s.endpoint)
		s.dispatchStatus(true)

		if err := s.readFrames(); err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Printf("[pumpfun] connection lost: %v", err)
			s.dispatchStatus(false)
			observability.RecordWSReconnect()
			attempts++
			if !s.waitBackoff(&attempts) {
				return
			}
		}
	}
}

// waitBackoff sleeps per the reconnect schedule. After MaxAttempts
// consecutive failures it sleeps the cooldown and resets the counter.
// Returns false when the source is shutting down.
func (s *Source) waitBackoff(attempts *int) bool {
	var delay time.Duration
	if *attempts >= s.config.MaxAttempts {
		s.logger.Printf("[pumpfun] %d consecutive failures, cooling down for %s",
			*attempts, s.config.Cooldown)
		observability.RecordWSCooldown()
		delay = s.config.Cooldown
		*attempts = 0
	} else {
		delay = reconnectDelay(s.config.ReconnectDelay, *attempts)
	}

	select {
	case <-s.done:
		return false
	case <-time.After(delay):
		return true
	}
}

// reconnectDelay is base × min(attempts, 5).
func reconnectDelay(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 5 {
		attempts = 5
	}
	return base * time.Duration(attempts)
}

// connect dials and sends the subscription frame.
func (s *Source) connect() error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	sub := map[string]interface{}{"method": "subscribeMigration"}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// readFrames reads until the connection errors or the source closes.
func (s *Source) readFrames() error {
	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			return fmt.Errorf("not connected")
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			return err
		}

		s.handleMessage(message)
	}
}

func (s *Source) handleMessage(message []byte) {
	f, err := parseFrame(message)
	if err != nil {
		// Subscription acks and heartbeats have no txType; skip quietly.
		return
	}

	switch f.TxType {
	case "migration":
		if f.Mint == "" {
			return
		}
		observability.RecordMigration()

		var marketCapUSD *float64
		if f.MarketCapSol != nil && s.oracle != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			marketCapUSD = s.oracle.SolToUSD(ctx, *f.MarketCapSol)
			cancel()
		}
		event := f.migrationEvent(marketCapUSD)
		s.dispatchMigration(event)

	case "buy", "sell":
		observability.RecordTradeFrame(f.TxType)
		s.dispatchTrade(f.tradeEvent())
	}
}

func (s *Source) dispatchMigration(event domain.MigrationEvent) {
	s.listenersMu.RLock()
	subs := make([]MigrationListener, len(s.migrationSubs))
	copy(subs, s.migrationSubs)
	s.listenersMu.RUnlock()

	for _, fn := range subs {
		s.safeCall(func() { fn(event) })
	}
}

func (s *Source) dispatchTrade(event domain.TradeEvent) {
	s.listenersMu.RLock()
	subs := make([]TradeListener, len(s.tradeSubs))
	copy(subs, s.tradeSubs)
	s.listenersMu.RUnlock()

	for _, fn := range subs {
		s.safeCall(func() { fn(event) })
	}
}

func (s *Source) dispatchStatus(connected bool) {
	s.listenersMu.RLock()
	subs := make([]StatusListener, len(s.statusSubs))
	copy(subs, s.statusSubs)
	s.listenersMu.RUnlock()

	for _, fn := range subs {
		s.safeCall(func() { fn(connected) })
	}
}

// safeCall contains listener panics so the read loop survives.
func (s *Source) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("[pumpfun] listener panic: %v", r)
		}
	}()
	fn()
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *Source) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, the read loop handles reconnect
				}
			}
			s.connMu.Unlock()
		}
	}
}
