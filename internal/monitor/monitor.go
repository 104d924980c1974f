// Package monitor owns the analysis pipeline state: it backfills recently
// graduated tokens, follows the live migration stream, and keeps a bounded
// history of analyzed records. Single writer over history and stats.
package monitor

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"pumpfun-radar/internal/bus"
	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/enrich"
	"pumpfun-radar/internal/observability"
	"pumpfun-radar/internal/providers"
)

const (
	historyLimit     = 100
	backfillCount    = 40
	backfillBatch    = 5
	backfillDelay    = 500 * time.Millisecond
	backfillPerToken = 8 * time.Second
	defaultDrain     = 5 * time.Second
)

// Enricher produces a scored record for one event.
type Enricher interface {
	Enrich(ctx context.Context, event domain.MigrationEvent, mode enrich.Mode) *domain.TokenRecord
}

// GraduatedIndex lists recently graduated tokens for backfill.
type GraduatedIndex interface {
	List(ctx context.Context, limit int) []providers.GraduatedToken
}

// MigrationStream is the live upstream connection.
type MigrationStream interface {
	OnMigration(fn func(domain.MigrationEvent))
	OnStatus(fn func(connected bool))
	Start()
	Close() error
}

// SolPrice primes the price cache before backfill.
type SolPrice interface {
	GetPriceUSD(ctx context.Context) *float64
}

// Monitor drives backfill and live analysis. All mutation of history and
// stats happens on the run goroutine; reads take the mutex for snapshots.
type Monitor struct {
	enricher  Enricher
	graduated GraduatedIndex
	stream    MigrationStream
	solPrice  SolPrice
	events    *bus.Bus
	logger    *log.Logger
	drain     time.Duration

	mu                  sync.Mutex
	running             bool
	initialLoadComplete bool
	history             []*domain.TokenRecord
	stats               domain.MonitorStats

	live chan domain.MigrationEvent
	done chan struct{}
	wg   sync.WaitGroup
}

// Options wires the monitor's dependencies.
type Options struct {
	Enricher  Enricher
	Graduated GraduatedIndex
	Stream    MigrationStream
	SolPrice  SolPrice
	Bus       *bus.Bus
	Logger    *log.Logger
	// DrainTimeout bounds Stop's wait for an in-flight enrichment.
	// Defaults to 5s.
	DrainTimeout time.Duration
}

// New creates a stopped monitor.
func New(opts Options) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	events := opts.Bus
	if events == nil {
		events = bus.New()
	}
	drain := opts.DrainTimeout
	if drain <= 0 {
		drain = defaultDrain
	}
	return &Monitor{
		enricher:  opts.Enricher,
		graduated: opts.Graduated,
		stream:    opts.Stream,
		solPrice:  opts.SolPrice,
		events:    events,
		logger:    logger,
		drain:     drain,
	}
}

// Bus exposes the lifecycle event bus for subscribers.
func (m *Monitor) Bus() *bus.Bus { return m.events }

// Start launches backfill and the live loop. Idempotent.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.live = make(chan domain.MigrationEvent, 256)
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()
}

// Stop disconnects the stream and idles the monitor. The wait for an
// in-flight enrichment is bounded by the drain timeout; a slower one is
// abandoned to its own deadline.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	done := m.done
	m.mu.Unlock()

	if m.stream != nil {
		m.stream.Close()
	}
	close(done)

	drained := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(m.drain):
		m.logger.Printf("[monitor] drain timed out after %s, abandoning in-flight analysis", m.drain)
	}
	m.events.Publish(bus.Event{Type: bus.EventStopped})
}

// Running reports whether the monitor has been started.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// InitialLoadComplete reports whether backfill has finished.
func (m *Monitor) InitialLoadComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialLoadComplete
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() domain.MonitorStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// History returns up to limit records, most recently analyzed first.
// passedOnly keeps only records whose analysis passed.
func (m *Monitor) History(limit int, passedOnly bool) []*domain.TokenRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.TokenRecord
	for _, record := range m.history {
		if passedOnly && (record.Analysis == nil || !record.Analysis.Passed) {
			continue
		}
		out = append(out, record)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Get returns the record for a mint, or nil.
func (m *Monitor) Get(address string) *domain.TokenRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.history {
		if record.Address == address {
			return record
		}
	}
	return nil
}

// Analyze runs one on-demand full enrichment, inserts the result and
// emits it like any live event.
func (m *Monitor) Analyze(ctx context.Context, event domain.MigrationEvent) *domain.TokenRecord {
	return m.process(ctx, event, enrich.ModeFull)
}

func (m *Monitor) run() {
	defer m.wg.Done()

	// Prime the SOL price cache so backfill conversions hit it warm.
	if m.solPrice != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		m.solPrice.GetPriceUSD(ctx)
		cancel()
	}

	m.backfill()

	m.mu.Lock()
	m.initialLoadComplete = true
	count := len(m.history)
	m.mu.Unlock()
	m.events.Publish(bus.Event{Type: bus.EventHistoryLoaded, Count: count})

	if m.stream != nil {
		m.stream.OnMigration(func(event domain.MigrationEvent) {
			select {
			case m.live <- event:
			case <-m.done:
			default:
				m.logger.Printf("[monitor] live queue full, dropping %s", event.Mint)
			}
		})
		m.stream.OnStatus(func(connected bool) {
			typ := bus.EventDisconnected
			if connected {
				typ = bus.EventConnected
			}
			m.events.Publish(bus.Event{Type: typ})
		})
		m.stream.Start()
	}

	for {
		select {
		case <-m.done:
			m.events.Publish(bus.Event{Type: bus.EventDisconnected})
			return
		case event := <-m.live:
			m.process(context.Background(), event, enrich.ModeFull)
		}
	}
}

// backfill analyzes recently graduated tokens in fast mode, batch by
// batch, before live events start flowing.
func (m *Monitor) backfill() {
	if m.graduated == nil {
		return
	}

	listCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tokens := m.graduated.List(listCtx, backfillCount)
	cancel()

	m.events.Publish(bus.Event{Type: bus.EventLoadingHistory, Count: len(tokens)})
	if len(tokens) == 0 {
		return
	}

	for start := 0; start < len(tokens); start += backfillBatch {
		select {
		case <-m.done:
			return
		default:
		}

		end := start + backfillBatch
		if end > len(tokens) {
			end = len(tokens)
		}

		var wg sync.WaitGroup
		for _, token := range tokens[start:end] {
			wg.Add(1)
			go func(token providers.GraduatedToken) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), backfillPerToken)
				defer cancel()
				m.process(ctx, m.synthesize(token), enrich.ModeFast)
			}(token)
		}
		wg.Wait()

		if end < len(tokens) {
			select {
			case <-m.done:
				return
			case <-time.After(backfillDelay):
			}
		}
	}
}

// synthesize builds a MigrationEvent from a graduated-index entry.
func (m *Monitor) synthesize(token providers.GraduatedToken) domain.MigrationEvent {
	event := domain.MigrationEvent{
		Mint:      token.Mint,
		Name:      token.Name,
		Symbol:    token.Symbol,
		URI:       token.Logo,
		Timestamp: token.GraduatedAt,
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if token.FDV > 0 {
		fdv := token.FDV
		event.MarketCap = &fdv
	}
	if token.Liquidity > 0 {
		liq := token.Liquidity
		event.Liquidity = &liq
	}
	return event
}

// process enriches one event and folds the record into history and stats.
// A panic inside one enrichment is contained here.
func (m *Monitor) process(ctx context.Context, event domain.MigrationEvent, mode enrich.Mode) (record *domain.TokenRecord) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("[monitor] enrichment panic for %s: %v", event.Mint, r)
			m.events.Publish(bus.Event{Type: bus.EventError})
			record = nil
		}
	}()

	if event.Mint == "" || m.enricher == nil {
		return nil
	}

	record = m.enricher.Enrich(ctx, event, mode)
	if record == nil || record.Analysis == nil {
		return nil
	}
	if record.Analysis.Score < 0 || record.Analysis.Score > 100 {
		// Invariant violation: drop silently rather than emit a malformed
		// record.
		m.logger.Printf("[monitor] score out of range for %s: %d", record.Address, record.Analysis.Score)
		return nil
	}

	m.insert(record)

	passed := record.Analysis.Passed
	result := "filtered"
	if passed {
		result = "passed"
	}
	observability.RecordAnalyzed(result, record.Analysis.Score)

	if passed {
		m.events.Publish(bus.Event{Type: bus.EventTokenPassed, Record: record})
	} else {
		m.events.Publish(bus.Event{Type: bus.EventTokenFiltered, Record: record})
	}
	m.events.Publish(bus.Event{Type: bus.EventTokenAnalyzed, Record: record})
	return record
}

// insert adds the record to history, replacing any older entry for the
// same mint and evicting the oldest past the cap.
func (m *Monitor) insert(record *domain.TokenRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.history {
		if existing.Address == record.Address {
			m.history = append(m.history[:i], m.history[i+1:]...)
			break
		}
	}
	m.history = append(m.history, record)
	sort.SliceStable(m.history, func(i, j int) bool {
		return m.history[i].AnalyzedAt > m.history[j].AnalyzedAt
	})
	if len(m.history) > historyLimit {
		m.history = m.history[:historyLimit]
	}

	m.stats.Monitored++
	if record.Analysis.Passed {
		m.stats.Passed++
	} else {
		m.stats.Filtered++
	}
	observability.SetHistorySize(len(m.history))
}
