// Package enrich fuses provider and on-chain data for one migration event
// into a scored TokenRecord. Every provider failure degrades to a sentinel
// value; under the deadline a record is always produced.
package enrich

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/observability"
	"pumpfun-radar/internal/providers"
	"pumpfun-radar/internal/scoring"
	"pumpfun-radar/internal/solana"
)

// Mode selects the enrichment depth.
type Mode string

const (
	// ModeFast skips launch analysis and metadata fetches; used for backfill.
	ModeFast Mode = "fast"
	// ModeFull runs every probe; used for live events.
	ModeFull Mode = "full"
)

func (m Mode) deadline() time.Duration {
	if m == ModeFast {
		return 6 * time.Second
	}
	return 10 * time.Second
}

// PairIndex lists trading pairs for a mint.
type PairIndex interface {
	GetPairs(ctx context.Context, mint string) []providers.Pair
}

// HolderRegistry serves holder aggregates and the top-holder list.
type HolderRegistry interface {
	GetHolderStats(ctx context.Context, mint string) providers.HolderStats
	GetTopHolders(ctx context.Context, mint string, limit int) []providers.TopHolder
}

// SwapSource pages recent swaps for a mint.
type SwapSource interface {
	GetRecentSwaps(ctx context.Context, mint string, since int64, pageLimit, maxPages int) []providers.Swap
}

// ChainRPC is the on-chain surface the orchestrator consumes.
type ChainRPC interface {
	GetMintInfo(ctx context.Context, mint string) (*solana.MintInfo, error)
	GetTokenSupply(ctx context.Context, mint string) (float64, error)
	GetLargestTokenAccounts(ctx context.Context, mint string) ([]solana.TokenAccount, error)
	GetAccountOwner(ctx context.Context, tokenAccount string) (string, error)
	GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error)
	GetAsset(ctx context.Context, id string) (*solana.Asset, error)
	GetAssetsByCreator(ctx context.Context, creator string, limit int) ([]solana.Asset, error)
	GetTransactionHistory(ctx context.Context, address string, limit int, typeFilter string) ([]solana.EnrichedTransaction, error)
}

// Orchestrator runs the enrichment pipeline for one event at a time.
// It is safe for concurrent use.
type Orchestrator struct {
	pairs   PairIndex
	holders HolderRegistry
	swaps   SwapSource
	chain   ChainRPC
	engine  *scoring.Engine
	client  *http.Client // metadata URI fetches
	logger  *log.Logger
	now     func() time.Time
}

// Options wires the orchestrator's dependencies.
type Options struct {
	Pairs   PairIndex
	Holders HolderRegistry
	Swaps   SwapSource
	Chain   ChainRPC
	Engine  *scoring.Engine
	Logger  *log.Logger
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultConfig())
	}
	return &Orchestrator{
		pairs:   opts.Pairs,
		holders: opts.Holders,
		swaps:   opts.Swaps,
		chain:   opts.Chain,
		engine:  engine,
		client:  &http.Client{Timeout: 3 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

// fetched collects the raw task outputs before fusion. Each field is
// written by exactly one goroutine and read only after Wait.
type fetched struct {
	pairs       []providers.Pair
	holderStats providers.HolderStats
	topHolders  []providers.TopHolder
	swaps       []providers.Swap
	onchain     *onchainProbe
	security    *domain.SecurityInfo
	mintInfo    *solana.MintInfo
	history     []solana.EnrichedTransaction
	creatorHist *domain.CreatorHistory
	metadata    *offchainMetadata
}

// Enrich produces a scored record for the event. It returns within the
// mode's deadline regardless of provider behavior.
func (o *Orchestrator) Enrich(ctx context.Context, event domain.MigrationEvent, mode Mode) *domain.TokenRecord {
	start := o.now()
	ctx, cancel := context.WithTimeout(ctx, mode.deadline())
	defer cancel()

	creator := o.resolveCreator(ctx, event)

	data := &fetched{holderStats: providers.HolderStats{TotalHolders: domain.HolderCountUnknown}}
	since := start.UnixMilli() - 24*3600_000

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer taskRecover(o.logger, "pairs")
		if o.pairs != nil {
			data.pairs = o.pairs.GetPairs(gctx, event.Mint)
		}
		return nil
	})
	g.Go(func() error {
		defer taskRecover(o.logger, "holders")
		if o.holders != nil {
			data.holderStats = o.holders.GetHolderStats(gctx, event.Mint)
			data.topHolders = o.holders.GetTopHolders(gctx, event.Mint, 20)
		}
		return nil
	})
	g.Go(func() error {
		defer taskRecover(o.logger, "swaps")
		if o.swaps != nil {
			data.swaps = o.swaps.GetRecentSwaps(gctx, event.Mint, since, 100, 3)
		}
		return nil
	})
	g.Go(func() error {
		defer taskRecover(o.logger, "onchain")
		data.onchain = o.onchainProbe(gctx, event.Mint, creator)
		return nil
	})
	g.Go(func() error {
		defer taskRecover(o.logger, "security")
		data.security, data.mintInfo = o.securityProbe(gctx, event.Mint, mode)
		return nil
	})
	g.Go(func() error {
		defer taskRecover(o.logger, "creator_history")
		data.creatorHist = o.creatorHistory(gctx, creator)
		return nil
	})
	if mode == ModeFull {
		g.Go(func() error {
			defer taskRecover(o.logger, "history")
			data.history = o.transactionHistory(gctx, event.Mint)
			return nil
		})
		g.Go(func() error {
			defer taskRecover(o.logger, "metadata")
			data.metadata = o.fetchMetadata(gctx, event.URI)
			return nil
		})
	}
	g.Wait()

	// Funding depends on the top-holder list, so it runs after the joins
	// on whatever deadline remains.
	funding := o.walletFunding(ctx, data.topHolders, start.UnixMilli())

	if ctx.Err() != nil {
		observability.RecordEnrichmentTimeout("enrich")
	}

	record := o.fuse(event, creator, mode, data, funding, start.UnixMilli())
	record.Analysis = o.engine.Score(record)

	observability.RecordEnrichment(string(mode), o.now().Sub(start).Seconds())
	return record
}

// resolveCreator falls back to the asset registry when the event carries
// no creator wallet.
func (o *Orchestrator) resolveCreator(ctx context.Context, event domain.MigrationEvent) string {
	if event.Creator != "" {
		return event.Creator
	}
	if o.chain == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	asset, err := o.chain.GetAsset(ctx, event.Mint)
	if err != nil || asset == nil {
		return ""
	}
	return asset.Creator
}

func (o *Orchestrator) transactionHistory(ctx context.Context, mint string) []solana.EnrichedTransaction {
	if o.chain == nil {
		return nil
	}
	txs, err := o.chain.GetTransactionHistory(ctx, mint, 100, "")
	if err != nil {
		o.logger.Printf("transaction history unavailable for %s: %v", mint, err)
		return nil
	}
	return txs
}

func taskRecover(logger *log.Logger, task string) {
	if r := recover(); r != nil {
		logger.Printf("enrichment task %s panicked: %v", task, r)
	}
}
