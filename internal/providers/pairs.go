package providers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// PairIndexClient lists trading pairs for a mint.
type PairIndexClient struct {
	base   string
	ring   *keyring
	trans  *transport
	cache  *ttlCache[[]Pair]
	logger *log.Logger
}

// PairIndexOptions configures PairIndexClient.
type PairIndexOptions struct {
	BaseURL string
	APIKeys []string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewPairIndexClient creates a pair index client.
func NewPairIndexClient(opts PairIndexOptions) *PairIndexClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &PairIndexClient{
		base:   opts.BaseURL,
		ring:   newKeyring("pair_index", opts.APIKeys),
		trans:  newTransport("pair_index", timeout, 2, 4, logger),
		cache:  newTTLCache[[]Pair]("token", tokenCacheTTL),
		logger: logger,
	}
}

// GetPairs returns the trading pairs for mint, or nil when the index has
// no data or is unavailable.
func (c *PairIndexClient) GetPairs(ctx context.Context, mint string) []Pair {
	if cached, ok := c.cache.get(mint); ok {
		return cached
	}

	url := fmt.Sprintf("%s/tokens/%s/pairs", c.base, mint)

	var raw pairsResponse
	err := c.ring.withRotation(func(key string) error {
		header := http.Header{}
		if key != "" {
			header.Set("X-API-Key", key)
		}
		return c.trans.getJSON(ctx, "pairs", url, header, &raw)
	})
	if err != nil {
		c.logger.Printf("pairs unavailable for %s: %v", mint, err)
		return nil
	}

	pairs := make([]Pair, 0, len(raw.Pairs))
	for _, p := range raw.Pairs {
		if p.PairAddress == "" {
			continue
		}
		pairs = append(pairs, Pair{
			PairAddress:    p.PairAddress,
			Exchange:       p.ExchangeName,
			LiquidityUSD:   float64(p.LiquidityUSD),
			USDPrice:       float64(p.USDPrice),
			Volume24hUSD:   float64(p.Volume24hUSD),
			PriceChange24h: float64(p.PriceChange24h),
			CreatedAt:      int64(p.CreatedAt),
		})
	}
	c.cache.put(mint, pairs)
	return pairs
}

type pairsResponse struct {
	Pairs []struct {
		PairAddress    string    `json:"pairAddress"`
		ExchangeName   string    `json:"exchangeName"`
		LiquidityUSD   flexFloat `json:"liquidityUsd"`
		USDPrice       flexFloat `json:"usdPrice"`
		Volume24hUSD   flexFloat `json:"volume24hrUsd"`
		PriceChange24h flexFloat `json:"usdPrice24hrPercentChange"`
		CreatedAt      flexTime  `json:"pairCreatedAt"`
	} `json:"pairs"`
}
