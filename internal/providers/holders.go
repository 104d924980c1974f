package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"pumpfun-radar/internal/domain"
)

// HolderRegistryClient serves aggregate holder stats and the top-holder
// list for a mint. A 404 from the registry is a normal "unknown" answer,
// not a failure: stats come back with TotalHolders = -1 and the holder
// list comes back nil.
type HolderRegistryClient struct {
	base       string
	ring       *keyring
	trans      *transport
	statsCache *ttlCache[HolderStats]
	listCache  *ttlCache[[]TopHolder]
	logger     *log.Logger
}

// HolderRegistryOptions configures HolderRegistryClient.
type HolderRegistryOptions struct {
	BaseURL string
	APIKeys []string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewHolderRegistryClient creates a holder registry client.
func NewHolderRegistryClient(opts HolderRegistryOptions) *HolderRegistryClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &HolderRegistryClient{
		base:       opts.BaseURL,
		ring:       newKeyring("holder_registry", opts.APIKeys),
		trans:      newTransport("holder_registry", timeout, 2, 4, logger),
		statsCache: newTTLCache[HolderStats]("holder", holderCacheTTL),
		listCache:  newTTLCache[[]TopHolder]("holder", holderCacheTTL),
		logger:     logger,
	}
}

// unknownStats is the absent sentinel for holder data.
func unknownStats() HolderStats {
	return HolderStats{TotalHolders: domain.HolderCountUnknown}
}

// GetHolderStats returns the aggregate holder view for mint. Percentages
// are converted from the registry's 0..100 scale to decimals here, at the
// boundary, so everything downstream works in [0,1].
func (c *HolderRegistryClient) GetHolderStats(ctx context.Context, mint string) HolderStats {
	if cached, ok := c.statsCache.get("stats:" + mint); ok {
		return cached
	}

	url := fmt.Sprintf("%s/tokens/%s/holders", c.base, mint)

	var raw holderStatsResponse
	err := c.ring.withRotation(func(key string) error {
		header := http.Header{}
		if key != "" {
			header.Set("X-API-Key", key)
		}
		return c.trans.getJSON(ctx, "holder_stats", url, header, &raw)
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			stats := unknownStats()
			c.statsCache.put("stats:"+mint, stats)
			return stats
		}
		c.logger.Printf("holder stats unavailable for %s: %v", mint, err)
		return unknownStats()
	}

	stats := HolderStats{TotalHolders: domain.HolderCountUnknown}
	if raw.TotalHolders != nil && *raw.TotalHolders > 0 {
		stats.TotalHolders = *raw.TotalHolders
	}
	stats.Top10Percent = float64(raw.Top10SupplyPercent) / 100
	stats.DevHoldingsPercent = float64(raw.DevSupplyPercent) / 100
	c.statsCache.put("stats:"+mint, stats)
	return stats
}

// GetTopHolders returns up to limit holders ordered by share descending,
// or nil when the registry has no data.
func (c *HolderRegistryClient) GetTopHolders(ctx context.Context, mint string, limit int) []TopHolder {
	if limit <= 0 {
		limit = 20
	}
	cacheKey := fmt.Sprintf("top:%s:%d", mint, limit)
	if cached, ok := c.listCache.get(cacheKey); ok {
		return cached
	}

	url := fmt.Sprintf("%s/tokens/%s/top-holders?limit=%d", c.base, mint, limit)

	var raw topHoldersResponse
	err := c.ring.withRotation(func(key string) error {
		header := http.Header{}
		if key != "" {
			header.Set("X-API-Key", key)
		}
		return c.trans.getJSON(ctx, "top_holders", url, header, &raw)
	})
	if err != nil {
		var se *statusError
		if !errors.As(err, &se) || se.code != http.StatusNotFound {
			c.logger.Printf("top holders unavailable for %s: %v", mint, err)
		}
		return nil
	}

	holders := make([]TopHolder, 0, len(raw.Result))
	for _, h := range raw.Result {
		if h.OwnerAddress == "" {
			continue
		}
		holders = append(holders, TopHolder{
			Owner:              h.OwnerAddress,
			PercentageOfSupply: float64(h.PercentageOfSupply) / 100,
			Label:              h.Label,
		})
	}
	c.listCache.put(cacheKey, holders)
	return holders
}

type holderStatsResponse struct {
	TotalHolders       *int64    `json:"totalHolders"`
	Top10SupplyPercent flexFloat `json:"top10SupplyPercent"`
	DevSupplyPercent   flexFloat `json:"devSupplyPercent"`
}

type topHoldersResponse struct {
	Result []struct {
		OwnerAddress       string    `json:"ownerAddress"`
		PercentageOfSupply flexFloat `json:"percentageRelativeToTotalSupply"`
		Label              string    `json:"ownerAddressLabel"`
	} `json:"result"`
}
