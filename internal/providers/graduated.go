package providers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// GraduatedIndexClient lists recently graduated pump.fun tokens from the
// market-data index. Credentials rotate on 401/429.
type GraduatedIndexClient struct {
	base   string
	ring   *keyring
	trans  *transport
	cache  *ttlCache[[]GraduatedToken]
	logger *log.Logger
}

// GraduatedIndexOptions configures GraduatedIndexClient.
type GraduatedIndexOptions struct {
	BaseURL string
	APIKeys []string // primary first, fallbacks after
	Timeout time.Duration
	Logger  *log.Logger
}

// NewGraduatedIndexClient creates a graduated-token index client.
func NewGraduatedIndexClient(opts GraduatedIndexOptions) *GraduatedIndexClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &GraduatedIndexClient{
		base:   opts.BaseURL,
		ring:   newKeyring("graduated_index", opts.APIKeys),
		trans:  newTransport("graduated_index", timeout, 2, 4, logger),
		cache:  newTTLCache[[]GraduatedToken]("token", tokenCacheTTL),
		logger: logger,
	}
}

// List returns up to limit recently graduated tokens, newest first.
// Fails soft: any error yields nil.
func (c *GraduatedIndexClient) List(ctx context.Context, limit int) []GraduatedToken {
	if limit <= 0 {
		limit = 40
	}
	cacheKey := fmt.Sprintf("graduated:%d", limit)
	if cached, ok := c.cache.get(cacheKey); ok {
		return cached
	}

	url := fmt.Sprintf("%s/tokens/graduated?limit=%d", c.base, limit)

	var raw graduatedResponse
	err := c.ring.withRotation(func(key string) error {
		header := http.Header{}
		if key != "" {
			header.Set("X-API-Key", key)
		}
		return c.trans.getJSON(ctx, "list", url, header, &raw)
	})
	if err != nil {
		c.logger.Printf("graduated index unavailable: %v", err)
		return nil
	}

	tokens := make([]GraduatedToken, 0, len(raw.Result))
	for _, r := range raw.Result {
		if r.TokenAddress == "" {
			continue
		}
		tokens = append(tokens, GraduatedToken{
			Mint:        r.TokenAddress,
			Name:        r.Name,
			Symbol:      r.Symbol,
			Logo:        r.Logo,
			PriceUSD:    float64(r.PriceUSD),
			Liquidity:   float64(r.Liquidity),
			FDV:         float64(r.FDV),
			GraduatedAt: int64(r.GraduatedAt),
			PairAddress: r.PairAddress,
		})
	}
	c.cache.put(cacheKey, tokens)
	return tokens
}

// graduatedResponse is the raw index payload; all fields optional.
type graduatedResponse struct {
	Result []struct {
		TokenAddress string    `json:"tokenAddress"`
		Name         string    `json:"name"`
		Symbol       string    `json:"symbol"`
		Logo         string    `json:"logo"`
		PriceUSD     flexFloat `json:"priceUsd"`
		Liquidity    flexFloat `json:"liquidity"`
		FDV          flexFloat `json:"fullyDilutedValuation"`
		GraduatedAt  flexTime  `json:"graduatedAt"`
		PairAddress  string    `json:"pairAddress"`
	} `json:"result"`
}
