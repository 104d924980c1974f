// Package oracle resolves the USD price of SOL across independent public
// sources with a short cache. A nil price means "unknown right now";
// callers must not substitute a default.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"pumpfun-radar/internal/observability"
)

const priceTTL = 30 * time.Second

// source fetches one quote. A source returns (0, err) on any failure;
// only positive finite prices are accepted.
type source struct {
	name  string
	fetch func(ctx context.Context, client *http.Client) (float64, error)
}

// SolPriceOracle caches the SOL/USD price for 30s and tries its sources
// in order on a miss.
type SolPriceOracle struct {
	client  *http.Client
	sources []source
	logger  *log.Logger

	mu          sync.Mutex
	cachedPrice float64
	cachedAt    time.Time
	now         func() time.Time
}

// Options configures SolPriceOracle.
type Options struct {
	Timeout time.Duration
	Logger  *log.Logger
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// New creates an oracle over the default public sources.
func New(opts Options) *SolPriceOracle {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &SolPriceOracle{
		client: client,
		sources: []source{
			{name: "coingecko", fetch: fetchCoinGecko},
			{name: "binance", fetch: fetchBinance},
			{name: "jupiter", fetch: fetchJupiter},
		},
		logger: logger,
		now:    time.Now,
	}
}

// GetPriceUSD returns the current SOL price in USD, or nil when every
// source fails. Stale cache entries are never served.
func (o *SolPriceOracle) GetPriceUSD(ctx context.Context) *float64 {
	o.mu.Lock()
	if o.cachedPrice > 0 && o.now().Sub(o.cachedAt) < priceTTL {
		price := o.cachedPrice
		o.mu.Unlock()
		return &price
	}
	o.mu.Unlock()

	for _, src := range o.sources {
		price, err := src.fetch(ctx, o.client)
		if err != nil || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			observability.RecordSolPriceFetch(src.name, "miss")
			if err != nil {
				o.logger.Printf("sol price source %s failed: %v", src.name, err)
			}
			continue
		}
		observability.RecordSolPriceFetch(src.name, "hit")

		o.mu.Lock()
		o.cachedPrice = price
		o.cachedAt = o.now()
		o.mu.Unlock()
		return &price
	}
	return nil
}

// SolToUSD converts a SOL amount to USD; nil when the price is unknown.
func (o *SolPriceOracle) SolToUSD(ctx context.Context, sol float64) *float64 {
	price := o.GetPriceUSD(ctx)
	if price == nil {
		return nil
	}
	v := sol * *price
	return &v
}

// USDToSol converts a USD amount to SOL; nil when the price is unknown.
func (o *SolPriceOracle) USDToSol(ctx context.Context, usd float64) *float64 {
	price := o.GetPriceUSD(ctx)
	if price == nil || *price == 0 {
		return nil
	}
	v := usd / *price
	return &v
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

var (
	coinGeckoURL = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	binanceURL   = "https://api.binance.com/api/v3/ticker/price?symbol=SOLUSDT"
	jupiterURL   = "https://price.jup.ag/v6/price?ids=SOL"
)

func fetchCoinGecko(ctx context.Context, client *http.Client) (float64, error) {
	var payload struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := getJSON(ctx, client, coinGeckoURL, &payload); err != nil {
		return 0, err
	}
	return payload.Solana.USD, nil
}

func fetchBinance(ctx context.Context, client *http.Client) (float64, error) {
	var payload struct {
		Price string `json:"price"`
	}
	if err := getJSON(ctx, client, binanceURL, &payload); err != nil {
		return 0, err
	}
	var price float64
	if _, err := fmt.Sscanf(payload.Price, "%f", &price); err != nil {
		return 0, fmt.Errorf("parse price %q: %w", payload.Price, err)
	}
	return price, nil
}

func fetchJupiter(ctx context.Context, client *http.Client) (float64, error) {
	var payload struct {
		Data struct {
			SOL struct {
				Price float64 `json:"price"`
			} `json:"SOL"`
		} `json:"data"`
	}
	if err := getJSON(ctx, client, jupiterURL, &payload); err != nil {
		return 0, err
	}
	return payload.Data.SOL.Price, nil
}
