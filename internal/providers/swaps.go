package providers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// SwapFeedClient pages through recent swaps for a mint.
type SwapFeedClient struct {
	base   string
	ring   *keyring
	trans  *transport
	logger *log.Logger
}

// SwapFeedOptions configures SwapFeedClient.
type SwapFeedOptions struct {
	BaseURL string
	APIKeys []string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewSwapFeedClient creates a swap feed client.
func NewSwapFeedClient(opts SwapFeedOptions) *SwapFeedClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &SwapFeedClient{
		base:   opts.BaseURL,
		ring:   newKeyring("swap_feed", opts.APIKeys),
		trans:  newTransport("swap_feed", timeout, 2, 4, logger),
		logger: logger,
	}
}

// GetRecentSwaps returns swaps for mint newer than since (ms), paging by
// cursor up to maxPages pages of pageLimit each. Paging stops early when
// a page is short, the cursor runs out, or a swap older than since shows
// up. Fails soft: pages fetched before an error are still returned.
func (c *SwapFeedClient) GetRecentSwaps(ctx context.Context, mint string, since int64, pageLimit, maxPages int) []Swap {
	if pageLimit <= 0 {
		pageLimit = 100
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	var swaps []Swap
	cursor := ""
	for page := 0; page < maxPages; page++ {
		url := fmt.Sprintf("%s/tokens/%s/swaps?limit=%d", c.base, mint, pageLimit)
		if cursor != "" {
			url += "&cursor=" + cursor
		}

		var raw swapsResponse
		err := c.ring.withRotation(func(key string) error {
			header := http.Header{}
			if key != "" {
				header.Set("X-API-Key", key)
			}
			return c.trans.getJSON(ctx, "swaps", url, header, &raw)
		})
		if err != nil {
			c.logger.Printf("swap page %d unavailable for %s: %v", page, mint, err)
			return swaps
		}

		reachedSince := false
		for _, r := range raw.Result {
			ts := int64(r.BlockTimestamp)
			if since > 0 && ts > 0 && ts < since {
				reachedSince = true
				break
			}
			typ := strings.ToLower(r.TransactionType)
			if typ != "buy" && typ != "sell" {
				continue
			}
			swaps = append(swaps, Swap{
				Type:      typ,
				ValueUSD:  float64(r.TotalValueUSD),
				PriceUSD:  float64(r.TokenPriceUSD),
				Wallet:    r.WalletAddress,
				Timestamp: ts,
			})
		}

		if reachedSince || len(raw.Result) < pageLimit || raw.Cursor == "" {
			break
		}
		cursor = raw.Cursor
	}
	return swaps
}

type swapsResponse struct {
	Cursor string `json:"cursor"`
	Result []struct {
		TransactionType string    `json:"transactionType"`
		TotalValueUSD   flexFloat `json:"totalValueUsd"`
		TokenPriceUSD   flexFloat `json:"baseTokenPriceUsd"`
		WalletAddress   string    `json:"walletAddress"`
		BlockTimestamp  flexTime  `json:"blockTimestamp"`
	} `json:"result"`
}
