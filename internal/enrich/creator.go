package enrich

import (
	"context"
	"strings"
	"time"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/solana"
)

const serialCreatorThreshold = 3

// creatorHistory surveys the creator wallet's past fungible launches.
// Rug outcomes for past tokens need market data per token and are not
// resolved here; RuggedTokens stays 0 in live enrichment.
func (o *Orchestrator) creatorHistory(ctx context.Context, creator string) *domain.CreatorHistory {
	if o.chain == nil || creator == "" {
		return nil
	}

	assets, err := o.chain.GetAssetsByCreator(ctx, creator, 100)
	if err != nil {
		o.logger.Printf("creator history unavailable for %s: %v", creator, err)
		return nil
	}
	if len(assets) == 0 {
		return &domain.CreatorHistory{}
	}

	cutoff := time.Now().AddDate(0, 0, -30).UnixMilli()

	history := &domain.CreatorHistory{}
	for _, asset := range assets {
		if !isFungible(asset) {
			continue
		}
		history.TokenCount++
		if asset.CreatedAt > 0 && asset.CreatedAt >= cutoff {
			history.RecentTokens = append(history.RecentTokens, asset.ID)
		}
	}
	history.IsSerialCreator = len(history.RecentTokens) >= serialCreatorThreshold
	return history
}

// isFungible accepts assets the registry marks fungible, or ones whose
// supply is clearly token-scale rather than an NFT edition.
func isFungible(asset solana.Asset) bool {
	if strings.Contains(strings.ToLower(asset.Interface), "fungible") {
		return true
	}
	return asset.Supply > 1e6
}
