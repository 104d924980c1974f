package enrich

import (
	"sort"
	"strconv"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/providers"
)

// Estimated total supply for market-cap fallback: pump.fun mints launch
// with 1B tokens.
const assumedSupply = 1e9

const (
	windowHourMS    = 3600_000
	windowFiveMinMS = 300_000
)

// swapAggregates are the trading figures derived from the swap feed.
// Short-window buckets and price moves are measured against the analysis
// time so the engine's spike triggers see live data.
type swapAggregates struct {
	buys          int
	sells         int
	buys1h        int
	sells1h       int
	buys5m        int
	sells5m       int
	priceChange1h float64 // percent
	priceChange5m float64
	uniqueTraders int
	volumeUSD     float64
	microBuyRatio float64
	washTraders   int
	rapidTraders  int
}

func aggregateSwaps(swaps []providers.Swap, nowMS int64) swapAggregates {
	agg := swapAggregates{}
	if len(swaps) == 0 {
		return agg
	}

	type walletActivity struct {
		buys       int
		sells      int
		timestamps []int64
	}
	byWallet := make(map[string]*walletActivity)
	microBuys := 0

	var latestTS, open1hTS, open5mTS int64
	var latestPrice, open1hPrice, open5mPrice float64

	for _, swap := range swaps {
		activity := byWallet[swap.Wallet]
		if activity == nil {
			activity = &walletActivity{}
			byWallet[swap.Wallet] = activity
		}
		activity.timestamps = append(activity.timestamps, swap.Timestamp)

		age := nowMS - swap.Timestamp
		inHour := age <= windowHourMS
		inFiveMin := age <= windowFiveMinMS

		switch swap.Type {
		case "buy":
			agg.buys++
			activity.buys++
			if inHour {
				agg.buys1h++
			}
			if inFiveMin {
				agg.buys5m++
			}
			if swap.ValueUSD < 0.01 {
				microBuys++
			}
		case "sell":
			agg.sells++
			activity.sells++
			if inHour {
				agg.sells1h++
			}
			if inFiveMin {
				agg.sells5m++
			}
		}
		agg.volumeUSD += swap.ValueUSD

		if swap.PriceUSD > 0 {
			if latestPrice == 0 || swap.Timestamp > latestTS {
				latestTS, latestPrice = swap.Timestamp, swap.PriceUSD
			}
			if inHour && (open1hPrice == 0 || swap.Timestamp < open1hTS) {
				open1hTS, open1hPrice = swap.Timestamp, swap.PriceUSD
			}
			if inFiveMin && (open5mPrice == 0 || swap.Timestamp < open5mTS) {
				open5mTS, open5mPrice = swap.Timestamp, swap.PriceUSD
			}
		}
	}

	if latestPrice > 0 {
		if open1hPrice > 0 {
			agg.priceChange1h = (latestPrice - open1hPrice) / open1hPrice * 100
		}
		if open5mPrice > 0 {
			agg.priceChange5m = (latestPrice - open5mPrice) / open5mPrice * 100
		}
	}

	agg.uniqueTraders = len(byWallet)
	if agg.buys > 0 {
		agg.microBuyRatio = float64(microBuys) / float64(agg.buys)
	}

	for _, activity := range byWallet {
		if activity.buys > 5 && activity.sells > 5 {
			agg.washTraders++
		}
		if n := len(activity.timestamps); n > 10 {
			sort.Slice(activity.timestamps, func(i, j int) bool {
				return activity.timestamps[i] < activity.timestamps[j]
			})
			span := activity.timestamps[n-1] - activity.timestamps[0]
			meanIntervalMS := float64(span) / float64(n-1)
			if meanIntervalMS < 30_000 {
				agg.rapidTraders++
			}
		}
	}
	return agg
}

// fuse assembles the record under the documented field precedence.
// First present source wins; everything else degrades to sentinels.
func (o *Orchestrator) fuse(event domain.MigrationEvent, creator string, mode Mode, data *fetched, funding *domain.WalletFunding, nowMS int64) *domain.TokenRecord {
	agg := aggregateSwaps(data.swaps, nowMS)

	record := &domain.TokenRecord{
		Address:            event.Mint,
		Security:           data.security,
		WalletFunding:      funding,
		CreatorHistory:     data.creatorHist,
		MigrationTimestamp: event.Timestamp,
		AnalyzedAt:         nowMS,
	}

	record.Metadata = domain.TokenMetadata{
		Name:    event.Name,
		Symbol:  event.Symbol,
		Creator: creator,
	}
	switch {
	case data.mintInfo != nil:
		record.Metadata.Decimals = data.mintInfo.Decimals
		record.Metadata.Supply = strconv.FormatFloat(data.mintInfo.Supply, 'f', -1, 64)
	case data.onchain != nil:
		record.Metadata.Supply = strconv.FormatFloat(data.onchain.supply, 'f', -1, 64)
	}
	if looksLikeImage(event.URI) {
		record.Metadata.Image = event.URI
	} else if data.metadata != nil {
		record.Metadata.Image = data.metadata.Image
	}
	if data.metadata != nil {
		record.Metadata.Socials = domain.SocialLinks{
			Twitter:     data.metadata.Twitter,
			Telegram:    data.metadata.Telegram,
			Website:     data.metadata.Website,
			Description: data.metadata.Description,
		}
	}

	price := 0.0
	pairLiquidity := 0.0
	pairVolume := 0.0
	if len(data.pairs) > 0 {
		price = data.pairs[0].USDPrice
		record.PriceData.PriceChange24h = data.pairs[0].PriceChange24h
		record.PriceData.PairCreatedAt = data.pairs[0].CreatedAt
		for _, pair := range data.pairs {
			pairLiquidity += pair.LiquidityUSD
			pairVolume += pair.Volume24hUSD
		}
	}
	record.PriceData.Price = price

	switch {
	case event.MarketCap != nil:
		record.PriceData.MarketCap = *event.MarketCap
		record.PriceData.MarketCapConfidence = domain.ConfidenceHigh
	case price > 0:
		record.PriceData.MarketCap = price * assumedSupply
		record.PriceData.MarketCapConfidence = domain.ConfidenceLow
	default:
		record.PriceData.MarketCapConfidence = domain.ConfidenceLow
	}

	switch {
	case event.Liquidity != nil:
		record.PriceData.Liquidity = *event.Liquidity
	case pairLiquidity > 0:
		record.PriceData.Liquidity = pairLiquidity
	}

	if pairVolume > 0 {
		record.PriceData.Volume24h = pairVolume
	} else {
		record.PriceData.Volume24h = agg.volumeUSD
	}

	record.PriceData.Buys24h = agg.buys
	record.PriceData.Sells24h = agg.sells
	record.PriceData.Trades24h = agg.buys + agg.sells
	record.PriceData.Buys1h = agg.buys1h
	record.PriceData.Sells1h = agg.sells1h
	record.PriceData.Buys5m = agg.buys5m
	record.PriceData.Sells5m = agg.sells5m
	record.PriceData.PriceChange1h = agg.priceChange1h
	record.PriceData.PriceChange5m = agg.priceChange5m

	stats := &record.Statistics
	stats.HolderCount = domain.HolderCountUnknown
	if data.holderStats.TotalHolders > 0 {
		stats.HolderCount = data.holderStats.TotalHolders
	}

	switch {
	case data.holderStats.DevHoldingsPercent > 0:
		stats.DevHoldings = data.holderStats.DevHoldingsPercent
	case data.onchain != nil:
		stats.DevHoldings = data.onchain.devShare
	}
	switch {
	case data.holderStats.Top10Percent > 0:
		stats.Top10Concentration = data.holderStats.Top10Percent
	case data.onchain != nil:
		stats.Top10Concentration = data.onchain.top10Share
	}
	switch {
	case data.onchain != nil && data.onchain.largestShare > 0:
		stats.LargestHolder = data.onchain.largestShare
	case len(data.topHolders) > 0:
		stats.LargestHolder = data.topHolders[0].PercentageOfSupply
	}

	stats.UniqueTraders = agg.uniqueTraders
	stats.MicroBuyRatio = agg.microBuyRatio
	stats.WashTraderCount = agg.washTraders
	stats.RapidTraderCount = agg.rapidTraders

	if record.PriceData.MarketCap > 0 {
		stats.LiquidityRatio = record.PriceData.Liquidity / record.PriceData.MarketCap
	}
	if record.PriceData.Liquidity > 0 {
		stats.VolumeToLiquidityRatio = record.PriceData.Volume24h / record.PriceData.Liquidity
	}

	if mode == ModeFull && len(data.history) > 0 {
		supply := assumedSupply
		if data.onchain != nil && data.onchain.supply > 0 {
			supply = data.onchain.supply
		}
		record.LaunchAnalysis = launchAnalysis(data.history, event.Mint, event.Timestamp, creator, supply)
		stats.AirdropSellerCount = airdropSellerCount(data.history, event.Mint)
	}

	return record
}
