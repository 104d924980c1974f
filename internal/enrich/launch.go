package enrich

import (
	"sort"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/solana"
)

const lamportsPerSol = 1e9

// launchAnalysis reconstructs the first minutes of trading from the
// enriched transaction history. supply (UI units) scales the first-buyer
// token totals into a share.
func launchAnalysis(history []solana.EnrichedTransaction, mint string, migrationTS int64, creator string, supply float64) *domain.LaunchAnalysis {
	swaps := filterByType(history, "SWAP")
	if len(swaps) == 0 {
		return nil
	}

	sort.Slice(swaps, func(i, j int) bool { return swaps[i].Timestamp < swaps[j].Timestamp })

	// Reference time: the migration timestamp unless the first trade
	// disagrees by more than 10 minutes (backfill histories often do).
	reference := migrationTS / 1000
	first := swaps[0].Timestamp
	if reference == 0 || absInt64(first-reference) > 600 {
		reference = first
	}

	analysis := &domain.LaunchAnalysis{}

	earliestSlot := swaps[0].Slot
	for _, tx := range swaps {
		if tx.Slot < earliestSlot && tx.Slot > 0 {
			earliestSlot = tx.Slot
		}
	}

	earlyBuyers := make(map[string]bool)
	snipers := make(map[string]bool)
	totalEarlySol := 0.0
	totalEarlyTokens := 0.0

	for _, tx := range swaps {
		if tx.Slot == earliestSlot {
			analysis.BundledBuys++
		}
		buyer := buyerOf(tx, mint)
		if buyer == "" {
			continue
		}
		offset := tx.Timestamp - reference
		if offset < 0 || offset > 300 {
			if buyer == creator && creator != "" && offset > 300 {
				analysis.CreatorBoughtBack = true
			}
			continue
		}
		snipers[buyer] = true
		if offset <= 60 {
			earlyBuyers[buyer] = true
			totalEarlySol += solSpent(tx, buyer)
			totalEarlyTokens += tokensBought(tx, mint, buyer)
		}
	}

	analysis.SniperCount = len(snipers)
	analysis.FirstBuyerCount = len(earlyBuyers)
	if len(earlyBuyers) > 0 {
		analysis.AvgFirstBuySize = totalEarlySol / float64(len(earlyBuyers))
	}
	if supply > 0 {
		analysis.FirstBuyerHoldings = totalEarlyTokens / supply
	}
	return analysis
}

// airdropSellerCount counts recipients of pre-trade transfers that later
// sold the token.
func airdropSellerCount(history []solana.EnrichedTransaction, mint string) int {
	swaps := filterByType(history, "SWAP")
	if len(swaps) == 0 {
		return 0
	}
	firstTrade := swaps[0].Timestamp
	for _, tx := range swaps {
		if tx.Timestamp < firstTrade {
			firstTrade = tx.Timestamp
		}
	}

	recipients := make(map[string]bool)
	for _, tx := range filterByType(history, "TRANSFER") {
		if tx.Timestamp >= firstTrade {
			continue
		}
		for _, tt := range tx.TokenTransfers {
			if tt.Mint == mint && tt.ToUserAccount != "" {
				recipients[tt.ToUserAccount] = true
			}
		}
	}
	if len(recipients) == 0 {
		return 0
	}

	sellers := 0
	for _, tx := range swaps {
		for _, tt := range tx.TokenTransfers {
			if tt.Mint == mint && recipients[tt.FromUserAccount] {
				sellers++
				delete(recipients, tt.FromUserAccount)
			}
		}
	}
	return sellers
}

// buyerOf returns the fee payer when the transaction moved the mint to
// them, i.e. the wallet bought.
func buyerOf(tx solana.EnrichedTransaction, mint string) string {
	for _, tt := range tx.TokenTransfers {
		if tt.Mint == mint && tt.ToUserAccount == tx.FeePayer {
			return tx.FeePayer
		}
	}
	return ""
}

// tokensBought sums the mint amount arriving at the buyer in one
// transaction.
func tokensBought(tx solana.EnrichedTransaction, mint, buyer string) float64 {
	total := 0.0
	for _, tt := range tx.TokenTransfers {
		if tt.Mint == mint && tt.ToUserAccount == buyer {
			total += tt.TokenAmount
		}
	}
	return total
}

// solSpent sums SOL leaving the buyer in one transaction.
func solSpent(tx solana.EnrichedTransaction, buyer string) float64 {
	total := 0.0
	for _, nt := range tx.NativeTransfers {
		if nt.FromUserAccount == buyer {
			total += float64(nt.Amount) / lamportsPerSol
		}
	}
	return total
}

func filterByType(history []solana.EnrichedTransaction, typ string) []solana.EnrichedTransaction {
	var out []solana.EnrichedTransaction
	for _, tx := range history {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
