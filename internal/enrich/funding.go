package enrich

import (
	"context"
	"strings"
	"sync"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/providers"
	"pumpfun-radar/internal/solana"
)

const (
	fundingMaxHolders = 10
	fundingBatchSize  = 5
	fundingTxWindow   = 20
	minFundingSol     = 0.01
)

// infrastructure labels and prefixes the funding analysis skips.
var infrastructureHints = []string{
	"raydium", "orca", "meteora", "pump", "amm", "pool", "vault", "exchange",
}

func isInfrastructure(holder providers.TopHolder) bool {
	if holder.Label != "" {
		return true
	}
	if solana.IsProgramDerived(holder.Owner) {
		return true
	}
	lower := strings.ToLower(holder.Owner)
	for _, hint := range infrastructureHints {
		if strings.HasPrefix(lower, hint) {
			return true
		}
	}
	return false
}

// holderFunding is the digest of one wallet's recent history.
type holderFunding struct {
	owner       string
	sources     []string // wallets that sent >0.01 SOL
	firstSeenAt int64    // earliest timestamp (s) in the window, 0 unknown
	txCount     int
}

// walletFunding inspects how the top holder wallets were funded and flags
// clusters sharing a source and batches of fresh wallets.
func (o *Orchestrator) walletFunding(ctx context.Context, topHolders []providers.TopHolder, nowMS int64) *domain.WalletFunding {
	if o.chain == nil || len(topHolders) == 0 || ctx.Err() != nil {
		return nil
	}

	var candidates []string
	for _, holder := range topHolders {
		if isInfrastructure(holder) || holder.Owner == "" {
			continue
		}
		candidates = append(candidates, holder.Owner)
		if len(candidates) >= fundingMaxHolders {
			break
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	digests := make([]*holderFunding, len(candidates))
	for start := 0; start < len(candidates); start += fundingBatchSize {
		end := start + fundingBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				digests[i] = o.holderDigest(ctx, candidates[i])
			}(i)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	bySource := make(map[string]map[string]bool)
	fresh := 0
	probed := 0
	cutoff := nowMS/1000 - 24*3600

	for _, digest := range digests {
		if digest == nil {
			continue
		}
		probed++
		for _, src := range digest.sources {
			if bySource[src] == nil {
				bySource[src] = make(map[string]bool)
			}
			bySource[src][digest.owner] = true
		}
		// A wallet whose entire visible history starts inside 24h is fresh.
		if digest.firstSeenAt > cutoff && digest.txCount < fundingTxWindow {
			fresh++
		}
	}
	if probed == 0 {
		return nil
	}

	funding := &domain.WalletFunding{FreshWalletBuyers: fresh}
	for src, holders := range bySource {
		if len(holders) > funding.ClusteredWallets {
			funding.ClusteredWallets = len(holders)
			funding.CommonFundingSource = src
		}
	}
	funding.SuspiciousFundingPattern = funding.ClusteredWallets >= 3 ||
		(fresh >= 3 && float64(fresh) >= 0.5*float64(probed))
	return funding
}

func (o *Orchestrator) holderDigest(ctx context.Context, owner string) *holderFunding {
	txs, err := o.chain.GetTransactionHistory(ctx, owner, fundingTxWindow, "")
	if err != nil || len(txs) == 0 {
		return nil
	}

	digest := &holderFunding{owner: owner, txCount: len(txs)}
	seen := make(map[string]bool)
	for _, tx := range txs {
		if digest.firstSeenAt == 0 || tx.Timestamp < digest.firstSeenAt {
			digest.firstSeenAt = tx.Timestamp
		}
		for _, nt := range tx.NativeTransfers {
			if nt.ToUserAccount != owner || nt.FromUserAccount == "" {
				continue
			}
			if float64(nt.Amount)/lamportsPerSol <= minFundingSol {
				continue
			}
			if !seen[nt.FromUserAccount] {
				seen[nt.FromUserAccount] = true
				digest.sources = append(digest.sources, nt.FromUserAccount)
			}
		}
	}
	return digest
}
