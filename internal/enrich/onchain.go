package enrich

import (
	"context"
	"time"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/solana"
)

// onchainProbe is the raw output of the supply/largest-accounts fan-out.
type onchainProbe struct {
	supply       float64
	top10Share   float64 // decimal, 0 when supply unknown
	largestShare float64
	devShare     float64
}

// onchainProbe derives concentration and dev-holdings figures from the
// ≤20 largest token accounts. Holder counts cannot come from here; the
// registry stays the only authoritative source.
func (o *Orchestrator) onchainProbe(ctx context.Context, mint, creator string) *onchainProbe {
	if o.chain == nil {
		return nil
	}

	supply, err := o.chain.GetTokenSupply(ctx, mint)
	if err != nil || supply <= 0 {
		return nil
	}
	accounts, err := o.chain.GetLargestTokenAccounts(ctx, mint)
	if err != nil || len(accounts) == 0 {
		return nil
	}

	probe := &onchainProbe{supply: supply}

	top10Sum := 0.0
	for i, acct := range accounts {
		if i >= 10 {
			break
		}
		top10Sum += acct.UIAmount
	}
	probe.top10Share = top10Sum / supply
	probe.largestShare = accounts[0].UIAmount / supply

	if creator == "" {
		return probe
	}

	// Dev holdings: first try the derived associated account, then fall
	// back to owner lookups for the top 5.
	ata, err := solana.DeriveAssociatedTokenAccount(creator, mint)
	if err == nil {
		for _, acct := range accounts {
			if acct.Address == ata {
				probe.devShare = acct.UIAmount / supply
				return probe
			}
		}
	}

	limit := len(accounts)
	if limit > 5 {
		limit = 5
	}
	for _, acct := range accounts[:limit] {
		owner, err := o.chain.GetAccountOwner(ctx, acct.Address)
		if err != nil || owner == "" {
			continue
		}
		if owner == creator {
			probe.devShare += acct.UIAmount / supply
		}
	}
	return probe
}

// securityProbe decodes the mint account for authority flags and checks
// the top holder wallets for executable accounts. Probe failure means
// "assume revoked": graduated pump.fun mints have both authorities
// stripped at migration. The decoded mint info is returned alongside so
// fusion can fill decimals and supply without a second fetch.
func (o *Orchestrator) securityProbe(ctx context.Context, mint string, mode Mode) (*domain.SecurityInfo, *solana.MintInfo) {
	if o.chain == nil {
		return nil, nil
	}

	timeout := 4 * time.Second
	if mode == ModeFast {
		timeout = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sec := &domain.SecurityInfo{
		MintAuthorityRevoked:   true,
		FreezeAuthorityRevoked: true,
		// Migration burns the bonding-curve LP; the pool starts locked.
		LPLocked:         true,
		LPLockPercentage: 100,
		LPLockDuration:   domain.LPLockBurned,
	}

	info, err := o.chain.GetMintInfo(probeCtx, mint)
	if err != nil || info == nil {
		return sec, nil
	}

	sec.MintAuthorityRevoked = info.MintAuthority == nil
	sec.FreezeAuthorityRevoked = info.FreezeAuthority == nil
	// An authority surviving graduation is anomalous for this launchpad.
	if !sec.MintAuthorityRevoked {
		sec.IsRugpullRisk = true
	}

	sec.TopHoldersAreContracts = o.contractHolders(probeCtx, mint)
	return sec, info
}

// contractHolders reports whether at least 2 of the top 5 holder wallets
// are executable accounts.
func (o *Orchestrator) contractHolders(ctx context.Context, mint string) bool {
	accounts, err := o.chain.GetLargestTokenAccounts(ctx, mint)
	if err != nil || len(accounts) == 0 {
		return false
	}
	limit := len(accounts)
	if limit > 5 {
		limit = 5
	}

	executable := 0
	for _, acct := range accounts[:limit] {
		owner, err := o.chain.GetAccountOwner(ctx, acct.Address)
		if err != nil || owner == "" {
			continue
		}
		info, err := o.chain.GetAccountInfo(ctx, owner)
		if err != nil || info == nil {
			continue
		}
		if info.Executable {
			executable++
		}
	}
	return executable >= 2
}
