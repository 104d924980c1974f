// Package scoring turns an enriched TokenRecord into an AnalysisResult.
// The engine is pure: no I/O, no clock reads, no randomness. Every signal
// a check needs must already be on the record.
package scoring

import (
	"fmt"
	"strings"

	"pumpfun-radar/internal/domain"
)

// Per-check penalty caps.
const (
	capWashTrading        = 20
	capHolderDistribution = 25
	capDeveloperHoldings  = 15
	capVolumeManipulation = 20
	capAirdropScheme      = 15
	capSocialSignals      = 10
	capTokenAge           = 15
	capBuyPressure        = 15
	capLiquidityHealth    = 20
	capSecurity           = 25
	capSnipers            = 20
	capWalletFunding      = 25
	capTradeVelocity      = 15
	capCreatorHistory     = 35
)

const maxBonus = 25

// Engine scores token records against a fixed config.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// checkState carries intermediate signals between checks, composite risks
// and the danger score.
type checkState struct {
	ageHours        float64
	buyRatio        float64
	sellRatio       float64
	totalTrades     int
	tradesPerHolder float64
	velocityPenalty int
	whaleFlag       bool // any largest-holder flag
	severeHolder    bool // very-high-concentration or mega-whale flag
}

// Score analyzes a record. The same record always yields the same result.
func (e *Engine) Score(record *domain.TokenRecord) *domain.AnalysisResult {
	state := &checkState{}
	state.ageHours = ageHours(record)
	total := record.PriceData.Buys24h + record.PriceData.Sells24h
	state.totalTrades = total
	if total > 0 {
		state.buyRatio = float64(record.PriceData.Buys24h) / float64(total)
		state.sellRatio = float64(record.PriceData.Sells24h) / float64(total)
	}
	if record.Statistics.HolderCount > 0 {
		state.tradesPerHolder = float64(record.PriceData.Trades24h) / float64(record.Statistics.HolderCount)
	}

	breakdown := map[string]domain.CheckResult{
		"washTrading":        e.checkWashTrading(record),
		"holderDistribution": e.checkHolderDistribution(record, state),
		"developerHoldings":  e.checkDeveloperHoldings(record),
		"volumeManipulation": e.checkVolumeManipulation(record),
		"airdropScheme":      e.checkAirdropScheme(record),
		"socialSignals":      e.checkSocialSignals(record),
		"tokenAge":           e.checkTokenAge(state),
		"buyPressure":        e.checkBuyPressure(record, state),
		"liquidityHealth":    e.checkLiquidityHealth(record),
		"security":           e.checkSecurity(record),
		"snipers":            e.checkSnipers(record),
		"walletFunding":      e.checkWalletFunding(record),
		"tradeVelocity":      e.checkTradeVelocity(record, state),
		"creatorHistory":     e.checkCreatorHistory(record),
	}
	state.velocityPenalty = breakdown["tradeVelocity"].Penalty

	score := 100
	var flags []string
	for _, key := range checkOrder {
		result := breakdown[key]
		score -= result.Penalty
		flags = append(flags, result.Flags...)
	}

	risks := e.compositeRisks(record, state)
	riskFlags, riskPenalty := describeComposites(risks)
	flags = append(flags, riskFlags...)
	score -= riskPenalty

	signals, bonus := positiveSignals(record, state)
	score += bonus

	score = clamp(score)

	danger := e.dangerScore(record, risks, score, flags, signals)

	return &domain.AnalysisResult{
		Passed:          score >= e.cfg.MinScore,
		Score:           score,
		Flags:           flags,
		Breakdown:       breakdown,
		DangerScore:     danger,
		CompositeRisks:  risks,
		PositiveSignals: signals,
	}
}

// checkOrder fixes flag ordering so results are reproducible.
var checkOrder = []string{
	"washTrading", "holderDistribution", "developerHoldings",
	"volumeManipulation", "airdropScheme", "socialSignals", "tokenAge",
	"buyPressure", "liquidityHealth", "security", "snipers",
	"walletFunding", "tradeVelocity", "creatorHistory",
}

func (e *Engine) checkWashTrading(r *domain.TokenRecord) domain.CheckResult {
	penalty := 0
	var flags []string

	if r.Statistics.WashTraderCount > 0 {
		penalty += 12
		flags = append(flags, fmt.Sprintf("Wash trading: %d wallets with repeated buy/sell cycles", r.Statistics.WashTraderCount))
	}
	if r.Statistics.RapidTraderCount > 0 {
		penalty += 10
		flags = append(flags, fmt.Sprintf("Rapid-fire trading from %d wallets", r.Statistics.RapidTraderCount))
	}
	return capped(penalty, capWashTrading, flags)
}

func (e *Engine) checkHolderDistribution(r *domain.TokenRecord, state *checkState) domain.CheckResult {
	penalty := 0
	var flags []string

	holders := r.Statistics.HolderCount
	// -1 means unknown; thresholds only apply to a real count.
	if holders >= 0 {
		switch {
		case holders < e.cfg.MinHolders:
			penalty += 15
			flags = append(flags, fmt.Sprintf("Low holder count (%d)", holders))
		case holders < 2*e.cfg.MinHolders:
			penalty += 8
			flags = append(flags, fmt.Sprintf("Moderate holder count (%d)", holders))
		}
	}

	top10 := r.Statistics.Top10Concentration
	switch {
	case top10 > 0.50:
		penalty += 15
		flags = append(flags, fmt.Sprintf("🚨 Very high concentration: top 10 hold %.0f%%", top10*100))
		state.severeHolder = true
	case top10 > e.cfg.MaxTop10:
		penalty += 10
		flags = append(flags, fmt.Sprintf("High concentration: top 10 hold %.0f%%", top10*100))
	}

	largest := r.Statistics.LargestHolder
	switch {
	case largest > 0.30:
		penalty += 10
		flags = append(flags, fmt.Sprintf("🚨 Mega whale holds %.0f%% of supply", largest*100))
		state.whaleFlag = true
		state.severeHolder = true
	case largest > 0.20:
		penalty += 6
		flags = append(flags, fmt.Sprintf("Whale holds %.0f%% of supply", largest*100))
		state.whaleFlag = true
	}
	return capped(penalty, capHolderDistribution, flags)
}

func (e *Engine) checkDeveloperHoldings(r *domain.TokenRecord) domain.CheckResult {
	dev := r.Statistics.DevHoldings
	penalty := 0
	var flags []string
	switch {
	case dev > 0.25:
		penalty = 15
		flags = append(flags, fmt.Sprintf("Developer holds %.0f%% of supply", dev*100))
	case dev > e.cfg.MaxDevHoldings:
		penalty = 10
		flags = append(flags, fmt.Sprintf("High developer holdings (%.0f%%)", dev*100))
	case dev > 0.05:
		penalty = 5
		flags = append(flags, fmt.Sprintf("Developer holdings at %.0f%%", dev*100))
	}
	return capped(penalty, capDeveloperHoldings, flags)
}

func (e *Engine) checkVolumeManipulation(r *domain.TokenRecord) domain.CheckResult {
	penalty := 0
	var flags []string

	if r.Statistics.UniqueTraders > 0 && r.PriceData.Trades24h > 0 {
		ratio := float64(r.Statistics.UniqueTraders) / float64(r.PriceData.Trades24h)
		switch {
		case ratio < 0.30:
			penalty += 15
			flags = append(flags, fmt.Sprintf("Very low unique trader ratio (%.0f%%)", ratio*100))
		case ratio < e.cfg.MinUniqueRatio:
			penalty += 8
			flags = append(flags, fmt.Sprintf("Low unique trader ratio (%.0f%%)", ratio*100))
		}
	}

	if r.Statistics.MicroBuyRatio > 0.40 {
		penalty += 10
		flags = append(flags, fmt.Sprintf("Micro-buys make up %.0f%% of buys", r.Statistics.MicroBuyRatio*100))
	}
	return capped(penalty, capVolumeManipulation, flags)
}

func (e *Engine) checkAirdropScheme(r *domain.TokenRecord) domain.CheckResult {
	sellers := r.Statistics.AirdropSellerCount
	penalty := 0
	var flags []string
	switch {
	case sellers > 5:
		penalty = 15
		flags = append(flags, fmt.Sprintf("Airdrop scheme: %d recipients dumped", sellers))
	case sellers > 2:
		penalty = 8
		flags = append(flags, fmt.Sprintf("Possible airdrop scheme: %d recipients sold", sellers))
	}
	return capped(penalty, capAirdropScheme, flags)
}

func (e *Engine) checkSocialSignals(r *domain.TokenRecord) domain.CheckResult {
	penalty := 0
	var flags []string
	socials := r.Metadata.Socials

	switch {
	case socials.Twitter == "" && socials.Telegram == "":
		penalty += 6
		flags = append(flags, "No social links")
	case socials.Twitter == "":
		penalty += 3
		flags = append(flags, "No Twitter account")
	}
	if socials.Website == "" {
		penalty += 2
		flags = append(flags, "No website")
	}
	if genericDescription(socials.Description) {
		penalty += 3
		flags = append(flags, "Generic hype-only description")
	}
	if impersonationName(r.Metadata.Name) && socials.Twitter == "" {
		penalty += 4
		flags = append(flags, "Impersonation-style name without verified socials")
	}
	return capped(penalty, capSocialSignals, flags)
}

func (e *Engine) checkTokenAge(state *checkState) domain.CheckResult {
	age := state.ageHours
	penalty := 0
	var flags []string
	switch {
	case age < 0.5:
		penalty = 15
		flags = append(flags, "Token less than 30 minutes old")
	case age < 1:
		penalty = 10
		flags = append(flags, "Token less than 1 hour old")
	case age < 6:
		penalty = 5
		flags = append(flags, "Token less than 6 hours old")
	}
	return capped(penalty, capTokenAge, flags)
}

func (e *Engine) checkBuyPressure(r *domain.TokenRecord, state *checkState) domain.CheckResult {
	penalty := 0
	var flags []string

	if state.totalTrades > 0 {
		switch {
		case state.buyRatio > 0.90:
			penalty += 10
			flags = append(flags, fmt.Sprintf("Extreme buy pressure (%.0f%% buys)", state.buyRatio*100))
		case state.buyRatio > 0.80:
			penalty += 5
			flags = append(flags, fmt.Sprintf("High buy pressure (%.0f%% buys)", state.buyRatio*100))
		case state.buyRatio < 0.20:
			penalty += 15
			flags = append(flags, fmt.Sprintf("🚨 Dump in progress: %.0f%% sells", state.sellRatio*100))
		}
	}

	trades5m := r.PriceData.Buys5m + r.PriceData.Sells5m
	avg5m := float64(r.PriceData.Buys1h+r.PriceData.Sells1h) / 12
	if avg5m > 0 && float64(trades5m) > 5*avg5m {
		penalty += 8
		flags = append(flags, "Sudden activity spike in last 5 minutes")
	}

	if abs(r.PriceData.PriceChange5m) > 30 {
		penalty += 10
		flags = append(flags, fmt.Sprintf("Extreme 5m price move (%.0f%%)", r.PriceData.PriceChange5m))
	}
	if abs(r.PriceData.PriceChange1h) > 50 {
		penalty += 8
		flags = append(flags, fmt.Sprintf("Extreme 1h price move (%.0f%%)", r.PriceData.PriceChange1h))
	}
	return capped(penalty, capBuyPressure, flags)
}

func (e *Engine) checkLiquidityHealth(r *domain.TokenRecord) domain.CheckResult {
	penalty := 0
	var flags []string
	liq := r.PriceData.Liquidity
	mc := r.PriceData.MarketCap

	if mc > 0 {
		ratio := liq / mc
		switch {
		case ratio < 0.02:
			penalty += 20
			flags = append(flags, fmt.Sprintf("🚨 Dangerously low liquidity (%.1f%% of market cap)", ratio*100))
		case ratio < e.cfg.MinLiquidityRatio:
			penalty += 12
			flags = append(flags, fmt.Sprintf("Low liquidity ratio (%.1f%%)", ratio*100))
		case ratio < 0.10:
			penalty += 5
			flags = append(flags, fmt.Sprintf("Thin liquidity (%.1f%% of market cap)", ratio*100))
		}

		if liq > 0 {
			volRatio := r.PriceData.Volume24h / liq
			switch {
			case volRatio > 20:
				penalty += 10
				flags = append(flags, fmt.Sprintf("Volume is %.0fx liquidity", volRatio))
			case volRatio > 10:
				penalty += 5
				flags = append(flags, fmt.Sprintf("Volume is %.0fx liquidity", volRatio))
			}
		}
	}

	if liq > 0 {
		switch {
		case liq < 5000:
			penalty += 10
			flags = append(flags, fmt.Sprintf("Very low absolute liquidity ($%.0f)", liq))
		case liq < 10000:
			penalty += 5
			flags = append(flags, fmt.Sprintf("Low absolute liquidity ($%.0f)", liq))
		}
	}
	return capped(penalty, capLiquidityHealth, flags)
}

func (e *Engine) checkSecurity(r *domain.TokenRecord) domain.CheckResult {
	if r.Security == nil {
		return capped(5, capSecurity, []string{"Security data unavailable"})
	}

	penalty := 0
	var flags []string
	sec := r.Security

	if !sec.MintAuthorityRevoked {
		penalty += 15
		flags = append(flags, "Mint authority not revoked")
	}
	if !sec.FreezeAuthorityRevoked {
		penalty += 10
		flags = append(flags, "Freeze authority not revoked")
	}
	if !sec.LPLocked {
		if sec.LPLockPercentage < 80 {
			penalty += 15
			flags = append(flags, fmt.Sprintf("LP not locked (%.0f%% locked)", sec.LPLockPercentage))
		}
		if sec.LPLockPercentage < 50 {
			penalty += 8
		}
	}
	if sec.TopHoldersAreContracts {
		penalty += 10
		flags = append(flags, "Top holders are contract accounts")
	}
	if sec.IsRugpullRisk {
		penalty += 5
		flags = append(flags, "Flagged as rugpull risk")
	}
	return capped(penalty, capSecurity, flags)
}

func (e *Engine) checkSnipers(r *domain.TokenRecord) domain.CheckResult {
	if r.LaunchAnalysis == nil {
		return capped(0, capSnipers, nil)
	}

	penalty := 0
	var flags []string
	launch := r.LaunchAnalysis

	switch {
	case launch.BundledBuys > 3:
		penalty += 15
		flags = append(flags, fmt.Sprintf("🚨 Bundled launch: %d buys in the first slot", launch.BundledBuys))
	case launch.BundledBuys > 1:
		penalty += 8
		flags = append(flags, fmt.Sprintf("Bundled launch suspected (%d same-slot buys)", launch.BundledBuys))
	}
	switch {
	case launch.SniperCount > 20:
		penalty += 12
		flags = append(flags, fmt.Sprintf("Heavy sniper activity (%d snipers)", launch.SniperCount))
	case launch.SniperCount > 10:
		penalty += 6
		flags = append(flags, fmt.Sprintf("Notable sniper activity (%d snipers)", launch.SniperCount))
	}
	switch {
	case launch.AvgFirstBuySize > 5:
		penalty += 10
		flags = append(flags, fmt.Sprintf("Large early buys (avg %.1f SOL)", launch.AvgFirstBuySize))
	case launch.AvgFirstBuySize > 2:
		penalty += 5
		flags = append(flags, fmt.Sprintf("Sizable early buys (avg %.1f SOL)", launch.AvgFirstBuySize))
	}
	if launch.CreatorBoughtBack {
		penalty += 8
		flags = append(flags, "Creator bought back in early trading")
	}
	return capped(penalty, capSnipers, flags)
}

func (e *Engine) checkWalletFunding(r *domain.TokenRecord) domain.CheckResult {
	if r.WalletFunding == nil {
		return capped(0, capWalletFunding, nil)
	}

	penalty := 0
	var flags []string
	funding := r.WalletFunding

	switch {
	case funding.ClusteredWallets >= 5:
		penalty += 20
		flags = append(flags, fmt.Sprintf("🚨 %d top holders funded from one source", funding.ClusteredWallets))
	case funding.ClusteredWallets >= 3:
		penalty += 12
		flags = append(flags, fmt.Sprintf("%d top holders funded from one source", funding.ClusteredWallets))
	case funding.ClusteredWallets >= 2:
		penalty += 5
		flags = append(flags, "Two top holders share a funding source")
	}
	switch {
	case funding.FreshWalletBuyers >= 5:
		penalty += 15
		flags = append(flags, fmt.Sprintf("%d fresh wallets among top holders", funding.FreshWalletBuyers))
	case funding.FreshWalletBuyers >= 3:
		penalty += 8
		flags = append(flags, fmt.Sprintf("%d fresh wallets among top holders", funding.FreshWalletBuyers))
	}
	if funding.SuspiciousFundingPattern {
		penalty += 5
		flags = append(flags, "Suspicious wallet funding pattern")
	}
	return capped(penalty, capWalletFunding, flags)
}

func (e *Engine) checkTradeVelocity(r *domain.TokenRecord, state *checkState) domain.CheckResult {
	if r.Statistics.HolderCount <= 0 || r.PriceData.Trades24h == 0 {
		return capped(0, capTradeVelocity, nil)
	}

	perHolder := state.tradesPerHolder
	penalty := 0
	var flags []string
	switch {
	case perHolder > 20:
		penalty = 15
		flags = append(flags, fmt.Sprintf("Trade velocity far exceeds holder base (%.0f trades/holder)", perHolder))
	case perHolder > 10:
		penalty = 10
		flags = append(flags, fmt.Sprintf("High trade velocity (%.0f trades/holder)", perHolder))
	case perHolder > 5:
		penalty = 5
		flags = append(flags, fmt.Sprintf("Elevated trade velocity (%.0f trades/holder)", perHolder))
	}
	return capped(penalty, capTradeVelocity, flags)
}

func (e *Engine) checkCreatorHistory(r *domain.TokenRecord) domain.CheckResult {
	if r.CreatorHistory == nil {
		return capped(0, capCreatorHistory, nil)
	}

	penalty := 0
	var flags []string
	history := r.CreatorHistory
	recent := len(history.RecentTokens)

	switch {
	case recent >= 10:
		penalty += 30
		flags = append(flags, fmt.Sprintf("🚨 SERIAL SCAMMER: %d tokens launched in 30 days", recent))
	case recent >= 5:
		penalty += 20
		flags = append(flags, fmt.Sprintf("Serial creator: %d tokens in 30 days", recent))
	case recent >= 3:
		penalty += 12
		flags = append(flags, fmt.Sprintf("Frequent creator: %d tokens in 30 days", recent))
	}
	switch {
	case history.TokenCount >= 20:
		penalty += 15
		flags = append(flags, fmt.Sprintf("Creator launched %d tokens total", history.TokenCount))
	case history.TokenCount >= 10:
		penalty += 8
		flags = append(flags, fmt.Sprintf("Creator launched %d tokens total", history.TokenCount))
	case history.TokenCount >= 5:
		penalty += 4
		flags = append(flags, fmt.Sprintf("Creator launched %d tokens total", history.TokenCount))
	}
	if history.RuggedTokens >= 3 {
		penalty += 15
		flags = append(flags, fmt.Sprintf("Creator has %d rugged tokens", history.RuggedTokens))
	}
	return capped(penalty, capCreatorHistory, flags)
}

// compositeRisks derives cross-check booleans from already-computed
// signals.
func (e *Engine) compositeRisks(r *domain.TokenRecord, state *checkState) domain.CompositeRisks {
	risks := domain.CompositeRisks{}
	holders := r.Statistics.HolderCount
	trades := r.PriceData.Trades24h

	if state.severeHolder && state.sellRatio > 0.70 && state.ageHours < 12 {
		risks.RugInProgress = true
	}
	if state.buyRatio > 0.85 && (holders == domain.HolderCountUnknown || holders < 100) &&
		state.ageHours < 6 && trades > 100 {
		risks.PumpSetup = true
	}
	if state.tradesPerHolder > 10 && state.velocityPenalty > 5 {
		risks.WashTrading = true
	}
	if state.sellRatio > 0.80 && trades > 50 && state.ageHours < 24 {
		risks.CoordinatedDump = true
	}
	bundled := 0
	if r.LaunchAnalysis != nil {
		bundled = r.LaunchAnalysis.BundledBuys
	}
	clustered := 0
	if r.WalletFunding != nil {
		clustered = r.WalletFunding.ClusteredWallets
	}
	if bundled > 2 && clustered >= 2 && state.whaleFlag {
		risks.InsiderAccumulation = true
	}
	return risks
}

func describeComposites(risks domain.CompositeRisks) ([]string, int) {
	var flags []string
	penalty := 0
	if risks.RugInProgress {
		flags = append(flags, "🚨 RUG IN PROGRESS")
		penalty += 20
	}
	if risks.PumpSetup {
		flags = append(flags, "Pump setup pattern detected")
		penalty += 10
	}
	if risks.WashTrading {
		flags = append(flags, "Wash trading pattern suspected")
		penalty += 10
	}
	if risks.CoordinatedDump {
		flags = append(flags, "Coordinated dump detected")
		penalty += 15
	}
	if risks.InsiderAccumulation {
		flags = append(flags, "Insider accumulation detected")
		penalty += 15
	}
	return flags, penalty
}

// positiveSignals awards bonuses, capped at +25 total.
func positiveSignals(r *domain.TokenRecord, state *checkState) ([]string, int) {
	var signals []string
	bonus := 0

	if state.ageHours >= 24 {
		bonus += 5
		signals = append(signals, "Token age > 24 hours")
	}
	if state.ageHours >= 72 {
		bonus += 5
		signals = append(signals, "Established token (3+ days)")
	}
	holders := r.Statistics.HolderCount
	switch {
	case holders >= 500:
		bonus += 5
		signals = append(signals, "Strong holder base")
	case holders >= 200:
		bonus += 3
		signals = append(signals, "Growing holder base")
	}
	if state.totalTrades > 10 && state.buyRatio >= 0.40 && state.buyRatio <= 0.60 {
		bonus += 5
		signals = append(signals, "Balanced trading activity")
	}
	if r.PriceData.MarketCap > 0 && r.PriceData.Liquidity/r.PriceData.MarketCap >= 0.10 {
		bonus += 5
		signals = append(signals, "Healthy liquidity ratio")
	}
	if r.Metadata.Socials.Twitter != "" && r.Metadata.Socials.Website != "" {
		bonus += 3
		signals = append(signals, "Active social presence")
	}
	if sec := r.Security; sec != nil && sec.MintAuthorityRevoked && sec.FreezeAuthorityRevoked && sec.LPLocked {
		bonus += 5
		signals = append(signals, "Strong security profile")
	}

	if bonus > maxBonus {
		bonus = maxBonus
	}
	return signals, bonus
}

// Composite danger additions, in risk declaration order.
var dangerBoosts = []int{20, 15, 10, 10, 5}

func (e *Engine) dangerScore(r *domain.TokenRecord, risks domain.CompositeRisks, score int, flags, signals []string) domain.DangerScore {
	overall := 100 - score

	on := []bool{risks.RugInProgress, risks.PumpSetup, risks.WashTrading,
		risks.CoordinatedDump, risks.InsiderAccumulation}
	for i, active := range on {
		if active {
			overall += dangerBoosts[i]
		}
	}
	overall = clamp(overall)

	confidence := domain.ConfidenceHigh
	if r.Statistics.HolderCount <= 0 {
		confidence = domain.ConfidenceMedium
	}
	if r.Security == nil || r.PriceData.Trades24h == 0 {
		confidence = domain.ConfidenceLow
	}

	var category string
	switch {
	case overall >= 80:
		category = domain.CategoryExtreme
	case overall >= 60:
		category = domain.CategoryHighRisk
	case overall >= 40:
		category = domain.CategoryModerate
	case overall >= 20:
		category = domain.CategoryLowRisk
	default:
		category = domain.CategorySafe
	}

	return domain.DangerScore{
		Overall:         overall,
		Confidence:      confidence,
		Category:        category,
		PrimaryRisks:    primaryRisks(flags),
		PositiveSignals: signals,
	}
}

// riskPriority orders which flags surface as the headline risks.
var riskPriority = []string{
	"rug in progress",
	"coordinated dump",
	"insider",
	"pump setup",
	"dump in progress",
	"mega whale",
	"mint authority not revoked",
	"lp not locked",
	"bundled launch",
	"very high concentration",
	"dangerously low liquidity",
	"sniper",
	"low holder",
	"no social",
}

// primaryRisks picks up to three flags by priority.
func primaryRisks(flags []string) []string {
	var risks []string
	seen := make(map[string]bool)
	for _, priority := range riskPriority {
		if len(risks) >= 3 {
			break
		}
		for _, flag := range flags {
			if seen[flag] {
				continue
			}
			if strings.Contains(strings.ToLower(flag), priority) {
				risks = append(risks, flag)
				seen[flag] = true
				break
			}
		}
	}
	return risks
}

// ageHours measures token age at analysis time, preferring the pair
// creation timestamp over the migration timestamp.
func ageHours(r *domain.TokenRecord) float64 {
	ref := r.PriceData.PairCreatedAt
	if ref == 0 {
		ref = r.MigrationTimestamp
	}
	if ref == 0 || r.AnalyzedAt == 0 || r.AnalyzedAt < ref {
		return 0
	}
	return float64(r.AnalyzedAt-ref) / 3_600_000
}

// genericDescription reports a short description made only of hype words.
func genericDescription(desc string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(desc))
	if trimmed == "" || len(trimmed) > 60 {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		w = strings.Trim(w, "!.,🚀💎🔥")
		if w == "" {
			continue
		}
		if !hypeWords[w] {
			return false
		}
	}
	return true
}

var hypeWords = map[string]bool{
	"moon": true, "mooning": true, "gem": true, "pump": true, "pumping": true,
	"100x": true, "1000x": true, "token": true, "coin": true, "best": true,
	"next": true, "buy": true, "now": true, "to": true, "the": true,
}

// impersonationName reports names riding on well-known identities.
var impersonationHints = []string{
	"elon", "musk", "trump", "official", "binance", "coinbase", "openai",
	"solana foundation",
}

func impersonationName(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range impersonationHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func capped(penalty, max int, flags []string) domain.CheckResult {
	if penalty > max {
		penalty = max
	}
	return domain.CheckResult{Penalty: penalty, MaxScore: max, Flags: flags}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
