package scoring

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-radar/internal/domain"
)

// recordWithAge builds a neutral record of the given age. Callers mutate
// the fields their scenario needs.
func recordWithAge(ageHours float64) *domain.TokenRecord {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC).UnixMilli()
	return &domain.TokenRecord{
		Address:            "Mint1111111111111111111111111111111111111111",
		MigrationTimestamp: now - int64(ageHours*3_600_000),
		AnalyzedAt:         now,
		Statistics: domain.TokenStatistics{
			HolderCount: domain.HolderCountUnknown,
		},
	}
}

func allRevokedAndLocked() *domain.SecurityInfo {
	return &domain.SecurityInfo{
		MintAuthorityRevoked:   true,
		FreezeAuthorityRevoked: true,
		LPLocked:               true,
		LPLockPercentage:       100,
		LPLockDuration:         domain.LPLockBurned,
	}
}

func TestSafeMatureToken(t *testing.T) {
	r := recordWithAge(72)
	r.Statistics = domain.TokenStatistics{
		HolderCount:        1200,
		Top10Concentration: 0.22,
		DevHoldings:        0.01,
	}
	r.PriceData = domain.PriceData{
		Buys24h:   480,
		Sells24h:  520,
		Trades24h: 1000,
		Liquidity: 80000,
		MarketCap: 500000,
	}
	r.Security = allRevokedAndLocked()
	r.Metadata.Socials.Twitter = "https://x.com/alpha"
	r.Metadata.Socials.Website = "https://alpha.example"

	result := NewEngine(DefaultConfig()).Score(r)

	assert.GreaterOrEqual(t, result.Score, 85)
	assert.True(t, result.Passed)
	assert.Equal(t, domain.CategorySafe, result.DangerScore.Category)
	assert.Contains(t, result.PositiveSignals, "Token age > 24 hours")
	assert.Contains(t, result.PositiveSignals, "Strong holder base")
	assert.Contains(t, result.PositiveSignals, "Balanced trading activity")
	assert.Contains(t, result.PositiveSignals, "Healthy liquidity ratio")
}

func TestRugInProgress(t *testing.T) {
	r := recordWithAge(4)
	r.Statistics = domain.TokenStatistics{
		HolderCount:        60,
		Top10Concentration: 0.78,
		LargestHolder:      0.42,
	}
	r.PriceData = domain.PriceData{
		Buys24h:   40,
		Sells24h:  260,
		Trades24h: 300,
		Liquidity: 1200,
		MarketCap: 150000,
	}

	result := NewEngine(DefaultConfig()).Score(r)

	assert.Contains(t, result.Flags, "🚨 RUG IN PROGRESS")
	assert.True(t, result.CompositeRisks.RugInProgress)
	assert.True(t, result.CompositeRisks.CoordinatedDump)
	assert.Contains(t, []string{domain.CategoryHighRisk, domain.CategoryExtreme}, result.DangerScore.Category)
	assert.False(t, result.Passed)
}

func TestPumpSetup(t *testing.T) {
	r := recordWithAge(2)
	r.Statistics = domain.TokenStatistics{HolderCount: 45}
	r.PriceData = domain.PriceData{
		Buys24h:   900,
		Sells24h:  120,
		Trades24h: 1020,
		Liquidity: 8000,
		MarketCap: 40000,
	}

	result := NewEngine(DefaultConfig()).Score(r)

	assert.True(t, result.CompositeRisks.PumpSetup)
	assert.GreaterOrEqual(t, result.DangerScore.Overall, 60)
}

func TestSerialScammerCappedAt35(t *testing.T) {
	r := recordWithAge(48)
	recent := make([]string, 12)
	for i := range recent {
		recent[i] = "Mint" + string(rune('A'+i))
	}
	r.CreatorHistory = &domain.CreatorHistory{
		TokenCount:      35,
		RecentTokens:    recent,
		IsSerialCreator: true,
		RuggedTokens:    10,
	}

	result := NewEngine(DefaultConfig()).Score(r)

	check := result.Breakdown["creatorHistory"]
	assert.Equal(t, 35, check.Penalty)
	assert.Equal(t, 35, check.MaxScore)

	found := false
	for _, f := range result.Flags {
		if f == "🚨 SERIAL SCAMMER: 12 tokens launched in 30 days" {
			found = true
		}
	}
	assert.True(t, found, "serial scammer flag missing: %v", result.Flags)
}

func TestUnknownHolderCount(t *testing.T) {
	r := recordWithAge(48)
	r.Statistics = domain.TokenStatistics{HolderCount: domain.HolderCountUnknown}
	r.PriceData.Trades24h = 50
	r.PriceData.Buys24h = 25
	r.PriceData.Sells24h = 25
	r.Security = allRevokedAndLocked()

	result := NewEngine(DefaultConfig()).Score(r)

	assert.Zero(t, result.Breakdown["holderDistribution"].Penalty)
	for _, f := range result.Flags {
		assert.NotContains(t, f, "Low holder")
	}
	assert.Equal(t, domain.ConfidenceMedium, result.DangerScore.Confidence)
}

func TestMinScoreBoundaries(t *testing.T) {
	r := recordWithAge(0.1) // heavily penalized

	cfg := DefaultConfig()
	cfg.MinScore = 0
	assert.True(t, NewEngine(cfg).Score(r).Passed)

	cfg.MinScore = 101
	safe := recordWithAge(72)
	safe.Security = allRevokedAndLocked()
	assert.False(t, NewEngine(cfg).Score(safe).Passed)
}

func TestZeroLiquidityWithMarketCap(t *testing.T) {
	r := recordWithAge(48)
	r.PriceData.MarketCap = 100000
	r.PriceData.Liquidity = 0

	result := NewEngine(DefaultConfig()).Score(r)

	check := result.Breakdown["liquidityHealth"]
	assert.Equal(t, 20, check.Penalty)
}

func TestZeroMarketCapSkipsRatioChecks(t *testing.T) {
	r := recordWithAge(48)
	r.PriceData.MarketCap = 0
	r.PriceData.Liquidity = 300
	r.PriceData.Volume24h = 1_000_000

	result := NewEngine(DefaultConfig()).Score(r)

	// Only the absolute-liquidity band may fire.
	check := result.Breakdown["liquidityHealth"]
	assert.Equal(t, 10, check.Penalty)
}

func TestSecurityAbsentPenaltyAndFlag(t *testing.T) {
	r := recordWithAge(48)

	result := NewEngine(DefaultConfig()).Score(r)

	check := result.Breakdown["security"]
	assert.Equal(t, 5, check.Penalty)
	assert.Contains(t, check.Flags, "Security data unavailable")
	assert.Equal(t, domain.ConfidenceLow, result.DangerScore.Confidence)
}

func TestTradeVelocitySkips(t *testing.T) {
	r := recordWithAge(48)
	r.Statistics.HolderCount = 0
	r.PriceData.Trades24h = 5000
	result := NewEngine(DefaultConfig()).Score(r)
	assert.Zero(t, result.Breakdown["tradeVelocity"].Penalty)

	r = recordWithAge(48)
	r.Statistics.HolderCount = 10
	r.PriceData.Trades24h = 0
	result = NewEngine(DefaultConfig()).Score(r)
	assert.Zero(t, result.Breakdown["tradeVelocity"].Penalty)
}

func TestExtremePriceMovesAccumulateToCap(t *testing.T) {
	r := recordWithAge(48)
	r.PriceData.PriceChange5m = 40
	r.PriceData.PriceChange1h = -60

	result := NewEngine(DefaultConfig()).Score(r)

	// Both moves fire independently: 10 + 8, clipped by the cap.
	check := result.Breakdown["buyPressure"]
	assert.Equal(t, 15, check.Penalty)
	assert.Contains(t, check.Flags, "Extreme 5m price move (40%)")
	assert.Contains(t, check.Flags, "Extreme 1h price move (-60%)")
}

func TestEnginePurity(t *testing.T) {
	r := recordWithAge(4)
	r.Statistics = domain.TokenStatistics{
		HolderCount:        60,
		Top10Concentration: 0.78,
		LargestHolder:      0.42,
	}
	r.PriceData = domain.PriceData{Buys24h: 40, Sells24h: 260, Trades24h: 300}

	engine := NewEngine(DefaultConfig())
	first := engine.Score(r)
	second := engine.Score(r)
	assert.Equal(t, first, second)
}

func TestRescoreAfterJSONRoundTrip(t *testing.T) {
	r := recordWithAge(4)
	r.Statistics = domain.TokenStatistics{
		HolderCount:        60,
		Top10Concentration: 0.78,
		LargestHolder:      0.42,
		WashTraderCount:    2,
	}
	r.PriceData = domain.PriceData{Buys24h: 40, Sells24h: 260, Trades24h: 300, Liquidity: 1200, MarketCap: 150000}
	r.Security = allRevokedAndLocked()
	r.WalletFunding = &domain.WalletFunding{ClusteredWallets: 3, FreshWalletBuyers: 2}

	engine := NewEngine(DefaultConfig())
	before := engine.Score(r)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var restored domain.TokenRecord
	require.NoError(t, json.Unmarshal(raw, &restored))

	after := engine.Score(&restored)
	assert.Equal(t, before, after)
}

// randomRecord produces arbitrary but structurally valid inputs for the
// property tests below.
func randomRecord(rng *rand.Rand) *domain.TokenRecord {
	r := recordWithAge(rng.Float64() * 100)
	r.Statistics = domain.TokenStatistics{
		HolderCount:        rng.Int63n(2002) - 1,
		UniqueTraders:      rng.Intn(1000),
		Top10Concentration: rng.Float64(),
		LargestHolder:      rng.Float64(),
		DevHoldings:        rng.Float64(),
		MicroBuyRatio:      rng.Float64(),
		WashTraderCount:    rng.Intn(4),
		RapidTraderCount:   rng.Intn(4),
		AirdropSellerCount: rng.Intn(10),
	}
	r.PriceData = domain.PriceData{
		MarketCap:      rng.Float64() * 1e6,
		Liquidity:      rng.Float64() * 1e5,
		Volume24h:      rng.Float64() * 1e6,
		Trades24h:      rng.Intn(5000),
		Buys24h:        rng.Intn(2500),
		Sells24h:       rng.Intn(2500),
		Buys1h:         rng.Intn(300),
		Sells1h:        rng.Intn(300),
		Buys5m:         rng.Intn(100),
		Sells5m:        rng.Intn(100),
		PriceChange5m:  rng.Float64()*200 - 100,
		PriceChange1h:  rng.Float64()*300 - 150,
		PriceChange24h: rng.Float64()*400 - 200,
	}
	if rng.Intn(2) == 0 {
		r.Security = &domain.SecurityInfo{
			MintAuthorityRevoked:   rng.Intn(2) == 0,
			FreezeAuthorityRevoked: rng.Intn(2) == 0,
			LPLocked:               rng.Intn(2) == 0,
			LPLockPercentage:       rng.Float64() * 100,
		}
	}
	if rng.Intn(2) == 0 {
		r.LaunchAnalysis = &domain.LaunchAnalysis{
			BundledBuys:     rng.Intn(10),
			SniperCount:     rng.Intn(40),
			AvgFirstBuySize: rng.Float64() * 10,
		}
	}
	if rng.Intn(2) == 0 {
		r.WalletFunding = &domain.WalletFunding{
			ClusteredWallets:  rng.Intn(8),
			FreshWalletBuyers: rng.Intn(8),
		}
	}
	if rng.Intn(2) == 0 {
		recent := make([]string, rng.Intn(15))
		for i := range recent {
			recent[i] = "m"
		}
		r.CreatorHistory = &domain.CreatorHistory{
			TokenCount:   rng.Intn(40),
			RecentTokens: recent,
			RuggedTokens: rng.Intn(6),
		}
	}
	return r
}

func TestScoreInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine := NewEngine(DefaultConfig())

	for i := 0; i < 500; i++ {
		r := randomRecord(rng)
		result := engine.Score(r)

		assert.GreaterOrEqual(t, result.Score, 0)
		assert.LessOrEqual(t, result.Score, 100)
		assert.GreaterOrEqual(t, result.DangerScore.Overall, 0)
		assert.LessOrEqual(t, result.DangerScore.Overall, 100)
		assert.Equal(t, result.Score >= DefaultConfig().MinScore, result.Passed)

		// danger + score never exceeds 100 plus the composite boost sum
		assert.LessOrEqual(t, result.DangerScore.Overall+result.Score, 160)

		// per-check penalty stays within its cap
		allowed := make(map[string]bool)
		for _, check := range result.Breakdown {
			assert.GreaterOrEqual(t, check.Penalty, 0)
			assert.LessOrEqual(t, check.Penalty, check.MaxScore)
			for _, f := range check.Flags {
				allowed[f] = true
			}
		}
		compositeFlags, _ := describeComposites(result.CompositeRisks)
		for _, f := range compositeFlags {
			allowed[f] = true
		}
		for _, f := range result.Flags {
			assert.True(t, allowed[f], "flag %q outside check union", f)
		}

		assert.LessOrEqual(t, len(result.DangerScore.PrimaryRisks), 3)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MIN_SCORE_THRESHOLD", "75")
	t.Setenv("MAX_DEV_HOLDINGS", "0.2")
	t.Setenv("MIN_HOLDERS", "80")

	cfg := FromEnv(nil)
	assert.Equal(t, 75, cfg.MinScore)
	assert.InDelta(t, 0.2, cfg.MaxDevHoldings, 1e-9)
	assert.Equal(t, int64(80), cfg.MinHolders)
}

func TestConfigFromEnvInvalidKeepsDefault(t *testing.T) {
	t.Setenv("MIN_SCORE_THRESHOLD", "not-a-number")

	cfg := FromEnv(nil)
	assert.Equal(t, DefaultConfig().MinScore, cfg.MinScore)
}
