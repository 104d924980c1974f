package domain

// Market cap confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// HolderCountUnknown marks holder counts no source could provide.
// It must never trigger holder-count thresholds in scoring.
const HolderCountUnknown int64 = -1

// LPLockBurned is the serialized stand-in for "LP burned forever".
// encoding/json cannot represent +Inf, so the sentinel is a duration (ms)
// far beyond any real lock; any value at or above it means always safe.
const LPLockBurned float64 = 1e15

// TokenRecord is the fused result of enriching one migration event.
// Created by the orchestrator, owned by the monitor, never mutated after
// insertion into history.
type TokenRecord struct {
	Address            string          `json:"address"`
	Metadata           TokenMetadata   `json:"metadata"`
	PriceData          PriceData       `json:"priceData"`
	Statistics         TokenStatistics `json:"statistics"`
	Security           *SecurityInfo   `json:"security,omitempty"`       // nil = probe failed entirely
	LaunchAnalysis     *LaunchAnalysis `json:"launchAnalysis,omitempty"` // full mode only
	WalletFunding      *WalletFunding  `json:"walletFunding,omitempty"`
	CreatorHistory     *CreatorHistory `json:"creatorHistory,omitempty"`
	Analysis           *AnalysisResult `json:"analysis,omitempty"`
	MigrationTimestamp int64           `json:"migrationTimestamp"`
	AnalyzedAt         int64           `json:"analyzedAt"`
}

// TokenMetadata holds identity fields for a token.
type TokenMetadata struct {
	Name     string      `json:"name"`
	Symbol   string      `json:"symbol"`
	Image    string      `json:"image,omitempty"`
	Creator  string      `json:"creator,omitempty"`
	Decimals int         `json:"decimals"`
	Supply   string      `json:"supply"` // decimal string, UI units
	Socials  SocialLinks `json:"socials"`
}

// SocialLinks come from the off-chain metadata JSON when available.
type SocialLinks struct {
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// PriceData holds market figures. All monetary values USD.
type PriceData struct {
	Price               float64 `json:"price"`
	MarketCap           float64 `json:"marketCap"`
	MarketCapConfidence string  `json:"marketCapConfidence"`
	Liquidity           float64 `json:"liquidity"`
	Volume24h           float64 `json:"volume24h"`
	Trades24h           int     `json:"trades24h"`
	Buys24h             int     `json:"buys24h"`
	Sells24h            int     `json:"sells24h"`
	Buys1h              int     `json:"buys1h"`
	Sells1h             int     `json:"sells1h"`
	Buys5m              int     `json:"buys5m"`
	Sells5m             int     `json:"sells5m"`
	PriceChange24h      float64 `json:"priceChange24h"` // percent
	PriceChange1h       float64 `json:"priceChange1h"`
	PriceChange5m       float64 `json:"priceChange5m"`
	PairCreatedAt       int64   `json:"pairCreatedAt"` // ms, 0 when unknown
}

// TokenStatistics holds holder and trading aggregates.
// Ratios are decimals in [0,1]; they are formatted as percentages only
// inside scoring flags.
type TokenStatistics struct {
	HolderCount            int64   `json:"holderCount"` // -1 = unknown
	UniqueTraders          int     `json:"uniqueTraders"`
	Top10Concentration     float64 `json:"top10Concentration"`
	LargestHolder          float64 `json:"largestHolder"`
	DevHoldings            float64 `json:"devHoldings"`
	LiquidityRatio         float64 `json:"liquidityRatio"`
	VolumeToLiquidityRatio float64 `json:"volumeToLiquidityRatio"`
	MicroBuyRatio          float64 `json:"microBuyRatio"`      // share of buys below 0.01 units
	WashTraderCount        int     `json:"washTraderCount"`    // wallets with >5 buys and >5 sells
	RapidTraderCount       int     `json:"rapidTraderCount"`   // wallets averaging <30s between txs over >10 txs
	AirdropSellerCount     int     `json:"airdropSellerCount"` // pre-trade transfer recipients that later sold
}

// SecurityInfo holds authority and LP safety signals.
type SecurityInfo struct {
	MintAuthorityRevoked   bool    `json:"mintAuthorityRevoked"`
	FreezeAuthorityRevoked bool    `json:"freezeAuthorityRevoked"`
	LPLocked               bool    `json:"lpLocked"`
	LPLockPercentage       float64 `json:"lpLockPercentage"` // 0..100
	LPLockDuration         float64 `json:"lpLockDuration"`   // ms; >= LPLockBurned means burned
	TopHoldersAreContracts bool    `json:"topHoldersAreContracts"`
	IsRugpullRisk          bool    `json:"isRugpullRisk"`
}

// LaunchAnalysis summarizes the first minutes of trading (full mode only).
type LaunchAnalysis struct {
	BundledBuys        int     `json:"bundledBuys"`     // buys sharing the earliest slot
	SniperCount        int     `json:"sniperCount"`     // unique buyers within 300s of reference
	FirstBuyerCount    int     `json:"firstBuyerCount"` // unique buyers within 60s
	FirstBuyerHoldings float64 `json:"firstBuyerHoldings"`
	AvgFirstBuySize    float64 `json:"avgFirstBuySize"` // SOL
	CreatorBoughtBack  bool    `json:"creatorBoughtBack"`
}

// WalletFunding summarizes how top holder wallets were funded.
type WalletFunding struct {
	ClusteredWallets         int    `json:"clusteredWallets"` // max holders sharing one funding source
	CommonFundingSource      string `json:"commonFundingSource,omitempty"`
	FreshWalletBuyers        int    `json:"freshWalletBuyers"` // first seen within 24h
	SuspiciousFundingPattern bool   `json:"suspiciousFundingPattern"`
}

// CreatorHistory summarizes the creator wallet's past launches.
type CreatorHistory struct {
	TokenCount       int      `json:"tokenCount"`
	RecentTokens     []string `json:"recentTokens"` // fungible mints created in the last 30 days
	IsSerialCreator  bool     `json:"isSerialCreator"`
	RuggedTokens     int      `json:"ruggedTokens"`
	SuccessfulTokens int      `json:"successfulTokens"`
}
