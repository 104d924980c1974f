package domain

// MigrationEvent is the input to the analysis pipeline: a token graduating
// from the pump.fun bonding curve to an AMM pool. Immutable once received.
type MigrationEvent struct {
	Mint      string   `json:"mint"`                // base-58 token mint, required
	Signature string   `json:"signature,omitempty"` // empty for backfilled events, "manual" for API-triggered runs
	Name      string   `json:"name,omitempty"`
	Symbol    string   `json:"symbol,omitempty"`
	URI       string   `json:"uri,omitempty"` // image or metadata URL
	Pool      string   `json:"pool,omitempty"`
	Timestamp int64    `json:"timestamp"` // ms since epoch
	MarketCap *float64 `json:"marketCap,omitempty"` // USD, nil when unknown
	Liquidity *float64 `json:"liquidity,omitempty"` // USD, nil when unknown
	Creator   string   `json:"creator,omitempty"`
}

// TradeEvent is a buy or sell frame from the same upstream socket.
// The monitor ignores these; they are parsed so a live-volume consumer
// can subscribe without re-decoding frames.
type TradeEvent struct {
	Mint      string  `json:"mint"`
	Signature string  `json:"signature"`
	Type      string  `json:"type"` // "buy" | "sell"
	Trader    string  `json:"trader,omitempty"`
	TokenAmt  float64 `json:"tokenAmount,omitempty"`
	SolAmt    float64 `json:"solAmount,omitempty"`
	Timestamp int64   `json:"timestamp"`
}
