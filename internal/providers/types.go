package providers

import (
	"encoding/json"
	"strconv"
	"time"
)

// GraduatedToken is one entry of the graduated-token index.
type GraduatedToken struct {
	Mint        string
	Name        string
	Symbol      string
	Logo        string
	PriceUSD    float64
	Liquidity   float64
	FDV         float64 // fully diluted valuation, USD
	GraduatedAt int64   // ms
	PairAddress string
}

// Pair is one trading pair for a mint.
type Pair struct {
	PairAddress    string
	Exchange       string
	LiquidityUSD   float64
	USDPrice       float64
	Volume24hUSD   float64
	PriceChange24h float64 // percent
	CreatedAt      int64   // ms, 0 when unknown
}

// HolderStats is the aggregate holder view for a mint.
// TotalHolders is -1 when the registry has no data (404 or omitted field).
type HolderStats struct {
	TotalHolders       int64
	Top10Percent       float64 // decimal in [0,1], 0 when unknown
	DevHoldingsPercent float64 // decimal in [0,1], 0 when unknown
}

// TopHolder is one entry of the top-holder list, ordered by share descending.
type TopHolder struct {
	Owner              string
	PercentageOfSupply float64 // decimal in [0,1]
	Label              string  // "" unless the registry tags infrastructure
}

// Swap is one trade from the swap feed.
type Swap struct {
	Type      string // "buy" | "sell"
	ValueUSD  float64
	PriceUSD  float64 // token price at execution, 0 when the feed omits it
	Wallet    string
	Timestamp int64 // ms
}

// flexFloat decodes a JSON number or a numeric string. Providers disagree
// on which they send; both must parse.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexTime decodes an ms epoch number or an RFC 3339 string into ms.
type flexTime int64

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*t = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*t = 0
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		*t = flexTime(parsed.UnixMilli())
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	// Seconds-resolution timestamps are promoted to ms.
	if v > 0 && v < 1e12 {
		v *= 1000
	}
	*t = flexTime(v)
	return nil
}
