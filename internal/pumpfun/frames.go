package pumpfun

import (
	"encoding/json"
	"fmt"
	"time"

	"pumpfun-radar/internal/domain"
)

// frame is the raw upstream message. Every field beyond txType is
// optional; which ones are set depends on the frame type.
type frame struct {
	TxType          string   `json:"txType"`
	Signature       string   `json:"signature"`
	Mint            string   `json:"mint"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	URI             string   `json:"uri"`
	Pool            string   `json:"pool"`
	MarketCapSol    *float64 `json:"marketCapSol"`
	Creator         string   `json:"creator"`
	TraderPublicKey string   `json:"traderPublicKey"`
	TokenAmount     float64  `json:"tokenAmount"`
	SolAmount       float64  `json:"solAmount"`
}

func parseFrame(message []byte) (*frame, error) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	if f.TxType == "" {
		return nil, fmt.Errorf("frame without txType")
	}
	return &f, nil
}

// migrationEvent builds a MigrationEvent from a migration frame.
// marketCapUSD converts marketCapSol at receipt time; when the price is
// unknown the market cap stays unset rather than zero.
func (f *frame) migrationEvent(marketCapUSD *float64) domain.MigrationEvent {
	return domain.MigrationEvent{
		Mint:      f.Mint,
		Signature: f.Signature,
		Name:      f.Name,
		Symbol:    f.Symbol,
		URI:       f.URI,
		Pool:      f.Pool,
		Timestamp: time.Now().UnixMilli(),
		MarketCap: marketCapUSD,
		Creator:   f.Creator,
	}
}

func (f *frame) tradeEvent() domain.TradeEvent {
	return domain.TradeEvent{
		Mint:      f.Mint,
		Signature: f.Signature,
		Type:      f.TxType,
		Trader:    f.TraderPublicKey,
		TokenAmt:  f.TokenAmount,
		SolAmt:    f.SolAmount,
		Timestamp: time.Now().UnixMilli(),
	}
}
