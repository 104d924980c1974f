package scoring

import (
	"log"
	"os"
	"strconv"
)

// Config holds the scoring thresholds. Loaded once at startup and passed
// by value; the engine never mutates it.
type Config struct {
	MinScore           int     // pass/fail cutoff
	MaxDevHoldings     float64 // decimal, 0..1
	MinHolders         int64
	MaxTop10           float64 // decimal, 0..1
	MinUniqueRatio     float64
	MinTokenAgeHours   float64
	MinLiquidityRatio  float64
	MaxPriceVolatility float64 // percent
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore:           60,
		MaxDevHoldings:     0.15,
		MinHolders:         50,
		MaxTop10:           0.30,
		MinUniqueRatio:     0.60,
		MinTokenAgeHours:   1,
		MinLiquidityRatio:  0.05,
		MaxPriceVolatility: 50,
	}
}

// FromEnv overlays recognized environment variables on the defaults.
// Unparseable values keep the default and are logged.
func FromEnv(logger *log.Logger) Config {
	if logger == nil {
		logger = log.Default()
	}
	cfg := DefaultConfig()

	if v := os.Getenv("MIN_SCORE_THRESHOLD"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.MinScore = parsed
		} else {
			logger.Printf("invalid MIN_SCORE_THRESHOLD %q, using %d", v, cfg.MinScore)
		}
	}
	if v := os.Getenv("MAX_DEV_HOLDINGS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MaxDevHoldings = parsed
		} else {
			logger.Printf("invalid MAX_DEV_HOLDINGS %q, using %g", v, cfg.MaxDevHoldings)
		}
	}
	if v := os.Getenv("MIN_HOLDERS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MinHolders = parsed
		} else {
			logger.Printf("invalid MIN_HOLDERS %q, using %d", v, cfg.MinHolders)
		}
	}
	return cfg
}
