package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents the current holding of one symbol. A position is
// owned exclusively by one portfolio and mutated only by applying fills.
// The quantity sign encodes long (positive) or short (negative).
type Position struct {
	Symbol   string  `yaml:"symbol" json:"symbol"`
	Quantity int64   `yaml:"quantity" json:"quantity"`
	AvgCost  float64 `yaml:"avg_cost" json:"avg_cost"`
	// OpenTime is the time of the fill that opened the position
	OpenTime time.Time `yaml:"open_time" json:"open_time"`
	// EntryCommission accumulates commission paid on entry fills
	EntryCommission float64 `yaml:"entry_commission" json:"entry_commission"`
}

// IsLong reports whether the position is long.
func (p *Position) IsLong() bool {
	return p.Quantity > 0
}

// IsShort reports whether the position is short.
func (p *Position) IsShort() bool {
	return p.Quantity < 0
}

// MarketValue returns the signed market value of the position at the given
// price.
func (p *Position) MarketValue(price float64) float64 {
	value, _ := decimal.NewFromInt(p.Quantity).Mul(decimal.NewFromFloat(price)).Float64()

	return value
}

// UnrealizedPnL returns the profit or loss of the open position marked to
// the given price. Short positions gain when price falls.
func (p *Position) UnrealizedPnL(price float64) float64 {
	qty := decimal.NewFromInt(p.Quantity)
	delta := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(p.AvgCost))
	pnl, _ := qty.Mul(delta).Float64()

	return pnl
}

// Trade is one closed round-trip: an entry fill matched against the exit
// fill that flattened it. PnL is net of commission on both legs.
type Trade struct {
	Symbol     string    `yaml:"symbol" json:"symbol"`
	Direction  Direction `yaml:"direction" json:"direction"`
	Quantity   int64     `yaml:"quantity" json:"quantity"`
	OpenTime   time.Time `yaml:"open_time" json:"open_time"`
	CloseTime  time.Time `yaml:"close_time" json:"close_time"`
	OpenPrice  float64   `yaml:"open_price" json:"open_price"`
	ClosePrice float64   `yaml:"close_price" json:"close_price"`
	PnL        float64   `yaml:"pnl" json:"pnl"`
	PnLPct     float64   `yaml:"pnl_pct" json:"pnl_pct"`
	Commission float64   `yaml:"commission" json:"commission"`
}

// EquityPoint is one point on the portfolio equity curve.
type EquityPoint struct {
	Time   time.Time `yaml:"time" json:"time"`
	Equity float64   `yaml:"equity" json:"equity"`
}
