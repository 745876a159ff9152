package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Portfolio tracks cash, the single open position and the closed trade
// list of one run. It is mutated only by applying fills, and it enforces
// the invariant that cash never goes negative: a fill that cannot be paid
// for is rejected with a typed error before any state changes.
type Portfolio struct {
	initialCash     float64
	cash            decimal.Decimal
	position        *types.Position
	trades          []types.Trade
	totalCommission float64
}

// NewPortfolio creates a portfolio with the given starting cash.
func NewPortfolio(initialCash float64) (*Portfolio, error) {
	if initialCash <= 0 {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid portfolio configuration",
			errors.NewParameterErrorf("initial_cash", initialCash, "must be positive"))
	}

	return &Portfolio{
		initialCash: initialCash,
		cash:        decimal.NewFromFloat(initialCash),
	}, nil
}

// InitialCash returns the starting cash.
func (p *Portfolio) InitialCash() float64 {
	return p.initialCash
}

// Cash returns the current free cash.
func (p *Portfolio) Cash() float64 {
	cash, _ := p.cash.Float64()

	return cash
}

// Position returns the open position, or nil when flat.
func (p *Portfolio) Position() *types.Position {
	return p.position
}

// Trades returns the closed trades in close order.
func (p *Portfolio) Trades() []types.Trade {
	return p.trades
}

// TotalCommission returns the commission paid across all fills.
func (p *Portfolio) TotalCommission() float64 {
	return p.totalCommission
}

// Equity returns cash plus the open position marked to the given price.
func (p *Portfolio) Equity(price float64) float64 {
	equity := p.Cash()
	if p.position != nil {
		equity += p.position.MarketValue(price)
	}

	return equity
}

// ApplyFill mutates the portfolio with one executed fill. Entry fills open
// the position; an EXIT fill flattens it and returns the closed trade.
func (p *Portfolio) ApplyFill(fill types.Fill) (*types.Trade, error) {
	switch fill.Direction {
	case types.DirectionLong, types.DirectionShort:
		return nil, p.open(fill)
	case types.DirectionExit:
		return p.close(fill)
	default:
		return nil, errors.Newf(errors.ErrCodeEngineState, "fill direction %q cannot be applied", fill.Direction)
	}
}

func (p *Portfolio) open(fill types.Fill) error {
	if p.position != nil {
		return errors.Newf(errors.ErrCodeEngineState,
			"cannot open %s position for %s: position already open", fill.Direction, fill.Symbol)
	}

	if fill.Quantity <= 0 {
		return errors.Newf(errors.ErrCodeInvalidOrder, "entry fill quantity must be positive, got %d", fill.Quantity)
	}

	notional := decimal.NewFromInt(fill.Quantity).Mul(decimal.NewFromFloat(fill.Price))
	commission := decimal.NewFromFloat(fill.Commission)

	quantity := fill.Quantity

	if fill.Direction == types.DirectionLong {
		cost := notional.Add(commission)
		if cost.GreaterThan(p.cash) {
			return errors.Newf(errors.ErrCodeInsufficientCash,
				"fill for %d %s costs %s but only %s cash available",
				fill.Quantity, fill.Symbol, cost.StringFixed(2), p.cash.StringFixed(2))
		}

		p.cash = p.cash.Sub(cost)
	} else {
		// Short entries are cash-secured: the proceeds are held against the
		// eventual buyback.
		quantity = -quantity
		p.cash = p.cash.Add(notional).Sub(commission)
	}

	p.position = &types.Position{
		Symbol:          fill.Symbol,
		Quantity:        quantity,
		AvgCost:         fill.Price,
		OpenTime:        fill.Time,
		EntryCommission: fill.Commission,
	}
	p.totalCommission += fill.Commission

	return nil
}

func (p *Portfolio) close(fill types.Fill) (*types.Trade, error) {
	if p.position == nil {
		return nil, errors.Newf(errors.ErrCodeEngineState, "cannot close %s: no open position", fill.Symbol)
	}

	position := p.position
	quantity := position.Quantity

	if quantity < 0 {
		quantity = -quantity
	}

	notional := decimal.NewFromInt(quantity).Mul(decimal.NewFromFloat(fill.Price))
	commission := decimal.NewFromFloat(fill.Commission)

	direction := types.DirectionLong
	if position.IsShort() {
		direction = types.DirectionShort

		cost := notional.Add(commission)
		if cost.GreaterThan(p.cash) {
			return nil, errors.Newf(errors.ErrCodeInsufficientCash,
				"buyback of %d %s costs %s but only %s cash available",
				quantity, fill.Symbol, cost.StringFixed(2), p.cash.StringFixed(2))
		}

		p.cash = p.cash.Sub(cost)
	} else {
		p.cash = p.cash.Add(notional).Sub(commission)
	}

	openNotional := decimal.NewFromInt(quantity).Mul(decimal.NewFromFloat(position.AvgCost))
	totalCommission := decimal.NewFromFloat(position.EntryCommission).Add(commission)

	pnl := notional.Sub(openNotional)
	if position.IsShort() {
		pnl = openNotional.Sub(notional)
	}

	pnl = pnl.Sub(totalCommission)

	pnlFloat, _ := pnl.Float64()

	var pnlPct float64
	if !openNotional.IsZero() {
		pnlPct, _ = pnl.Div(openNotional).Mul(decimal.NewFromInt(100)).Float64()
	}

	tradeCommission, _ := totalCommission.Float64()

	trade := types.Trade{
		Symbol:     fill.Symbol,
		Direction:  direction,
		Quantity:   quantity,
		OpenTime:   position.OpenTime,
		CloseTime:  fill.Time,
		OpenPrice:  position.AvgCost,
		ClosePrice: fill.Price,
		PnL:        pnlFloat,
		PnLPct:     pnlPct,
		Commission: tradeCommission,
	}

	p.trades = append(p.trades, trade)
	p.totalCommission += fill.Commission
	p.position = nil

	return &trade, nil
}
