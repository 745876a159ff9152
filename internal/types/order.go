package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// EquityLotSize is the minimum order increment for equity strategies.
const EquityLotSize int64 = 1

// OptionsLotSize is the minimum order increment for the options strategy
// family: orders are rounded down to multiples of 100 shares.
const OptionsLotSize int64 = 100

// Order is derived from a Signal by the sizing model. Quantity is always a
// non-negative integer; the direction carries the side.
type Order struct {
	// ID is assigned by the engine when the order is placed.
	ID             string    `yaml:"id" json:"id"`
	Symbol         string    `yaml:"symbol" json:"symbol" validate:"required"`
	Direction      Direction `yaml:"direction" json:"direction" validate:"required,oneof=LONG SHORT EXIT"`
	Quantity       int64     `yaml:"quantity" json:"quantity" validate:"gte=0"`
	RequestedPrice float64   `yaml:"requested_price" json:"requested_price" validate:"gt=0"`
	// Reason is the signal reason that produced this order
	Reason string `yaml:"reason" json:"reason"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Fill records the simulated execution of an order. Execution price is the
// requested price adjusted by the slippage model; commission is a
// configurable fraction of notional.
type Fill struct {
	OrderID      string    `yaml:"order_id" json:"order_id"`
	Symbol       string    `yaml:"symbol" json:"symbol"`
	Direction    Direction `yaml:"direction" json:"direction"`
	Quantity     int64     `yaml:"quantity" json:"quantity"`
	Price        float64   `yaml:"price" json:"price"`
	Commission   float64   `yaml:"commission" json:"commission"`
	SlippageCost float64   `yaml:"slippage_cost" json:"slippage_cost"`
	Time         time.Time `yaml:"time" json:"time"`
}

// Notional returns the gross fill value before commission.
func (f Fill) Notional() float64 {
	return float64(f.Quantity) * f.Price
}

// SkippedOrder records an order the engine rejected rather than executed,
// e.g. because it would have required more cash than available. Skips are
// events, not errors.
type SkippedOrder struct {
	Order  Order     `yaml:"order" json:"order"`
	Time   time.Time `yaml:"time" json:"time"`
	Reason string    `yaml:"reason" json:"reason"`
}
