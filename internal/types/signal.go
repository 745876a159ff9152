package types

import "time"

// Direction is a strategy's directional opinion for the next bar.
type Direction string

const (
	// DirectionLong tells the engine to open or hold a long position
	DirectionLong Direction = "LONG"
	// DirectionShort tells the engine to open or hold a short position
	DirectionShort Direction = "SHORT"
	// DirectionFlat tells the engine to take no action
	DirectionFlat Direction = "FLAT"
	// DirectionExit tells the engine to close any open position
	DirectionExit Direction = "EXIT"
)

// Signal is produced per bar by a strategy. A strategy may hold internal
// rolling-window state, but the engine only ever sees the signal.
type Signal struct {
	// Time is the time of the bar that produced the signal
	Time time.Time
	// Direction is the directional opinion
	Direction Direction
	// Strength is the signal conviction in [0, 1]
	Strength float64
	// Reason is a human-readable explanation for the signal
	Reason string
	// Metadata carries optional strategy-specific values
	Metadata map[string]float64
}

// ImpliesChange reports whether acting on the signal could change the
// current position (FLAT never does).
func (s Signal) ImpliesChange() bool {
	return s.Direction != DirectionFlat && s.Direction != ""
}
