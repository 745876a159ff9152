// Package strategy defines the signal-producing capability contract shared
// by all strategies, the parameter schema they declare, and the registry
// that maps stable string keys to strategy constructors.
package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Family tags a strategy variant. The execution engine applies
// family-specific order handling, e.g. 100-share lot rounding for options.
type Family string

const (
	FamilyEquity  Family = "equity"
	FamilyOptions Family = "options"
)

// Strategy maps a bar-series prefix to a trading signal for the next bar.
// Implementations may hold internal rolling-window state across calls but
// expose only the signal; the engine owns all position and cash state.
// A strategy instance is used by exactly one run and never shared.
type Strategy interface {
	// Key returns the stable registry key of the strategy.
	Key() string
	// Family returns the strategy family tag.
	Family() Family
	// Warmup returns the number of bars the strategy needs before it can
	// produce a meaningful signal. The engine starts calling Next at this
	// index.
	Warmup() int
	// Next produces a signal from the series prefix ending at the current
	// bar. The prefix is read-only and always grows by one bar per call.
	Next(series *types.BarSeries) (types.Signal, error)
}

// ParamSpec declares one tunable parameter: its default and the range an
// override must satisfy.
type ParamSpec struct {
	Name        string  `json:"name"`
	Default     float64 `json:"default"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Integer     bool    `json:"integer"`
	Description string  `json:"description,omitempty"`
}

// Params is a resolved parameter set: declared defaults merged with
// validated overrides.
type Params map[string]float64

// Get returns the parameter value, or fallback when absent.
func (p Params) Get(name string, fallback float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}

	return fallback
}

// Int returns the parameter value truncated to an int, or fallback when
// absent.
func (p Params) Int(name string, fallback int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}

	return fallback
}

// Definition binds a registry key to a strategy constructor and its
// declared parameter schema.
type Definition struct {
	// Key is the stable lookup key, e.g. "sma_crossover".
	Key string
	// Family tags the variant for engine-side order handling.
	Family Family
	// Version is a semantic version string, validated at registration.
	Version string
	// Description is human-readable strategy documentation.
	Description string
	// Params declares the parameter schema with defaults.
	Params []ParamSpec
	// New constructs a fresh strategy instance from resolved params.
	New func(params Params) (Strategy, error)
}

// ResolveParams merges overrides into the declared defaults. Every override
// key must exist in the schema and satisfy its range; violations fail fast
// with a ParameterError naming the offending key.
func ResolveParams(specs []ParamSpec, overrides map[string]float64) (Params, error) {
	resolved := make(Params, len(specs))
	byName := make(map[string]ParamSpec, len(specs))

	for _, spec := range specs {
		resolved[spec.Name] = spec.Default
		byName[spec.Name] = spec
	}

	for key, value := range overrides {
		spec, ok := byName[key]
		if !ok {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "unknown parameter override",
				errors.NewParameterErrorf(key, value, "not declared by the strategy schema"))
		}

		if spec.Integer && value != math.Trunc(value) {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid parameter override",
				errors.NewParameterErrorf(key, value, "must be an integer, got %v", value))
		}

		if value < spec.Min || value > spec.Max {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid parameter override",
				errors.NewParameterErrorf(key, value, "out of range [%v, %v]", spec.Min, spec.Max))
		}

		resolved[key] = value
	}

	return resolved, nil
}
