package strategy

import (
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Registry maps stable string keys to strategy definitions. Registration is
// explicit at startup; there is no implicit discovery. Lookups for missing
// keys fail with an UnknownStrategy error rather than silently defaulting.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

// Register adds a definition to the registry. Duplicate keys and invalid
// semantic versions are typed construction errors.
func (r *Registry) Register(def Definition) error {
	if def.Key == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy definition must declare a key")
	}

	if def.New == nil {
		return errors.Newf(errors.ErrCodeInvalidParameter, "strategy %q must declare a constructor", def.Key)
	}

	if _, err := semver.NewVersion(def.Version); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyVersion, err,
			"strategy %q declares invalid version %q", def.Key, def.Version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Key]; exists {
		return errors.Newf(errors.ErrCodeDuplicateStrategy, "strategy %q is already registered", def.Key)
	}

	r.defs[def.Key] = def

	return nil
}

// Get returns the definition for the given key.
func (r *Registry) Get(key string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[key]
	if !ok {
		return Definition{}, errors.Newf(errors.ErrCodeUnknownStrategy,
			"strategy %q not found, available: %s", key, strings.Join(r.keysLocked(), ", "))
	}

	return def, nil
}

// Build resolves parameter overrides against the declared schema and
// constructs a fresh strategy instance. Invalid overrides fail fast before
// construction.
func (r *Registry) Build(key string, overrides map[string]float64) (Strategy, Params, error) {
	def, err := r.Get(key)
	if err != nil {
		return nil, nil, err
	}

	params, err := ResolveParams(def.Params, overrides)
	if err != nil {
		return nil, nil, err
	}

	strat, err := def.New(params)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrCodeStrategyConstruct, err,
			"failed to construct strategy %q", key)
	}

	return strat, params, nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.keysLocked()
}

// KeysByFamily returns the sorted keys of all definitions in the family.
func (r *Registry) KeysByFamily(family Family) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string

	for key, def := range r.defs {
		if def.Family == family {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}

// Definitions returns all registered definitions sorted by key.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.defs))
	for _, key := range r.keysLocked() {
		defs = append(defs, r.defs[key])
	}

	return defs
}

func (r *Registry) keysLocked() []string {
	keys := make([]string, 0, len(r.defs))
	for key := range r.defs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// NewDefaultRegistry returns a registry with all built-in strategies
// registered. Registration happens once, explicitly, at startup.
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()

	defs := []Definition{
		SMACrossoverDefinition(),
		MomentumBreakoutDefinition(),
		MeanReversionDefinition(),
		BuyTheDipDefinition(),
		BuyAndHoldDefinition(),
		CoveredCallDefinition(),
		WheelDefinition(),
		NakedPutDefinition(),
		PutCreditSpreadDefinition(),
	}

	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
