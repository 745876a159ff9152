// Package config loads the advisor configuration from YAML and exposes a
// JSON schema for editor completion. Every section has working defaults;
// an empty file is a valid configuration.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-advisor/internal/backtest"
	"github.com/rxtech-lab/argo-advisor/internal/backtest/sizing"
	"github.com/rxtech-lab/argo-advisor/internal/confluence"
	"github.com/rxtech-lab/argo-advisor/internal/market"
	"github.com/rxtech-lab/argo-advisor/internal/walkforward"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Sizing policies.
const (
	SizingFixedFraction = "fixed_fraction"
	SizingATR           = "atr"
)

// DataConfig selects and tunes the bar data source.
type DataConfig struct {
	// DuckDBPath is the local bar database. Ignored when a Polygon API key
	// is set.
	DuckDBPath string `yaml:"duckdb_path" json:"duckdb_path" jsonschema:"title=DuckDB Path,description=Path to the local DuckDB bar database"`
	// PolygonAPIKey switches the data source to the Polygon REST API.
	PolygonAPIKey string `yaml:"polygon_api_key" json:"polygon_api_key" jsonschema:"title=Polygon API Key,description=Polygon.io API key; set to fetch bars remotely instead of from DuckDB"`
	// Timeout bounds every provider call. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"title=Data Timeout,description=Per-call data fetch timeout" validate:"gte=0"`
}

// SizingConfig selects the position sizing policy.
type SizingConfig struct {
	Policy string `yaml:"policy" json:"policy" jsonschema:"title=Sizing Policy,description=Position sizing policy,enum=fixed_fraction,enum=atr" validate:"oneof=fixed_fraction atr"`
	// Fraction is the equity fraction per position under fixed_fraction.
	Fraction float64 `yaml:"fraction" json:"fraction" jsonschema:"title=Equity Fraction,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	// ATRPeriod, RiskPct and Multiplier tune the atr policy.
	ATRPeriod  int     `yaml:"atr_period" json:"atr_period" jsonschema:"title=ATR Period,minimum=1" validate:"min=1"`
	RiskPct    float64 `yaml:"risk_pct" json:"risk_pct" jsonschema:"title=Risk Percent,description=Equity fraction risked per position,minimum=0" validate:"gt=0,lte=1"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier" jsonschema:"title=ATR Multiplier,minimum=0" validate:"gt=0"`
}

// Sizer constructs the configured position sizer.
func (c SizingConfig) Sizer() (backtest.Sizer, error) {
	switch c.Policy {
	case SizingFixedFraction:
		return sizing.NewFixedFraction(c.Fraction)
	case SizingATR:
		return sizing.NewATRSizer(c.ATRPeriod, c.RiskPct, c.Multiplier)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown sizing policy %q", c.Policy)
	}
}

// StoreConfig locates the results database.
type StoreConfig struct {
	Path string `yaml:"path" json:"path" jsonschema:"title=Results Path,description=Path to the DuckDB results database"`
}

// Config is the full advisor configuration.
type Config struct {
	Data        DataConfig          `yaml:"data" json:"data"`
	Engine      backtest.Config     `yaml:"engine" json:"engine"`
	Sizing      SizingConfig        `yaml:"sizing" json:"sizing"`
	WalkForward walkforward.Config  `yaml:"walkforward" json:"walkforward"`
	Weights     confluence.Weights  `yaml:"weights" json:"weights"`
	Screen      market.FilterConfig `yaml:"screen" json:"screen"`
	// Workers bounds concurrent work in scans and walk-forward windows.
	Workers int         `yaml:"workers" json:"workers" jsonschema:"title=Workers,minimum=1" validate:"min=1"`
	Store   StoreConfig `yaml:"store" json:"store"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Data: DataConfig{
			DuckDBPath: "advisor.duckdb",
			Timeout:    30 * time.Second,
		},
		Engine: backtest.DefaultConfig(),
		Sizing: SizingConfig{
			Policy:     SizingATR,
			Fraction:   0.2,
			ATRPeriod:  14,
			RiskPct:    0.02,
			Multiplier: 2.0,
		},
		WalkForward: walkforward.DefaultConfig(),
		Weights:     confluence.DefaultWeights(),
		Screen:      market.DefaultFilterConfig(),
		Workers:     4,
		Store: StoreConfig{
			Path: "results.duckdb",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if err := c.WalkForward.Validate(); err != nil {
		return err
	}

	if err := c.Weights.Validate(); err != nil {
		return err
	}

	if _, err := c.Sizing.Sizer(); err != nil {
		return err
	}

	return nil
}

// Load reads a YAML configuration file layered over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Schema returns the JSON schema of the configuration, for editor
// completion of config files.
func Schema() (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config schema", err)
	}

	return string(out), nil
}
