// Command advisor backtests, walk-forward validates and screens trading
// strategies from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-advisor/internal/backtest"
	"github.com/rxtech-lab/argo-advisor/internal/config"
	"github.com/rxtech-lab/argo-advisor/internal/confluence"
	"github.com/rxtech-lab/argo-advisor/internal/dataprovider"
	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/market"
	"github.com/rxtech-lab/argo-advisor/internal/store"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/internal/walkforward"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

const dateLayout = "2006-01-02"

func main() {
	cmd := &cli.Command{
		Name:  "advisor",
		Usage: "Backtest, validate and screen trading strategies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
		},
		Commands: []*cli.Command{
			backtestCommand(),
			walkforwardCommand(),
			signalCommand(),
			confluenceCommand(),
			scanCommand(),
			strategiesCommand(),
			ingestCommand(),
			resultsCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// app bundles the pieces every subcommand needs.
type app struct {
	config   config.Config
	logger   *logger.Logger
	registry *strategy.Registry
}

func newApp(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	l, err := logger.NewLogger()
	if err != nil {
		return nil, err
	}

	registry, err := strategy.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}

	return &app{config: cfg, logger: l, registry: registry}, nil
}

// provider builds the configured data provider: Polygon when an API key is
// set, the local DuckDB database otherwise.
func (a *app) provider() (dataprovider.Provider, error) {
	var (
		inner dataprovider.Provider
		err   error
	)

	if a.config.Data.PolygonAPIKey != "" {
		inner, err = dataprovider.NewPolygonProvider(a.config.Data.PolygonAPIKey, a.logger)
	} else {
		inner, err = dataprovider.NewDuckDBProvider(a.config.Data.DuckDBPath, a.logger)
	}

	if err != nil {
		return nil, err
	}

	return dataprovider.WithTimeout(inner, a.config.Data.Timeout), nil
}

func (a *app) resultStore() (*store.ResultStore, error) {
	return store.NewResultStore(a.config.Store.Path, a.logger)
}

// parseOverrides turns repeated key=value flags into parameter overrides.
func parseOverrides(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	overrides := make(map[string]float64, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "parameter must be key=value, got %q", pair)
		}

		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "parameter %s has non-numeric value %q", key, value)
		}

		overrides[key] = parsed
	}

	return overrides, nil
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "symbol",
			Aliases:  []string{"s"},
			Usage:    "Ticker symbol",
			Required: true,
		},
		&cli.TimestampFlag{
			Name:     "start",
			Usage:    "Range start in `YYYY-MM-DD` format",
			Required: true,
			Config: cli.TimestampConfig{
				Layouts: []string{dateLayout},
			},
		},
		&cli.TimestampFlag{
			Name:  "end",
			Usage: "Range end in `YYYY-MM-DD` format. Defaults to today.",
			Value: time.Now().UTC().Truncate(24 * time.Hour),
			Config: cli.TimestampConfig{
				Layouts: []string{dateLayout},
			},
		},
		&cli.StringFlag{
			Name:  "interval",
			Usage: "Bar interval: 1m, 1h or 1d",
			Value: string(dataprovider.Interval1Day),
		},
	}
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run one strategy over historical bars",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"k"},
				Usage:    "Strategy registry key",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Parameter override as key=value, repeatable",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Persist the result to the results database",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			overrides, err := parseOverrides(cmd.StringSlice("param"))
			if err != nil {
				return err
			}

			interval, err := dataprovider.ParseInterval(cmd.String("interval"))
			if err != nil {
				return err
			}

			provider, err := a.provider()
			if err != nil {
				return err
			}

			series, err := provider.GetBars(ctx, cmd.String("symbol"), cmd.Timestamp("start"), cmd.Timestamp("end"), interval)
			if err != nil {
				return err
			}

			strat, params, err := a.registry.Build(cmd.String("strategy"), overrides)
			if err != nil {
				return err
			}

			sizer, err := a.config.Sizing.Sizer()
			if err != nil {
				return err
			}

			engine, err := backtest.NewEngine(a.config.Engine, sizer, a.logger)
			if err != nil {
				return err
			}

			result, err := engine.Run(ctx, strat, params, series)
			if err != nil {
				return err
			}

			printBacktest(result)

			if cmd.Bool("save") {
				if err := saveBacktest(ctx, a, result); err != nil {
					return err
				}

				fmt.Printf("\nSaved as run %s\n", result.RunID)
			}

			return nil
		},
	}
}

func saveBacktest(ctx context.Context, a *app, result *types.BacktestResult) error {
	st, err := a.resultStore()
	if err != nil {
		return err
	}
	defer st.Close()

	return st.SaveBacktest(ctx, result)
}

func walkforwardCommand() *cli.Command {
	return &cli.Command{
		Name:  "walkforward",
		Usage: "Validate a strategy with rolling train/test windows",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"k"},
				Usage:    "Strategy registry key",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Parameter override as key=value, repeatable",
			},
			&cli.IntFlag{
				Name:  "windows",
				Usage: "Number of rolling windows. Defaults to the configured value.",
			},
			&cli.FloatFlag{
				Name:  "train-frac",
				Usage: "In-sample fraction of each window. Defaults to the configured value.",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Persist the result to the results database",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			overrides, err := parseOverrides(cmd.StringSlice("param"))
			if err != nil {
				return err
			}

			interval, err := dataprovider.ParseInterval(cmd.String("interval"))
			if err != nil {
				return err
			}

			wfConfig := a.config.WalkForward
			if cmd.Int("windows") > 0 {
				wfConfig.Windows = int(cmd.Int("windows"))
			}

			if cmd.Float("train-frac") > 0 {
				wfConfig.TrainFrac = cmd.Float("train-frac")
			}

			// The global worker bound applies unless the walk-forward
			// section pins its own.
			if wfConfig.Workers == 0 {
				wfConfig.Workers = a.config.Workers
			}

			provider, err := a.provider()
			if err != nil {
				return err
			}

			series, err := provider.GetBars(ctx, cmd.String("symbol"), cmd.Timestamp("start"), cmd.Timestamp("end"), interval)
			if err != nil {
				return err
			}

			sizer, err := a.config.Sizing.Sizer()
			if err != nil {
				return err
			}

			runner := walkforward.NewRunner(a.registry, a.config.Engine, sizer, a.logger)

			result, err := runner.Run(ctx, wfConfig, cmd.String("strategy"), overrides, series)
			if err != nil {
				return err
			}

			printWalkForward(result)

			if cmd.Bool("save") {
				st, err := a.resultStore()
				if err != nil {
					return err
				}
				defer st.Close()

				if err := st.SaveWalkForward(ctx, result); err != nil {
					return err
				}

				fmt.Printf("\nSaved as run %s\n", result.RunID)
			}

			return nil
		},
	}
}

func signalCommand() *cli.Command {
	return &cli.Command{
		Name:  "signal",
		Usage: "Report every strategy's latest signal for a symbol",
		Flags: rangeFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			interval, err := dataprovider.ParseInterval(cmd.String("interval"))
			if err != nil {
				return err
			}

			provider, err := a.provider()
			if err != nil {
				return err
			}

			scanner := market.NewSignalScanner(a.registry, provider, a.logger)

			scan, err := scanner.Scan(ctx, cmd.String("symbol"), cmd.Timestamp("start"), cmd.Timestamp("end"), interval)
			if err != nil {
				return err
			}

			fmt.Printf("Signals for %s over %d bars\n\n", scan.Symbol, scan.Bars)

			for _, entry := range scan.Signals {
				if !entry.Evaluated {
					fmt.Printf("  %-18s (skipped: needs %d bars)\n", entry.StrategyKey, entry.Warmup)

					continue
				}

				fmt.Printf("  %-18s %-5s %s  %s\n",
					entry.StrategyKey,
					entry.Signal.Direction,
					entry.Signal.Time.Format(dateLayout),
					entry.Signal.Reason,
				)
			}

			return nil
		},
	}
}

func confluenceCommand() *cli.Command {
	return &cli.Command{
		Name:  "confluence",
		Usage: "Evaluate a symbol through the confluence layers",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"k"},
				Usage:    "Strategy registry key driving the technical layer",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "sentiment-score",
				Usage: "Manual sentiment score in [-1, 1]. Omit to leave the layer unavailable.",
				Value: 2, // out of range marks "not provided"
			},
			&cli.FloatFlag{
				Name:  "fundamental-score",
				Usage: "Manual fundamental score in [-1, 1]. Omit to leave the layer unavailable.",
				Value: 2,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			interval, err := dataprovider.ParseInterval(cmd.String("interval"))
			if err != nil {
				return err
			}

			provider, err := a.provider()
			if err != nil {
				return err
			}

			symbol := cmd.String("symbol")

			series, err := provider.GetBars(ctx, symbol, cmd.Timestamp("start"), cmd.Timestamp("end"), interval)
			if err != nil {
				return err
			}

			pipeline, err := buildPipeline(a, symbol, cmd.Float("sentiment-score"), cmd.Float("fundamental-score"))
			if err != nil {
				return err
			}

			verdict, err := pipeline.Evaluate(ctx, confluence.ScoreInput{
				Symbol:       symbol,
				StrategyName: cmd.String("strategy"),
				Series:       series,
			})
			if err != nil {
				return err
			}

			printVerdict(verdict)

			return nil
		},
	}
}

// buildPipeline wires the technical layer from the registry and optional
// manual sentiment and fundamental scores.
func buildPipeline(a *app, symbol string, sentimentScore, fundamentalScore float64) (*confluence.Pipeline, error) {
	var sentiment, fundamental confluence.Scorer

	if sentimentScore >= -1 && sentimentScore <= 1 {
		source := confluence.NewStaticSource()
		source.Set(symbol, sentimentScore, "manual score")
		sentiment = confluence.NewSentimentScorer(source)
	}

	if fundamentalScore >= -1 && fundamentalScore <= 1 {
		source := confluence.NewStaticSource()
		source.Set(symbol, fundamentalScore, "manual score")
		fundamental = confluence.NewFundamentalScorer(source)
	}

	return confluence.NewPipeline(
		confluence.NewTechnicalScorer(a.registry),
		sentiment,
		fundamental,
		a.config.Weights,
		a.logger,
	)
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Screen a symbol universe and rank the survivors",
		ArgsUsage: "SYMBOL [SYMBOL...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"k"},
				Usage:    "Strategy registry key driving the technical layer",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Stop after the liquidity filters; list candidates without evaluating",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			universe := cmd.Args().Slice()
			if len(universe) == 0 {
				return errors.New(errors.ErrCodeUniverseEmpty, "pass at least one symbol to scan")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			provider, err := a.provider()
			if err != nil {
				return err
			}

			pipeline, err := confluence.NewPipeline(
				confluence.NewTechnicalScorer(a.registry),
				nil,
				nil,
				a.config.Weights,
				a.logger,
			)
			if err != nil {
				return err
			}

			scanConfig := market.DefaultScanConfig(cmd.String("strategy"))
			scanConfig.Workers = a.config.Workers
			scanConfig.Filters = a.config.Screen
			scanConfig.DryRun = cmd.Bool("dry-run")

			var bar *progressbar.ProgressBar

			scanConfig.Progress = func(completed, total int) {
				if bar == nil {
					bar = progressbar.Default(int64(total), "evaluating")
				}

				_ = bar.Set(completed)
			}

			screener := market.NewScreener(provider, pipeline, a.logger)

			result, err := screener.Scan(ctx, scanConfig, universe)
			if err != nil {
				return err
			}

			printScan(result)

			return nil
		},
	}
}

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List registered strategies and their parameters",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			for _, def := range a.registry.Definitions() {
				fmt.Printf("%s (v%s, %s)\n  %s\n", def.Key, def.Version, def.Family, def.Description)

				for _, spec := range def.Params {
					fmt.Printf("    %-16s default %-8v range [%v, %v]  %s\n",
						spec.Name, spec.Default, spec.Min, spec.Max, spec.Description)
				}

				fmt.Println()
			}

			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Load bars from a CSV or Parquet file into the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Ticker symbol the bars belong to",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the CSV or Parquet file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Bar interval: 1m, 1h or 1d",
				Value: string(dataprovider.Interval1Day),
			},
			&cli.FloatFlag{
				Name:  "market-cap",
				Usage: "Market cap recorded in symbol metadata",
			},
			&cli.FloatFlag{
				Name:  "avg-volume",
				Usage: "Average daily volume recorded in symbol metadata",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			interval, err := dataprovider.ParseInterval(cmd.String("interval"))
			if err != nil {
				return err
			}

			provider, err := dataprovider.NewDuckDBProvider(a.config.Data.DuckDBPath, a.logger)
			if err != nil {
				return err
			}
			defer provider.Close()

			symbol := cmd.String("symbol")

			if err := provider.Ingest(ctx, symbol, cmd.String("file"), interval); err != nil {
				return err
			}

			if cmd.Float("market-cap") > 0 || cmd.Float("avg-volume") > 0 {
				err := provider.SetMetadata(ctx, dataprovider.Metadata{
					Symbol:    symbol,
					MarketCap: cmd.Float("market-cap"),
					AvgVolume: cmd.Float("avg-volume"),
				})
				if err != nil {
					return err
				}
			}

			fmt.Printf("Ingested %s from %s\n", symbol, cmd.String("file"))

			return nil
		},
	}
}

func resultsCommand() *cli.Command {
	kindFlag := &cli.StringFlag{
		Name:  "kind",
		Usage: "Result kind: backtest or walkforward",
		Value: string(store.KindBacktest),
	}

	return &cli.Command{
		Name:  "results",
		Usage: "Inspect stored results",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored results, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "Filter by kind: backtest or walkforward"},
					&cli.StringFlag{Name: "strategy", Usage: "Filter by strategy key"},
					&cli.StringFlag{Name: "symbol", Usage: "Filter by symbol"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum rows", Value: 20},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd)
					if err != nil {
						return err
					}

					st, err := a.resultStore()
					if err != nil {
						return err
					}
					defer st.Close()

					summaries, err := st.List(ctx, store.ListFilter{
						Kind:         store.ResultKind(cmd.String("kind")),
						StrategyName: cmd.String("strategy"),
						Symbol:       cmd.String("symbol"),
						Limit:        int(cmd.Int("limit")),
					})
					if err != nil {
						return err
					}

					if len(summaries) == 0 {
						fmt.Println("No stored results.")

						return nil
					}

					fmt.Printf("%-18s %-12s %-18s %-8s %10s  %s\n",
						"RUN ID", "KIND", "STRATEGY", "SYMBOL", "RETURN", "CREATED")

					for _, summary := range summaries {
						fmt.Printf("%-18s %-12s %-18s %-8s %9.2f%%  %s\n",
							summary.RunID, summary.Kind, summary.StrategyName, summary.Symbol,
							summary.TotalReturnPct, summary.CreatedAt.Format(dateLayout))
					}

					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Print one stored result as JSON",
				ArgsUsage: "RUN_ID",
				Flags:     []cli.Flag{kindFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					runID := cmd.Args().First()
					if runID == "" {
						return errors.New(errors.ErrCodeInvalidParameter, "pass the run ID to show")
					}

					a, err := newApp(cmd)
					if err != nil {
						return err
					}

					st, err := a.resultStore()
					if err != nil {
						return err
					}
					defer st.Close()

					var payload any

					switch store.ResultKind(cmd.String("kind")) {
					case store.KindBacktest:
						payload, err = st.GetBacktest(ctx, runID)
					case store.KindWalkForward:
						payload, err = st.GetWalkForward(ctx, runID)
					default:
						return errors.Newf(errors.ErrCodeInvalidParameter, "unknown result kind %q", cmd.String("kind"))
					}

					if err != nil {
						return err
					}

					out, err := json.MarshalIndent(payload, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(out))

					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one stored result",
				ArgsUsage: "RUN_ID",
				Flags:     []cli.Flag{kindFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					runID := cmd.Args().First()
					if runID == "" {
						return errors.New(errors.ErrCodeInvalidParameter, "pass the run ID to delete")
					}

					a, err := newApp(cmd)
					if err != nil {
						return err
					}

					st, err := a.resultStore()
					if err != nil {
						return err
					}
					defer st.Close()

					if err := st.Delete(ctx, runID, store.ResultKind(cmd.String("kind"))); err != nil {
						return err
					}

					fmt.Printf("Deleted %s\n", runID)

					return nil
				},
			},
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the configuration file",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			schema, err := config.Schema()
			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}

func printBacktest(result *types.BacktestResult) {
	m := result.Metrics

	fmt.Printf("Backtest %s on %s (%s to %s)\n", result.StrategyName, result.Symbol,
		result.Start.Format(dateLayout), result.End.Format(dateLayout))
	fmt.Printf("Run ID: %s\n\n", result.RunID)
	fmt.Printf("  Final value:     %.2f (from %.2f)\n", result.FinalValue, result.InitialCash)
	fmt.Printf("  Total return:    %.2f (%.2f%%)\n", m.TotalReturn, m.TotalReturnPct)
	fmt.Printf("  Buy & hold:      %.2f\n", m.BuyAndHoldPnL)
	fmt.Printf("  Sharpe:          %s\n", fmtOptional(m.Sharpe))
	fmt.Printf("  Max drawdown:    %.2f (%.2f%%)\n", m.MaxDrawdown, m.MaxDrawdownPct)
	fmt.Printf("  Trades:          %d (%d won, %d lost, win rate %s%%)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, fmtOptional(m.WinRate))
	fmt.Printf("  Avg trade PnL:   %s\n", fmtOptional(m.AvgTradePnL))
	fmt.Printf("  Commission paid: %.2f\n", m.TotalCommission)

	if len(result.Skipped) > 0 {
		fmt.Printf("  Skipped orders:  %d\n", len(result.Skipped))
	}
}

func printWalkForward(result *types.WalkForwardResult) {
	fmt.Printf("Walk-forward %s on %s: %d windows, train fraction %.2f\n",
		result.StrategyName, result.Symbol, result.WindowCount, result.TrainFrac)
	fmt.Printf("Run ID: %s\n\n", result.RunID)

	for _, window := range result.Windows {
		if window.Failed() {
			fmt.Printf("  window %d: FAILED: %s\n", window.Index, window.Error)

			continue
		}

		fmt.Printf("  window %d: IS %.2f%%  OOS %.2f%%\n", window.Index,
			window.InSample.Metrics.TotalReturnPct, window.OutOfSample.Metrics.TotalReturnPct)
	}

	fmt.Printf("\n  OOS return:   %.2f%% mean, %.4f variance\n", result.OOSMeanReturnPct, result.OOSVarReturnPct)
	fmt.Printf("  OOS Sharpe:   %s mean\n", fmtOptional(result.OOSMeanSharpe))
	fmt.Printf("  IS return:    %.2f%% mean\n", result.ISMeanReturnPct)
	fmt.Printf("  Overfit:      ratio %.2f, flagged %v\n", result.OverfitRatio, result.Overfit)
}

func printVerdict(verdict *types.Verdict) {
	fmt.Printf("%s: %s (composite %+.2f, suggested hold %d days)\n\n",
		verdict.Symbol, verdict.Label, verdict.CompositeScore, verdict.SuggestedHoldDays)

	for _, score := range verdict.Scores {
		state := ""
		if score.Unavailable {
			state = " (unavailable)"
		}

		fmt.Printf("  %-12s %+.2f%s  %s\n", score.Layer, score.Score, state, score.Rationale)
	}
}

func printScan(result *market.ScanResult) {
	stats := result.Stats

	fmt.Printf("Scanned %d symbols: %d passed filters, %d evaluated, %d failed, %d missing metadata\n\n",
		stats.Universe, stats.PassedFilters, stats.Evaluated, stats.Failed, stats.MissingMetadata)

	if len(result.Verdicts) == 0 {
		fmt.Println("Candidates:", strings.Join(result.Candidates, ", "))
	}

	for _, verdict := range result.Verdicts {
		fmt.Printf("  %-8s %-8s %+.2f  hold %d days\n",
			verdict.Symbol, verdict.Label, verdict.CompositeScore, verdict.SuggestedHoldDays)
	}

	for _, failure := range result.Failures {
		fmt.Printf("  %-8s FAILED: %s\n", failure.Symbol, failure.Error)
	}
}

func fmtOptional(v optional.Option[float64]) string {
	if v.IsNone() {
		return "n/a"
	}

	value, err := v.Take()
	if err != nil {
		return "n/a"
	}

	return fmt.Sprintf("%.2f", value)
}
