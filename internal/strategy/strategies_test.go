package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// seriesFromCloses builds a daily bar series from close prices with a small
// synthetic range around each close and constant volume unless overridden.
func seriesFromCloses(t *testing.T, closes []float64, volumes []float64) *types.BarSeries {
	t.Helper()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		volume := 1_000_000.0
		if volumes != nil {
			volume = volumes[i]
		}

		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c * 0.995,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: volume,
		}
	}

	series, err := types.NewBarSeries("TEST", bars)
	if err != nil {
		t.Fatalf("failed to build bar series: %v", err)
	}

	return series
}

// constant returns n copies of v.
func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}

type SMACrossoverTestSuite struct {
	suite.Suite
}

func TestSMACrossoverSuite(t *testing.T) {
	suite.Run(t, new(SMACrossoverTestSuite))
}

func (suite *SMACrossoverTestSuite) buildStrategy(short, long float64) Strategy {
	def := SMACrossoverDefinition()
	params, err := ResolveParams(def.Params, map[string]float64{
		"short_period": short,
		"long_period":  long,
	})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	return strat
}

func (suite *SMACrossoverTestSuite) TestGoldenCrossEmitsLong() {
	// Flat tail pulls the long SMA down, then a sharp rise drives the short
	// SMA across it.
	closes := append(constant(10, 100), 100, 100, 108, 116, 124)
	strat := suite.buildStrategy(3, 10)

	series := seriesFromCloses(suite.T(), closes, nil)

	var sawLong bool

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)

		if signal.Direction == types.DirectionLong {
			sawLong = true
			suite.Contains(signal.Reason, "golden cross")
			suite.Greater(signal.Metadata["sma_short"], signal.Metadata["sma_long"])
		}
	}

	suite.True(sawLong, "expected a golden cross signal on the rally")
}

func (suite *SMACrossoverTestSuite) TestDeathCrossEmitsExit() {
	closes := append(constant(10, 100), 100, 100, 92, 84, 76)
	strat := suite.buildStrategy(3, 10)

	series := seriesFromCloses(suite.T(), closes, nil)

	var sawExit bool

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)

		if signal.Direction == types.DirectionExit {
			sawExit = true
			suite.Contains(signal.Reason, "death cross")
		}
	}

	suite.True(sawExit, "expected a death cross signal on the selloff")
}

func (suite *SMACrossoverTestSuite) TestFlatSeriesNeverSignals() {
	closes := constant(60, 100)
	strat := suite.buildStrategy(20, 50)

	series := seriesFromCloses(suite.T(), closes, nil)

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)
		suite.Equal(types.DirectionFlat, signal.Direction)
	}
}

type MomentumBreakoutTestSuite struct {
	suite.Suite
}

func TestMomentumBreakoutSuite(t *testing.T) {
	suite.Run(t, new(MomentumBreakoutTestSuite))
}

func (suite *MomentumBreakoutTestSuite) TestBreakoutRequiresVolume() {
	def := MomentumBreakoutDefinition()
	params, err := ResolveParams(def.Params, map[string]float64{"sma_period": 5})
	suite.Require().NoError(err)

	// Price breaks above the SMA but volume stays at the average: no entry.
	closes := append(constant(6, 100), 110)
	series := seriesFromCloses(suite.T(), closes, nil)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	signal, err := strat.Next(series)
	suite.Require().NoError(err)
	suite.Equal(types.DirectionFlat, signal.Direction)

	// Same breakout with a 2x volume spike enters.
	volumes := constant(7, 1_000_000)
	volumes[6] = 2_000_000
	series = seriesFromCloses(suite.T(), closes, volumes)

	strat, err = def.New(params)
	suite.Require().NoError(err)

	signal, err = strat.Next(series)
	suite.Require().NoError(err)
	suite.Equal(types.DirectionLong, signal.Direction)
	suite.Greater(signal.Strength, 0.0)
}

func (suite *MomentumBreakoutTestSuite) TestBreakdownExits() {
	def := MomentumBreakoutDefinition()
	params, err := ResolveParams(def.Params, map[string]float64{"sma_period": 5})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	closes := append(constant(6, 100), 90)
	series := seriesFromCloses(suite.T(), closes, nil)

	signal, err := strat.Next(series)
	suite.Require().NoError(err)
	suite.Equal(types.DirectionExit, signal.Direction)
}

type MeanReversionTestSuite struct {
	suite.Suite
}

func TestMeanReversionSuite(t *testing.T) {
	suite.Run(t, new(MeanReversionTestSuite))
}

func (suite *MeanReversionTestSuite) TestCapitulationEnters() {
	def := MeanReversionDefinition()
	params, err := ResolveParams(def.Params, nil)
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// Steady decline into a capitulation bar: deeply oversold RSI, price far
	// below the EMA, volume spike.
	closes := make([]float64, 0, 30)
	price := 100.0

	for i := 0; i < 25; i++ {
		price -= 1.2
		closes = append(closes, price)
	}

	closes = append(closes, price-12)

	volumes := constant(len(closes), 1_000_000)
	volumes[len(volumes)-1] = 3_000_000

	series := seriesFromCloses(suite.T(), closes, volumes)

	signal, err := strat.Next(series)
	suite.Require().NoError(err)
	suite.Equal(types.DirectionLong, signal.Direction)
	suite.Less(signal.Metadata["rsi"], 25.0)
}

func (suite *MeanReversionTestSuite) TestReversionToEMAExits() {
	def := MeanReversionDefinition()
	params, err := ResolveParams(def.Params, nil)
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// Decline followed by a bounce back above the EMA of the recent range.
	closes := make([]float64, 0, 30)
	price := 100.0

	for i := 0; i < 24; i++ {
		price -= 1.0
		closes = append(closes, price)
	}

	closes = append(closes, 95)

	series := seriesFromCloses(suite.T(), closes, nil)

	signal, err := strat.Next(series)
	suite.Require().NoError(err)
	suite.Equal(types.DirectionExit, signal.Direction)
}

type BuyTheDipTestSuite struct {
	suite.Suite
}

func TestBuyTheDipSuite(t *testing.T) {
	suite.Run(t, new(BuyTheDipTestSuite))
}

func (suite *BuyTheDipTestSuite) buildStrategy(medium, long float64) Strategy {
	def := BuyTheDipDefinition()
	params, err := ResolveParams(def.Params, map[string]float64{
		"medium_period": medium,
		"long_period":   long,
	})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	return strat
}

func (suite *BuyTheDipTestSuite) TestDipInUptrendEnters() {
	strat := suite.buildStrategy(10, 50)

	// Flat base, sharp rally, slow drift, then a sharp dip. The long SMA
	// spans the cheap base, so the dip stays above it while RSI goes
	// oversold and price falls under the medium SMA.
	closes := make([]float64, 0, 50)

	for i := 0; i < 15; i++ {
		closes = append(closes, 100)
	}

	price := 100.0
	for i := 0; i < 10; i++ {
		price += 10
		closes = append(closes, price)
	}

	for i := 0; i < 20; i++ {
		price -= 0.5
		closes = append(closes, price)
	}

	for i := 0; i < 5; i++ {
		price -= 6
		closes = append(closes, price)
	}

	series := seriesFromCloses(suite.T(), closes, nil)

	var sawLong bool

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)

		if signal.Direction == types.DirectionLong {
			sawLong = true
			suite.Less(signal.Metadata["rsi"], 30.0)
			suite.Greater(series.At(i-1).Close, signal.Metadata["sma_long"])
			suite.Less(series.At(i-1).Close, signal.Metadata["sma_medium"])
		}
	}

	suite.True(sawLong, "expected a dip entry during the pullback")
}

func (suite *BuyTheDipTestSuite) TestTrendBreakExits() {
	strat := suite.buildStrategy(10, 20)

	// Uptrend then a crash through the long SMA.
	closes := make([]float64, 0, 45)
	price := 100.0

	for i := 0; i < 30; i++ {
		price += 1.0
		closes = append(closes, price)
	}

	for i := 0; i < 12; i++ {
		price -= 6.0
		closes = append(closes, price)
	}

	series := seriesFromCloses(suite.T(), closes, nil)

	var sawTrendBreak bool

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)

		if signal.Direction == types.DirectionExit && signal.Metadata["sma_long"] > series.At(i-1).Close {
			sawTrendBreak = true
		}
	}

	suite.True(sawTrendBreak, "expected a trend-break exit during the crash")
}

type BuyAndHoldTestSuite struct {
	suite.Suite
}

func TestBuyAndHoldSuite(t *testing.T) {
	suite.Run(t, new(BuyAndHoldTestSuite))
}

func (suite *BuyAndHoldTestSuite) TestEntersOnceAndHolds() {
	def := BuyAndHoldDefinition()
	params, err := ResolveParams(def.Params, nil)
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	series := seriesFromCloses(suite.T(), constant(10, 100), nil)

	var longs int

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)

		switch signal.Direction {
		case types.DirectionLong:
			longs++
		case types.DirectionFlat:
		default:
			suite.Failf("unexpected direction", "got %s", signal.Direction)
		}
	}

	suite.Equal(1, longs)
}

type OptionsStrategiesTestSuite struct {
	suite.Suite
}

func TestOptionsStrategiesSuite(t *testing.T) {
	suite.Run(t, new(OptionsStrategiesTestSuite))
}

func (suite *OptionsStrategiesTestSuite) TestCoveredCallAssignmentCycle() {
	def := CoveredCallDefinition()
	suite.Equal(FamilyOptions, def.Family)

	params, err := ResolveParams(def.Params, map[string]float64{"sma_period": 5})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// Gentle uptrend that later rallies through the 5% strike.
	closes := []float64{100, 100, 100, 100, 100, 102, 103, 104, 105, 108}
	series := seriesFromCloses(suite.T(), closes, nil)

	var directions []types.Direction

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)
		directions = append(directions, signal.Direction)
	}

	suite.Contains(directions, types.DirectionLong)
	suite.Contains(directions, types.DirectionExit)

	// Entry must come before the assignment exit.
	longIdx := -1
	exitIdx := -1

	for i, d := range directions {
		if d == types.DirectionLong && longIdx == -1 {
			longIdx = i
		}

		if d == types.DirectionExit && exitIdx == -1 {
			exitIdx = i
		}
	}

	suite.Less(longIdx, exitIdx)
}

// seriesWithPriorOpens builds daily bars whose open is the previous close,
// so a falling close makes a red bar.
func seriesWithPriorOpens(t *testing.T, closes []float64) *types.BarSeries {
	t.Helper()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   max(open, c) * 1.01,
			Low:    min(open, c) * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}

	series, err := types.NewBarSeries("TEST", bars)
	if err != nil {
		t.Fatalf("failed to build bar series: %v", err)
	}

	return series
}

func (suite *OptionsStrategiesTestSuite) TestNakedPutAssignmentCycle() {
	def := NakedPutDefinition()
	suite.Equal(FamilyOptions, def.Family)

	params, err := ResolveParams(def.Params, map[string]float64{"rsi_period": 2})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// Oversold red days open the short put at 97, the dip to 90 assigns,
	// and the recovery to 95 clears the 94.50 release target.
	closes := []float64{100, 99, 97, 96, 90, 92, 95}
	series := seriesWithPriorOpens(suite.T(), closes)

	var directions []types.Direction

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)
		directions = append(directions, signal.Direction)
	}

	longIdx := -1
	exitIdx := -1

	for i, d := range directions {
		if d == types.DirectionLong && longIdx == -1 {
			longIdx = i
		}

		if d == types.DirectionExit && exitIdx == -1 {
			exitIdx = i
		}
	}

	suite.GreaterOrEqual(longIdx, 0, "expected put assignment on the dip")
	suite.Greater(exitIdx, longIdx, "expected the shares released after the recovery")
}

func (suite *OptionsStrategiesTestSuite) TestNakedPutExpiresWorthlessOnRecovery() {
	def := NakedPutDefinition()

	params, err := ResolveParams(def.Params, map[string]float64{"rsi_period": 2})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// The decline opens a short put but price recovers before reaching the
	// strike, so no shares ever change hands.
	closes := []float64{100, 99, 97, 101, 103}
	series := seriesWithPriorOpens(suite.T(), closes)

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)
		suite.Equal(types.DirectionFlat, signal.Direction)
	}
}

func (suite *OptionsStrategiesTestSuite) TestPutCreditSpreadWinsOnRecovery() {
	def := PutCreditSpreadDefinition()
	suite.Equal(FamilyOptions, def.Family)

	params, err := ResolveParams(def.Params, map[string]float64{"rsi_period": 2})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// Oversold at 96 opens the spread; the bounce lifts RSI past the exit
	// threshold and the spread expires worthless.
	closes := []float64{100, 98, 96, 97, 99, 103}
	series := seriesFromCloses(suite.T(), closes, nil)

	var exitReason string

	directions := make([]types.Direction, 0, 4)

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)
		directions = append(directions, signal.Direction)

		if signal.Direction == types.DirectionExit && exitReason == "" {
			exitReason = signal.Reason
		}
	}

	suite.Equal(types.DirectionLong, directions[0], "expected the oversold close to open the spread")
	suite.Contains(directions, types.DirectionExit)
	suite.Contains(exitReason, "expires worthless")
}

func (suite *OptionsStrategiesTestSuite) TestPutCreditSpreadStopsAtMaxLoss() {
	def := PutCreditSpreadDefinition()

	params, err := ResolveParams(def.Params, map[string]float64{"rsi_period": 2})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// The slide through the long put floor at 86.40 closes at max loss.
	closes := []float64{100, 98, 96, 90, 85}
	series := seriesFromCloses(suite.T(), closes, nil)

	var exitReason string

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)

		if signal.Direction == types.DirectionExit {
			exitReason = signal.Reason
		}
	}

	suite.Contains(exitReason, "max loss")
}

func (suite *OptionsStrategiesTestSuite) TestWheelPutAssignmentThenCall() {
	def := WheelDefinition()
	suite.Equal(FamilyOptions, def.Family)

	params, err := ResolveParams(def.Params, map[string]float64{"sma_period": 5})
	suite.Require().NoError(err)

	strat, err := def.New(params)
	suite.Require().NoError(err)

	// Dip of more than 5% triggers put assignment, then a rally of more than
	// 5% above cost triggers the call exit.
	closes := []float64{100, 100, 100, 100, 100, 100, 94, 95, 97, 99, 100}
	series := seriesFromCloses(suite.T(), closes, nil)

	var directions []types.Direction

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		suite.Require().NoError(err)
		directions = append(directions, signal.Direction)
	}

	longIdx := -1
	exitIdx := -1

	for i, d := range directions {
		if d == types.DirectionLong && longIdx == -1 {
			longIdx = i
		}

		if d == types.DirectionExit && exitIdx == -1 {
			exitIdx = i
		}
	}

	suite.GreaterOrEqual(longIdx, 0, "expected put assignment on the dip")
	suite.Greater(exitIdx, longIdx, "expected call assignment after the rally")
}
