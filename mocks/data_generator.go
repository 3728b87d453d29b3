package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// BarGenerator generates synthetic four-instrument daily bars for tests.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a new BarGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartDate is the first business day of the series
	StartDate time.Time
	// Count is the number of business days to generate
	Count int
	// QQQPrice is the starting equity index close
	QQQPrice float64
	// QQQVolatility is the typical daily move of the equity index (0.01 = 1%)
	QQQVolatility float64
	// QQQTrend is the daily drift of the equity index
	QQQTrend float64
	// VIXLevel is the level the volatility index reverts to
	VIXLevel float64
	// VIXSpikeRate is the daily probability of a volatility spike
	VIXSpikeRate float64
	// GLDPrice is the starting gold close
	GLDPrice float64
	// SHYPrice is the starting bond close
	SHYPrice float64
	// MissingRate is the probability that an instrument has no bar on a given day
	MissingRate float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartDate:     time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Count:         500,
		QQQPrice:      200,
		QQQVolatility: 0.015,
		QQQTrend:      0.0004,
		VIXLevel:      20,
		VIXSpikeRate:  0.02,
		GLDPrice:      150,
		SHYPrice:      85,
		MissingRate:   0,
	}
}

// Generate creates a bar series on consecutive business days. Prices follow a
// geometric random walk; the volatility index mean-reverts with occasional
// spikes so the high-volatility branches of the rule set are reached.
func (g *BarGenerator) Generate(config GeneratorConfig) types.BarSeries {
	series := make(types.BarSeries, 0, config.Count)
	date := config.StartDate

	qqq := config.QQQPrice
	vix := config.VIXLevel
	gld := config.GLDPrice
	shy := config.SHYPrice

	for len(series) < config.Count {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)

			continue
		}

		bar := types.NewMissingDailyBar(date)

		var qqqBar types.InstrumentBar
		qqqBar, qqq = g.walk(qqq, config.QQQVolatility, config.QQQTrend)
		bar.QQQ = g.maybeMissing(qqqBar, config.MissingRate)

		var vixBar types.InstrumentBar
		vixBar, vix = g.volatility(vix, config.VIXLevel, config.VIXSpikeRate)
		bar.VIX = g.maybeMissing(vixBar, config.MissingRate)

		var gldBar types.InstrumentBar
		gldBar, gld = g.walk(gld, 0.009, 0.0002)
		bar.GLD = g.maybeMissing(gldBar, config.MissingRate)

		var shyBar types.InstrumentBar
		shyBar, shy = g.walk(shy, 0.0008, 0.00005)
		bar.SHY = g.maybeMissing(shyBar, config.MissingRate)

		series = append(series, bar)
		date = date.AddDate(0, 0, 1)
	}

	return series
}

// walk generates one bar of a geometric random walk starting from the
// previous close and returns the bar and the new close.
func (g *BarGenerator) walk(previous float64, volatility float64, trend float64) (types.InstrumentBar, float64) {
	gap := volatility * 0.3 * g.normal()
	open := previous * (1 + gap)

	close := open * (1 + volatility*g.normal() + trend)
	if close <= 0 {
		close = open * 0.99
	}

	return g.bar(open, close, volatility), close
}

// volatility generates one bar of the mean-reverting volatility index.
func (g *BarGenerator) volatility(previous float64, level float64, spikeRate float64) (types.InstrumentBar, float64) {
	open := previous * (1 + 0.03*g.normal())
	if g.rng.Float64() < spikeRate {
		open *= 1.3 + g.rng.Float64()
	}

	close := open + 0.15*(level-open) + 0.05*open*g.normal()
	if close < 9 {
		close = 9
	}

	if open < 9 {
		open = 9
	}

	return g.bar(open, close, 0.05), close
}

func (g *BarGenerator) bar(open float64, close float64, volatility float64) types.InstrumentBar {
	high := math.Max(open, close) * (1 + math.Abs(g.rng.Float64()*volatility*0.5))
	low := math.Min(open, close) * (1 - math.Abs(g.rng.Float64()*volatility*0.5))

	return types.InstrumentBar{
		Open:   roundToDecimals(open, 4),
		High:   roundToDecimals(high, 4),
		Low:    roundToDecimals(low, 4),
		Close:  roundToDecimals(close, 4),
		Volume: roundToDecimals(1e6*(0.7+g.rng.Float64()*0.6), 0),
	}
}

func (g *BarGenerator) maybeMissing(bar types.InstrumentBar, rate float64) types.InstrumentBar {
	if rate > 0 && g.rng.Float64() < rate {
		return types.MissingBar()
	}

	return bar
}

// normal draws from the standard normal distribution using the Box-Muller transform.
func (g *BarGenerator) normal() float64 {
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()

	if u1 == 0 {
		u1 = math.SmallestNonzeroFloat64
	}

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// GenerateYears is a convenience function that generates roughly the given
// number of years of business days with default settings.
func GenerateYears(years int) types.BarSeries {
	gen := NewBarGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = years * 252

	return gen.Generate(config)
}

// FlatSeries returns count business days starting at start on which every
// instrument opens and closes at the same constant price: the equity index,
// gold and bond at 100 and the volatility index at 15. Tests shape individual
// rows from there.
func FlatSeries(start time.Time, count int) types.BarSeries {
	series := make(types.BarSeries, 0, count)
	date := start

	for len(series) < count {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)

			continue
		}

		bar := types.NewMissingDailyBar(date)
		bar.QQQ = flatBar(100)
		bar.VIX = flatBar(15)
		bar.GLD = flatBar(100)
		bar.SHY = flatBar(100)

		series = append(series, bar)
		date = date.AddDate(0, 0, 1)
	}

	return series
}

func flatBar(price float64) types.InstrumentBar {
	return types.InstrumentBar{Open: price, High: price, Low: price, Close: price, Volume: 1e6}
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
