package live

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/signal"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/provider"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Value is one number reported in a trace.
type Value struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// MarshalJSON writes an undefined value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var value *float64
	if !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0) {
		value = &v.Value
	}

	return json.Marshal(struct {
		Name  string   `json:"name"`
		Value *float64 `json:"value"`
	}{Name: v.Name, Value: value})
}

// Trace is the audit record of one daily evaluation: every predicate of the
// decision row and the averages and closes they were computed from.
type Trace struct {
	Predicates []condition.Named `json:"predicates" yaml:"predicates"`
	Values     []Value           `json:"values" yaml:"values"`
}

// TodaySignal is the outcome of a daily evaluation.
type TodaySignal struct {
	// Date is the trading day the opening quote belongs to.
	Date time.Time `json:"date" yaml:"date"`
	// DecisionDate is the last finished bar, whose signal is acted on today.
	DecisionDate time.Time      `json:"decision_date" yaml:"decision_date"`
	Quote        provider.Quote `json:"quote" yaml:"quote"`
	// Formula names the combiner that produced the raw signal.
	Formula string `json:"formula" yaml:"formula"`
	// RawSignal is None when no rule fired on the decision row.
	RawSignal optional.Option[types.Signal] `json:"raw_signal" yaml:"raw_signal"`
	Signal    types.Signal                  `json:"signal" yaml:"signal"`
	// PreviousSignal is the resolved signal of the day before the decision row.
	PreviousSignal types.Signal `json:"previous_signal" yaml:"previous_signal"`
	// Trade is true when Signal differs from PreviousSignal.
	Trade     bool            `json:"trade" yaml:"trade"`
	SafeAsset types.SafeAsset `json:"safe_asset" yaml:"safe_asset"`
	// Recommendation is the action to take at today's open.
	Recommendation string `json:"recommendation" yaml:"recommendation"`
	Trace          Trace  `json:"trace" yaml:"trace"`
}

// Evaluator produces the daily signal from a rolling window of history and
// today's opening quote.
type Evaluator struct {
	history  provider.HistoryProvider
	quotes   provider.QuoteProvider
	config   strategy.Config
	combiner signal.Combiner
	log      *logger.Logger
}

// NewEvaluator creates an evaluator using the daily formula.
func NewEvaluator(history provider.HistoryProvider, quotes provider.QuoteProvider, config strategy.Config, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Evaluator{
		history:  history,
		quotes:   quotes,
		config:   config,
		combiner: signal.NewLiveCombiner(),
		log:      log,
	}
}

// Today evaluates the signal to act on at the open of date.
// The context can be used to cancel the provider calls.
func (e *Evaluator) Today(ctx context.Context, date time.Time) (TodaySignal, error) {
	quote, err := e.quotes.OpeningQuote(ctx, date)
	if err != nil {
		return TodaySignal{}, err
	}

	start := date.AddDate(-e.config.LiveLookbackYears, 0, 0)

	history, err := e.history.Fetch(ctx, optional.Some(start), optional.Some(date))
	if err != nil {
		return TodaySignal{}, err
	}

	e.log.Debug("Fetched live history",
		zap.Time("start", start),
		zap.Time("date", date),
		zap.Int("rows", history.Len()),
	)

	series, err := prepare(history, date, quote.QQQOpen, quote.VIXOpen, e.config)
	if err != nil {
		e.log.Warn("Cannot evaluate today's signal",
			zap.Int("rows", history.Len()),
			zap.Error(err),
		)

		return TodaySignal{}, err
	}

	result := e.evaluate(series)
	result.Date = series[series.Len()-1].Date
	result.Quote = quote

	e.log.Info("Evaluated today's signal",
		zap.Time("date", result.Date),
		zap.Stringer("signal", result.Signal),
		zap.Bool("trade", result.Trade),
		zap.String("safe_asset", string(result.SafeAsset)),
		zap.String("recommendation", result.Recommendation),
	)

	return result, nil
}

// evaluate runs the shift framing over series, whose last row holds only
// today's opens. The decision row is the second-to-last.
func (e *Evaluator) evaluate(series types.BarSeries) TodaySignal {
	set := indicator.Compute(series, e.config.Windows)
	conditions := condition.Evaluate(condition.NewShiftResolver(series), set)
	raw := signal.Raw(conditions, e.combiner)
	signals := signal.Resolve(raw)

	n := series.Len()
	decision := n - 2

	current := signals[decision]
	previous := types.SignalSafe

	if decision > 0 {
		previous = signals[decision-1]
	}

	rawSignal := optional.None[types.Signal]()
	if raw[decision].Defined() {
		rawSignal = optional.Some(raw[decision])
	}

	gldClose := series[decision].GLD.Close
	safeAsset := types.SafeAssetBond

	if condition.Greater(gldClose, set.GLDSMA[decision]).IsTrue() {
		safeAsset = types.SafeAssetGold
	}

	trade := signal.Changed(previous, current)

	return TodaySignal{
		DecisionDate:   series[decision].Date,
		Formula:        e.combiner.Name(),
		RawSignal:      rawSignal,
		Signal:         current,
		PreviousSignal: previous,
		Trade:          trade,
		SafeAsset:      safeAsset,
		Recommendation: Recommend(current, trade, safeAsset, e.config),
		Trace:          buildTrace(series, set, conditions[decision], decision),
	}
}

// Recommend turns a signal into the action to take at the open.
func Recommend(current types.Signal, trade bool, safeAsset types.SafeAsset, config strategy.Config) string {
	sleeve := fmt.Sprintf("%s%% AUM of %sx QQQ",
		decimal.NewFromFloat((1-config.SafeRatio)*100).Round(0).String(),
		decimal.NewFromFloat(config.TargetLeverage).String(),
	)

	switch {
	case current == types.SignalLeverage && trade:
		return "Hold " + sleeve
	case trade:
		return fmt.Sprintf("Hold all AUM of %s", safeAsset)
	case current == types.SignalLeverage:
		return "Keep " + sleeve
	default:
		return "Keep safe asset"
	}
}

func buildTrace(series types.BarSeries, set indicator.Set, c condition.Conditions, row int) Trace {
	bar := series[row]

	return Trace{
		Predicates: c.Named(),
		Values: []Value{
			{"vix_close", bar.VIX.Close},
			{"qqq_close", bar.QQQ.Close},
			{"qqq_sma_year", set.QQQSMAYear[row]},
			{"qqq_sma_short", set.QQQSMAShort[row]},
			{"qqq_sma_long", set.QQQSMALong[row]},
			{"gld_close", bar.GLD.Close},
			{"gld_sma", set.GLDSMA[row]},
			{"vix_sma_short", set.VIXSMAShort[row]},
			{"vix_sma_long", set.VIXSMALong[row]},
			{"vix_sma_short3", set.VIXSMAShort3[row]},
			{"vix_sma_long3", set.VIXSMALong3[row]},
		},
	}
}

// Get returns the predicate value with the given name.
func (t Trace) Get(name string) (condition.Tri, error) {
	for _, p := range t.Predicates {
		if p.Name == name {
			return p.Value, nil
		}
	}

	return condition.Unknown, errors.Newf(errors.ErrCodeDataNotFound, "no predicate named %s", name)
}
