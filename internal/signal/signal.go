package signal

import (
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Raw combines every row of predicates. Rows where no branch fired are
// SignalUndefined.
func Raw(rows []condition.Conditions, combiner Combiner) []types.Signal {
	out := make([]types.Signal, len(rows))
	for i, c := range rows {
		out[i] = combiner.Combine(c)
	}

	return out
}

// Resolve forward-fills undefined days from the most recent defined day.
// Days before any defined day are safe.
func Resolve(raw []types.Signal) []types.Signal {
	out := make([]types.Signal, len(raw))
	last := types.SignalSafe

	for i, s := range raw {
		if s.Defined() {
			last = s
		}

		out[i] = last
	}

	return out
}

// FillFrom resolves a single raw signal against the previous resolved one.
func FillFrom(raw types.Signal, previous types.Signal) types.Signal {
	if raw.Defined() {
		return raw
	}

	if previous.Defined() {
		return previous
	}

	return types.SignalSafe
}

// Changed reports whether consecutive signals flipped between safe and
// leverage.
func Changed(previous types.Signal, current types.Signal) bool {
	diff := int(current) - int(previous)

	return diff == 2 || diff == -2
}

// TradeDays flags the day after each flip: day i trades when the signal at
// i-1 differs from the one at i-2, so execution happens at the open after the
// decision. The first two days never trade.
func TradeDays(signals []types.Signal) []bool {
	out := make([]bool, len(signals))
	for i := 2; i < len(signals); i++ {
		out[i] = Changed(signals[i-2], signals[i-1])
	}

	return out
}
