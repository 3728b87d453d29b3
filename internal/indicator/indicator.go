package indicator

import (
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Windows holds the moving-average window lengths the rule set reads.
type Windows struct {
	QQQShort  int `yaml:"qqq_short" json:"qqq_short" jsonschema:"title=QQQ Short SMA,minimum=1,default=5" validate:"min=1"`
	QQQLong   int `yaml:"qqq_long" json:"qqq_long" jsonschema:"title=QQQ Long SMA,minimum=1,default=15" validate:"min=1"`
	VIXShort  int `yaml:"vix_short" json:"vix_short" jsonschema:"title=VIX Short SMA (sell side),minimum=1,default=1" validate:"min=1"`
	VIXLong   int `yaml:"vix_long" json:"vix_long" jsonschema:"title=VIX Long SMA (sell side),minimum=1,default=3" validate:"min=1"`
	VIXShort3 int `yaml:"vix_short3" json:"vix_short3" jsonschema:"title=VIX Short SMA (buy side),minimum=1,default=3" validate:"min=1"`
	VIXLong3  int `yaml:"vix_long3" json:"vix_long3" jsonschema:"title=VIX Long SMA (buy side),minimum=1,default=9" validate:"min=1"`
	QQQYear   int `yaml:"qqq_year" json:"qqq_year" jsonschema:"title=QQQ Year SMA,minimum=1,default=155" validate:"min=1"`
	Gold      int `yaml:"gold" json:"gold" jsonschema:"title=Gold SMA,minimum=1,default=100" validate:"min=1"`
}

// DefaultWindows returns the production window lengths.
func DefaultWindows() Windows {
	return Windows{
		QQQShort:  5,
		QQQLong:   15,
		VIXShort:  1,
		VIXLong:   3,
		VIXShort3: 3,
		VIXLong3:  9,
		QQQYear:   155,
		Gold:      100,
	}
}

// Longest returns the longest window that must be fully defined, which is the
// year average. The gold average accepts partial windows and is excluded.
func (w Windows) Longest() int {
	longest := w.QQQYear
	for _, p := range []int{w.QQQShort, w.QQQLong, w.VIXShort, w.VIXLong, w.VIXShort3, w.VIXLong3} {
		if p > longest {
			longest = p
		}
	}

	return longest
}

// Set is the indicator table derived from a bar series. Every slice has one
// entry per bar row; NaN marks an undefined value.
type Set struct {
	QQQSMAYear  []float64
	QQQSMALong  []float64
	QQQSMAShort []float64
	GLDSMA      []float64

	VIXSMAShort  []float64
	VIXSMALong   []float64
	VIXSMAShort3 []float64
	VIXSMALong3  []float64

	// VIXChange is the percentage change of the volatility open.
	VIXChange []float64
	// VIXOpenClose is the volatility open over the prior close, minus one.
	VIXOpenClose []float64
}

// Len returns the number of rows.
func (s Set) Len() int {
	return len(s.QQQSMAYear)
}

// Compute derives the indicator table from series. It is a pure function of
// its inputs.
func Compute(series types.BarSeries, windows Windows) Set {
	qqqClose := series.Column(types.InstrumentQQQ, types.FieldClose)
	vixClose := series.Column(types.InstrumentVIX, types.FieldClose)
	vixOpen := series.Column(types.InstrumentVIX, types.FieldOpen)
	gldClose := series.Column(types.InstrumentGLD, types.FieldClose)

	return Set{
		QQQSMAYear:   SMA(qqqClose, windows.QQQYear),
		QQQSMALong:   SMA(qqqClose, windows.QQQLong),
		QQQSMAShort:  SMA(qqqClose, windows.QQQShort),
		GLDSMA:       RollingMean(gldClose, windows.Gold, 1),
		VIXSMAShort:  SMA(vixClose, windows.VIXShort),
		VIXSMALong:   SMA(vixClose, windows.VIXLong),
		VIXSMAShort3: SMA(vixClose, windows.VIXShort3),
		VIXSMALong3:  SMA(vixClose, windows.VIXLong3),
		VIXChange:    PctChange(vixOpen),
		VIXOpenClose: OpenToPriorClose(vixOpen, vixClose),
	}
}
