package types

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
)

// Instrument identifies one of the four fixed instruments the strategy reads.
type Instrument string

const (
	// InstrumentQQQ is the broad equity index the leveraged position tracks.
	InstrumentQQQ Instrument = "QQQ"
	// InstrumentVIX is the volatility index.
	InstrumentVIX Instrument = "^VIX"
	// InstrumentGLD is the gold safe asset.
	InstrumentGLD Instrument = "GLD"
	// InstrumentSHY is the short-duration bond safe asset.
	InstrumentSHY Instrument = "SHY"
)

// Instruments lists every instrument in column order.
var Instruments = []Instrument{InstrumentQQQ, InstrumentVIX, InstrumentGLD, InstrumentSHY}

// Field is a price column of an instrument bar.
type Field string

const (
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
)

// Fields lists every price column in storage order.
var Fields = []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// InstrumentBar is one day of OHLCV for one instrument. A missing value is NaN.
type InstrumentBar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MissingBar returns a bar with every field undefined.
func MissingBar() InstrumentBar {
	nan := math.NaN()

	return InstrumentBar{Open: nan, High: nan, Low: nan, Close: nan, Volume: nan}
}

// Get returns the value of a field.
func (b InstrumentBar) Get(field Field) float64 {
	switch field {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldClose:
		return b.Close
	case FieldVolume:
		return b.Volume
	default:
		return math.NaN()
	}
}

// IsMissing reports whether every field is undefined.
func (b InstrumentBar) IsMissing() bool {
	return math.IsNaN(b.Open) && math.IsNaN(b.High) && math.IsNaN(b.Low) && math.IsNaN(b.Close) && math.IsNaN(b.Volume)
}

// Set assigns the value of a field.
func (b *InstrumentBar) Set(field Field, value float64) {
	switch field {
	case FieldOpen:
		b.Open = value
	case FieldHigh:
		b.High = value
	case FieldLow:
		b.Low = value
	case FieldClose:
		b.Close = value
	case FieldVolume:
		b.Volume = value
	}
}

// DailyBar holds the four instruments for one trading day.
type DailyBar struct {
	Date time.Time
	QQQ  InstrumentBar
	VIX  InstrumentBar
	GLD  InstrumentBar
	SHY  InstrumentBar
}

// NewMissingDailyBar returns a bar for date where every instrument is undefined.
func NewMissingDailyBar(date time.Time) DailyBar {
	return DailyBar{
		Date: date,
		QQQ:  MissingBar(),
		VIX:  MissingBar(),
		GLD:  MissingBar(),
		SHY:  MissingBar(),
	}
}

// Instrument returns the bar of one instrument.
func (d DailyBar) Instrument(instrument Instrument) InstrumentBar {
	switch instrument {
	case InstrumentQQQ:
		return d.QQQ
	case InstrumentVIX:
		return d.VIX
	case InstrumentGLD:
		return d.GLD
	case InstrumentSHY:
		return d.SHY
	default:
		return MissingBar()
	}
}

// SetInstrument replaces the bar of one instrument.
func (d *DailyBar) SetInstrument(instrument Instrument, bar InstrumentBar) {
	switch instrument {
	case InstrumentQQQ:
		d.QQQ = bar
	case InstrumentVIX:
		d.VIX = bar
	case InstrumentGLD:
		d.GLD = bar
	case InstrumentSHY:
		d.SHY = bar
	}
}

// BarSeries is the date-ordered daily bar table. Row distance is exactly one
// trading day, so missing values stay in place as NaN instead of being dropped.
type BarSeries []DailyBar

// Len returns the number of rows.
func (s BarSeries) Len() int {
	return len(s)
}

// Dates returns the date index.
func (s BarSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, bar := range s {
		dates[i] = bar.Date
	}

	return dates
}

// Column extracts one field of one instrument as a new slice.
func (s BarSeries) Column(instrument Instrument, field Field) []float64 {
	values := make([]float64, len(s))
	for i, bar := range s {
		values[i] = bar.Instrument(instrument).Get(field)
	}

	return values
}

// Validate checks that dates are strictly increasing.
func (s BarSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"bar dates must be strictly increasing: row %d (%s) follows %s",
				i, s[i].Date.Format(time.DateOnly), s[i-1].Date.Format(time.DateOnly))
		}
	}

	return nil
}

// Clone returns a copy that can be modified without touching the receiver.
func (s BarSeries) Clone() BarSeries {
	out := make(BarSeries, len(s))
	copy(out, s)

	return out
}

// AppendToday returns a copy of the series with a synthetic row for today in
// which only the equity and volatility opens are known. When the last row is
// already dated today its opens are overwritten instead.
func (s BarSeries) AppendToday(today time.Time, qqqOpen float64, vixOpen float64) BarSeries {
	out := s.Clone()

	if n := len(out); n > 0 && sameDay(out[n-1].Date, today) {
		out[n-1].QQQ.Open = qqqOpen
		out[n-1].VIX.Open = vixOpen

		return out
	}

	row := NewMissingDailyBar(truncateToDay(today))
	row.QQQ.Open = qqqOpen
	row.VIX.Open = vixOpen

	return append(out, row)
}

// Between returns the rows whose date falls in [start, end].
func (s BarSeries) Between(start time.Time, end time.Time) BarSeries {
	out := make(BarSeries, 0, len(s))
	for _, bar := range s {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}

		out = append(out, bar)
	}

	return out
}

func sameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MarketData is one stored bar of one instrument, the row format of the
// market_data table.
type MarketData struct {
	Id     string    `json:"id" yaml:"id" csv:"id"`
	Symbol string    `json:"symbol" yaml:"symbol" csv:"symbol"`
	Time   time.Time `json:"time" yaml:"time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume float64   `json:"volume" yaml:"volume" csv:"volume"`
}

// Bar returns the OHLCV part of the record.
func (m MarketData) Bar() InstrumentBar {
	return InstrumentBar{Open: m.Open, High: m.High, Low: m.Low, Close: m.Close, Volume: m.Volume}
}

// IsInstrument reports whether symbol names one of the four instruments.
func IsInstrument(symbol string) bool {
	for _, instrument := range Instruments {
		if string(instrument) == symbol {
			return true
		}
	}

	return false
}

// AlignMarketData pivots stored records into a bar series on the union of
// their dates. An instrument without a record on a date stays undefined on
// that row. Records for other symbols are ignored.
func AlignMarketData(records []MarketData) BarSeries {
	byDay := make(map[time.Time]*DailyBar)

	for _, record := range records {
		if !IsInstrument(record.Symbol) {
			continue
		}

		day := truncateToDay(record.Time)

		bar, ok := byDay[day]
		if !ok {
			missing := NewMissingDailyBar(day)
			bar = &missing
			byDay[day] = bar
		}

		bar.SetInstrument(Instrument(record.Symbol), record.Bar())
	}

	series := make(BarSeries, 0, len(byDay))
	for _, bar := range byDay {
		series = append(series, *bar)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return series
}

// MarketData flattens the series into stored records, skipping instruments
// that have no defined value on a row.
func (s BarSeries) MarketData() []MarketData {
	records := make([]MarketData, 0, len(s)*len(Instruments))

	for _, bar := range s {
		for _, instrument := range Instruments {
			b := bar.Instrument(instrument)
			if b.IsMissing() {
				continue
			}

			records = append(records, MarketData{
				Symbol: string(instrument),
				Time:   bar.Date,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}
	}

	return records
}
