package commission_fee

// CommissionFee prices a switch of the leveraged sleeve.
type CommissionFee interface {
	// Calculate returns the round-trip cost of switching tradeFraction of the
	// portfolio, as a fraction of NAV
	Calculate(tradeFraction float64) float64
}

type Broker string

const (
	BrokerFlatRate Broker = "flat_rate"
	BrokerZero     Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerFlatRate,
	BrokerZero,
}

// GetCommissionFeeHandler returns the model for broker. rate is the per-side
// commission used by the flat-rate model.
func GetCommissionFeeHandler(broker Broker, rate float64) CommissionFee {
	switch broker {
	case BrokerFlatRate:
		return NewFlatRateCommissionFee(rate)
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
