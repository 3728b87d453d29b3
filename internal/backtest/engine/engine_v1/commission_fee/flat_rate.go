package commission_fee

// FlatRateCommissionFee charges a fixed rate on each side of a switch: the
// sleeve that is sold and the sleeve that is bought.
type FlatRateCommissionFee struct {
	rate float64
}

func NewFlatRateCommissionFee(rate float64) CommissionFee {
	return &FlatRateCommissionFee{rate: rate}
}

func (c *FlatRateCommissionFee) Calculate(tradeFraction float64) float64 {
	if tradeFraction <= 0 {
		return 0
	}

	return c.rate * 2 * tradeFraction
}
