package types

// Signal is the daily allocation decision.
type Signal int

const (
	// SignalUndefined marks a day on which no rule fired.
	SignalUndefined Signal = 0
	// SignalSafe holds the safe asset.
	SignalSafe Signal = -1
	// SignalLeverage holds the leveraged equity position.
	SignalLeverage Signal = 1
)

// Defined reports whether the signal is safe or leverage.
func (s Signal) Defined() bool {
	return s == SignalSafe || s == SignalLeverage
}

func (s Signal) String() string {
	switch s {
	case SignalSafe:
		return "safe"
	case SignalLeverage:
		return "leverage"
	default:
		return "undefined"
	}
}

// SafeAsset is the sub-asset held on the safe side.
type SafeAsset string

const (
	SafeAssetGold SafeAsset = "GLD"
	SafeAssetBond SafeAsset = "SHY"
)
