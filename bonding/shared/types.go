package shared

const (
	MaxPeriods = 10

	// FeeBps is the denominator for runway fees and treasury splits (100_000 = 100%).
	FeeBps = 100_000
	// DefaultRewardBps is the denominator applied to period multipliers (10_000 = 1x).
	DefaultRewardBps = 10_000

	CouponIDLength  = 10
	RecordIDLength  = 20
	TrackerIDLength = 20

	MinDecimals = 1
	MaxDecimals = 18

	// MaxEpoch is the first epoch whose 2^epoch no longer fits in 64 bits.
	MaxEpoch = 64
)

// HalvingSeries selects how the supply threshold of the next halving is derived.
type HalvingSeries uint8

const (
	// HalvingSeriesStrict sums 1/2^n with integer division per term, so every
	// term after the first collapses to zero and the threshold never grows.
	HalvingSeriesStrict HalvingSeries = 0
	// HalvingSeriesGeometric sums the series in fixed point: the threshold of
	// epoch e is genesis * (1 + 1/2 + ... + 1/2^e).
	HalvingSeriesGeometric HalvingSeries = 1
)

func (h HalvingSeries) String() string {
	switch h {
	case HalvingSeriesStrict:
		return "strict"
	case HalvingSeriesGeometric:
		return "geometric"
	default:
		return "unknown"
	}
}

// ParseHalvingSeries maps a configuration string to a HalvingSeries.
func ParseHalvingSeries(s string) (HalvingSeries, error) {
	switch s {
	case "", "strict":
		return HalvingSeriesStrict, nil
	case "geometric":
		return HalvingSeriesGeometric, nil
	default:
		return 0, ErrHalvingSeries
	}
}

// TransferKind labels the purpose of a treasury movement.
type TransferKind uint8

const (
	TransferKindRunway TransferKind = iota
	TransferKindReserve
	TransferKindSurplus
	TransferKindRelease
	TransferKindTopup
)

func (k TransferKind) String() string {
	switch k {
	case TransferKindRunway:
		return "runway"
	case TransferKindReserve:
		return "reserve"
	case TransferKindSurplus:
		return "surplus"
	case TransferKindRelease:
		return "release"
	case TransferKindTopup:
		return "topup"
	default:
		return "unknown"
	}
}
