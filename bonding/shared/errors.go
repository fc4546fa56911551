package shared

import "errors"

// Error is a rejection with a stable numeric code. Codes start at 6000 and
// never change once published.
type Error struct {
	Code uint32
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(code uint32, name, msg string) *Error {
	return &Error{Code: code, Name: name, Msg: msg}
}

var (
	ErrReserveDeltaMismatch   = newError(6000, "ReserveDeltaMismatch", "reserve delta mismatch")
	ErrRunwayFee              = newError(6001, "RunwayFeeError", "runway fee can't exceed 100%")
	ErrDisabledPeriod         = newError(6002, "DisabledPeriod", "period is disabled")
	ErrAmountIsZero           = newError(6003, "AmountIsZero", "amount must not be zero")
	ErrInitialReserveTooLarge = newError(6004, "InitialReserveTooLarge", "initial reserve too large")
	ErrBaseAndQuoteMatch      = newError(6005, "BaseAndQuoteMatch", "base and quote address match")
	ErrInvalidCreator         = newError(6006, "InvalidCreator", "invalid creator")
	ErrInvalidIdLength        = newError(6007, "InvalidIdLength", "invalid id length")
	ErrPeriodLength           = newError(6008, "PeriodLengthError", "period lengths must not be larger than 10")
	ErrZero                   = newError(6009, "ZeroError", "parameter must not be zero")
	ErrArithmetic             = newError(6010, "ArithmeticError", "arithmetic error")
	ErrCouponDate             = newError(6013, "CouponDateError", "coupon has not matured")
	ErrCouponClaimed          = newError(6014, "CouponClaimedError", "coupon already redeemed")
	ErrInvalidRedeemer        = newError(6015, "InvalidRedeemer", "caller is not the coupon redeemer")
	ErrCouponStateMismatch    = newError(6016, "CouponStateMismatch", "coupon belongs to another token state")
	ErrNotLaunched            = newError(6017, "NotLaunched", "bonding has not launched")
	ErrMaxSupplyExceeded      = newError(6018, "MaxSupplyExceeded", "total emissions exceed maximum potential supply")
	ErrTreasurySplit          = newError(6019, "TreasurySplitError", "treasury split can't exceed 100%")
	ErrPeriodMultiplier       = newError(6020, "PeriodMultiplierError", "enabled period multipliers must not decrease")
	ErrDecimals               = newError(6021, "DecimalsError", "invalid base or quote decimals")
	ErrUpdatesNotAllowed      = newError(6022, "UpdatesNotAllowed", "schedule updates are not allowed")
	ErrVoteStateMismatch      = newError(6023, "VoteStateMismatch", "vote counter belongs to another token state")
	ErrHalvingSeries          = newError(6024, "HalvingSeriesError", "unknown halving series")
)

var codes = []*Error{
	ErrReserveDeltaMismatch,
	ErrRunwayFee,
	ErrDisabledPeriod,
	ErrAmountIsZero,
	ErrInitialReserveTooLarge,
	ErrBaseAndQuoteMatch,
	ErrInvalidCreator,
	ErrInvalidIdLength,
	ErrPeriodLength,
	ErrZero,
	ErrArithmetic,
	ErrCouponDate,
	ErrCouponClaimed,
	ErrInvalidRedeemer,
	ErrCouponStateMismatch,
	ErrNotLaunched,
	ErrMaxSupplyExceeded,
	ErrTreasurySplit,
	ErrPeriodMultiplier,
	ErrDecimals,
	ErrUpdatesNotAllowed,
	ErrVoteStateMismatch,
	ErrHalvingSeries,
}

// ErrorFromCode returns the registered error for code, or nil.
func ErrorFromCode(code uint32) *Error {
	for _, e := range codes {
		if e.Code == code {
			return e
		}
	}
	return nil
}

// CodeOf extracts the rejection code carried by err. ok is false when err
// does not wrap an *Error.
func CodeOf(err error) (code uint32, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// NameOf returns the error name carried by err, "internal" otherwise.
func NameOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Name
	}
	return "internal"
}
