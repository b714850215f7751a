// Package fixedpoint holds the exact arithmetic shared by the planning stages.
// Prices are decimal.Decimal (exact base-10 rationals), amounts are uint256
// minor units. Conversions truncate toward zero and report overflow.
package fixedpoint

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/common"
)

// Pre-computed constants (avoid allocation on every call)
var (
	// BpsDenom = 10000 for basis points
	BpsDenom = uint256.NewInt(common.BpsDenominator)
	// EffectivePricePlaces is the precision of reported effective prices
	EffectivePricePlaces int32 = 18
)

// ToDecimal converts minor units to an exact decimal.
func ToDecimal(u *uint256.Int) decimal.Decimal {
	if u == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(u.ToBig(), 0)
}

// FromDecimal truncates d toward zero into a uint256.
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, common.OverflowErrorf("negative amount %s", d.String())
	}
	out, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, common.OverflowErrorf("amount %s exceeds 256 bits", d.String())
	}
	return out, nil
}

// ScaleOut converts an input amount into output minor units at price:
// floor(amountIn * price * 10^(decimalsOut - decimalsIn)).
// A negative decimal delta divides, which Shift keeps exact.
func ScaleOut(amountIn *uint256.Int, price decimal.Decimal, decimalsIn, decimalsOut int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return new(uint256.Int), nil
	}
	out := ToDecimal(amountIn).Mul(price).Shift(int32(decimalsOut - decimalsIn))
	return FromDecimal(out)
}

// MulDivFloor returns floor(a * b / c) computed exactly.
func MulDivFloor(a, b, c decimal.Decimal) (*uint256.Int, error) {
	if !c.IsPositive() {
		return nil, common.ConfigErrorf("division by non-positive %s", c.String())
	}
	q, _ := a.Mul(b).QuoRem(c, 0)
	return FromDecimal(q)
}

// ApplyBps returns floor(amount * bps / 10000).
func ApplyBps(amount *uint256.Int, bps uint32) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(bps)), BpsDenom)
	if overflow {
		return nil, common.OverflowErrorf("%s * %d bps", amount.Dec(), bps)
	}
	return out, nil
}

// OnePlusBps returns 1 + bps/10000.
func OnePlusBps(bps decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(bps.Shift(-4))
}

// OneMinusBps returns 1 - bps/10000.
func OneMinusBps(bps decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(bps.Shift(-4))
}

// Ratio returns num/den rounded to EffectivePricePlaces, zero when den is zero.
func Ratio(num, den *uint256.Int) decimal.Decimal {
	if den == nil || den.IsZero() {
		return decimal.Zero
	}
	return ToDecimal(num).DivRound(ToDecimal(den), EffectivePricePlaces)
}

// SafeAdd returns a + b or an overflow error.
func SafeAdd(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, common.OverflowErrorf("%s + %s", a.Dec(), b.Dec())
	}
	return out, nil
}

// SubFloor returns max(0, a - b).
func SubFloor(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

// MinU256 returns a copy of the smaller of a and b.
func MinU256(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}
