package orderbook

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/services/fixedpoint"
)

// TotalDepth sums the input and output liquidity of levels.
func TotalDepth(levels []domain.OrderbookLevel) (in, out *uint256.Int, err error) {
	in, out = new(uint256.Int), new(uint256.Int)
	for _, lvl := range levels {
		if in, err = fixedpoint.SafeAdd(in, lvl.AmountInAvailable); err != nil {
			return nil, nil, err
		}
		if out, err = fixedpoint.SafeAdd(out, lvl.AmountOutAvailable); err != nil {
			return nil, nil, err
		}
	}
	return in, out, nil
}

// BestLevel returns the most favorable level for side.
func BestLevel(levels []domain.OrderbookLevel, side domain.Side) (domain.OrderbookLevel, bool) {
	if len(levels) == 0 {
		return domain.OrderbookLevel{}, false
	}
	best := levels[0]
	for _, lvl := range levels[1:] {
		if side.Better(lvl.Price, best.Price) {
			best = lvl
		}
	}
	return best, true
}

// SpreadBps is (ask - bid) / mid in basis points, zero for a non-positive mid.
func SpreadBps(bid, ask, mid decimal.Decimal) decimal.Decimal {
	if !mid.IsPositive() {
		return decimal.Zero
	}
	return ask.Sub(bid).Shift(4).DivRound(mid, fixedpoint.EffectivePricePlaces)
}
