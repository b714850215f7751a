// Package matcher splits a swap between orderbook levels and the AMM.
package matcher

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/services/fixedpoint"
)

type Matcher struct {
	priceAMM        decimal.Decimal
	decimalsIn      int
	decimalsOut     int
	obMinImproveBps uint32
}

func New(priceAMM decimal.Decimal, decimalsIn, decimalsOut int, obMinImproveBps uint32) (*Matcher, error) {
	if !priceAMM.IsPositive() {
		return nil, common.ConfigErrorf("AMM price %s must be positive", priceAMM)
	}
	if decimalsIn < 0 || decimalsIn > common.MaxDecimals || decimalsOut < 0 || decimalsOut > common.MaxDecimals {
		return nil, common.ConfigErrorf("decimals %d/%d outside [0,%d]", decimalsIn, decimalsOut, common.MaxDecimals)
	}
	return &Matcher{
		priceAMM:        priceAMM,
		decimalsIn:      decimalsIn,
		decimalsOut:     decimalsOut,
		obMinImproveBps: obMinImproveBps,
	}, nil
}

// Threshold is the worst level price still accepted on side.
func (m *Matcher) Threshold(side domain.Side) (decimal.Decimal, error) {
	bps := decimal.NewFromInt(int64(m.obMinImproveBps))
	if side == domain.SideBid {
		if m.obMinImproveBps >= common.BpsDenominator {
			return decimal.Zero, common.ConfigErrorf("ob_min_improve_bps %d leaves no positive bid threshold", m.obMinImproveBps)
		}
		return m.priceAMM.Mul(fixedpoint.OneMinusBps(bps)), nil
	}
	return m.priceAMM.Mul(fixedpoint.OnePlusBps(bps)), nil
}

func qualifies(side domain.Side, price, threshold decimal.Decimal) bool {
	if side == domain.SideBid {
		return price.GreaterThanOrEqual(threshold)
	}
	return price.LessThanOrEqual(threshold)
}

// Match fills levels best-first until the swap is exhausted or a level fails
// the threshold; the remainder is routed to the AMM. levels is not modified.
func (m *Matcher) Match(levels []domain.OrderbookLevel, swapAmountIn *uint256.Int, side domain.Side) (*domain.MatchResult, error) {
	if swapAmountIn == nil || swapAmountIn.IsZero() {
		return nil, common.ConfigErrorf("swap amount must be positive")
	}
	threshold, err := m.Threshold(side)
	if err != nil {
		return nil, err
	}
	for i, lvl := range levels {
		if !lvl.Price.IsPositive() {
			return nil, common.ConfigErrorf("level %d has non-positive price %s", i, lvl.Price)
		}
	}

	sorted := make([]domain.OrderbookLevel, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return side.Better(sorted[i].Price, sorted[j].Price)
	})

	remaining := new(uint256.Int).Set(swapAmountIn)
	amountOut := new(uint256.Int)
	result := &domain.MatchResult{
		LevelsConsidered: len(sorted),
		MinBetterPrice:   threshold,
		PriceAMM:         m.priceAMM,
	}

	for _, lvl := range sorted {
		if !qualifies(side, lvl.Price, threshold) {
			break
		}
		result.LevelsBetterThanAMM++

		if remaining.IsZero() || lvl.AmountInAvailable == nil || lvl.AmountInAvailable.IsZero() {
			continue
		}

		fillIn := fixedpoint.MinU256(remaining, lvl.AmountInAvailable)
		var fillOut *uint256.Int
		if fillIn.Eq(lvl.AmountInAvailable) && lvl.AmountOutAvailable != nil {
			fillOut = new(uint256.Int).Set(lvl.AmountOutAvailable)
		} else {
			fillOut, err = fixedpoint.ScaleOut(fillIn, lvl.Price, m.decimalsIn, m.decimalsOut)
			if err != nil {
				return nil, err
			}
		}

		if amountOut, err = fixedpoint.SafeAdd(amountOut, fillOut); err != nil {
			return nil, err
		}
		remaining.Sub(remaining, fillIn)
		result.LevelsUsed = append(result.LevelsUsed, domain.LevelUsed{
			Price:              lvl.Price,
			AmountInFromLevel:  fillIn,
			AmountOutFromLevel: fillOut,
		})
	}

	result.AmountInOnOrderbook = new(uint256.Int).Sub(swapAmountIn, remaining)
	result.AmountOutFromOrderbook = amountOut
	result.AmountInOnAMM = remaining
	return result, nil
}
