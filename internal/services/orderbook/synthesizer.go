// Package orderbook builds synthetic counterparty liquidity around a mid-price.
package orderbook

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/services/fixedpoint"
)

type Synthesizer struct {
	midPrice    decimal.Decimal
	decimalsIn  int
	decimalsOut int
}

func NewSynthesizer(midPrice decimal.Decimal, decimalsIn, decimalsOut int) (*Synthesizer, error) {
	if !midPrice.IsPositive() {
		return nil, common.ConfigErrorf("mid price %s must be positive", midPrice)
	}
	if err := validateDecimals(decimalsIn, decimalsOut); err != nil {
		return nil, err
	}
	return &Synthesizer{
		midPrice:    midPrice,
		decimalsIn:  decimalsIn,
		decimalsOut: decimalsOut,
	}, nil
}

func validateDecimals(decimalsIn, decimalsOut int) error {
	if decimalsIn < 0 || decimalsIn > common.MaxDecimals {
		return common.ConfigErrorf("decimals_in %d outside [0,%d]", decimalsIn, common.MaxDecimals)
	}
	if decimalsOut < 0 || decimalsOut > common.MaxDecimals {
		return common.ConfigErrorf("decimals_out %d outside [0,%d]", decimalsOut, common.MaxDecimals)
	}
	return nil
}

// Generate returns the non-empty level sequence for scenario. Levels whose
// input size truncates to zero are dropped.
func (s *Synthesizer) Generate(
	swapAmountIn *uint256.Int,
	side domain.Side,
	scenario domain.Scenario,
	params ScenarioParams,
) ([]domain.OrderbookLevel, error) {
	if swapAmountIn == nil || swapAmountIn.IsZero() {
		return nil, common.ConfigErrorf("swap amount must be positive")
	}
	if side != domain.SideAsk && side != domain.SideBid {
		return nil, common.ConfigErrorf("unknown side %d", side)
	}

	var (
		levels []domain.OrderbookLevel
		err    error
	)
	switch scenario {
	case domain.ScenarioSmall:
		levels, err = s.small(swapAmountIn, side, params.Small)
	case domain.ScenarioMedium:
		levels, err = s.ladder(swapAmountIn, side, params.Medium)
	case domain.ScenarioLarge:
		if params.Large.UsesSnapshot() {
			levels, err = s.fromSnapshot(side, params.Large)
		} else {
			levels, err = s.ladder(swapAmountIn, side, params.Large.Ladder)
		}
	default:
		return nil, common.ConfigErrorf("unknown scenario %d", scenario)
	}
	if err != nil {
		return nil, err
	}

	retained := levels[:0]
	for _, lvl := range levels {
		if !lvl.AmountInAvailable.IsZero() {
			retained = append(retained, lvl)
		}
	}
	if len(retained) == 0 {
		return nil, common.ConfigErrorf("%s scenario produced no liquidity for swap amount %s", scenario, swapAmountIn.Dec())
	}
	return retained, nil
}

// small quotes one level on the favorable side of mid.
func (s *Synthesizer) small(swapAmountIn *uint256.Int, side domain.Side, p SmallParams) ([]domain.OrderbookLevel, error) {
	if err := p.validate(side); err != nil {
		return nil, err
	}

	var price decimal.Decimal
	if side == domain.SideAsk {
		price = s.midPrice.Mul(fixedpoint.OneMinusBps(p.SpreadBps))
	} else {
		price = s.midPrice.Mul(fixedpoint.OnePlusBps(p.SpreadBps))
	}

	amountIn, err := fixedpoint.FromDecimal(fixedpoint.ToDecimal(swapAmountIn).Mul(p.DepthMultiplier))
	if err != nil {
		return nil, err
	}
	lvl, err := s.level(price, amountIn)
	if err != nil {
		return nil, err
	}
	return []domain.OrderbookLevel{lvl}, nil
}

// ladder is shared by Medium and the deterministic Large scenario. Rung i sits
// i steps from mid on the side the taker prefers (asks below mid, bids above),
// so every rung improves on the AMM by at least one step.
func (s *Synthesizer) ladder(swapAmountIn *uint256.Int, side domain.Side, p LadderParams) ([]domain.OrderbookLevel, error) {
	if err := p.validate(side); err != nil {
		return nil, err
	}

	swap := fixedpoint.ToDecimal(swapAmountIn)
	prices := make([]decimal.Decimal, p.Levels)
	raw := make([]decimal.Decimal, p.Levels)
	total := decimal.Zero
	weight := p.BaseSizeMultiplier

	for i := 0; i < p.Levels; i++ {
		spread := p.SpreadStepBps.Mul(decimal.NewFromInt(int64(i + 1)))
		if side == domain.SideAsk {
			prices[i] = s.midPrice.Mul(fixedpoint.OneMinusBps(spread))
		} else {
			prices[i] = s.midPrice.Mul(fixedpoint.OnePlusBps(spread))
		}

		raw[i] = swap.Mul(weight)
		total = total.Add(raw[i])
		weight = weight.Mul(p.Decay)
	}

	// One factor for every level keeps the decay shape.
	target := swap.Mul(p.TargetDepthMultiplier)
	levels := make([]domain.OrderbookLevel, 0, p.Levels)
	for i := range raw {
		amountIn, err := fixedpoint.MulDivFloor(raw[i], target, total)
		if err != nil {
			return nil, err
		}
		lvl, err := s.level(prices[i], amountIn)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

// fromSnapshot rescales the requested side of a reference book to the capital budget.
func (s *Synthesizer) fromSnapshot(side domain.Side, p LargeParams) ([]domain.OrderbookLevel, error) {
	if err := p.validateSnapshot(); err != nil {
		return nil, err
	}

	band := decimal.NewFromInt(SnapshotBandBps)
	lo := s.midPrice.Mul(fixedpoint.OneMinusBps(band))
	hi := s.midPrice.Mul(fixedpoint.OnePlusBps(band))

	type filtered struct {
		price    decimal.Decimal
		notional decimal.Decimal
	}
	kept := make([]filtered, 0, len(p.Snapshot))
	totalNotional := decimal.Zero
	for _, q := range p.Snapshot {
		if q.Side != side || !q.Price.IsPositive() || !q.Size.IsPositive() {
			continue
		}
		if q.Price.LessThan(lo) || q.Price.GreaterThan(hi) {
			continue
		}
		notional := q.Price.Mul(q.Size)
		kept = append(kept, filtered{price: q.Price, notional: notional})
		totalNotional = totalNotional.Add(notional)
	}
	if len(kept) == 0 {
		return nil, common.ConfigErrorf("snapshot has no %s quotes within %d bps of mid", side, SnapshotBandBps)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return side.Better(kept[i].price, kept[j].price)
	})

	unit := decimal.New(1, int32(s.decimalsIn))
	levels := make([]domain.OrderbookLevel, 0, len(kept))
	for _, f := range kept {
		// notional * (capital / total) / price, in input minor units
		amountIn, err := fixedpoint.MulDivFloor(f.notional.Mul(p.CapitalBudget), unit, totalNotional.Mul(f.price))
		if err != nil {
			return nil, err
		}
		lvl, err := s.level(f.price, amountIn)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

func (s *Synthesizer) level(price decimal.Decimal, amountIn *uint256.Int) (domain.OrderbookLevel, error) {
	amountOut, err := fixedpoint.ScaleOut(amountIn, price, s.decimalsIn, s.decimalsOut)
	if err != nil {
		return domain.OrderbookLevel{}, err
	}
	return domain.OrderbookLevel{
		Price:              price,
		AmountInAvailable:  amountIn,
		AmountOutAvailable: amountOut,
	}, nil
}
