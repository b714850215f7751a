package orderbook

import (
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/domain"
)

// MaxLadderLevels bounds the ladder length accepted from callers.
const MaxLadderLevels = 64

// SnapshotBandBps is the half-width of the price band kept from a reference snapshot.
const SnapshotBandBps = 200

// SmallParams shapes the single-level scenario.
//
// SpreadBps is the improvement over mid that the level quotes. It is placed on
// the favorable side of mid so that the level still beats a post-impact AMM
// execution price; together with the matcher's ob_min_improve_bps it decides
// whether the level is matched at all when the AMM price drifts from mid.
type SmallParams struct {
	SpreadBps       decimal.Decimal
	DepthMultiplier decimal.Decimal
}

// LadderParams shapes the multi-level scenarios. Level i (1-based) is priced
// SpreadStepBps*i away from mid and sized BaseSizeMultiplier*Decay^(i-1) of the
// swap before the whole ladder is rescaled to TargetDepthMultiplier*swap.
type LadderParams struct {
	Levels                int
	SpreadStepBps         decimal.Decimal
	Decay                 decimal.Decimal
	BaseSizeMultiplier    decimal.Decimal
	TargetDepthMultiplier decimal.Decimal
}

// LargeParams is a ladder with deeper constants, or, when Snapshot is set, a
// reference book rescaled to CapitalBudget (output token, human units).
type LargeParams struct {
	Ladder        LadderParams
	Snapshot      []domain.SnapshotQuote
	CapitalBudget decimal.Decimal
}

// UsesSnapshot reports whether the Large scenario derives from a snapshot.
func (p LargeParams) UsesSnapshot() bool {
	return len(p.Snapshot) > 0 || p.CapitalBudget.IsPositive()
}

// ScenarioParams bundles the tuning of every scenario for one call.
type ScenarioParams struct {
	Small  SmallParams
	Medium LadderParams
	Large  LargeParams
}

// DefaultScenarioParams returns the stock tuning.
func DefaultScenarioParams() ScenarioParams {
	return ScenarioParams{
		Small: SmallParams{
			SpreadBps:       decimal.NewFromInt(35),
			DepthMultiplier: decimal.RequireFromString("0.5"),
		},
		Medium: LadderParams{
			Levels:                5,
			SpreadStepBps:         decimal.NewFromInt(15),
			Decay:                 decimal.RequireFromString("0.7"),
			BaseSizeMultiplier:    decimal.NewFromInt(1),
			TargetDepthMultiplier: decimal.RequireFromString("2.5"),
		},
		Large: LargeParams{
			Ladder: LadderParams{
				Levels:                8,
				SpreadStepBps:         decimal.NewFromInt(5),
				Decay:                 decimal.RequireFromString("0.85"),
				BaseSizeMultiplier:    decimal.NewFromInt(1),
				TargetDepthMultiplier: decimal.NewFromInt(5),
			},
		},
	}
}

func (p SmallParams) validate(side domain.Side) error {
	if p.SpreadBps.IsNegative() {
		return common.ConfigErrorf("small spread %s bps is negative", p.SpreadBps)
	}
	if side == domain.SideAsk && p.SpreadBps.Cmp(decimal.NewFromInt(common.BpsDenominator)) >= 0 {
		return common.ConfigErrorf("small spread %s bps leaves no positive price", p.SpreadBps)
	}
	if !p.DepthMultiplier.IsPositive() {
		return common.ConfigErrorf("small depth multiplier must be positive")
	}
	return nil
}

func (p LadderParams) validate(side domain.Side) error {
	if p.Levels < 1 || p.Levels > MaxLadderLevels {
		return common.ConfigErrorf("ladder levels %d outside [1,%d]", p.Levels, MaxLadderLevels)
	}
	if p.SpreadStepBps.IsNegative() {
		return common.ConfigErrorf("ladder spread step %s bps is negative", p.SpreadStepBps)
	}
	if !p.Decay.IsPositive() || p.Decay.GreaterThan(decimal.NewFromInt(1)) {
		return common.ConfigErrorf("ladder decay %s outside (0,1]", p.Decay)
	}
	if !p.BaseSizeMultiplier.IsPositive() {
		return common.ConfigErrorf("ladder base size multiplier must be positive")
	}
	if !p.TargetDepthMultiplier.IsPositive() {
		return common.ConfigErrorf("ladder target depth multiplier must be positive")
	}
	widest := p.SpreadStepBps.Mul(decimal.NewFromInt(int64(p.Levels)))
	if side == domain.SideAsk && widest.Cmp(decimal.NewFromInt(common.BpsDenominator)) >= 0 {
		return common.ConfigErrorf("ladder spans %s bps below mid, prices would be non-positive", widest)
	}
	return nil
}

func (p LargeParams) validateSnapshot() error {
	if len(p.Snapshot) == 0 {
		return common.ConfigErrorf("large scenario has a capital budget but no snapshot")
	}
	if !p.CapitalBudget.IsPositive() {
		return common.ConfigErrorf("large scenario snapshot requires a positive capital budget")
	}
	return nil
}
