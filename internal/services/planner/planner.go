// Package planner turns a match into a transmission-ready execution plan.
package planner

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/services/builder"
	"github.com/hxuan190/unihybrid-router/internal/services/fixedpoint"
)

type Params struct {
	PriceAMM          decimal.Decimal
	DecimalsIn        int
	DecimalsOut       int
	PerformanceFeeBps uint32
	MaxSlippageBps    uint32
}

// BuildArgs carries the per-request fields that end up in the payload.
type BuildArgs struct {
	TokenIn       ethcommon.Address
	TokenOut      ethcommon.Address
	MaxMatches    uint32
	SlippageLimit uint32
	// AMMReferenceOut overrides the price-derived AMM reference when the
	// oracle quoted one directly.
	AMMReferenceOut *uint256.Int
}

type Planner struct {
	params Params
}

func New(params Params) (*Planner, error) {
	if !params.PriceAMM.IsPositive() {
		return nil, common.ConfigErrorf("AMM price %s must be positive", params.PriceAMM)
	}
	if params.DecimalsIn < 0 || params.DecimalsIn > common.MaxDecimals || params.DecimalsOut < 0 || params.DecimalsOut > common.MaxDecimals {
		return nil, common.ConfigErrorf("decimals %d/%d outside [0,%d]", params.DecimalsIn, params.DecimalsOut, common.MaxDecimals)
	}
	if params.PerformanceFeeBps > common.BpsDenominator {
		return nil, common.ConfigErrorf("performance_fee_bps %d exceeds %d", params.PerformanceFeeBps, common.BpsDenominator)
	}
	if params.MaxSlippageBps > common.BpsDenominator {
		return nil, common.ConfigErrorf("max_slippage_bps %d exceeds %d", params.MaxSlippageBps, common.BpsDenominator)
	}
	return &Planner{params: params}, nil
}

func (p *Planner) Build(match *domain.MatchResult, args BuildArgs) (*domain.ExecutionPlan, error) {
	if match == nil || match.AmountInOnOrderbook == nil || match.AmountInOnAMM == nil || match.AmountOutFromOrderbook == nil {
		return nil, common.ConfigErrorf("incomplete match result")
	}

	total, err := fixedpoint.SafeAdd(match.AmountInOnOrderbook, match.AmountInOnAMM)
	if err != nil {
		return nil, err
	}

	// 1. AMM leg at the AMM price
	ammLegOut, err := p.scale(match.AmountInOnAMM)
	if err != nil {
		return nil, err
	}

	// 2. what the whole swap would have returned on the AMM alone
	reference := args.AMMReferenceOut
	if reference == nil {
		if reference, err = p.scale(total); err != nil {
			return nil, err
		}
	} else {
		reference = new(uint256.Int).Set(reference)
	}

	// 3-5. savings and fee
	expected, err := fixedpoint.SafeAdd(match.AmountOutFromOrderbook, ammLegOut)
	if err != nil {
		return nil, err
	}
	savings := fixedpoint.SubFloor(expected, reference)
	fee, err := fixedpoint.ApplyBps(savings, p.params.PerformanceFeeBps)
	if err != nil {
		return nil, err
	}
	after := new(uint256.Int).Sub(savings, fee)

	// 6. slippage floor on the reference
	minTotalOut, err := fixedpoint.ApplyBps(reference, common.BpsDenominator-p.params.MaxSlippageBps)
	if err != nil {
		return nil, err
	}

	// 7-8. payload
	payloadArgs := domain.PayloadArgs{
		TokenIn:             args.TokenIn,
		TokenOut:            args.TokenOut,
		AmountInOnOrderbook: new(uint256.Int).Set(match.AmountInOnOrderbook),
		MaxMatches:          args.MaxMatches,
		SlippageLimit:       args.SlippageLimit,
	}

	return &domain.ExecutionPlan{
		Split: domain.Split{
			Total:       total,
			OnOrderbook: new(uint256.Int).Set(match.AmountInOnOrderbook),
			OnAMM:       new(uint256.Int).Set(match.AmountInOnAMM),
		},
		Legs:                 buildLegs(match, ammLegOut),
		PayloadArgs:          payloadArgs,
		Payload:              builder.EncodeHookData(payloadArgs),
		AMMReferenceOut:      reference,
		ExpectedTotalOut:     expected,
		SavingsBeforeFee:     savings,
		PerformanceFeeBps:    p.params.PerformanceFeeBps,
		PerformanceFeeAmount: fee,
		SavingsAfterFee:      after,
		MaxSlippageBps:       p.params.MaxSlippageBps,
		MinTotalOut:          minTotalOut,
		MeetsMinTotalOut:     ValidateOutput(expected, minTotalOut, nil),
	}, nil
}

func (p *Planner) scale(amountIn *uint256.Int) (*uint256.Int, error) {
	return fixedpoint.ScaleOut(amountIn, p.params.PriceAMM, p.params.DecimalsIn, p.params.DecimalsOut)
}

// buildLegs omits a leg whose input is zero.
func buildLegs(match *domain.MatchResult, ammLegOut *uint256.Int) []domain.Leg {
	legs := make([]domain.Leg, 0, 2)
	if !match.AmountInOnOrderbook.IsZero() {
		used := make([]domain.LevelUsed, len(match.LevelsUsed))
		copy(used, match.LevelsUsed)
		legs = append(legs, domain.Leg{
			Source:            domain.LegSourceOrderbook,
			AmountIn:          new(uint256.Int).Set(match.AmountInOnOrderbook),
			ExpectedAmountOut: new(uint256.Int).Set(match.AmountOutFromOrderbook),
			EffectivePrice:    fixedpoint.Ratio(match.AmountOutFromOrderbook, match.AmountInOnOrderbook),
			LevelsUsed:        used,
		})
	}
	if !match.AmountInOnAMM.IsZero() {
		legs = append(legs, domain.Leg{
			Source:            domain.LegSourceAMM,
			AmountIn:          new(uint256.Int).Set(match.AmountInOnAMM),
			ExpectedAmountOut: ammLegOut,
			EffectivePrice:    fixedpoint.Ratio(ammLegOut, match.AmountInOnAMM),
		})
	}
	return legs
}

// ValidateOutput reports whether received (or expected, before execution)
// meets the slippage floor.
func ValidateOutput(expected, minOut, received *uint256.Int) bool {
	if received != nil {
		return !received.Lt(minOut)
	}
	return !expected.Lt(minOut)
}
