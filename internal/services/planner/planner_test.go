package planner

import (
	"errors"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/services/builder"
	"github.com/hxuan190/unihybrid-router/internal/services/matcher"
	"github.com/hxuan190/unihybrid-router/internal/services/orderbook"
)

var (
	tokenIn  = ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tokenOut = ethcommon.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func matchOf(onOB, outOB, onAMM uint64) *domain.MatchResult {
	return &domain.MatchResult{
		AmountInOnOrderbook:    uint256.NewInt(onOB),
		AmountOutFromOrderbook: uint256.NewInt(outOB),
		AmountInOnAMM:          uint256.NewInt(onAMM),
		LevelsUsed: []domain.LevelUsed{{
			Price:              decimal.RequireFromString("1.1"),
			AmountInFromLevel:  uint256.NewInt(onOB),
			AmountOutFromLevel: uint256.NewInt(outOB),
		}},
	}
}

func TestPerformanceFeeSplit(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(1), PerformanceFeeBps: 3000, MaxSlippageBps: 100})
	require.NoError(t, err)

	plan, err := p.Build(matchOf(10_000_000, 11_000_000, 0), BuildArgs{TokenIn: tokenIn, TokenOut: tokenOut})
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000), plan.AMMReferenceOut.Uint64())
	assert.Equal(t, uint64(1_000_000), plan.SavingsBeforeFee.Uint64())
	assert.Equal(t, uint64(300_000), plan.PerformanceFeeAmount.Uint64())
	assert.Equal(t, uint64(700_000), plan.SavingsAfterFee.Uint64())
	assert.Equal(t, uint64(1_000), plan.SavingsBps())
	assert.True(t, plan.MeetsMinTotalOut)
}

func TestMinTotalOutFromReferenceOverride(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(1), PerformanceFeeBps: 3000, MaxSlippageBps: 100})
	require.NoError(t, err)

	plan, err := p.Build(matchOf(0, 0, 1_200_000), BuildArgs{
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AMMReferenceOut: uint256.NewInt(1_000_000),
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000), plan.AMMReferenceOut.Uint64())
	assert.Equal(t, uint64(990_000), plan.MinTotalOut.Uint64())
	assert.Equal(t, uint64(200_000), plan.SavingsBeforeFee.Uint64())
}

func TestSavingsClampAtZero(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(2), PerformanceFeeBps: 3000})
	require.NoError(t, err)

	// orderbook returned less than the AMM would have
	plan, err := p.Build(matchOf(100, 150, 0), BuildArgs{})
	require.NoError(t, err)
	assert.True(t, plan.SavingsBeforeFee.IsZero())
	assert.True(t, plan.PerformanceFeeAmount.IsZero())
	assert.True(t, plan.SavingsAfterFee.IsZero())
	assert.Equal(t, uint64(150), plan.ExpectedTotalOut.Uint64())
	// 150 is below the zero-slippage floor of 200
	assert.Equal(t, uint64(200), plan.MinTotalOut.Uint64())
	assert.False(t, plan.MeetsMinTotalOut)
	assert.False(t, plan.View().MeetsMinTotalOut)
}

func TestLegOmission(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(1)})
	require.NoError(t, err)

	tests := []struct {
		name  string
		match *domain.MatchResult
		want  []domain.LegSource
	}{
		{"amm only", matchOf(0, 0, 10), []domain.LegSource{domain.LegSourceAMM}},
		{"orderbook only", matchOf(10, 11, 0), []domain.LegSource{domain.LegSourceOrderbook}},
		{"both", matchOf(10, 11, 5), []domain.LegSource{domain.LegSourceOrderbook, domain.LegSourceAMM}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := p.Build(tt.match, BuildArgs{})
			require.NoError(t, err)

			got := make([]domain.LegSource, 0, len(plan.Legs))
			for _, leg := range plan.Legs {
				got = append(got, leg.Source)
				assert.False(t, leg.AmountIn.IsZero())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectivePrice(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(1)})
	require.NoError(t, err)

	plan, err := p.Build(matchOf(3, 10, 0), BuildArgs{})
	require.NoError(t, err)
	require.Len(t, plan.Legs, 1)
	assert.Equal(t, "3.333333333333333333", plan.Legs[0].EffectivePrice.String())
	require.Len(t, plan.Legs[0].LevelsUsed, 1)
}

func TestPayloadMatchesArgs(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(1)})
	require.NoError(t, err)

	plan, err := p.Build(matchOf(42, 50, 8), BuildArgs{TokenIn: tokenIn, TokenOut: tokenOut, MaxMatches: 8, SlippageLimit: 200})
	require.NoError(t, err)

	assert.Equal(t, builder.EncodeHookData(plan.PayloadArgs), plan.Payload)
	decoded, err := builder.DecodeHookData(plan.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), decoded.AmountInOnOrderbook.Uint64())
	assert.Equal(t, uint32(8), decoded.MaxMatches)
	assert.Equal(t, uint32(200), decoded.SlippageLimit)
}

func TestBuildIsIdempotent(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(1), PerformanceFeeBps: 1500, MaxSlippageBps: 50})
	require.NoError(t, err)
	match := matchOf(10, 12, 7)

	a, err := p.Build(match, BuildArgs{TokenIn: tokenIn, TokenOut: tokenOut})
	require.NoError(t, err)
	b, err := p.Build(match, BuildArgs{TokenIn: tokenIn, TokenOut: tokenOut})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPipelineInvariants(t *testing.T) {
	mid := decimal.NewFromInt(2700)
	synth, err := orderbook.NewSynthesizer(mid, 18, 6)
	require.NoError(t, err)
	m, err := matcher.New(mid, 18, 6, 5)
	require.NoError(t, err)
	p, err := New(Params{PriceAMM: mid, DecimalsIn: 18, DecimalsOut: 6, PerformanceFeeBps: 3000, MaxSlippageBps: 100})
	require.NoError(t, err)

	swap := uint256.NewInt(1_000_000_000_000_000_000)
	for _, scenario := range domain.Scenarios {
		for _, side := range []domain.Side{domain.SideAsk, domain.SideBid} {
			levels, err := synth.Generate(swap, side, scenario, orderbook.DefaultScenarioParams())
			require.NoError(t, err)
			match, err := m.Match(levels, swap, side)
			require.NoError(t, err)
			// every default book beats the AMM on at least one level
			assert.False(t, match.AmountInOnOrderbook.IsZero(), "%s/%s", scenario, side)
			assert.NotEmpty(t, match.LevelsUsed, "%s/%s", scenario, side)

			plan, err := p.Build(match, BuildArgs{TokenIn: tokenIn, TokenOut: tokenOut, MaxMatches: 8, SlippageLimit: 200})
			require.NoError(t, err)

			sum := new(uint256.Int).Add(plan.PerformanceFeeAmount, plan.SavingsAfterFee)
			assert.True(t, sum.Eq(plan.SavingsBeforeFee))
			assert.True(t, plan.Split.Total.Eq(swap))
			assert.False(t, plan.MinTotalOut.Gt(plan.AMMReferenceOut))
			assert.Len(t, plan.Payload, builder.HookDataLen)
			if side == domain.SideBid {
				assert.False(t, plan.SavingsBeforeFee.IsZero(), "%s/%s", scenario, side)
			}
		}
	}
}

func TestValidateOutput(t *testing.T) {
	min := uint256.NewInt(990)
	assert.True(t, ValidateOutput(uint256.NewInt(1000), min, nil))
	assert.False(t, ValidateOutput(uint256.NewInt(980), min, nil))
	assert.True(t, ValidateOutput(uint256.NewInt(1000), min, uint256.NewInt(990)))
	assert.False(t, ValidateOutput(uint256.NewInt(1000), min, uint256.NewInt(989)))
}

func TestNewRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"zero price", Params{}},
		{"fee above 100%", Params{PriceAMM: decimal.NewFromInt(1), PerformanceFeeBps: 10_001}},
		{"slippage above 100%", Params{PriceAMM: decimal.NewFromInt(1), MaxSlippageBps: 10_001}},
		{"decimals out of range", Params{PriceAMM: decimal.NewFromInt(1), DecimalsIn: 256}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.params)
			assert.True(t, errors.Is(err, common.ErrConfiguration))
		})
	}
}

func TestBuildOverflow(t *testing.T) {
	p, err := New(Params{PriceAMM: decimal.NewFromInt(2)})
	require.NoError(t, err)

	max := new(uint256.Int).SetAllOne()
	match := &domain.MatchResult{
		AmountInOnOrderbook:    uint256.NewInt(0),
		AmountOutFromOrderbook: uint256.NewInt(0),
		AmountInOnAMM:          max,
	}
	_, err = p.Build(match, BuildArgs{})
	assert.True(t, errors.Is(err, common.ErrArithmeticOverflow))
}
