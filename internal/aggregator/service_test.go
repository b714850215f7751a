package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/unihybrid-router/internal/config"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/oracle"
	"github.com/hxuan190/unihybrid-router/internal/services/builder"
	"github.com/hxuan190/unihybrid-router/internal/services/orderbook"
)

var (
	weth = ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc = ethcommon.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai  = ethcommon.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

// fakeOracle quotes a fixed price and counts calls.
type fakeOracle struct {
	quote oracle.PriceQuote
	calls atomic.Int32
}

func (f *fakeOracle) Quote(ctx context.Context, tokenIn, tokenOut ethcommon.Address, _ *uint256.Int) (*oracle.PriceQuote, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tokenIn != weth || tokenOut != usdc {
		return nil, oracle.ErrPairNotFound
	}
	q := f.quote
	return &q, nil
}

func testConfig() *config.PlannerConfig {
	return &config.PlannerConfig{
		PerformanceFeeBps: 3000,
		MaxSlippageBps:    100,
		MaxMatches:        8,
		OBMinImproveBps:   5,
		MESlippageLimit:   200,
		DefaultScenario:   domain.ScenarioMedium,
		Scenarios:         orderbook.DefaultScenarioParams(),
	}
}

func newTestService(t *testing.T) (*Service, *fakeOracle) {
	t.Helper()
	fo := &fakeOracle{quote: oracle.PriceQuote{
		MidPrice:    decimal.NewFromInt(2700),
		DecimalsIn:  18,
		DecimalsOut: 6,
		BaseToken:   weth,
	}}
	return NewService(testConfig(), fo), fo
}

func ptr[T any](v T) *T {
	return &v
}

func TestPlanSmallAsk(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Plan(context.Background(), PlanRequest{
		TokenIn:  weth,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1_000_000_000_000_000_000),
		Scenario: ptr(domain.ScenarioSmall),
		Side:     ptr(domain.SideAsk),
	})
	require.NoError(t, err)

	plan := res.Plan
	assert.Equal(t, domain.ScenarioSmall, res.Scenario)
	assert.Equal(t, "500000000000000000", plan.Split.OnOrderbook.Dec())
	assert.Equal(t, "500000000000000000", plan.Split.OnAMM.Dec())
	// 1,345,275,000 from the level plus 1,350,000,000 from the AMM leg
	assert.Equal(t, "2695275000", plan.ExpectedTotalOut.Dec())
	assert.Equal(t, "2700000000", plan.AMMReferenceOut.Dec())
	assert.True(t, plan.SavingsBeforeFee.IsZero())
	assert.Equal(t, "2673000000", plan.MinTotalOut.Dec())
	assert.Len(t, plan.Legs, 2)

	args, err := builder.DecodeHookData(plan.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), args.MaxMatches)
	assert.Equal(t, uint32(200), args.SlippageLimit)
	assert.Equal(t, "500000000000000000", args.AmountInOnOrderbook.Dec())
}

func TestPlanDerivesSideFromBaseToken(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Plan(context.Background(), PlanRequest{
		TokenIn:  weth,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1_000_000_000_000_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SideBid, res.Side)
	assert.Equal(t, domain.ScenarioMedium, res.Scenario)
}

func TestPlanRequestOverrides(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Plan(context.Background(), PlanRequest{
		TokenIn:           weth,
		TokenOut:          usdc,
		AmountIn:          uint256.NewInt(1_000_000_000_000_000_000),
		Scenario:          ptr(domain.ScenarioSmall),
		MaxSlippageBps:    ptr(uint32(50)),
		PerformanceFeeBps: ptr(uint32(0)),
		MaxMatches:        ptr(uint32(3)),
		MESlippageLimit:   ptr(uint32(10)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(50), res.Plan.MaxSlippageBps)
	assert.Equal(t, uint32(0), res.Plan.PerformanceFeeBps)
	assert.Equal(t, uint32(3), res.Plan.PayloadArgs.MaxMatches)
	assert.Equal(t, uint32(10), res.Plan.PayloadArgs.SlippageLimit)
}

func TestPlanReusesCachedLevels(t *testing.T) {
	conf := testConfig()
	conf.LevelCacheSize = 4
	fo := &fakeOracle{quote: oracle.PriceQuote{
		MidPrice:    decimal.NewFromInt(2700),
		DecimalsIn:  18,
		DecimalsOut: 6,
		BaseToken:   weth,
	}}
	svc := NewService(conf, fo)

	req := PlanRequest{
		TokenIn:  weth,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1_000_000_000_000_000_000),
		Scenario: ptr(domain.ScenarioLarge),
		Side:     ptr(domain.SideAsk),
	}
	first, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.levels.Len())

	// a fresh pointer with the same value hits the same entry
	req.AmountIn = uint256.NewInt(1_000_000_000_000_000_000)
	second, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.levels.Len())
	assert.Equal(t, first.Levels, second.Levels)
	assert.Equal(t, first.Plan.ExpectedTotalOut, second.Plan.ExpectedTotalOut)

	req.Side = ptr(domain.SideBid)
	_, err = svc.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.levels.Len())

	require.NoError(t, svc.Stop())
	assert.Equal(t, 0, svc.levels.Len())
}

func TestPlanUsesOracleReference(t *testing.T) {
	svc, fo := newTestService(t)
	fo.quote.ReferenceOut = uint256.NewInt(2_600_000_000)

	res, err := svc.Plan(context.Background(), PlanRequest{
		TokenIn:  weth,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1_000_000_000_000_000_000),
		Scenario: ptr(domain.ScenarioSmall),
		Side:     ptr(domain.SideAsk),
	})
	require.NoError(t, err)
	assert.Equal(t, "2600000000", res.Plan.AMMReferenceOut.Dec())
	assert.Equal(t, "95275000", res.Plan.SavingsBeforeFee.Dec())
}

func TestPlanErrors(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		req    PlanRequest
		target error
	}{
		{
			name:   "zero amount",
			req:    PlanRequest{TokenIn: weth, TokenOut: usdc, AmountIn: uint256.NewInt(0)},
			target: ErrConfiguration,
		},
		{
			name:   "same token",
			req:    PlanRequest{TokenIn: weth, TokenOut: weth, AmountIn: uint256.NewInt(1)},
			target: ErrConfiguration,
		},
		{
			name:   "unknown pair",
			req:    PlanRequest{TokenIn: dai, TokenOut: usdc, AmountIn: uint256.NewInt(1)},
			target: ErrPairNotFound,
		},
		{
			name:   "fee above 100%",
			req:    PlanRequest{TokenIn: weth, TokenOut: usdc, AmountIn: uint256.NewInt(1_000_000), PerformanceFeeBps: ptr(uint32(10_001))},
			target: ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Plan(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}

func TestAsPriceOracle(t *testing.T) {
	fo := &fakeOracle{}
	got, err := asPriceOracle(fo)
	require.NoError(t, err)
	assert.Same(t, fo, got)

	static, err := oracle.NewStaticOracle(nil)
	require.NoError(t, err)
	_, err = asPriceOracle(static)
	assert.NoError(t, err)

	_, err = asPriceOracle(&Service{})
	assert.Error(t, err)
	_, err = asPriceOracle(nil)
	assert.Error(t, err)
}

func TestCompareScenarios(t *testing.T) {
	svc, fo := newTestService(t)

	results, err := svc.CompareScenarios(context.Background(), PlanRequest{
		TokenIn:  weth,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1_000_000_000_000_000_000),
	})
	require.NoError(t, err)
	require.Len(t, results, len(domain.Scenarios))
	for i, sp := range results {
		require.NoError(t, sp.Err)
		assert.Equal(t, domain.Scenarios[i], sp.Scenario)
		assert.Equal(t, domain.Scenarios[i], sp.Result.Scenario)
		assert.True(t, sp.Result.Plan.Split.Total.Eq(uint256.NewInt(1_000_000_000_000_000_000)))
	}
	assert.Equal(t, int32(len(domain.Scenarios)), fo.calls.Load())
}

func TestCompareScenariosKeepsPlansWhenOneScenarioFails(t *testing.T) {
	svc, _ := newTestService(t)

	// one unit: small and medium levels truncate to zero, the first large rung keeps it
	results, err := svc.CompareScenarios(context.Background(), PlanRequest{
		TokenIn:  weth,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, errors.Is(results[0].Err, ErrConfiguration))
	assert.Nil(t, results[0].Result)
	assert.Equal(t, domain.ScenarioSmall, results[0].Scenario)
	assert.True(t, errors.Is(results[1].Err, ErrConfiguration))
	require.NoError(t, results[2].Err)
	assert.Equal(t, domain.ScenarioLarge, results[2].Result.Scenario)
	assert.Equal(t, uint64(1), results[2].Result.Plan.Split.OnOrderbook.Uint64())
}

func TestCompareScenariosFailsWhenEveryScenarioFails(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CompareScenarios(context.Background(), PlanRequest{
		TokenIn:  weth,
		TokenOut: weth,
		AmountIn: uint256.NewInt(1),
	})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestCompareScenariosPropagatesError(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CompareScenarios(context.Background(), PlanRequest{
		TokenIn:  dai,
		TokenOut: usdc,
		AmountIn: uint256.NewInt(1),
	})
	assert.True(t, errors.Is(err, ErrPairNotFound))
}

func BenchmarkPlanMedium(b *testing.B) {
	fo := &fakeOracle{quote: oracle.PriceQuote{MidPrice: decimal.NewFromInt(2700), DecimalsIn: 18, DecimalsOut: 6, BaseToken: weth}}
	svc := NewService(testConfig(), fo)
	req := PlanRequest{TokenIn: weth, TokenOut: usdc, AmountIn: uint256.NewInt(1_000_000_000_000_000_000)}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = svc.Plan(context.Background(), req)
	}
}
