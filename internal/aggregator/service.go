package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/config"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/metrics"
	"github.com/hxuan190/unihybrid-router/internal/oracle"
	"github.com/hxuan190/unihybrid-router/internal/services"
	"github.com/hxuan190/unihybrid-router/internal/services/cache"
	"github.com/hxuan190/unihybrid-router/internal/services/fixedpoint"
	"github.com/hxuan190/unihybrid-router/internal/services/matcher"
	"github.com/hxuan190/unihybrid-router/internal/services/orderbook"
	"github.com/hxuan190/unihybrid-router/internal/services/planner"
)

const AGGREGATOR_SERVICE = "aggregator-service"

// Error aliases
var (
	ErrPairNotFound       = oracle.ErrPairNotFound
	ErrConfiguration      = common.ErrConfiguration
	ErrArithmeticOverflow = common.ErrArithmeticOverflow
)

// PlanRequest is one planning call. Nil optional fields fall back to PlannerConfig.
type PlanRequest struct {
	TokenIn  ethcommon.Address
	TokenOut ethcommon.Address
	AmountIn *uint256.Int
	Receiver *ethcommon.Address

	Scenario *domain.Scenario
	Side     *domain.Side

	MaxSlippageBps    *uint32
	PerformanceFeeBps *uint32
	MaxMatches        *uint32
	OBMinImproveBps   *uint32
	MESlippageLimit   *uint32
}

type PlanResult struct {
	Scenario domain.Scenario
	Side     domain.Side
	MidPrice decimal.Decimal
	Pool     ethcommon.Address
	Receiver *ethcommon.Address

	Levels []domain.OrderbookLevel
	Match  *domain.MatchResult
	Plan   *domain.ExecutionPlan
}

// ScenarioPlan is one entry of CompareScenarios. Exactly one of Result and
// Err is set.
type ScenarioPlan struct {
	Scenario domain.Scenario
	Result   *PlanResult
	Err      error
}

// levelKey identifies a synthesized book. Scenario tuning is fixed per
// service, so it is not part of the key.
type levelKey struct {
	midPrice    string
	decimalsIn  int
	decimalsOut int
	amountIn    uint256.Int
	side        domain.Side
	scenario    domain.Scenario
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	oracle oracle.PriceOracle
	config *config.PlannerConfig
	levels *cache.LRU[levelKey, []domain.OrderbookLevel]
}

// NewService wires a Service without the container.
func NewService(conf *config.PlannerConfig, priceOracle oracle.PriceOracle) *Service {
	svc := &Service{config: conf, oracle: priceOracle}
	svc.logger = services.NewServiceLogger(svc)
	svc.levels = cache.NewLRU[levelKey, []domain.OrderbookLevel](conf.LevelCacheSize)
	return svc
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.config = c.GetConfig(config.PLANNER_CONFIG_KEY).(*config.PlannerConfig)
	priceOracle, err := asPriceOracle(c.Instance(oracle.ORACLE_SERVICE))
	if err != nil {
		return err
	}
	svc.oracle = priceOracle
	svc.levels = cache.NewLRU[levelKey, []domain.OrderbookLevel](svc.config.LevelCacheSize)
	return nil
}

func (svc *Service) Start() error {
	svc.logger.Info().
		Str("default_scenario", svc.config.DefaultScenario.String()).
		Uint32("performance_fee_bps", svc.config.PerformanceFeeBps).
		Uint32("max_slippage_bps", svc.config.MaxSlippageBps).
		Uint32("ob_min_improve_bps", svc.config.OBMinImproveBps).
		Int("level_cache_size", svc.config.LevelCacheSize).
		Msg("aggregator service started")
	return nil
}

func (svc *Service) Stop() error {
	svc.levels.Purge()
	return nil
}

// Plan runs oracle, synthesizer, matcher and planner for one request.
func (svc *Service) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	scenario := svc.config.DefaultScenario
	if req.Scenario != nil {
		scenario = *req.Scenario
	}

	start := time.Now()
	res, err := svc.plan(ctx, req, scenario)

	metrics.PlanDuration.WithLabelValues(scenario.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		side := "unknown"
		if req.Side != nil {
			side = req.Side.String()
		}
		metrics.PlanRequests.WithLabelValues(scenario.String(), side, "error").Inc()
		svc.logger.For(ctx).Debug().Err(err).
			Str("token_in", req.TokenIn.Hex()).
			Str("token_out", req.TokenOut.Hex()).
			Str("scenario", scenario.String()).
			Msg("plan failed")
		return nil, err
	}

	metrics.PlanRequests.WithLabelValues(scenario.String(), res.Side.String(), "success").Inc()
	share, _ := fixedpoint.Ratio(res.Plan.Split.OnOrderbook, res.Plan.Split.Total).Float64()
	metrics.OrderbookShare.WithLabelValues(scenario.String()).Observe(share)
	metrics.LevelsUsed.Observe(float64(len(res.Match.LevelsUsed)))
	metrics.SavingsBps.WithLabelValues(scenario.String()).Observe(float64(res.Plan.SavingsBps()))

	svc.logger.For(ctx).Debug().
		Str("token_in", req.TokenIn.Hex()).
		Str("token_out", req.TokenOut.Hex()).
		Str("amount_in", req.AmountIn.Dec()).
		Str("scenario", scenario.String()).
		Str("side", res.Side.String()).
		Str("on_orderbook", res.Plan.Split.OnOrderbook.Dec()).
		Str("savings_before_fee", res.Plan.SavingsBeforeFee.Dec()).
		Int("levels_used", len(res.Match.LevelsUsed)).
		Dur("took", time.Since(start)).
		Msg("plan built")
	return res, nil
}

func (svc *Service) plan(ctx context.Context, req PlanRequest, scenario domain.Scenario) (*PlanResult, error) {
	if req.AmountIn == nil || req.AmountIn.IsZero() {
		return nil, common.ConfigErrorf("amount_in must be positive")
	}
	if req.TokenIn == req.TokenOut {
		return nil, common.ConfigErrorf("token_in and token_out must differ")
	}

	quote, err := svc.oracle.Quote(ctx, req.TokenIn, req.TokenOut, req.AmountIn)
	if err != nil {
		return nil, err
	}

	side := domain.SideAsk
	if req.Side != nil {
		side = *req.Side
	} else if req.TokenIn == quote.BaseToken {
		side = domain.SideBid
	}

	levels, err := svc.synthesize(quote, req.AmountIn, side, scenario)
	if err != nil {
		return nil, err
	}

	m, err := matcher.New(quote.MidPrice, quote.DecimalsIn, quote.DecimalsOut, orDefault(req.OBMinImproveBps, svc.config.OBMinImproveBps))
	if err != nil {
		return nil, err
	}
	match, err := m.Match(levels, req.AmountIn, side)
	if err != nil {
		return nil, err
	}

	p, err := planner.New(planner.Params{
		PriceAMM:          quote.MidPrice,
		DecimalsIn:        quote.DecimalsIn,
		DecimalsOut:       quote.DecimalsOut,
		PerformanceFeeBps: orDefault(req.PerformanceFeeBps, svc.config.PerformanceFeeBps),
		MaxSlippageBps:    orDefault(req.MaxSlippageBps, svc.config.MaxSlippageBps),
	})
	if err != nil {
		return nil, err
	}
	plan, err := p.Build(match, planner.BuildArgs{
		TokenIn:         req.TokenIn,
		TokenOut:        req.TokenOut,
		MaxMatches:      orDefault(req.MaxMatches, svc.config.MaxMatches),
		SlippageLimit:   orDefault(req.MESlippageLimit, svc.config.MESlippageLimit),
		AMMReferenceOut: quote.ReferenceOut,
	})
	if err != nil {
		return nil, err
	}

	return &PlanResult{
		Scenario: scenario,
		Side:     side,
		MidPrice: quote.MidPrice,
		Pool:     quote.Pool,
		Receiver: req.Receiver,
		Levels:   levels,
		Match:    match,
		Plan:     plan,
	}, nil
}

// synthesize returns the book for the request, reusing a cached one when the
// same mid, amount, side and scenario were seen before. Cached slices are
// shared and must not be modified.
func (svc *Service) synthesize(quote *oracle.PriceQuote, amountIn *uint256.Int, side domain.Side, scenario domain.Scenario) ([]domain.OrderbookLevel, error) {
	key := levelKey{
		midPrice:    quote.MidPrice.String(),
		decimalsIn:  quote.DecimalsIn,
		decimalsOut: quote.DecimalsOut,
		amountIn:    *amountIn,
		side:        side,
		scenario:    scenario,
	}
	if levels, ok := svc.levels.Get(key); ok {
		metrics.LevelCacheHits.Inc()
		return levels, nil
	}
	metrics.LevelCacheMisses.Inc()

	synth, err := orderbook.NewSynthesizer(quote.MidPrice, quote.DecimalsIn, quote.DecimalsOut)
	if err != nil {
		return nil, err
	}
	levels, err := synth.Generate(amountIn, side, scenario, svc.config.Scenarios)
	if err != nil {
		return nil, err
	}
	svc.levels.Add(key, levels)
	return levels, nil
}

// CompareScenarios plans every scenario concurrently and returns them in
// domain.Scenarios order. Configuration and overflow errors only mark their
// own scenario; any other error cancels the rest. It fails when no scenario
// produced a plan.
func (svc *Service) CompareScenarios(ctx context.Context, req PlanRequest) ([]ScenarioPlan, error) {
	plans := make([]ScenarioPlan, len(domain.Scenarios))
	g, gctx := errgroup.WithContext(ctx)

	for i, scenario := range domain.Scenarios {
		g.Go(func() error {
			r := req
			r.Scenario = &scenario
			res, err := svc.Plan(gctx, r)
			if err != nil && !scenarioLocal(err) {
				return err
			}
			plans[i] = ScenarioPlan{Scenario: scenario, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.Err == nil {
			return plans, nil
		}
	}
	return nil, plans[0].Err
}

func scenarioLocal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrArithmeticOverflow)
}

// asPriceOracle accepts any registered instance implementing oracle.PriceOracle.
func asPriceOracle(instance any) (oracle.PriceOracle, error) {
	o, ok := instance.(oracle.PriceOracle)
	if !ok {
		return nil, fmt.Errorf("%s: instance %T does not implement PriceOracle", oracle.ORACLE_SERVICE, instance)
	}
	return o, nil
}

func orDefault(v *uint32, def uint32) uint32 {
	if v != nil {
		return *v
	}
	return def
}
