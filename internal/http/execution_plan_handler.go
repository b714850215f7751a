package http

import (
	"context"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/aggregator"
	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/http/httputil"
	"github.com/hxuan190/unihybrid-router/internal/services/orderbook"
)

// Planner is the part of the aggregator service the handler needs.
type Planner interface {
	Plan(ctx context.Context, req aggregator.PlanRequest) (*aggregator.PlanResult, error)
	CompareScenarios(ctx context.Context, req aggregator.PlanRequest) ([]aggregator.ScenarioPlan, error)
}

type ExecutionPlanHandler struct {
	planner Planner
}

func NewExecutionPlanHandler(planner Planner) *ExecutionPlanHandler {
	return &ExecutionPlanHandler{planner: planner}
}

func (h *ExecutionPlanHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getExecutionPlan)
	pub.GET("/scenarios", h.compareScenarios)
}

func (h *ExecutionPlanHandler) Root() string {
	return "/execution-plan"
}

// ExecutionPlanRequest represents the query of an execution plan request
type ExecutionPlanRequest struct {
	// Input token address (0x-prefixed hex)
	TokenIn string `form:"token_in" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Output token address (0x-prefixed hex)
	TokenOut string `form:"token_out" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Amount in smallest token units (wei for WETH)
	AmountIn string `form:"amount_in" binding:"required" example:"1000000000000000000"`

	// Optional receiver, echoed back
	Receiver string `form:"receiver" example:"0x000000000000000000000000000000000000dEaD"`

	// Liquidity scenario: small, medium or large. Default from PLANNER_DEFAULT_SCENARIO
	Scenario string `form:"scenario" enums:"small,medium,large" example:"medium"`

	// ask or bid. Derived from the pair when empty
	Side string `form:"side" enums:"ask,bid"`

	MaxSlippageBps    *uint32 `form:"max_slippage_bps" example:"100"`
	PerformanceFeeBps *uint32 `form:"performance_fee_bps" example:"3000"`
	MaxMatches        *uint32 `form:"max_matches" example:"8"`
	OBMinImproveBps   *uint32 `form:"ob_min_improve_bps" example:"5"`
	MESlippageLimit   *uint32 `form:"me_slippage_limit" example:"200"`
}

// MatchDiagnostics explains how the split was reached
type MatchDiagnostics struct {
	LevelsGenerated     int    `json:"levels_generated" example:"5"`
	LevelsConsidered    int    `json:"levels_considered" example:"5"`
	LevelsBetterThanAMM int    `json:"levels_better_than_amm" example:"2"`
	MinBetterPrice      string `json:"min_better_price" example:"2701.35"`
	PriceAMM            string `json:"price_amm" example:"2700"`
	OrderbookDepthIn    string `json:"orderbook_depth_in" example:"2500000000000000000"`
	OrderbookDepthOut   string `json:"orderbook_depth_out" example:"6760125000"`
	// Most favorable synthesized level and its distance from mid toward
	// the taker, in bps
	BestLevelPrice     string `json:"best_level_price,omitempty" example:"2720.25"`
	BestLevelOffsetBps string `json:"best_level_offset_bps,omitempty" example:"75"`
}

// ExecutionPlanResponse is a plan with the request context it was built for
type ExecutionPlanResponse struct {
	Scenario    string           `json:"scenario" example:"medium"`
	Side        string           `json:"side" example:"bid"`
	TokenIn     string           `json:"token_in"`
	TokenOut    string           `json:"token_out"`
	Receiver    string           `json:"receiver,omitempty"`
	MidPrice    string           `json:"mid_price" example:"2700"`
	Pool        string           `json:"pool,omitempty"`
	Diagnostics MatchDiagnostics `json:"diagnostics"`
	Plan        *domain.PlanView `json:"plan"`
}

// ScenarioComparisonResponse holds one plan per scenario that could be built
type ScenarioComparisonResponse struct {
	Plans  []ExecutionPlanResponse `json:"plans"`
	Failed []ScenarioFailure       `json:"failed,omitempty"`
	// Scenario with the highest expected_total_out
	Best string `json:"best" example:"large"`
}

// ScenarioFailure is a scenario that produced no plan for the request
type ScenarioFailure struct {
	Scenario string `json:"scenario" example:"small"`
	Error    string `json:"error"`
}

func (h *ExecutionPlanHandler) parseRequest(c *gin.Context) (aggregator.PlanRequest, bool) {
	var (
		req ExecutionPlanRequest
		out aggregator.PlanRequest
	)
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return out, false
	}

	if !ethcommon.IsHexAddress(req.TokenIn) {
		httputil.BadRequest(c, "invalid token_in address")
		return out, false
	}
	if !ethcommon.IsHexAddress(req.TokenOut) {
		httputil.BadRequest(c, "invalid token_out address")
		return out, false
	}
	out.TokenIn = ethcommon.HexToAddress(req.TokenIn)
	out.TokenOut = ethcommon.HexToAddress(req.TokenOut)

	amount, err := uint256.FromDecimal(req.AmountIn)
	if err != nil || amount.IsZero() {
		httputil.BadRequest(c, "invalid amount_in: must be a positive integer below 2^256")
		return out, false
	}
	out.AmountIn = amount

	if req.Receiver != "" {
		if !ethcommon.IsHexAddress(req.Receiver) {
			httputil.BadRequest(c, "invalid receiver address")
			return out, false
		}
		receiver := ethcommon.HexToAddress(req.Receiver)
		out.Receiver = &receiver
	}

	if req.Scenario != "" {
		scenario, err := domain.ParseScenario(req.Scenario)
		if err != nil {
			httputil.BadRequest(c, err.Error())
			return out, false
		}
		out.Scenario = &scenario
	}
	if req.Side != "" {
		side, err := domain.ParseSide(req.Side)
		if err != nil {
			httputil.BadRequest(c, err.Error())
			return out, false
		}
		out.Side = &side
	}

	out.MaxSlippageBps = req.MaxSlippageBps
	out.PerformanceFeeBps = req.PerformanceFeeBps
	out.MaxMatches = req.MaxMatches
	out.OBMinImproveBps = req.OBMinImproveBps
	out.MESlippageLimit = req.MESlippageLimit
	return out, true
}

func buildResponse(req aggregator.PlanRequest, res *aggregator.PlanResult) ExecutionPlanResponse {
	resp := ExecutionPlanResponse{
		Scenario: res.Scenario.String(),
		Side:     res.Side.String(),
		TokenIn:  req.TokenIn.Hex(),
		TokenOut: req.TokenOut.Hex(),
		MidPrice: res.MidPrice.String(),
		Diagnostics: MatchDiagnostics{
			LevelsGenerated:     len(res.Levels),
			LevelsConsidered:    res.Match.LevelsConsidered,
			LevelsBetterThanAMM: res.Match.LevelsBetterThanAMM,
			MinBetterPrice:      res.Match.MinBetterPrice.String(),
			PriceAMM:            res.Match.PriceAMM.String(),
		},
		Plan: res.Plan.View(),
	}
	if res.Receiver != nil {
		resp.Receiver = res.Receiver.Hex()
	}
	if res.Pool != (ethcommon.Address{}) {
		resp.Pool = res.Pool.Hex()
	}
	// depth only overflows on absurd books; diagnostics are omitted then
	if in, out, err := orderbook.TotalDepth(res.Levels); err == nil {
		resp.Diagnostics.OrderbookDepthIn = in.Dec()
		resp.Diagnostics.OrderbookDepthOut = out.Dec()
	}
	if best, ok := orderbook.BestLevel(res.Levels, res.Side); ok {
		resp.Diagnostics.BestLevelPrice = best.Price.String()
		resp.Diagnostics.BestLevelOffsetBps = bestOffsetBps(res.Side, best.Price, res.MidPrice).String()
	}
	return resp
}

// bestOffsetBps is the spread between the best level and mid, signed so that a
// level better than mid is positive on either side.
func bestOffsetBps(side domain.Side, best, mid decimal.Decimal) decimal.Decimal {
	if side == domain.SideAsk {
		return orderbook.SpreadBps(best, mid, mid)
	}
	return orderbook.SpreadBps(mid, best, mid)
}

// @Summary Get execution plan
// @Description Split a swap between the internal orderbook and the AMM and return the
// @Description transmission-ready plan, including the hook payload for the settlement contract.
// @Description
// @Description **Amount Format:**
// @Description - Use smallest token units (wei for 18-decimal tokens)
// @Description - WETH (18 decimals): 1 WETH = 1000000000000000000
// @Description - USDC (6 decimals): 1 USDC = 1000000
// @Description
// @Description **Side:** when omitted, selling the pair's base token is a bid, anything else an ask.
// @Tags execution-plan
// @Produce json
// @Param token_in query string true "Input token address" example("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
// @Param token_out query string true "Output token address" example("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
// @Param amount_in query string true "Amount in smallest token units" example("1000000000000000000")
// @Param receiver query string false "Receiver address, echoed back"
// @Param scenario query string false "Liquidity scenario" Enums(small, medium, large)
// @Param side query string false "Book side" Enums(ask, bid)
// @Param max_slippage_bps query int false "Slippage tolerance for min_total_out" example(100)
// @Param performance_fee_bps query int false "Share of savings taken as fee" example(3000)
// @Param max_matches query int false "Max orderbook matches in the payload" example(8)
// @Param ob_min_improve_bps query int false "Required improvement over the AMM price" example(5)
// @Param me_slippage_limit query int false "Matching engine slippage limit in the payload" example(200)
// @Success 200 {object} ExecutionPlanResponse "Execution plan"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "Unknown token pair"
// @Failure 422 {object} httputil.Response "Amounts overflow 256 bits"
// @Router /api/v1/execution-plan [get]
func (h *ExecutionPlanHandler) getExecutionPlan(c *gin.Context) {
	req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	res, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		httputil.FromError(c, err, aggregator.ErrPairNotFound)
		return
	}

	httputil.Success(c, buildResponse(req, res))
}

// @Summary Compare scenarios
// @Description Build the execution plan for every liquidity scenario concurrently.
// @Tags execution-plan
// @Produce json
// @Param token_in query string true "Input token address"
// @Param token_out query string true "Output token address"
// @Param amount_in query string true "Amount in smallest token units"
// @Param side query string false "Book side" Enums(ask, bid)
// @Success 200 {object} ScenarioComparisonResponse "One plan per scenario"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "Unknown token pair"
// @Router /api/v1/execution-plan/scenarios [get]
func (h *ExecutionPlanHandler) compareScenarios(c *gin.Context) {
	req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	results, err := h.planner.CompareScenarios(c.Request.Context(), req)
	if err != nil {
		httputil.FromError(c, err, aggregator.ErrPairNotFound)
		return
	}

	resp := ScenarioComparisonResponse{Plans: make([]ExecutionPlanResponse, 0, len(results))}
	var best *aggregator.PlanResult
	for _, sp := range results {
		if sp.Err != nil {
			resp.Failed = append(resp.Failed, ScenarioFailure{Scenario: sp.Scenario.String(), Error: sp.Err.Error()})
			continue
		}
		res := sp.Result
		resp.Plans = append(resp.Plans, buildResponse(req, res))
		if best == nil || res.Plan.ExpectedTotalOut.Gt(best.Plan.ExpectedTotalOut) {
			best = res
		}
	}
	if best != nil {
		resp.Best = best.Scenario.String()
	}

	httputil.Success(c, resp)
}
