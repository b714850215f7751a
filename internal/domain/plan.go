package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type LegSource uint8

const (
	LegSourceOrderbook LegSource = iota
	LegSourceAMM
)

func (s LegSource) String() string {
	switch s {
	case LegSourceOrderbook:
		return "internal_orderbook"
	case LegSourceAMM:
		return "amm"
	default:
		return "UNKNOWN"
	}
}

type Split struct {
	Total       *uint256.Int
	OnOrderbook *uint256.Int
	OnAMM       *uint256.Int
}

// Leg is one source-specific portion of the swap.
type Leg struct {
	Source            LegSource
	AmountIn          *uint256.Int
	ExpectedAmountOut *uint256.Int
	EffectivePrice    decimal.Decimal
	// LevelsUsed is only set on the orderbook leg.
	LevelsUsed []LevelUsed
}

// PayloadArgs are the fields of the settlement hook payload, in wire order.
type PayloadArgs struct {
	TokenIn             common.Address
	TokenOut            common.Address
	AmountInOnOrderbook *uint256.Int
	MaxMatches          uint32
	SlippageLimit       uint32
}

// ExecutionPlan is the transmission-ready result of one planning request.
type ExecutionPlan struct {
	Split       Split
	Legs        []Leg
	PayloadArgs PayloadArgs
	Payload     []byte

	AMMReferenceOut      *uint256.Int
	ExpectedTotalOut     *uint256.Int
	SavingsBeforeFee     *uint256.Int
	PerformanceFeeBps    uint32
	PerformanceFeeAmount *uint256.Int
	SavingsAfterFee      *uint256.Int
	MaxSlippageBps       uint32
	MinTotalOut          *uint256.Int
	// MeetsMinTotalOut is false when the expected output is already below
	// the slippage floor.
	MeetsMinTotalOut bool
}

// SavingsBps is savings before fee relative to the AMM reference, in bps.
func (p *ExecutionPlan) SavingsBps() uint64 {
	if p.AMMReferenceOut == nil || p.AMMReferenceOut.IsZero() {
		return 0
	}
	bps, overflow := new(uint256.Int).MulDivOverflow(p.SavingsBeforeFee, uint256.NewInt(10_000), p.AMMReferenceOut)
	if overflow || !bps.IsUint64() {
		return ^uint64(0)
	}
	return bps.Uint64()
}

// View renders the plan with decimal strings for amounts and hex for the payload.
func (p *ExecutionPlan) View() *PlanView {
	legs := make([]LegView, 0, len(p.Legs))
	for _, leg := range p.Legs {
		lv := LegView{
			Source:            leg.Source.String(),
			AmountIn:          leg.AmountIn.Dec(),
			ExpectedAmountOut: leg.ExpectedAmountOut.Dec(),
			EffectivePrice:    leg.EffectivePrice.String(),
		}
		if leg.Source == LegSourceOrderbook {
			lv.Meta = &LegMetaView{LevelsUsed: make([]LevelUsedView, 0, len(leg.LevelsUsed))}
			for _, lu := range leg.LevelsUsed {
				lv.Meta.LevelsUsed = append(lv.Meta.LevelsUsed, LevelUsedView{
					Price:              lu.Price.String(),
					AmountInFromLevel:  lu.AmountInFromLevel.Dec(),
					AmountOutFromLevel: lu.AmountOutFromLevel.Dec(),
				})
			}
		}
		legs = append(legs, lv)
	}

	return &PlanView{
		Split: SplitView{
			AmountInTotal:       p.Split.Total.Dec(),
			AmountInOnOrderbook: p.Split.OnOrderbook.Dec(),
			AmountInOnAMM:       p.Split.OnAMM.Dec(),
		},
		Legs: legs,
		HookDataArgs: HookDataArgsView{
			TokenIn:             p.PayloadArgs.TokenIn.Hex(),
			TokenOut:            p.PayloadArgs.TokenOut.Hex(),
			AmountInOnOrderbook: p.PayloadArgs.AmountInOnOrderbook.Dec(),
			MaxMatches:          p.PayloadArgs.MaxMatches,
			SlippageLimit:       p.PayloadArgs.SlippageLimit,
		},
		HookData:             hexutil.Encode(p.Payload),
		AMMReferenceOut:      p.AMMReferenceOut.Dec(),
		ExpectedTotalOut:     p.ExpectedTotalOut.Dec(),
		SavingsBeforeFee:     p.SavingsBeforeFee.Dec(),
		SavingsBps:           p.SavingsBps(),
		PerformanceFeeBps:    p.PerformanceFeeBps,
		PerformanceFeeAmount: p.PerformanceFeeAmount.Dec(),
		SavingsAfterFee:      p.SavingsAfterFee.Dec(),
		MaxSlippageBps:       p.MaxSlippageBps,
		MinTotalOut:          p.MinTotalOut.Dec(),
		MeetsMinTotalOut:     p.MeetsMinTotalOut,
	}
}

type PlanView struct {
	Split                SplitView        `json:"split"`
	Legs                 []LegView        `json:"legs"`
	HookDataArgs         HookDataArgsView `json:"hook_data_args"`
	HookData             string           `json:"hook_data"`
	AMMReferenceOut      string           `json:"amm_reference_out"`
	ExpectedTotalOut     string           `json:"expected_total_out"`
	SavingsBeforeFee     string           `json:"savings_before_fee"`
	SavingsBps           uint64           `json:"savings_bps"`
	PerformanceFeeBps    uint32           `json:"performance_fee_bps"`
	PerformanceFeeAmount string           `json:"performance_fee_amount"`
	SavingsAfterFee      string           `json:"savings_after_fee"`
	MaxSlippageBps       uint32           `json:"max_slippage_bps"`
	MinTotalOut          string           `json:"min_total_out"`
	MeetsMinTotalOut     bool             `json:"meets_min_total_out"`
}

type SplitView struct {
	AmountInTotal       string `json:"amount_in_total"`
	AmountInOnOrderbook string `json:"amount_in_on_orderbook"`
	AmountInOnAMM       string `json:"amount_in_on_amm"`
}

type LegView struct {
	Source            string       `json:"source"`
	AmountIn          string       `json:"amount_in"`
	ExpectedAmountOut string       `json:"expected_amount_out"`
	EffectivePrice    string       `json:"effective_price"`
	Meta              *LegMetaView `json:"meta,omitempty"`
}

type LegMetaView struct {
	LevelsUsed []LevelUsedView `json:"levels_used"`
}

type LevelUsedView struct {
	Price              string `json:"price"`
	AmountInFromLevel  string `json:"amount_in_from_level"`
	AmountOutFromLevel string `json:"amount_out_from_level"`
}

type HookDataArgsView struct {
	TokenIn             string `json:"tokenIn"`
	TokenOut            string `json:"tokenOut"`
	AmountInOnOrderbook string `json:"amountInOnOrderbook"`
	MaxMatches          uint32 `json:"maxMatches"`
	SlippageLimit       uint32 `json:"slippageLimit"`
}
