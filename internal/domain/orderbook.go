package domain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Side selects which prices count as better for the user.
type Side uint8

const (
	// SideAsk: the user lifts asks, lower price is better.
	SideAsk Side = iota
	// SideBid: the user hits bids, higher price is better.
	SideBid
)

func (s Side) String() string {
	switch s {
	case SideAsk:
		return "ask"
	case SideBid:
		return "bid"
	default:
		return "UNKNOWN"
	}
}

// ParseSide parses "ask" or "bid" (case-insensitive).
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ask":
		return SideAsk, nil
	case "bid":
		return SideBid, nil
	default:
		return 0, fmt.Errorf("invalid side %q: must be ask or bid", raw)
	}
}

// Better reports whether price a is strictly more favorable than b on this side.
func (s Side) Better(a, b decimal.Decimal) bool {
	if s == SideBid {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

// Scenario selects the liquidity shape of the synthetic book.
type Scenario uint8

const (
	ScenarioSmall Scenario = iota
	ScenarioMedium
	ScenarioLarge
)

// Scenarios lists every scenario in declaration order.
var Scenarios = []Scenario{ScenarioSmall, ScenarioMedium, ScenarioLarge}

func (s Scenario) String() string {
	switch s {
	case ScenarioSmall:
		return "small"
	case ScenarioMedium:
		return "medium"
	case ScenarioLarge:
		return "large"
	default:
		return "UNKNOWN"
	}
}

// ParseScenario parses "small", "medium" or "large" (case-insensitive).
func ParseScenario(raw string) (Scenario, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "small":
		return ScenarioSmall, nil
	case "medium":
		return ScenarioMedium, nil
	case "large":
		return ScenarioLarge, nil
	default:
		return 0, fmt.Errorf("invalid scenario %q: must be small, medium or large", raw)
	}
}

// OrderbookLevel is one discrete price level of synthetic liquidity.
// Price is output token per input token in human units; amounts are minor units.
type OrderbookLevel struct {
	Price              decimal.Decimal
	AmountInAvailable  *uint256.Int
	AmountOutAvailable *uint256.Int
}

// SnapshotQuote is one level of an external reference book.
// Size is expressed in human units of the input token.
type SnapshotQuote struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

// LevelUsed records a fill against one level, in fill order.
type LevelUsed struct {
	Price              decimal.Decimal
	AmountInFromLevel  *uint256.Int
	AmountOutFromLevel *uint256.Int
}

// MatchResult is the split produced by the greedy matcher.
// AmountInOnOrderbook + AmountInOnAMM always equals the requested swap amount.
type MatchResult struct {
	AmountInOnOrderbook    *uint256.Int
	AmountOutFromOrderbook *uint256.Int
	AmountInOnAMM          *uint256.Int
	LevelsUsed             []LevelUsed

	// Diagnostics
	LevelsConsidered    int
	LevelsBetterThanAMM int

	MinBetterPrice decimal.Decimal
	PriceAMM       decimal.Decimal
}

// AmountIn is the total input allocated by the match.
func (m *MatchResult) AmountIn() *uint256.Int {
	return new(uint256.Int).Add(m.AmountInOnOrderbook, m.AmountInOnAMM)
}
