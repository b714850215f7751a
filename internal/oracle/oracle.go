// Package oracle supplies the mid-price a plan is built around.
package oracle

import (
	"context"
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var ErrPairNotFound = errors.New("pair not found")

// PriceQuote describes a directed pair at one instant.
type PriceQuote struct {
	// MidPrice is output token per input token in human units.
	MidPrice    decimal.Decimal
	DecimalsIn  int
	DecimalsOut int
	// BaseToken is the token the pair is quoted in units of.
	BaseToken ethcommon.Address
	// ReferenceOut, when set, is the oracle's own AMM-only output for the
	// requested amount and replaces the price-derived reference.
	ReferenceOut *uint256.Int
	Pool         ethcommon.Address
}

type PriceOracle interface {
	Quote(ctx context.Context, tokenIn, tokenOut ethcommon.Address, amountIn *uint256.Int) (*PriceQuote, error)
}
