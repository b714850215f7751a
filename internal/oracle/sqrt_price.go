package oracle

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/common"
)

// ReversePricePlaces is the precision of inverted and sqrt-derived prices.
const ReversePricePlaces int32 = 36

// 2^-192 == 5^192 / 10^192, so the division below stays exact until truncation.
var fivePow192 = new(big.Int).Exp(big.NewInt(5), big.NewInt(192), nil)

// PriceFromSqrtPriceX96 converts a concentrated-liquidity pool's sqrtPriceX96
// into token1 per token0 in human units, truncated to ReversePricePlaces.
func PriceFromSqrtPriceX96(sqrtPriceX96 *uint256.Int, decimals0, decimals1 int) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return decimal.Zero, common.ConfigErrorf("sqrtPriceX96 must be positive")
	}
	sq := sqrtPriceX96.ToBig()
	sq.Mul(sq, sq)
	sq.Mul(sq, fivePow192)

	price := decimal.NewFromBigInt(sq, -192).Shift(int32(decimals0 - decimals1))
	return price.Truncate(ReversePricePlaces), nil
}
