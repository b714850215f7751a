package oracle

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/config"
	"github.com/hxuan190/unihybrid-router/internal/metrics"
	"github.com/hxuan190/unihybrid-router/internal/services"
)

const ORACLE_SERVICE = "oracle-service"

const sqrtPricePrefix = "sqrtX96="

// Pair is a configured market. MidPrice is Quote per Base in human units.
type Pair struct {
	Base          ethcommon.Address
	Quote         ethcommon.Address
	BaseDecimals  int
	QuoteDecimals int
	MidPrice      decimal.Decimal
	Pool          ethcommon.Address
}

type pairKey struct {
	in, out ethcommon.Address
}

// StaticOracle answers from a fixed pair table, in both directions.
type StaticOracle struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	mu     sync.RWMutex
	quotes map[pairKey]PriceQuote
}

func NewStaticOracle(pairs []Pair) (*StaticOracle, error) {
	o := &StaticOracle{}
	o.logger = services.NewServiceLogger(o)
	if err := o.load(pairs); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *StaticOracle) ID() string {
	return ORACLE_SERVICE
}

func (o *StaticOracle) Configure(c container.IContainer) error {
	o.logger = services.NewServiceLogger(o)
	conf := c.GetConfig(config.ORACLE_CONFIG_KEY).(*config.OracleConfig)

	pairs, err := ParsePairs(conf.Pairs)
	if err != nil {
		return err
	}
	if err := o.load(pairs); err != nil {
		return err
	}
	o.logger.Info().Int("pairs", len(pairs)).Msg("oracle pairs loaded")
	return nil
}

func (o *StaticOracle) Start() error {
	return nil
}

func (o *StaticOracle) Stop() error {
	return nil
}

func (o *StaticOracle) load(pairs []Pair) error {
	quotes := make(map[pairKey]PriceQuote, 2*len(pairs))
	for _, p := range pairs {
		if p.Base == p.Quote {
			return common.ConfigErrorf("pair %s has identical tokens", p.Base.Hex())
		}
		if !p.MidPrice.IsPositive() {
			return common.ConfigErrorf("pair %s/%s has non-positive price", p.Base.Hex(), p.Quote.Hex())
		}
		if p.BaseDecimals < 0 || p.BaseDecimals > common.MaxDecimals || p.QuoteDecimals < 0 || p.QuoteDecimals > common.MaxDecimals {
			return common.ConfigErrorf("pair %s/%s has decimals outside [0,%d]", p.Base.Hex(), p.Quote.Hex(), common.MaxDecimals)
		}

		quotes[pairKey{p.Base, p.Quote}] = PriceQuote{
			MidPrice:    p.MidPrice,
			DecimalsIn:  p.BaseDecimals,
			DecimalsOut: p.QuoteDecimals,
			BaseToken:   p.Base,
			Pool:        p.Pool,
		}
		quotes[pairKey{p.Quote, p.Base}] = PriceQuote{
			MidPrice:    invertPrice(p.MidPrice),
			DecimalsIn:  p.QuoteDecimals,
			DecimalsOut: p.BaseDecimals,
			BaseToken:   p.Base,
			Pool:        p.Pool,
		}
	}

	o.mu.Lock()
	o.quotes = quotes
	o.mu.Unlock()
	metrics.OraclePairs.Set(float64(len(pairs)))
	return nil
}

// invertPrice is 1/price truncated to ReversePricePlaces.
func invertPrice(price decimal.Decimal) decimal.Decimal {
	q, _ := decimal.NewFromInt(1).QuoRem(price, ReversePricePlaces)
	return q
}

func (o *StaticOracle) Quote(ctx context.Context, tokenIn, tokenOut ethcommon.Address, _ *uint256.Int) (*PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.RLock()
	q, ok := o.quotes[pairKey{tokenIn, tokenOut}]
	o.mu.RUnlock()
	if !ok {
		metrics.OracleLookups.WithLabelValues("miss").Inc()
		o.logger.For(ctx).Debug().
			Str("token_in", tokenIn.Hex()).
			Str("token_out", tokenOut.Hex()).
			Msg("pair not configured")
		return nil, fmt.Errorf("%w: %s -> %s", ErrPairNotFound, tokenIn.Hex(), tokenOut.Hex())
	}
	metrics.OracleLookups.WithLabelValues("hit").Inc()
	return &q, nil
}

// ParsePairs parses "<base>,<quote>,<baseDecimals>,<quoteDecimals>,<price>[,<pool>]" entries.
// price may be given as sqrtX96=<uint> to derive it from a pool's slot0.
func ParsePairs(entries []string) ([]Pair, error) {
	pairs := make([]Pair, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(entry, ",")
		if len(fields) != 5 && len(fields) != 6 {
			return nil, common.ConfigErrorf("oracle pair %q: want 5 or 6 fields, got %d", entry, len(fields))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if !ethcommon.IsHexAddress(fields[0]) || !ethcommon.IsHexAddress(fields[1]) {
			return nil, common.ConfigErrorf("oracle pair %q: invalid token address", entry)
		}
		p := Pair{
			Base:  ethcommon.HexToAddress(fields[0]),
			Quote: ethcommon.HexToAddress(fields[1]),
		}

		var err error
		if p.BaseDecimals, err = strconv.Atoi(fields[2]); err != nil {
			return nil, common.ConfigErrorf("oracle pair %q: invalid base decimals: %v", entry, err)
		}
		if p.QuoteDecimals, err = strconv.Atoi(fields[3]); err != nil {
			return nil, common.ConfigErrorf("oracle pair %q: invalid quote decimals: %v", entry, err)
		}

		if raw, ok := strings.CutPrefix(fields[4], sqrtPricePrefix); ok {
			sqrtPrice, err := uint256.FromDecimal(raw)
			if err != nil {
				return nil, common.ConfigErrorf("oracle pair %q: invalid sqrtPriceX96: %v", entry, err)
			}
			if p.MidPrice, err = PriceFromSqrtPriceX96(sqrtPrice, p.BaseDecimals, p.QuoteDecimals); err != nil {
				return nil, err
			}
		} else if p.MidPrice, err = decimal.NewFromString(fields[4]); err != nil {
			return nil, common.ConfigErrorf("oracle pair %q: invalid price: %v", entry, err)
		}

		if len(fields) == 6 {
			if !ethcommon.IsHexAddress(fields[5]) {
				return nil, common.ConfigErrorf("oracle pair %q: invalid pool address", entry)
			}
			p.Pool = ethcommon.HexToAddress(fields[5])
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
