package config

import (
	"fmt"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/unihybrid-router/internal/domain"
	"github.com/hxuan190/unihybrid-router/internal/services/orderbook"
)

type PlannerConfig struct {
	// Request defaults, overridable per request.
	PerformanceFeeBps uint32
	MaxSlippageBps    uint32
	MaxMatches        uint32
	OBMinImproveBps   uint32
	MESlippageLimit   uint32
	DefaultScenario   domain.Scenario

	// LevelCacheSize bounds the synthesized-book cache; 0 disables it.
	// Default: 4096
	LevelCacheSize int

	// Scenario tuning.
	Scenarios orderbook.ScenarioParams
}

func (c *PlannerConfig) Key() string {
	return PLANNER_CONFIG_KEY
}

func (c *PlannerConfig) Load() error {
	var err error
	if c.PerformanceFeeBps, err = envBps("PLANNER_PERFORMANCE_FEE_BPS", 3000); err != nil {
		return err
	}
	if c.MaxSlippageBps, err = envBps("PLANNER_MAX_SLIPPAGE_BPS", 100); err != nil {
		return err
	}
	if c.MaxMatches, err = envUint32("PLANNER_MAX_MATCHES", 8); err != nil {
		return err
	}
	if c.OBMinImproveBps, err = envUint32("PLANNER_OB_MIN_IMPROVE_BPS", 5); err != nil {
		return err
	}
	if c.MESlippageLimit, err = envUint32("PLANNER_ME_SLIPPAGE_LIMIT", 200); err != nil {
		return err
	}
	if c.DefaultScenario, err = domain.ParseScenario(common.GetEnvOrDefault("PLANNER_DEFAULT_SCENARIO", "medium")); err != nil {
		return err
	}

	c.LevelCacheSize = common.GetEnvOrDefaultInt("PLANNER_LEVEL_CACHE_SIZE", 4096)

	defaults := orderbook.DefaultScenarioParams()
	s := &c.Scenarios
	if s.Small.SpreadBps, err = envDecimal("PLANNER_SMALL_SPREAD_BPS", defaults.Small.SpreadBps); err != nil {
		return err
	}
	if s.Small.DepthMultiplier, err = envDecimal("PLANNER_SMALL_DEPTH_MULTIPLIER", defaults.Small.DepthMultiplier); err != nil {
		return err
	}
	if s.Medium, err = envLadder("PLANNER_MEDIUM", defaults.Medium); err != nil {
		return err
	}
	if s.Large.Ladder, err = envLadder("PLANNER_LARGE", defaults.Large.Ladder); err != nil {
		return err
	}
	if s.Large.CapitalBudget, err = envDecimal("PLANNER_LARGE_CAPITAL_BUDGET", decimal.Zero); err != nil {
		return err
	}
	if s.Large.Snapshot, err = ParseSnapshot(common.GetEnvOrDefault("PLANNER_LARGE_SNAPSHOT", "")); err != nil {
		return err
	}
	return c.Validate()
}

func (c *PlannerConfig) Validate() error {
	if c.PerformanceFeeBps > 10_000 || c.MaxSlippageBps > 10_000 {
		return fmt.Errorf("invalid planner config: bps above 10000")
	}
	if c.LevelCacheSize < 0 {
		return fmt.Errorf("invalid planner config: level cache size is negative")
	}
	if c.MaxMatches == 0 {
		return fmt.Errorf("invalid planner config: max matches must be positive")
	}
	large := c.Scenarios.Large
	if len(large.Snapshot) > 0 != large.CapitalBudget.IsPositive() {
		return fmt.Errorf("invalid planner config: PLANNER_LARGE_SNAPSHOT and PLANNER_LARGE_CAPITAL_BUDGET must be set together")
	}
	return nil
}

// ParseSnapshot parses "<side>:<price>:<size>" entries separated by ';'.
func ParseSnapshot(raw string) ([]domain.SnapshotQuote, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var quotes []domain.SnapshotQuote
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid snapshot entry %q", entry)
		}
		side, err := domain.ParseSide(parts[0])
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot price %q: %w", parts[1], err)
		}
		size, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot size %q: %w", parts[2], err)
		}
		quotes = append(quotes, domain.SnapshotQuote{Side: side, Price: price, Size: size})
	}
	return quotes, nil
}

func envLadder(prefix string, def orderbook.LadderParams) (orderbook.LadderParams, error) {
	var (
		out = def
		err error
	)
	out.Levels = common.GetEnvOrDefaultInt(prefix+"_LEVELS", def.Levels)
	if out.SpreadStepBps, err = envDecimal(prefix+"_SPREAD_STEP_BPS", def.SpreadStepBps); err != nil {
		return out, err
	}
	if out.Decay, err = envDecimal(prefix+"_DECAY", def.Decay); err != nil {
		return out, err
	}
	if out.BaseSizeMultiplier, err = envDecimal(prefix+"_BASE_SIZE_MULTIPLIER", def.BaseSizeMultiplier); err != nil {
		return out, err
	}
	if out.TargetDepthMultiplier, err = envDecimal(prefix+"_TARGET_DEPTH_MULTIPLIER", def.TargetDepthMultiplier); err != nil {
		return out, err
	}
	return out, nil
}

func envDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw := common.GetEnvOrDefault(key, def.String())
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envUint32(key string, def int) (uint32, error) {
	v := common.GetEnvOrDefaultInt(key, def)
	if v < 0 || int64(v) > int64(^uint32(0)) {
		return 0, fmt.Errorf("invalid %s: %d out of range", key, v)
	}
	return uint32(v), nil
}

func envBps(key string, def int) (uint32, error) {
	v, err := envUint32(key, def)
	if err != nil {
		return 0, err
	}
	if v > 10_000 {
		return 0, fmt.Errorf("invalid %s: %d exceeds 10000 bps", key, v)
	}
	return v, nil
}
