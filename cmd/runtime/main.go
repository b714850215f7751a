package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/unihybrid-router/internal/aggregator"
	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/config"
	"github.com/hxuan190/unihybrid-router/internal/http"
	"github.com/hxuan190/unihybrid-router/internal/oracle"
)

// @title UniHybrid Router API
// @version 1.0-beta
// @description Hybrid orderbook/AMM execution planner. Splits a swap between internal
// @description orderbook liquidity and the AMM pool and returns the hook payload the
// @description settlement contract consumes.
// @description
// @description ## - Features
// @description - **Synthetic Liquidity**: small, medium and large orderbook scenarios around the AMM mid-price
// @description - **Greedy Matching**: fills only levels that beat the AMM by a configurable margin
// @description - **Savings Accounting**: performance fee on savings and slippage-protected minimum output
// @description - **Bit-exact Payload**: (address,address,uint256,uint32,uint32) hook data
// @description
// @description ## - Usage Tips
// @description - Use smallest token units (wei for 18-decimal tokens)
// @description - USDC has 6 decimals: 1 USDC = 1,000,000 base units
// @description - Default max slippage is 100 bps (1%), default performance fee 3000 bps of savings
// @description - Rate Limit: 10 requests/second (burst: 20)
// @BasePath /
// @schemes https http
// @tag.name execution-plan
// @tag.description Build hybrid execution plans and compare liquidity scenarios

func main() {
	// load env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	common.InitLogger(general.LogLevel, general.Env)
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		general,
		&config.PlannerConfig{},
		&config.OracleConfig{},
		&config.RateLimitConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&oracle.StaticOracle{},
		&aggregator.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run() blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
