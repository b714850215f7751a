package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY    = "general-config"
	PLANNER_CONFIG_KEY    = "planner-config"
	ORACLE_CONFIG_KEY     = "oracle-config"
	RATE_LIMIT_CONFIG_KEY = "rate-limit-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string

	// Server timeouts. Defaults: 5s read header, 10s write, 5s shutdown.
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.ReadHeaderTimeout = time.Duration(common.GetEnvOrDefaultInt("HTTP_READ_HEADER_TIMEOUT_SEC", 5)) * time.Second
	gc.WriteTimeout = time.Duration(common.GetEnvOrDefaultInt("HTTP_WRITE_TIMEOUT_SEC", 10)) * time.Second
	gc.ShutdownTimeout = time.Duration(common.GetEnvOrDefaultInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 5)) * time.Second
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	switch gc.Env {
	case DevEnv, StagingEnv, ProdEnv:
	default:
		return fmt.Errorf("invalid server config: unknown ENV %q", gc.Env)
	}
	if gc.ReadHeaderTimeout <= 0 || gc.WriteTimeout <= 0 || gc.ShutdownTimeout <= 0 {
		return errors.New("invalid server config: timeouts must be positive")
	}
	return nil
}
