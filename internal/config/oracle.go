package config

import (
	"errors"
	"os"
	"strings"
)

type OracleConfig struct {
	// Pairs lists the statically priced pairs, one entry per pair separated by ';':
	//   <base>,<quote>,<baseDecimals>,<quoteDecimals>,<price>[,<pool>]
	// price is quote per base in human units, or sqrtX96=<uint> for a raw
	// pool slot0 value.
	Pairs []string
}

func (c *OracleConfig) Key() string {
	return ORACLE_CONFIG_KEY
}

func (c *OracleConfig) Load() error {
	c.Pairs = c.Pairs[:0]
	raw := os.Getenv("ORACLE_PAIRS")
	if raw != "" {
		for _, p := range strings.Split(raw, ";") {
			p = strings.TrimSpace(p)
			if p != "" {
				c.Pairs = append(c.Pairs, p)
			}
		}
	}
	return c.Validate()
}

func (c *OracleConfig) Validate() error {
	if len(c.Pairs) == 0 {
		return errors.New("invalid oracle config: ORACLE_PAIRS is empty")
	}
	return nil
}
