package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultRouters maps a network name to its PancakeSwap V2 router.
var DefaultRouters = map[string]string{
	"bsc":              "0x10ED43C718714eb63d5aA57B78B54704E256024E",
	"bsc-fork":         "0x10ED43C718714eb63d5aA57B78B54704E256024E",
	"bsc-testnet":      "0x10ED43C718714eb63d5aA57B78B54704E256024E",
	"bsc-testnet-fork": "0x10ED43C718714eb63d5aA57B78B54704E256024E",
}

// PreflightConfig holds settings for the preflight command.
type PreflightConfig struct {
	RPCURL       string
	Network      string
	Router       string
	Input        string
	Amount       string
	Path0        []string
	Path1        []string
	Pair         []string
	Deadline     uint64
	MaxRetries   int
	RetryBackoff time.Duration
	Log          LogConfig
}

// LoadPreflight merges config file, environment variables and flags into
// PreflightConfig. An empty router falls back to the network default.
func LoadPreflight(cfgFile string, flags *pflag.FlagSet) (PreflightConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"network":       "bsc",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return PreflightConfig{}, err
	}

	deadline, err := ParseTimestamp(v.GetString("deadline"))
	if err != nil {
		return PreflightConfig{}, fmt.Errorf("parse deadline: %w", err)
	}

	cfg := PreflightConfig{
		RPCURL:       v.GetString("rpc"),
		Network:      v.GetString("network"),
		Router:       v.GetString("router"),
		Input:        v.GetString("input"),
		Amount:       v.GetString("amount"),
		Path0:        getStringSlice(v, "path0"),
		Path1:        getStringSlice(v, "path1"),
		Pair:         getStringSlice(v, "pair"),
		Deadline:     deadline,
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Log:          logConfig(v),
	}
	if cfg.Router == "" {
		router, ok := DefaultRouters[cfg.Network]
		if !ok {
			return PreflightConfig{}, fmt.Errorf("unknown network %q and no router given", cfg.Network)
		}
		cfg.Router = router
	}
	return cfg, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
