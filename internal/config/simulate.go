package config

import "github.com/spf13/pflag"

// SimulateConfig holds settings for the simulate command.
type SimulateConfig struct {
	Scenario   string
	Out        string
	PGDSN      string
	MetricsOut string
	Strict     bool
	Log        LogConfig
}

// LoadSimulate merges config file, environment variables and flags into
// SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":    "./data/receipts.jsonl",
		"strict": true,
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		Scenario:   v.GetString("scenario"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
		MetricsOut: v.GetString("metrics-out"),
		Strict:     v.GetBool("strict"),
		Log:        logConfig(v),
	}, nil
}
