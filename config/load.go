package config

import "github.com/fox-one/pkg/config"

// Load load config file
func Load(cfgFile string, cfg *Config) error {
	config.AutomaticLoadEnv("NFTLEND")
	if err := config.LoadYaml(cfgFile, cfg); err != nil {
		return err
	}

	defaults(cfg)
	return cfg.Pool.Validate()
}

func defaults(cfg *Config) {
	if cfg.Pool.SecondsPerBlock <= 0 {
		cfg.Pool.SecondsPerBlock = 15
	}

	if cfg.Pool.Treasury == "" {
		cfg.Pool.Treasury = "treasury"
	}

	if cfg.Scanner.Spec == "" {
		cfg.Scanner.Spec = "@every 1m"
	}

	if cfg.Scanner.Concurrency <= 0 {
		cfg.Scanner.Concurrency = 16
	}
}
