// Package config loads layered configuration into plain structs.
//
// Sources, lowest precedence first: a YAML/JSON/TOML file found next to the
// service (or passed explicitly), a .env file, then the process environment.
// Environment keys map onto nested keys by splitting on underscores, so
// POOL_WORKERS fills pool.workers.
//
//	var cfg struct {
//	    Pool workpool.Config `mapstructure:"pool"`
//	}
//	err := config.LoadConfig("reports", &cfg)
package config
