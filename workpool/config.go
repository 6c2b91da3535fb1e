package workpool

import (
	"runtime"

	"github.com/kbukum/poolstream/config"
	"github.com/kbukum/poolstream/validation"
)

// DefaultName names pools built from a zero Config.
const DefaultName = "workpool"

// Config configures a worker pool.
type Config struct {
	// Name identifies the pool in logs, metrics and spans.
	Name string `yaml:"name" mapstructure:"name"`
	// Workers is the number of worker goroutines. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=4096"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// fileConfig is the shape of the service configuration file: pool settings
// live under the "pool" key (env POOL_NAME, POOL_WORKERS).
type fileConfig struct {
	Pool Config `yaml:"pool" mapstructure:"pool"`
}

// LoadConfig reads the pool section of the service configuration, applies
// defaults and validates the result.
func LoadConfig(service string, opts ...config.LoaderOption) (Config, error) {
	var fc fileConfig
	if err := config.LoadConfig(service, &fc, opts...); err != nil {
		return Config{}, err
	}
	fc.Pool.ApplyDefaults()
	if err := fc.Pool.Validate(); err != nil {
		return Config{}, err
	}
	return fc.Pool, nil
}
