// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Nothing is cached between
// calls: each component receives its own config value, which keeps tests
// isolated and lets one process build several independently configured stores.
//
//	type ProbeConfig struct {
//		URL     string        `env:"URL" envDefault:"http://localhost:8080/healthz"`
//		Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
//	}
//
//	var cfg ProbeConfig
//	if err := config.Load(&cfg, config.WithPrefix("NETSTATUS_")); err != nil {
//		return err
//	}
//
// A .env file in the working directory is read when present. Files passed with
// WithEnvFiles must exist. Values already present in the process environment
// always win over file values.
package config
