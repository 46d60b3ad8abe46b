package config

import "github.com/caarlos0/env/v11"

// CtlConfig configures forgectl. Flags override these values.
type CtlConfig struct {
	ServerURL   string `env:"FORGECTL_SERVER" envDefault:"http://localhost:8080"`
	AdminAPIKey string `env:"FORGECTL_ADMIN_KEY"`
	Account     string `env:"FORGECTL_ACCOUNT"`
}

func LoadCtl() (CtlConfig, error) {
	var cfg CtlConfig
	err := env.Parse(&cfg)
	return cfg, err
}
