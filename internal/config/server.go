package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// PostgresDSN enables the event journal and snapshots. Without it the forge runs in memory.
	PostgresDSN      string `env:"POSTGRES_DSN"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"8"`
	AutoMigrate      bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`
	MCPEnabled  bool   `env:"MCP_ENABLED" envDefault:"true"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
