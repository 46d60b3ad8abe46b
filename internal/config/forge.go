package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ForgeConfig holds the engine wiring. Addresses default to fixed development values.
type ForgeConfig struct {
	Owner          string `env:"FORGE_OWNER" envDefault:"0x00000000000000000000000000000000000000a0"`
	Vault          string `env:"FORGE_VAULT" envDefault:"0x00000000000000000000000000000000000000f0"`
	Provider       string `env:"FORGE_PROVIDER" envDefault:"0x52deaa1c84233f7bb8c8a45baede41091c616506"`
	OracleAddress  string `env:"FORGE_ORACLE_ADDRESS" envDefault:"0x00000000000000000000000000000000000000e0"`
	DragonsAddress string `env:"FORGE_DRAGONS_ADDRESS" envDefault:"0x00000000000000000000000000000000000000d1"`
	RewardsAddress string `env:"FORGE_REWARDS_ADDRESS" envDefault:"0x00000000000000000000000000000000000000d2"`
	PartyAddress   string `env:"FORGE_PARTY_ADDRESS" envDefault:"0x00000000000000000000000000000000000000d3"`

	OracleFee        uint64        `env:"FORGE_ORACLE_FEE" envDefault:"0"`
	PointsPerHour    uint64        `env:"FORGE_POINTS_PER_HOUR" envDefault:"40"`
	ProbabilityTotal uint64        `env:"FORGE_PROBABILITY_TOTAL" envDefault:"100"`
	MintExpiry       time.Duration `env:"FORGE_MINT_EXPIRY" envDefault:"24h"`

	JanitorInterval time.Duration `env:"FORGE_JANITOR_INTERVAL" envDefault:"1m"`
	SnapshotEvery   int           `env:"FORGE_SNAPSHOT_EVERY" envDefault:"500"`
	KeepSnapshots   int           `env:"FORGE_KEEP_SNAPSHOTS" envDefault:"3"`
	BootstrapFile   string        `env:"FORGE_BOOTSTRAP_FILE"`

	AutoDeliver         bool          `env:"FORGE_AUTO_DELIVER" envDefault:"false"`
	AutoDeliverInterval time.Duration `env:"FORGE_AUTO_DELIVER_INTERVAL" envDefault:"2s"`
	AutoDeliverSeed     uint64        `env:"FORGE_AUTO_DELIVER_SEED" envDefault:"0"`
}

func LoadForge() (ForgeConfig, error) {
	var cfg ForgeConfig
	err := env.Parse(&cfg)
	return cfg, err
}
