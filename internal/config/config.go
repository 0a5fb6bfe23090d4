package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded from the environment with an
// optional .env overlay.
type Config struct {
	// DatabaseURL selects postgres when set; otherwise SQLitePath is used.
	DatabaseURL string
	SQLitePath  string

	Port      int
	JWTSecret string
	JWTIssuer string

	// KeeperSpec is the cron spec driving the recurring-trade keeper.
	// Empty disables the keeper.
	KeeperSpec string

	Chain chain.EvmConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  envOr("SQLITE_PATH", "chainsuite.db"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   envOr("JWT_ISSUER", "chainsuite"),
		KeeperSpec:  envOr("KEEPER_CRON", "@every 30s"),
		Chain: chain.EvmConfig{
			RpcURL:         os.Getenv("RPC_URL"),
			OperatorKey:    os.Getenv("OPERATOR_PRIVATE_KEY"),
			NativeTokenID:  envOr("NATIVE_TOKEN_ID", "NATIVE"),
			WrappedTokenID: os.Getenv("WRAPPED_TOKEN_ID"),
			Addresses: chain.Addresses{
				FeesCollector:      os.Getenv("FEES_COLLECTOR_ADDRESS"),
				Metabonding:        os.Getenv("METABONDING_ADDRESS"),
				Router:             os.Getenv("ROUTER_ADDRESS"),
				EnergyFactory:      os.Getenv("ENERGY_FACTORY_ADDRESS"),
				LockedTokenWrapper: os.Getenv("LOCKED_TOKEN_WRAPPER_ADDRESS"),
				TokenBridge:        os.Getenv("TOKEN_BRIDGE_ADDRESS"),
				TemplateFactory:    os.Getenv("TEMPLATE_FACTORY_ADDRESS"),
			},
		},
	}

	port, err := envInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	chainID, err := envInt("CHAIN_ID", 1)
	if err != nil {
		return nil, err
	}
	cfg.Chain.ChainID = int64(chainID)

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
