package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisAuctionsHost string `env:"REDIS_AUCTIONS_HOST" envDefault:"localhost"`
	RedisAuctionsPort uint16 `env:"REDIS_AUCTIONS_PORT" envDefault:"6379"   validate:"min=1000,max=65535"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"auction_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"auction_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"auction_db"`

	// AdminAddress is the only caller allowed to manage token
	// contract eligibility.
	AdminAddress string `env:"ADMIN_ADDRESS" envDefault:"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266" validate:"eth_addr"`

	// PaymentTokenAddress is the ERC-20 style asset every auction
	// settles in; the service refuses all traffic until it is set.
	PaymentTokenAddress string `env:"PAYMENT_TOKEN_ADDRESS" envDefault:"0xe7f1725e7734ce288f8367e1bb143e90bb3f0512" validate:"eth_addr"`

	// EscrowAddress is the account custody and allowances are pinned to.
	EscrowAddress string `env:"ESCROW_ADDRESS" envDefault:"0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0" validate:"eth_addr"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
