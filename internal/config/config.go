package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	Address        string        `env:"RUN_ADDRESS"`
	DatabaseDSN    string        `env:"DATABASE_URI"`
	PaymentAddress string        `env:"PAYMENT_ADDRESS"`
	PaymentSecret  string        `env:"PAYMENT_SECRET"`
	OperatorKey    string        `env:"OPERATOR_KEY"`
	NotifyAddress  string        `env:"NOTIFY_ADDRESS"`
	OperatorChat   string        `env:"OPERATOR_CHAT"`
	ExchangeRate   string        `env:"EXCHANGE_RATE"`
	LogLevel       string        `env:"LOG_LEVEL"`
	SessionTTL     time.Duration `env:"SESSION_TTL"`
}

func NewConfig() (*Config, error) {
	var cfg Config

	flag.StringVar(&cfg.Address, "a", "", "server address")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "database dsn")
	flag.StringVar(&cfg.PaymentAddress, "p", "", "payment gateway address")
	flag.StringVar(&cfg.PaymentSecret, "s", "", "payment gateway shared secret")
	flag.StringVar(&cfg.OperatorKey, "k", "", "operator api key")
	flag.StringVar(&cfg.NotifyAddress, "n", "", "chat bot notify address")
	flag.StringVar(&cfg.OperatorChat, "c", "", "operator chat id")
	flag.StringVar(&cfg.ExchangeRate, "r", "1", "frozen to available exchange rate")
	flag.StringVar(&cfg.LogLevel, "l", "info", "log level")
	flag.DurationVar(&cfg.SessionTTL, "t", 30*time.Minute, "operator session ttl")
	flag.Parse()

	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	if cfg.Address == "" {
		return nil, errors.New("server address is required")
	}
	_, port, err := net.SplitHostPort(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("bad format, use host:port: %w", err)
	}
	_, err = strconv.ParseUint(port, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("port required only digest: %w", err)
	}

	if cfg.OperatorKey == "" {
		return nil, errors.New("operator api key is required")
	}
	if _, err := cfg.Rate(); err != nil {
		return nil, fmt.Errorf("bad exchange rate: %w", err)
	}
	return &cfg, nil
}

// Rate курс обмена замороженного баланса на доступный
func (c *Config) Rate() (decimal.Decimal, error) {
	return decimal.NewFromString(c.ExchangeRate)
}
