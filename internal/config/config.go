// Package config loads process settings from an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"raffle-5050/internal/logger"
)

type Log struct {
	Level     string `env:"LOG_LEVEL,default=info"`
	File      string `env:"LOG_FILE"`
	ErrorFile string `env:"ERROR_LOG_FILE"`
	Console   bool   `env:"LOG_CONSOLE,default=true"`
}

func (l Log) Logger() logger.Configuration {
	return logger.Configuration{
		LogFile:   l.File,
		ErrorFile: l.ErrorFile,
		Level:     l.Level,
		Console:   l.Console,
	}
}

// Server configures the ledger service.
type Server struct {
	Port              string  `env:"PORT,default=8080"`
	DatabaseURL       string  `env:"DATABASE_URL,default=file:raffle.db"`
	DatabaseAuthToken string  `env:"DATABASE_AUTH_TOKEN"`
	StaffUser         string  `env:"STAFF_USER,default=admin"`
	StaffPassword     string  `env:"STAFF_PASSWORD"`
	TelegramToken     string  `env:"TELEGRAM_TOKEN"`
	AdminTelegramIDs  string  `env:"ADMIN_TELEGRAM_IDS"`
	RateLimitRPS      float64 `env:"RATE_LIMIT_RPS,default=5"`
	RateLimitBurst    int     `env:"RATE_LIMIT_BURST,default=10"`
	Log               Log
}

// Kiosk configures the staff terminal.
type Kiosk struct {
	LedgerURL     string        `env:"LEDGER_URL,default=http://localhost:8080"`
	StaffUser     string        `env:"STAFF_USER,default=admin"`
	StaffPassword string        `env:"STAFF_PASSWORD"`
	Timeout       time.Duration `env:"LEDGER_TIMEOUT,default=15s"`
	Organization  string        `env:"ORGANIZATION,default=Miamisburg Rotary Club"`
	Log           Log
}

// LoadServer reads the ledger service settings.
func LoadServer() (Server, error) {
	var cfg Server
	if err := load(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.RateLimitRPS <= 0 {
		return Server{}, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", cfg.RateLimitRPS)
	}
	return cfg, nil
}

// LoadKiosk reads the staff terminal settings.
func LoadKiosk() (Kiosk, error) {
	var cfg Kiosk
	if err := load(&cfg); err != nil {
		return Kiosk{}, err
	}
	return cfg, nil
}

func load(target interface{}) error {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	err := envdecode.Decode(target)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}
