// Package config содержит логику чтения конфигурации сервиса SigeCafé.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultPriceSourceURL = "https://www.cepea.org.br/br/indicador/cafe.aspx"
)

// Config содержит параметры конфигурации сервиса SigeCafé.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	PriceSourceURL string `env:"PRICE_SOURCE_URL"`
	SessionSecret  string `env:"SESSION_SECRET"`

	ChromePath           string        `env:"CHROME_PATH"`
	BrowserDisabled      bool          `env:"BROWSER_DISABLED"`
	PriceFreshness       time.Duration `env:"PRICE_FRESHNESS" envDefault:"24h"`
	PriceRefreshSchedule string        `env:"PRICE_REFRESH_SCHEDULE" envDefault:"@every 1h"` // off отключает прогрев
	PermissionCacheTTL   time.Duration `env:"PERMISSION_CACHE_TTL" envDefault:"1s"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	return ParseFiles(".env")
}

// ParseFiles работает как Parse, но загружает переменные из указанных файлов.
// Отсутствующие файлы пропускаются.
func ParseFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envPriceSourceURL := cfg.PriceSourceURL
	envSessionSecret := cfg.SessionSecret

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PriceSourceURL, "p", defaultPriceSourceURL, "coffee price indicator page URL")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session token signing secret (random per process when empty)")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envPriceSourceURL != "" {
		cfg.PriceSourceURL = envPriceSourceURL
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if strings.EqualFold(cfg.PriceRefreshSchedule, "off") {
		cfg.PriceRefreshSchedule = ""
	}

	return cfg, nil
}
