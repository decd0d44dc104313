package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"billing/internal/domain"
	"billing/internal/store"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = store.DriverMemory
	StorePostgres = store.DriverPostgres
	StoreRedis    = store.DriverRedis
)

type Config struct {
	Port                int
	StoreDriver         string
	DatabaseURL         string
	RedisURL            string
	LogLevel            string
	LogFormat           string
	Retention           time.Duration
	RefreshExpiryOnEdit bool
	Timezone            *time.Location
	Company             domain.Company
	CatalogFile         string
}

// Load reads settings from the environment, falling back to ./.env. The file
// is optional.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(".", ".env"))
}

func LoadFrom(envPath string) (Config, error) {
	values, err := godotenv.Read(envPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", envPath, err)
		}
		values = map[string]string{}
	}
	get := func(key string) string {
		return firstNonEmpty(os.Getenv(key), values[key])
	}

	cfg := Config{
		Port:        8080,
		StoreDriver: StoreMemory,
		LogLevel:    "info",
		LogFormat:   "json",
		Retention:   30 * 24 * time.Hour,
		Company: domain.Company{
			Name:     "SKY Enterprises and Decors",
			TagLine:  "Interiors & Modular Furniture",
			Location: "Tiruchengode",
		},
	}

	if portRaw := get("PORT"); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT: %q", portRaw)
		}
		cfg.Port = port
	}

	if driver := strings.ToLower(get("STORE_DRIVER")); driver != "" {
		cfg.StoreDriver = driver
	}
	cfg.DatabaseURL = get("DATABASE_URL")
	cfg.RedisURL = get("REDIS_URL")
	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}

	cfg.LogLevel = firstNonEmpty(get("LOG_LEVEL"), cfg.LogLevel)
	cfg.LogFormat = firstNonEmpty(strings.ToLower(get("LOG_FORMAT")), cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT: %q", cfg.LogFormat)
	}

	if daysRaw := get("INVOICE_RETENTION_DAYS"); daysRaw != "" {
		days, err := strconv.Atoi(daysRaw)
		if err != nil || days <= 0 {
			return Config{}, fmt.Errorf("invalid INVOICE_RETENTION_DAYS: %q", daysRaw)
		}
		cfg.Retention = time.Duration(days) * 24 * time.Hour
	}

	if refreshRaw := get("INVOICE_REFRESH_EXPIRY_ON_EDIT"); refreshRaw != "" {
		refresh, err := strconv.ParseBool(refreshRaw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INVOICE_REFRESH_EXPIRY_ON_EDIT: %q", refreshRaw)
		}
		cfg.RefreshExpiryOnEdit = refresh
	}

	tzName := firstNonEmpty(get("INVOICE_TIMEZONE"), "Asia/Kolkata")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid INVOICE_TIMEZONE: %q", tzName)
	}
	cfg.Timezone = loc

	cfg.Company.Name = firstNonEmpty(get("COMPANY_NAME"), cfg.Company.Name)
	cfg.Company.TagLine = firstNonEmpty(get("COMPANY_TAGLINE"), cfg.Company.TagLine)
	cfg.Company.Location = firstNonEmpty(get("COMPANY_LOCATION"), cfg.Company.Location)
	cfg.Company.Phone = firstNonEmpty(get("COMPANY_PHONE"), cfg.Company.Phone)

	cfg.CatalogFile = get("CATALOG_FILE")

	return cfg, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}
