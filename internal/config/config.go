package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment
type Config struct {
	Port            int
	UpstreamURL     string
	StorageType     string
	RedisURL        string
	FederationsPath string
	StaticDir       string
	AssetBase       string
	ScriptBase      string
	// UserHeader carries the authenticated user id set by the fronting site
	UserHeader      string
	StripePublicKey string
	PayPalClientID  string
	Currencies      []string
	DefaultCurrency string
	RosterIdle      time.Duration
	LogLevel        slog.Level
}

// Defaults returns the configuration used when nothing is set
func Defaults() Config {
	return Config{
		Port:            8080,
		UpstreamURL:     "http://localhost:9663",
		StorageType:     "memory",
		FederationsPath: "data/federations.json",
		StaticDir:       "internal/web/static",
		AssetBase:       "/static",
		ScriptBase:      "https://unpkg.com",
		UserHeader:      "X-Relay-User",
		DefaultCurrency: "USD",
		RosterIdle:      30 * time.Minute,
		LogLevel:        slog.LevelInfo,
	}
}

// Load reads a .env file when present, then the environment
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a variable lookup, such as os.LookupEnv
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	get := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	get("UPSTREAM_URL", &cfg.UpstreamURL)
	get("STORAGE_TYPE", &cfg.StorageType)
	get("REDIS_URL", &cfg.RedisURL)
	get("FEDERATIONS_PATH", &cfg.FederationsPath)
	get("STATIC_DIR", &cfg.StaticDir)
	get("ASSET_BASE", &cfg.AssetBase)
	get("SCRIPT_BASE", &cfg.ScriptBase)
	get("USER_HEADER", &cfg.UserHeader)
	get("STRIPE_PUBLIC_KEY", &cfg.StripePublicKey)
	get("PAYPAL_CLIENT_ID", &cfg.PayPalClientID)
	get("DEFAULT_CURRENCY", &cfg.DefaultCurrency)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v, ok := lookup("CURRENCIES"); ok && v != "" {
		for _, c := range strings.Split(v, ",") {
			if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
				cfg.Currencies = append(cfg.Currencies, c)
			}
		}
	}

	if v, ok := lookup("ROSTER_IDLE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROSTER_IDLE %q: %w", v, err)
		}
		cfg.RosterIdle = d
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	if cfg.StorageType == "redis" && cfg.RedisURL == "" {
		return Config{}, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
	}
	cfg.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)

	return cfg, nil
}

// Addr is the listen address
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
