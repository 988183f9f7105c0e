// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the API process needs to start.
type Config struct {
	Addr     string
	GRPCAddr string

	PGDSN string

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SessionTTL time.Duration

	LoginRatePerMin int
	LoginRateBurst  int
}

// Load reads GP_* variables and applies defaults. It fails only when a
// required value is missing or unparseable.
func Load() (Config, error) {
	cfg := Config{
		Addr:            envString("GP_HTTP_ADDR", ":8080"),
		GRPCAddr:        envString("GP_GRPC_ADDR", ""),
		PGDSN:           envString("GP_PG_DSN", ""),
		JWTIssuer:       envString("GP_JWT_ISSUER", "gestion-policial"),
		LoginRatePerMin: 5,
		LoginRateBurst:  5,
	}

	cfg.JWTSecret = strings.TrimSpace(os.Getenv("GP_JWT_SECRET"))
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("GP_JWT_SECRET is required")
	}

	var err error
	if cfg.AccessTTL, err = envDuration("GP_ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = envDuration("GP_REFRESH_TTL", 720*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = envDuration("GP_SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LoginRatePerMin, err = envInt("GP_LOGIN_RATE_PER_MIN", cfg.LoginRatePerMin); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateBurst, err = envInt("GP_LOGIN_RATE_BURST", cfg.LoginRateBurst); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
