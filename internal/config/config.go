package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the API server and the bot.
type Config struct {
	TelegramToken  string
	DatabaseDriver string
	DatabaseURL    string
	HTTPAddr       string
	CORSOrigins    []string
	JWTSecret      string
	TokenTTL       time.Duration
	ReportInterval time.Duration
	ReportDailyAt  string
	Timezone       string
	Location       *time.Location
}

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"telegram.token":        "TELEGRAM_TOKEN",
	"database.driver":       "DATABASE_DRIVER",
	"database.url":          "DATABASE_URL",
	"http.addr":             "HTTP_ADDR",
	"http.cors_origins":     "CORS_ORIGINS",
	"auth.jwt_secret":       "JWT_SECRET",
	"auth.token_ttl":        "TOKEN_TTL",
	"report.interval_hours": "REPORT_INTERVAL_HOURS",
	"report.daily_at":       "REPORT_DAILY_AT",
	"timezone":              "TIMEZONE",
}

// Load reads configuration from an optional YAML file and the environment,
// environment winning. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "everytask.db")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("report.interval_hours", "5")
	v.SetDefault("timezone", "Local")

	for key, env := range envKeys {
		if err := v.BindEnv(key, env, "EVERYTASK_"+env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		TelegramToken:  strings.TrimSpace(v.GetString("telegram.token")),
		DatabaseDriver: strings.TrimSpace(v.GetString("database.driver")),
		DatabaseURL:    strings.TrimSpace(v.GetString("database.url")),
		HTTPAddr:       strings.TrimSpace(v.GetString("http.addr")),
		CORSOrigins:    splitList(v.GetString("http.cors_origins")),
		JWTSecret:      strings.TrimSpace(v.GetString("auth.jwt_secret")),
		ReportInterval: parseInterval(strings.TrimSpace(v.GetString("report.interval_hours"))),
		ReportDailyAt:  strings.TrimSpace(v.GetString("report.daily_at")),
		Timezone:       strings.TrimSpace(v.GetString("timezone")),
	}

	ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString("auth.token_ttl")))
	if err != nil || ttl <= 0 {
		return cfg, fmt.Errorf("invalid token ttl %q", v.GetString("auth.token_ttl"))
	}
	cfg.TokenTTL = ttl

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// RequireTelegram checks the settings the bot cannot run without.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// RequireJWT checks the settings the API server cannot run without.
func (c Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
