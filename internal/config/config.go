package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSecretKey is the placeholder signing key shipped for local use.
const DefaultSecretKey = "change-me-please"

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	AppName           string        `mapstructure:"APP_NAME"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	DBTimeout         time.Duration `mapstructure:"DB_TIMEOUT"`
	DBMaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	DBMaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`
	SecretKey         string        `mapstructure:"SECRET_KEY"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`

	PDFMarginTopMM    float64 `mapstructure:"PDF_MARGIN_TOP_MM"`
	PDFMarginRightMM  float64 `mapstructure:"PDF_MARGIN_RIGHT_MM"`
	PDFMarginBottomMM float64 `mapstructure:"PDF_MARGIN_BOTTOM_MM"`
	PDFMarginLeftMM   float64 `mapstructure:"PDF_MARGIN_LEFT_MM"`

	BootstrapAdminEmail    string `mapstructure:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `mapstructure:"BOOTSTRAP_ADMIN_PASSWORD"`
}

var keys = []string{
	"PORT", "ENV", "APP_NAME",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_TIMEOUT",
	"DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME",
	"SECRET_KEY", "TOKEN_TTL", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"PDF_MARGIN_TOP_MM", "PDF_MARGIN_RIGHT_MM", "PDF_MARGIN_BOTTOM_MM", "PDF_MARGIN_LEFT_MM",
	"BOOTSTRAP_ADMIN_EMAIL", "BOOTSTRAP_ADMIN_PASSWORD",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "MDT App")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_TIMEOUT", "5s")
	v.SetDefault("DB_MAX_CONN_LIFETIME", "1h")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "30m")
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("TOKEN_TTL", "12h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("PDF_MARGIN_TOP_MM", 15)
	v.SetDefault("PDF_MARGIN_RIGHT_MM", 15)
	v.SetDefault("PDF_MARGIN_BOTTOM_MM", 15)
	v.SetDefault("PDF_MARGIN_LEFT_MM", 15)
	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "admin@example.com")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitTrim(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production the
// token signing key must be replaced and long enough for HS256.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.SecretKey == DefaultSecretKey {
			return fmt.Errorf("SECRET_KEY must be changed from the default in production")
		}
		if len(c.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters in production, got %d", len(c.SecretKey))
		}
	}
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	for name, m := range map[string]float64{
		"PDF_MARGIN_TOP_MM":    c.PDFMarginTopMM,
		"PDF_MARGIN_RIGHT_MM":  c.PDFMarginRightMM,
		"PDF_MARGIN_BOTTOM_MM": c.PDFMarginBottomMM,
		"PDF_MARGIN_LEFT_MM":   c.PDFMarginLeftMM,
	} {
		if m < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, m)
		}
	}
	return nil
}
