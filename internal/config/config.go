package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"ENV"`
	GoogleClientID      string        `mapstructure:"GOOGLE_CLIENT_ID"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	SessionSweep        time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	AllowIdentitySkip   bool          `mapstructure:"ALLOW_IDENTITY_SKIP"`
	QRParam             string        `mapstructure:"QR_PARAM"`
	BrandName           string        `mapstructure:"BRAND_NAME"`
	BrandTagline        string        `mapstructure:"BRAND_TAGLINE"`
	RateLimitRPS        float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit           string        `mapstructure:"BODY_LIMIT"`
	MetricsEnabled      bool          `mapstructure:"METRICS_ENABLED"`
	TLSEnabled          bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile         string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile          string        `mapstructure:"TLS_KEY_FILE"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"GOOGLE_CLIENT_ID",
	"SESSION_TTL",
	"SESSION_SWEEP_INTERVAL",
	"SESSION_COOKIE_SECURE",
	"ALLOW_IDENTITY_SKIP",
	"QR_PARAM",
	"BRAND_NAME",
	"BRAND_TAGLINE",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"BODY_LIMIT",
	"METRICS_ENABLED",
	"TLS_ENABLED",
	"TLS_CERT_FILE",
	"TLS_KEY_FILE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("ALLOW_IDENTITY_SKIP", false)
	v.SetDefault("QR_PARAM", "qr")
	v.SetDefault("BRAND_NAME", "PranaCare")
	v.SetDefault("BRAND_TAGLINE", "Medical Yoga & Well-Being")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("METRICS_ENABLED", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.IsDev() && cfg.AllowIdentitySkip {
		log.Println("WARNING: ALLOW_IDENTITY_SKIP is on; patients can reach the form without signing in.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production needs a
// Google client id and secure session cookies.
func (c *Config) Validate() error {
	if c.IsProduction() && c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required in production")
	}
	if c.IsProduction() && !c.SessionCookieSecure {
		return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.SessionSweep <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", c.SessionSweep)
	}
	if c.QRParam == "" {
		return fmt.Errorf("QR_PARAM must not be empty")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
