package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret        string   `mapstructure:"JWT_SECRET"`
	AccessTokenTTL   int      `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTL  int      `mapstructure:"REFRESH_TOKEN_TTL_HOURS"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
	PaystackSecret   string   `mapstructure:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL  string   `mapstructure:"PAYSTACK_BASE_URL"`
	GiphyAPIKey      string   `mapstructure:"GIPHY_API_KEY"`
	GiphyBaseURL     string   `mapstructure:"GIPHY_BASE_URL"`
	BlobBackend      string   `mapstructure:"BLOB_BACKEND"`
	BlobS3Bucket     string   `mapstructure:"BLOB_S3_BUCKET"`
	BlobS3Region     string   `mapstructure:"BLOB_S3_REGION"`
	ConsultationFee  int64    `mapstructure:"CONSULTATION_FEE"`
	Currency         string   `mapstructure:"CURRENCY"`
	ReminderInterval int      `mapstructure:"REMINDER_INTERVAL_MINUTES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("REFRESH_TOKEN_TTL_HOURS", 720)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("GIPHY_BASE_URL", "https://api.giphy.com/v1")
	v.SetDefault("BLOB_BACKEND", "memory")
	v.SetDefault("CONSULTATION_FEE", 5000)
	v.SetDefault("CURRENCY", "XAF")
	v.SetDefault("REMINDER_INTERVAL_MINUTES", 15)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "ACCESS_TOKEN_TTL_MINUTES", "REFRESH_TOKEN_TTL_HOURS",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"PAYSTACK_SECRET_KEY", "PAYSTACK_BASE_URL",
		"GIPHY_API_KEY", "GIPHY_BASE_URL",
		"BLOB_BACKEND", "BLOB_S3_BUCKET", "BLOB_S3_REGION",
		"CONSULTATION_FEE", "CURRENCY", "REMINDER_INTERVAL_MINUTES",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "development-only-signing-secret"
		log.Println("WARNING: JWT_SECRET not set; using a development-only signing secret.")
		log.Println("WARNING: Do NOT use this configuration in production.")
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

// Validate checks that the configuration is safe to run. Outside development
// a real JWT secret is mandatory, and enabled integrations must carry their
// credentials.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSecret == "" || c.JWTSecret == "development-only-signing-secret" {
			return fmt.Errorf("JWT_SECRET must be set when ENV is %q", c.Env)
		}
		if c.PaystackSecret == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required outside development; payments cannot be verified without it")
		}
	}

	switch c.BlobBackend {
	case "memory":
	case "s3":
		if c.BlobS3Bucket == "" {
			return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_BACKEND is \"s3\"")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be \"memory\" or \"s3\", got %q", c.BlobBackend)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", c.AccessTokenTTL)
	}
	if c.ConsultationFee <= 0 {
		return fmt.Errorf("CONSULTATION_FEE must be positive, got %d", c.ConsultationFee)
	}

	return nil
}
