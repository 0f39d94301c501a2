package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout int      `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
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
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")

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

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure JWT_SECRET for production.")
		log.Println("WARNING: ============================================================")
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
// mode JWT_SECRET must be set so that real token authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf(
			"JWT_SECRET must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeout)
	}
	return nil
}
