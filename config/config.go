// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-this-in-production"

// Cover backends selectable for Create and Update.
const (
	CoverBackendLocal  = "local"
	CoverBackendRemote = "remote"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port            string        `mapstructure:"PORT"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	Env             string        `mapstructure:"APP_ENV"`
	MongoURI        string        `mapstructure:"MONGODB_URI"`
	MongoDatabase   string        `mapstructure:"MONGODB_DATABASE"`
	MongoTx         bool          `mapstructure:"MONGODB_TRANSACTIONS"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	CloudinaryURL   string        `mapstructure:"CLOUDINARY_URL"`
	CloudFolder     string        `mapstructure:"CLOUDINARY_FOLDER"`
	CloudFormat     string        `mapstructure:"CLOUDINARY_FORMAT"`
	PublicDir       string        `mapstructure:"PUBLIC_DIR"`
	PublicPath      string        `mapstructure:"PUBLIC_PATH"`
	CoverBackend    string        `mapstructure:"COVER_BACKEND"`
	MaxUploadBytes  int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	PostsCacheTTL   time.Duration `mapstructure:"POSTS_CACHE_TTL"`
	UploadRateLimit int           `mapstructure:"UPLOAD_RATE_LIMIT"`
	AllowedOrigins  string        `mapstructure:"ALLOWED_ORIGINS"`
	TrustedProxies  string        `mapstructure:"TRUSTED_PROXIES"`
}

// Load reads .env (if present) and the process environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	// AutomaticEnv only resolves keys viper already knows about, which the
	// defaults above take care of.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MONGODB_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGODB_DATABASE", "omiit")
	v.SetDefault("MONGODB_TRANSACTIONS", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("CLOUDINARY_FOLDER", "LightEnd05")
	v.SetDefault("CLOUDINARY_FORMAT", "png")
	v.SetDefault("PUBLIC_DIR", "./public")
	v.SetDefault("PUBLIC_PATH", "public")
	v.SetDefault("COVER_BACKEND", CoverBackendRemote)
	v.SetDefault("MAX_UPLOAD_BYTES", int64(10<<20))
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("POSTS_CACHE_TTL", time.Minute)
	v.SetDefault("UPLOAD_RATE_LIMIT", 30)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:5500")
	v.SetDefault("TRUSTED_PROXIES", "")
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Origins splits ALLOWED_ORIGINS into a trimmed list.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Proxies lists the IPs or CIDRs whose forwarding headers are believed.
// Empty means none are.
func (c *Config) Proxies() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate ensures required values are present and production-safe.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	switch c.CoverBackend {
	case CoverBackendLocal, CoverBackendRemote:
	default:
		return fmt.Errorf("COVER_BACKEND must be %q or %q, got %q", CoverBackendLocal, CoverBackendRemote, c.CoverBackend)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	for _, p := range c.Proxies() {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", p)
			}
		}
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.CloudinaryURL == "" {
			slog.Warn("CLOUDINARY_URL is not set; remote cover uploads will fail")
		}
	}
	return nil
}
