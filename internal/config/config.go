// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first when present. Values
// already set in the process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/triforge/triforge-api/internal/asset"
)

const minSecretLength = 16

// Config holds every setting the server reads at startup.
type Config struct {
	Port   int    `envconfig:"PORT" default:"8080"`
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath      string `envconfig:"DB_PATH" default:"data/triforge.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	CloudinaryURL       string `envconfig:"CLOUDINARY_URL"`
	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `envconfig:"CLOUDINARY_UPLOAD_FOLDER" default:"triforge/projects"`
	MaxUploadBytes      int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`

	CORSOrigins      []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	ContactRateLimit int      `envconfig:"CONTACT_RATE_LIMIT" default:"5"`
	LoginRateLimit   int      `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME"`

	SeedSegments string `envconfig:"SEED_SEGMENTS" default:"web:Web Development,mobile:Mobile Apps,design:UI/UX Design"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// Load reads .env (if any) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = asset.DefaultMaxBytes
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSOrigins = origins
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Cloudinary returns the asset host settings.
func (c *Config) Cloudinary() asset.CloudinaryConfig {
	return asset.CloudinaryConfig{
		URL:       c.CloudinaryURL,
		CloudName: c.CloudinaryCloudName,
		APIKey:    c.CloudinaryAPIKey,
		APISecret: c.CloudinaryAPISecret,
		Folder:    c.CloudinaryFolder,
	}
}

// AdminNamePtr returns the bootstrap admin name, or nil when unset.
func (c *Config) AdminNamePtr() *string {
	name := strings.TrimSpace(c.AdminName)
	if name == "" {
		return nil
	}
	return &name
}
