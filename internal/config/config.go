// Package config loads process configuration from the environment once at
// startup. The resulting Config is passed to constructors and never mutated.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const EnvProduction = "production"

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"JWT_EXPIRES_IN" envDefault:"7d"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`

	// Empty selects the in-memory store, which is refused in production.
	DatabaseURL string `env:"DATABASE_URL"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	Storage StorageConfig `envPrefix:"R2_"`
}

// StorageConfig points at an S3-compatible bucket (Cloudflare R2 in
// deployment) for incident attachments.
type StorageConfig struct {
	Endpoint      string `env:"ENDPOINT"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	Bucket        string `env:"BUCKET_NAME"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

func (s StorageConfig) Enabled() bool { return s.Bucket != "" }

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Load parses the environment and validates the result. A missing
// JWT_SECRET is an error; callers must not start serving without one.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	opts.FuncMap = map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(time.Duration(0)): func(v string) (interface{}, error) {
			return ParseDuration(v)
		},
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.BcryptCost < 10 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 10 and 31, got %d", c.BcryptCost))
	}
	if c.IsProduction() && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	if c.Storage.Enabled() && (c.Storage.Endpoint == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		errs = append(errs, errors.New("R2_ENDPOINT, R2_ACCESS_KEY and R2_SECRET_KEY are required when R2_BUCKET_NAME is set"))
	}
	return errors.Join(errs...)
}

// ParseDuration accepts Go durations ("36h", "90m") and whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
