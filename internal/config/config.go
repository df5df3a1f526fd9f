package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	AvatarBackendDatabase = "database"
	AvatarBackendMinio    = "minio"
)

// Config contains server configuration parameters.
type Config struct {
	HTTP     HTTP            `envPrefix:"HTTP_"`
	Store    string          `env:"STORE_DRIVER" envDefault:"postgres"`
	Database database.Config
	Auth     Auth
	Avatar   Avatar  `envPrefix:"AVATAR_"`
	Storage  Storage `envPrefix:"MINIO_"`
	Mail     Mail    `envPrefix:"MAILGUN_"`
	Log      utilities.LogConfig
	NodeID   int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
}

// HTTP contains listener parameters.
type HTTP struct {
	Addr         string        `env:"ADDR" envDefault:"0.0.0.0:8431"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
}

// Auth holds the session signing key and the password work factor.
type Auth struct {
	JWTKey     string `env:"JWT_KEY"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"8"`
}

// Avatar contains upload limits and where processed images live.
type Avatar struct {
	MaxBytes int64  `env:"MAX_BYTES" envDefault:"1000000"`
	Size     int    `env:"SIZE" envDefault:"250"`
	Backend  string `env:"BACKEND" envDefault:"database"`
}

// Storage contains object storage parameters.
type Storage struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"task-avatars"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Mail contains Mailgun credentials. An empty APIKey selects the log mailer.
type Mail struct {
	APIKey string `env:"API_KEY"`
	Domain string `env:"DOMAIN"`
	From   string `env:"FROM" envDefault:"tasks@example.com"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreDriverPostgres:
		if c.Auth.JWTKey == "" {
			return errors.New("JWT_KEY is required with the postgres store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store)
	}
	switch c.Avatar.Backend {
	case AvatarBackendDatabase, AvatarBackendMinio:
	default:
		return fmt.Errorf("unknown AVATAR_BACKEND %q", c.Avatar.Backend)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range", c.Auth.BcryptCost)
	}
	if c.Avatar.MaxBytes <= 0 || c.Avatar.Size <= 0 {
		return errors.New("avatar limits must be positive")
	}
	return nil
}
