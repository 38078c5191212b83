// Package config loads wasteportal settings. Sources are applied in order:
// built-in defaults, an optional YAML file, an optional .env file and finally
// WASTEPORTAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by Storage.Driver.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Blob drivers accepted by Blob.Driver. BlobNone keeps photos inline.
const (
	BlobNone       = "none"
	BlobMemory     = "memory"
	BlobFilesystem = "fs"
	BlobS3         = "s3"
)

// Config is the complete service configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Blob    Blob    `yaml:"blob"`
	Auth    Auth    `yaml:"auth"`
	Rewards Rewards `yaml:"rewards"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"gin_mode"`
	// AllowedOrigins may open the event stream besides the serving host.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Storage selects and configures the key-value backend.
type Storage struct {
	Driver         string `yaml:"driver"`
	SQLitePath     string `yaml:"sqlite_path"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	RedisURL       string `yaml:"redis_url"`
	RedisNamespace string `yaml:"redis_namespace"`
	// MemoryQuota bounds the memory driver in bytes; 0 disables the bound.
	MemoryQuota int `yaml:"memory_quota"`
}

// Blob selects where report photos are kept.
type Blob struct {
	Driver      string `yaml:"driver"`
	FSRoot      string `yaml:"fs_root"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Auth configures credentials and the simulated latency of user actions.
type Auth struct {
	BcryptCost  int           `yaml:"bcrypt_cost"`
	LoginDelay  time.Duration `yaml:"login_delay"`
	SubmitDelay time.Duration `yaml:"submit_delay"`
	CookieName  string        `yaml:"cookie_name"`
}

// Rewards configures the resident wallet.
type Rewards struct {
	PointsPerVerifiedReport int64   `yaml:"points_per_verified_report"`
	BalancePerPoint         float64 `yaml:"balance_per_point"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:  Server{Addr: ":8080", GinMode: "release"},
		Storage: Storage{Driver: StorageSQLite, SQLitePath: "wasteportal.db", RedisNamespace: "wasteportal"},
		Blob:    Blob{Driver: BlobNone, FSRoot: "./blobdata", S3Region: "us-east-1"},
		Auth:    Auth{BcryptCost: 10, CookieName: "session"},
		Rewards: Rewards{PointsPerVerifiedReport: 10, BalancePerPoint: 100},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty), the .env file at envFile (skipped when empty or missing) and the
// process environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("WASTEPORTAL_ADDR", &c.Server.Addr)
	str("WASTEPORTAL_GIN_MODE", &c.Server.GinMode)
	str("WASTEPORTAL_STORAGE_DRIVER", &c.Storage.Driver)
	str("WASTEPORTAL_SQLITE_PATH", &c.Storage.SQLitePath)
	str("WASTEPORTAL_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("WASTEPORTAL_REDIS_URL", &c.Storage.RedisURL)
	str("WASTEPORTAL_REDIS_NAMESPACE", &c.Storage.RedisNamespace)
	str("WASTEPORTAL_BLOB_DRIVER", &c.Blob.Driver)
	str("WASTEPORTAL_BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("WASTEPORTAL_BLOB_S3_BUCKET", &c.Blob.S3Bucket)
	str("WASTEPORTAL_BLOB_S3_REGION", &c.Blob.S3Region)
	str("WASTEPORTAL_BLOB_S3_ENDPOINT", &c.Blob.S3Endpoint)
	str("WASTEPORTAL_COOKIE_NAME", &c.Auth.CookieName)

	if v, ok := lookup("WASTEPORTAL_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("WASTEPORTAL_BLOB_S3_PATH_STYLE"); ok && v != "" {
		c.Blob.S3PathStyle = strings.EqualFold(v, "true")
	}
	if v, ok := lookup("WASTEPORTAL_MEMORY_QUOTA"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WASTEPORTAL_MEMORY_QUOTA: %w", err)
		}
		c.Storage.MemoryQuota = n
	}
	if v, ok := lookup("WASTEPORTAL_BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WASTEPORTAL_BCRYPT_COST: %w", err)
		}
		c.Auth.BcryptCost = n
	}
	if v, ok := lookup("WASTEPORTAL_LOGIN_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WASTEPORTAL_LOGIN_DELAY: %w", err)
		}
		c.Auth.LoginDelay = d
	}
	if v, ok := lookup("WASTEPORTAL_SUBMIT_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WASTEPORTAL_SUBMIT_DELAY: %w", err)
		}
		c.Auth.SubmitDelay = d
	}
	if v, ok := lookup("WASTEPORTAL_POINTS_PER_VERIFIED_REPORT"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WASTEPORTAL_POINTS_PER_VERIFIED_REPORT: %w", err)
		}
		c.Rewards.PointsPerVerifiedReport = n
	}
	return nil
}

// Validate checks driver names and the settings each driver requires.
func (c Config) Validate() error {
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin mode %q", c.Server.GinMode)
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage driver redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case BlobNone, BlobMemory, BlobFilesystem:
	case BlobS3:
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("blob driver s3 requires s3_bucket")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost %d out of range 4..31", c.Auth.BcryptCost)
	}
	if c.Auth.LoginDelay < 0 || c.Auth.SubmitDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.Rewards.PointsPerVerifiedReport < 0 {
		return fmt.Errorf("points_per_verified_report must not be negative")
	}
	return nil
}
