// Package config loads sopflow settings from a YAML file and SOPFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "sopflow.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Audit drivers.
const (
	AuditNone   = "none"
	AuditMemory = "memory"
	AuditSQLite = "sqlite"
)

// Config is the full runtime configuration.
type Config struct {
	DataDir        string `yaml:"dataDir" validate:"required"`
	DefinitionsDir string `yaml:"definitionsDir" validate:"required"`
	LogLevel       string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`

	Store    StoreConfig    `yaml:"store"`
	Audit    AuditConfig    `yaml:"audit"`
	HTTP     HTTPConfig     `yaml:"http"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Security SecurityConfig `yaml:"security"`
	Catalog  domain.Catalog `yaml:"catalog"`
}

// StoreConfig selects where cases live.
type StoreConfig struct {
	Backend string      `yaml:"backend" validate:"oneof=memory file redis"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis store and distributed locker.
type RedisConfig struct {
	Address  string        `yaml:"address" validate:"required_if=Enabled true"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
	Lock     bool          `yaml:"lock"`

	// Enabled is derived from the store backend.
	Enabled bool `yaml:"-"`
}

// AuditConfig selects the audit log.
type AuditConfig struct {
	Driver string `yaml:"driver" validate:"oneof=none memory sqlite"`
	Path   string `yaml:"path"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// RuntimeConfig toggles optional transition checks.
type RuntimeConfig struct {
	EnforceRoles    bool `yaml:"enforceRoles"`
	CheckFieldTypes bool `yaml:"checkFieldTypes"`
}

// SecurityConfig configures the storage middlewares.
type SecurityConfig struct {
	// EncryptionKey is a hex or base64 32-byte key. Empty disables encryption.
	EncryptionKey string   `yaml:"encryptionKey"`
	FallbackKeys  []string `yaml:"fallbackKeys"`
	// PIIFields are regular expressions matched against audit field names.
	PIIFields []string `yaml:"piiFields"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DataDir:        ".sopflow",
		DefinitionsDir: "definitions",
		LogLevel:       "info",
		Store: StoreConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Address: "localhost:6379",
				Prefix:  "sopflow:case:",
			},
		},
		Audit: AuditConfig{
			Driver: AuditSQLite,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Runtime: RuntimeConfig{
			EnforceRoles: true,
		},
	}
}

// CasesDir is where the file backend keeps cases.
func (c Config) CasesDir() string {
	return filepath.Join(c.DataDir, "cases")
}

// AuditPath is the SQLite file of the audit log.
func (c Config) AuditPath() string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	return filepath.Join(c.DataDir, "audit.db")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads path (or DefaultFile when it exists), applies SOPFLOW_* environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file is fine.
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	c.Store.Redis.Enabled = c.Store.Backend == BackendRedis
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Environment variable names.
const (
	EnvDataDir         = "SOPFLOW_DATA_DIR"
	EnvDefinitionsDir  = "SOPFLOW_DEFINITIONS_DIR"
	EnvLogLevel        = "SOPFLOW_LOG_LEVEL"
	EnvStore           = "SOPFLOW_STORE"
	EnvRedisAddr       = "SOPFLOW_REDIS_ADDR"
	EnvRedisPassword   = "SOPFLOW_REDIS_PASSWORD"
	EnvRedisDB         = "SOPFLOW_REDIS_DB"
	EnvRedisTTL        = "SOPFLOW_REDIS_TTL"
	EnvRedisLock       = "SOPFLOW_REDIS_LOCK"
	EnvAuditDriver     = "SOPFLOW_AUDIT_DRIVER"
	EnvAuditPath       = "SOPFLOW_AUDIT_PATH"
	EnvPort            = "SOPFLOW_PORT"
	EnvEncryptionKey   = "SOPFLOW_ENCRYPTION_KEY"
	EnvEnforceRoles    = "SOPFLOW_ENFORCE_ROLES"
	EnvCheckFieldTypes = "SOPFLOW_CHECK_FIELD_TYPES"
)

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str(EnvDataDir, &cfg.DataDir)
	str(EnvDefinitionsDir, &cfg.DefinitionsDir)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvStore, &cfg.Store.Backend)
	str(EnvRedisAddr, &cfg.Store.Redis.Address)
	str(EnvRedisPassword, &cfg.Store.Redis.Password)
	str(EnvAuditDriver, &cfg.Audit.Driver)
	str(EnvAuditPath, &cfg.Audit.Path)
	str(EnvEncryptionKey, &cfg.Security.EncryptionKey)

	if v, ok := lookup(EnvRedisDB); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		cfg.Store.Redis.DB = n
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.HTTP.Port = n
	}
	if v, ok := lookup(EnvRedisTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisTTL, err)
		}
		cfg.Store.Redis.TTL = d
	}

	for name, dst := range map[string]*bool{
		EnvRedisLock:       &cfg.Store.Redis.Lock,
		EnvEnforceRoles:    &cfg.Runtime.EnforceRoles,
		EnvCheckFieldTypes: &cfg.Runtime.CheckFieldTypes,
	} {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}
	return nil
}
