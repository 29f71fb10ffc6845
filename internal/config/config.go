package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends understood by backends.Open.
const (
	BackendJSON     = "json"
	BackendBolt     = "bolt"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Patch modes for record updates.
const (
	PatchNested  = "nested"
	PatchLiteral = "literal"
)

type Config struct {
	Store   StoreConfig   `toml:"store"`
	HTTP    HTTPConfig    `toml:"http"`
	Logging LoggingConfig `toml:"logging"`
}

type StoreConfig struct {
	Backend     string         `toml:"backend"`
	DataDir     string         `toml:"data_dir"`
	Collections []string       `toml:"collections"`
	SeedFile    string         `toml:"seed_file"`
	PatchMode   string         `toml:"patch_mode"`
	Postgres    PostgresConfig `toml:"postgres"`
	S3          S3Config       `toml:"s3"`
}

type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

type S3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Prefix          string `toml:"prefix"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

type HTTPConfig struct {
	Listen          string   `toml:"listen"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	RateLimit       float64  `toml:"rate_limit"` // requests per second per client; 0 disables
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration wraps time.Duration so it can be written as "10s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   BackendJSON,
			DataDir:   "~/.artisanverse/data",
			PatchMode: PatchNested,
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "collections/",
			},
		},
		HTTP: HTTPConfig{
			Listen:          "127.0.0.1:5000",
			AllowedOrigins:  []string{"*"},
			RateLimit:       10,
			MaxBodyBytes:    10 << 20,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file and returns the parsed Config.
// If path is empty, the default location is tried and defaults are
// returned when it does not exist.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = expandHome("~/.artisanverse/config.toml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate reports every invalid field, each prefixed with its TOML path.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Backend)) {
	case BackendJSON, BackendBolt, BackendSQLite:
		if strings.TrimSpace(c.Store.DataDir) == "" {
			add("store.data_dir", "required for backend %q", c.Store.Backend)
		}
	case BackendPostgres, BackendMemory:
	case BackendS3:
		if strings.TrimSpace(c.Store.S3.Bucket) == "" {
			add("store.s3.bucket", "required for backend %q", c.Store.Backend)
		}
	default:
		add("store.backend", "unknown backend %q", c.Store.Backend)
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.PatchMode)) {
	case "", PatchNested, PatchLiteral:
	default:
		add("store.patch_mode", "unknown mode %q (want %s or %s)", c.Store.PatchMode, PatchNested, PatchLiteral)
	}

	seen := make(map[string]bool, len(c.Store.Collections))
	for i, name := range c.Store.Collections {
		field := fmt.Sprintf("store.collections[%d]", i)
		if err := validateCollectionName(name); err != nil {
			add(field, "%v", err)
			continue
		}
		if seen[name] {
			add(field, "duplicate collection %q", name)
		}
		seen[name] = true
	}

	if c.HTTP.Listen != "" {
		if err := validateListenAddr(c.HTTP.Listen); err != nil {
			add("http.listen", "%v", err)
		}
	}
	if c.HTTP.RateLimit < 0 {
		add("http.rate_limit", "must not be negative, got %v", c.HTTP.RateLimit)
	}
	if c.HTTP.MaxBodyBytes < 0 {
		add("http.max_body_bytes", "must not be negative, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.HTTP.ShutdownTimeout.Duration < 0 {
		add("http.shutdown_timeout", "must not be negative, got %s", c.HTTP.ShutdownTimeout)
	}

	if err := validateLogLevel(c.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "text", "json":
	default:
		add("logging.format", "unknown format %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}

func validateListenAddr(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errors.New("address is empty")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(host) == "" {
		return errors.New("host is empty")
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("port is empty")
	}
	return nil
}

func validateLogLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("unknown level %q", level)
}

func validateCollectionName(name string) error {
	if name == "" {
		return errors.New("name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
