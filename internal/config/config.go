package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recmap/internal/blob"
	"github.com/roach88/recmap/internal/identity"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECMAP_"

// Config holds the settings shared by all commands.
type Config struct {
	// Owner names the principal owning private zones.
	Owner string `yaml:"owner"`

	// Validation is the record name validation mode, "strict" or "skip".
	Validation string `yaml:"validation"`

	// Database is the sqlite file holding local objects.
	Database string `yaml:"database"`

	// Schemas is a descriptor file or directory.
	Schemas string `yaml:"schemas"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Blob Blob `yaml:"blob"`
}

// Blob configures the asset payload store.
type Blob struct {
	Driver string `yaml:"driver"` // fs | s3 | memory
	Root   string `yaml:"root"`
	S3     S3     `yaml:"s3"`
}

// S3 mirrors blob.S3Config.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Prefix          string `yaml:"prefix"`
}

// Dir returns the XDG directory holding the config file.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "recmap")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Validation: identity.Strict.String(),
		Database:   filepath.Join(xdg.DataHome, "recmap", "recmap.db"),
		LogLevel:   "warn",
		Blob: Blob{
			Driver: string(blob.DriverFilesystem),
			Root:   filepath.Join(xdg.DataHome, "recmap", "blobs"),
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing default file is not an error; a missing explicit file is.
// Variables from a .env file in the working directory are loaded first, then
// RECMAP_* variables override file values:
//   - RECMAP_OWNER
//   - RECMAP_VALIDATION
//   - RECMAP_DATABASE
//   - RECMAP_SCHEMAS
//   - RECMAP_LOG_LEVEL
//   - RECMAP_BLOB_DRIVER, RECMAP_BLOB_ROOT
//   - RECMAP_S3_BUCKET, RECMAP_S3_REGION, RECMAP_S3_ENDPOINT, RECMAP_S3_PATH_STYLE,
//     RECMAP_S3_ACCESS_KEY_ID, RECMAP_S3_SECRET_ACCESS_KEY, RECMAP_S3_SESSION_TOKEN,
//     RECMAP_S3_PREFIX
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		slog.Debug("config loaded", "path", path)
	case os.IsNotExist(err) && !explicit:
		slog.Debug("no config file, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies RECMAP_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"OWNER":                &cfg.Owner,
		"VALIDATION":           &cfg.Validation,
		"DATABASE":             &cfg.Database,
		"SCHEMAS":              &cfg.Schemas,
		"LOG_LEVEL":            &cfg.LogLevel,
		"BLOB_DRIVER":          &cfg.Blob.Driver,
		"BLOB_ROOT":            &cfg.Blob.Root,
		"S3_BUCKET":            &cfg.Blob.S3.Bucket,
		"S3_REGION":            &cfg.Blob.S3.Region,
		"S3_ENDPOINT":          &cfg.Blob.S3.Endpoint,
		"S3_ACCESS_KEY_ID":     &cfg.Blob.S3.AccessKeyID,
		"S3_SECRET_ACCESS_KEY": &cfg.Blob.S3.SecretAccessKey,
		"S3_SESSION_TOKEN":     &cfg.Blob.S3.SessionToken,
		"S3_PREFIX":            &cfg.Blob.S3.Prefix,
	}
	for name, dst := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvPrefix + "S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sS3_PATH_STYLE: %w", EnvPrefix, err)
		}
		cfg.Blob.S3.PathStyle = b
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := identity.ParseValidation(c.Validation); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory, "":
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob: s3 driver requires a bucket")
		}
	default:
		return fmt.Errorf("blob: unknown driver %q", c.Blob.Driver)
	}
	return nil
}

// ValidationMode returns the parsed validation mode.
func (c *Config) ValidationMode() identity.Validation {
	v, _ := identity.ParseValidation(c.Validation)
	return v
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// BlobConfig converts the blob section for blob.Open.
func (c *Config) BlobConfig() blob.Config {
	s := c.Blob.S3
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		Root:   c.Blob.Root,
		S3: blob.S3Config{
			Bucket:          s.Bucket,
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			PathStyle:       s.PathStyle,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			SessionToken:    s.SessionToken,
			Prefix:          s.Prefix,
		},
	}
}

// Save writes cfg to path, creating the directory.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
