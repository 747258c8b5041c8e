package config

import (
	"fmt"
	"strings"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, defaults applied
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStorageConfig() (*StorageData, error)
	GetSegmentationConfig() (*SegmentationData, error)

	IsReadOnly() bool
	Close() error
}

// NewProvider opens the configuration source for a backend type, "yaml" or "sqlite"
func NewProvider(backend, path string) (ConfigProvider, error) {
	switch backend {
	case "yaml":
		return NewYAMLProvider(path), nil
	case "sqlite":
		provider, err := NewSQLiteProvider(path)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", backend)
	}
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server       ServerData       `json:"server" yaml:"server"`
	Storage      StorageData      `json:"storage" yaml:"storage"`
	Segmentation SegmentationData `json:"segmentation" yaml:"segmentation"`
	Log          LogData          `json:"log" yaml:"log"`
}

// ServerData configures the REST API listener
type ServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	Cert        string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key         string `json:"key,omitempty" yaml:"key,omitempty"`
	EnableCORS  bool   `json:"enable_cors,omitempty" yaml:"enable-cors,omitempty"`
	MaxUploadMB int    `json:"max_upload_mb,omitempty" yaml:"max-upload-mb,omitempty"`
}

// StorageData selects the session store. Exactly one backend is used; SQLite
// wins when both are present.
type StorageData struct {
	SQLite   *SQLiteData   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Postgres *PostgresData `json:"postgres,omitempty" yaml:"postgres,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string" yaml:"connection-string"`
}

// SegmentationData holds the phase detection parameters
type SegmentationData struct {
	FPS float64 `json:"fps,omitempty" yaml:"fps,omitempty"`

	// SmoothingRadius is nil when unset; an explicit 0 disables smoothing
	SmoothingRadius    *float64 `json:"smoothing_radius,omitempty" yaml:"smoothing-radius,omitempty"`
	Detector           string   `json:"detector,omitempty" yaml:"detector,omitempty"`
	MinSamplesPerPhase int      `json:"min_samples_per_phase,omitempty" yaml:"min-samples-per-phase,omitempty"`
	DefaultPhases      int      `json:"default_phases,omitempty" yaml:"default-phases,omitempty"`
	PhaseNames         []string `json:"phase_names,omitempty" yaml:"phase-names,omitempty"`
}

// LogData configures the process logger
type LogData struct {
	Debug      bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max-size-mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max-backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max-age-days,omitempty"`
}

const (
	DefaultPort               = 8080
	DefaultMaxUploadMB        = 32
	DefaultFPS                = 30.0
	DefaultSmoothingRadius    = 6.0
	DefaultDetector           = "fixed"
	DefaultMinSamplesPerPhase = 10
	DefaultPhases             = 3
	DefaultSQLitePath         = "rehabtrack.db"
	DefaultLogMaxSizeMB       = 100
)

// ApplyDefaults fills every unset field
func (c *ConfigData) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = DefaultMaxUploadMB
	}

	if c.Storage.SQLite == nil && c.Storage.Postgres == nil {
		c.Storage.SQLite = &SQLiteData{Path: DefaultSQLitePath}
	}

	s := &c.Segmentation
	if s.FPS == 0 {
		s.FPS = DefaultFPS
	}
	if s.SmoothingRadius == nil {
		r := DefaultSmoothingRadius
		s.SmoothingRadius = &r
	}
	if s.Detector == "" {
		s.Detector = DefaultDetector
	}
	if s.MinSamplesPerPhase == 0 {
		s.MinSamplesPerPhase = DefaultMinSamplesPerPhase
	}
	if s.DefaultPhases == 0 {
		s.DefaultPhases = DefaultPhases
	}

	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
}

// Validate checks a configuration with defaults applied
func (c *ConfigData) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if (c.Server.Cert == "") != (c.Server.Key == "") {
		return fmt.Errorf("server cert and key must be set together")
	}

	if c.Storage.SQLite != nil && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("sqlite storage requires a path")
	}
	if c.Storage.SQLite == nil && c.Storage.Postgres != nil && c.Storage.Postgres.ConnectionString == "" {
		return fmt.Errorf("postgres storage requires a connection string")
	}

	s := c.Segmentation
	if s.FPS <= 0 {
		return fmt.Errorf("segmentation fps must be positive, got %g", s.FPS)
	}
	if s.SmoothingRadius != nil && *s.SmoothingRadius < 0 {
		return fmt.Errorf("segmentation smoothing radius must not be negative, got %g", *s.SmoothingRadius)
	}
	switch strings.ToLower(s.Detector) {
	case "fixed", "adaptive":
	default:
		return fmt.Errorf("unknown segmentation detector %q", s.Detector)
	}
	if s.DefaultPhases < 1 || s.DefaultPhases > 10 {
		return fmt.Errorf("default phases must be between 1 and 10, got %d", s.DefaultPhases)
	}

	return nil
}

// loaded applies defaults and validates, the common tail of every LoadConfig
func loaded(c *ConfigData) (*ConfigData, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
