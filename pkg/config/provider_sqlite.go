package config

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
	section    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (section, key)
)`

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Settings live in a single section/key/value table; absent keys take defaults.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

type setting struct {
	set func(c *ConfigData, v string) error
	get func(c *ConfigData) (string, bool)
}

// settings maps "section.key" to its field on ConfigData
var settings = map[string]setting{
	"server.listen_addr": strField(func(c *ConfigData) *string { return &c.Server.ListenAddr }),
	"server.port":        intField(func(c *ConfigData) *int { return &c.Server.Port }),
	"server.cert":        strField(func(c *ConfigData) *string { return &c.Server.Cert }),
	"server.key":         strField(func(c *ConfigData) *string { return &c.Server.Key }),
	"server.enable_cors": boolField(func(c *ConfigData) *bool { return &c.Server.EnableCORS }),
	"server.max_upload_mb": intField(func(c *ConfigData) *int {
		return &c.Server.MaxUploadMB
	}),

	"storage.sqlite_path": {
		set: func(c *ConfigData, v string) error {
			c.Storage.SQLite = &SQLiteData{Path: v}
			return nil
		},
		get: func(c *ConfigData) (string, bool) {
			if c.Storage.SQLite == nil {
				return "", false
			}
			return c.Storage.SQLite.Path, true
		},
	},
	"storage.postgres_connection_string": {
		set: func(c *ConfigData, v string) error {
			c.Storage.Postgres = &PostgresData{ConnectionString: v}
			return nil
		},
		get: func(c *ConfigData) (string, bool) {
			if c.Storage.Postgres == nil {
				return "", false
			}
			return c.Storage.Postgres.ConnectionString, true
		},
	},

	"segmentation.fps": floatField(func(c *ConfigData) *float64 { return &c.Segmentation.FPS }),
	"segmentation.smoothing_radius": {
		set: func(c *ConfigData, v string) error {
			r, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			c.Segmentation.SmoothingRadius = &r
			return nil
		},
		get: func(c *ConfigData) (string, bool) {
			if c.Segmentation.SmoothingRadius == nil {
				return "", false
			}
			return strconv.FormatFloat(*c.Segmentation.SmoothingRadius, 'g', -1, 64), true
		},
	},
	"segmentation.detector": strField(func(c *ConfigData) *string { return &c.Segmentation.Detector }),
	"segmentation.min_samples_per_phase": intField(func(c *ConfigData) *int {
		return &c.Segmentation.MinSamplesPerPhase
	}),
	"segmentation.default_phases": intField(func(c *ConfigData) *int { return &c.Segmentation.DefaultPhases }),
	"segmentation.phase_names": {
		set: func(c *ConfigData, v string) error {
			c.Segmentation.PhaseNames = nil
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					c.Segmentation.PhaseNames = append(c.Segmentation.PhaseNames, name)
				}
			}
			return nil
		},
		get: func(c *ConfigData) (string, bool) {
			return strings.Join(c.Segmentation.PhaseNames, ","), len(c.Segmentation.PhaseNames) > 0
		},
	},

	"log.debug":        boolField(func(c *ConfigData) *bool { return &c.Log.Debug }),
	"log.file":         strField(func(c *ConfigData) *string { return &c.Log.File }),
	"log.max_size_mb":  intField(func(c *ConfigData) *int { return &c.Log.MaxSizeMB }),
	"log.max_backups":  intField(func(c *ConfigData) *int { return &c.Log.MaxBackups }),
	"log.max_age_days": intField(func(c *ConfigData) *int { return &c.Log.MaxAgeDays }),
}

func strField(field func(*ConfigData) *string) setting {
	return setting{
		set: func(c *ConfigData, v string) error { *field(c) = v; return nil },
		get: func(c *ConfigData) (string, bool) { return *field(c), *field(c) != "" },
	}
}

func intField(field func(*ConfigData) *int) setting {
	return setting{
		set: func(c *ConfigData, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
		get: func(c *ConfigData) (string, bool) { return strconv.Itoa(*field(c)), *field(c) != 0 },
	}
}

func floatField(field func(*ConfigData) *float64) setting {
	return setting{
		set: func(c *ConfigData, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*field(c) = f
			return nil
		},
		get: func(c *ConfigData) (string, bool) {
			return strconv.FormatFloat(*field(c), 'g', -1, 64), *field(c) != 0
		},
	}
}

func boolField(field func(*ConfigData) *bool) setting {
	return setting{
		set: func(c *ConfigData, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
		get: func(c *ConfigData) (string, bool) { return strconv.FormatBool(*field(c)), *field(c) },
	}
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	rows, err := s.db.Query(`SELECT section, key, value FROM settings ORDER BY section, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	config := &ConfigData{}
	for rows.Next() {
		var section, key, value string
		if err := rows.Scan(&section, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}

		name := section + "." + key
		st, ok := settings[name]
		if !ok {
			return nil, fmt.Errorf("unknown setting %s", name)
		}
		if err := st.set(config, value); err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: %w", value, name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return loaded(config)
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// GetSegmentationConfig returns the phase detection parameters from the database
func (s *SQLiteProvider) GetSegmentationConfig() (*SegmentationData, error) {
	config, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Segmentation, nil
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SetValue stores one setting, e.g. SetValue("segmentation", "fps", "60")
func (s *SQLiteProvider) SetValue(section, key, value string) error {
	name := section + "." + key
	st, ok := settings[name]
	if !ok {
		return fmt.Errorf("unknown setting %s", name)
	}
	if err := st.set(&ConfigData{}, value); err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, name, err)
	}

	_, err := s.db.Exec(`
		INSERT INTO settings (section, key, value, updated_at) VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (section, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		section, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", name, err)
	}
	return nil
}

// SaveConfig replaces the stored settings with every non-zero field of configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	// Start transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear existing settings: %w", err)
	}

	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := settings[name].get(configData)
		if !ok {
			continue
		}
		section, key, _ := strings.Cut(name, ".")
		if _, err := tx.Exec(`INSERT INTO settings (section, key, value) VALUES (?, ?, ?)`, section, key, value); err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", name, err)
		}
	}

	return tx.Commit()
}
