package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chrissnell/rehabtrack/internal/log"
	"github.com/chrissnell/rehabtrack/internal/storage"
	"github.com/chrissnell/rehabtrack/pkg/config"
	"github.com/chrissnell/rehabtrack/pkg/migrate"
	_ "modernc.org/sqlite"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "Path to the SQLite session database")
		cfgFile    = flag.String("config", "", "Read the session database path from this configuration file")
		cfgBackend = flag.String("config-backend", "yaml", "Configuration backend: yaml or sqlite")
		command    = flag.String("command", "status", "Migration command: up, to, version, status")
		target     = flag.Int("target", -1, "Target version for the to command")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Usage = showHelp
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	path, err := resolvePath(*dbPath, *cfgFile, *cfgBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		showHelp()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	migrator := storage.NewMigrator(db, log.GetSugaredLogger())
	if err := runCommand(os.Stdout, migrator, *command, *target); err != nil {
		log.Fatalf("migration command %s failed: %v", *command, err)
	}
}

// resolvePath prefers an explicit -db path over the configured SQLite store
func resolvePath(dbPath, cfgFile, cfgBackend string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfgFile == "" {
		return "", errors.New("one of -db or -config is required")
	}

	provider, err := config.NewProvider(cfgBackend, cfgFile)
	if err != nil {
		return "", err
	}
	defer provider.Close()

	st, err := provider.GetStorageConfig()
	if err != nil {
		return "", err
	}
	if st.SQLite == nil {
		return "", errors.New("configuration does not use the SQLite session store")
	}
	return st.SQLite.Path, nil
}

func runCommand(w io.Writer, migrator *migrate.Migrator, command string, target int) error {
	switch command {
	case "up":
		if err := migrator.MigrateUp(); err != nil {
			return err
		}
	case "to":
		if target < 0 {
			return errors.New("-target is required for the to command")
		}
		if err := migrator.MigrateTo(target); err != nil {
			return err
		}
	case "version":
		version, err := migrator.CurrentVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Current version: %d\n", version)
		return nil
	case "status":
		return showStatus(w, migrator)
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	fmt.Fprintln(w, "Migration completed successfully")
	return nil
}

func showStatus(w io.Writer, migrator *migrate.Migrator) error {
	current, err := migrator.CurrentVersion()
	if err != nil {
		return err
	}
	pending, err := migrator.Pending()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Current version: %d\n", current)
	fmt.Fprintf(w, "Pending migrations: %d\n", len(pending))
	for _, m := range pending {
		fmt.Fprintf(w, "  %d: %s\n", m.Version, m.Name)
	}
	return nil
}

func showHelp() {
	fmt.Println("Session store migration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate -db <sessions.db> [-command up|to|version|status] [-target N]")
	fmt.Println("  migrate -config <config.yaml> -command status")
	fmt.Println()
	flag.PrintDefaults()
}
