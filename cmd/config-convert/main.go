package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrissnell/rehabtrack/pkg/config"
	"github.com/google/go-cmp/cmp"
)

type options struct {
	yamlPath   string
	sqlitePath string
	force      bool
	dryRun     bool
	verify     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.yamlPath, "yaml", "", "YAML configuration to read (required)")
	flag.StringVar(&opts.sqlitePath, "sqlite", "", "SQLite configuration database to write (required)")
	flag.BoolVar(&opts.force, "force", false, "Replace an existing SQLite database")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Print the parsed configuration without writing anything")
	flag.BoolVar(&opts.verify, "verify", true, "Reload the written configuration and compare it with the YAML source")
	flag.Parse()

	if opts.yamlPath == "" || opts.sqlitePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := convert(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errTargetExists = errors.New("target database already exists; use -force to replace it")

// convert copies the YAML configuration at opts.yamlPath into a SQLite
// configuration database
func convert(w io.Writer, opts options) error {
	cfg, err := config.NewYAMLProvider(opts.yamlPath).LoadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Loaded %s\n", opts.yamlPath)

	if opts.dryRun {
		printSummary(w, cfg)
		fmt.Fprintln(w, "Dry run: nothing written")
		return nil
	}

	if _, err := os.Stat(opts.sqlitePath); err == nil {
		if !opts.force {
			return fmt.Errorf("%s: %w", opts.sqlitePath, errTargetExists)
		}
		if err := os.Remove(opts.sqlitePath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", opts.sqlitePath, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(opts.sqlitePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	provider, err := config.NewSQLiteProvider(opts.sqlitePath)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := provider.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(w, "Wrote %s\n", opts.sqlitePath)

	if opts.verify {
		stored, err := provider.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to reload configuration: %w", err)
		}
		if diff := cmp.Diff(cfg, stored); diff != "" {
			return fmt.Errorf("stored configuration differs from YAML (-yaml +sqlite):\n%s", diff)
		}
		fmt.Fprintln(w, "Verified: stored configuration matches YAML")
	}

	fmt.Fprintf(w, "Start the server with: -config-backend sqlite -config %s\n", opts.sqlitePath)
	return nil
}

func printSummary(w io.Writer, cfg *config.ConfigData) {
	srv := cfg.Server
	fmt.Fprintf(w, "server      %s:%d cors=%v max-upload=%dMB\n", srv.ListenAddr, srv.Port, srv.EnableCORS, srv.MaxUploadMB)
	if cfg.Storage.SQLite != nil {
		fmt.Fprintf(w, "storage     sqlite %s\n", cfg.Storage.SQLite.Path)
	}
	if cfg.Storage.Postgres != nil {
		fmt.Fprintln(w, "storage     postgres")
	}
	seg := cfg.Segmentation
	fmt.Fprintf(w, "segmenter   %s detector, %.1f fps, %d phases %v\n", seg.Detector, seg.FPS, seg.DefaultPhases, seg.PhaseNames)
}
